package store

import (
	"context"
	"slices"
	"strings"

	"github.com/John-Robertt/pacservice-go/internal/model"
)

// AddProxy appends p to the registry. Domains are normalized; a repeated name
// keeps its first occurrence.
func (s *Store) AddProxy(ctx context.Context, p model.Proxy) (model.Proxy, error) {
	return commit(ctx, s, "add_proxy", func(reg *model.Registry) (model.Proxy, error) {
		p.Host = strings.TrimSpace(p.Host)
		if err := p.Validate(); err != nil {
			return model.Proxy{}, err
		}
		domains, err := model.NormalizeDomains(p.Domains)
		if err != nil {
			return model.Proxy{}, err
		}
		if reg.ProxyIndex(p.ID) >= 0 {
			return model.Proxy{}, proxyConflict(p.ID)
		}
		p.Domains = domains
		reg.Proxies = append(reg.Proxies, p)
		return p.Clone(), nil
	})
}

// UpdateProxy applies the non-nil fields of patch. A patched domain list
// replaces the old one wholesale.
func (s *Store) UpdateProxy(ctx context.Context, id string, patch model.ProxyPatch) (model.Proxy, error) {
	return commit(ctx, s, "update_proxy", func(reg *model.Registry) (model.Proxy, error) {
		i := reg.ProxyIndex(id)
		if i < 0 {
			return model.Proxy{}, proxyNotFound(id)
		}
		if err := patch.Validate(); err != nil {
			return model.Proxy{}, err
		}

		p := &reg.Proxies[i]
		if patch.Proto != nil {
			p.Proto = *patch.Proto
		}
		if patch.Host != nil {
			p.Host = strings.TrimSpace(*patch.Host)
		}
		if patch.Port != nil {
			p.Port = *patch.Port
		}
		if patch.Domains != nil {
			domains, err := model.NormalizeDomains(*patch.Domains)
			if err != nil {
				return model.Proxy{}, err
			}
			p.Domains = domains
		}
		return p.Clone(), nil
	})
}

func (s *Store) DeleteProxy(ctx context.Context, id string) (bool, error) {
	return commit(ctx, s, "delete_proxy", func(reg *model.Registry) (bool, error) {
		i := reg.ProxyIndex(id)
		if i < 0 {
			return false, proxyNotFound(id)
		}
		reg.Proxies = slices.Delete(reg.Proxies, i, i+1)
		return true, nil
	})
}

// AddDomain appends d to the proxy's domain list. Adding a name that is
// already listed changes nothing and returns the stored entry.
func (s *Store) AddDomain(ctx context.Context, id string, d model.Domain) (model.Domain, error) {
	return commit(ctx, s, "add_domain", func(reg *model.Registry) (model.Domain, error) {
		i := reg.ProxyIndex(id)
		if i < 0 {
			return model.Domain{}, proxyNotFound(id)
		}
		nd, err := model.NormalizeDomain(d)
		if err != nil {
			return model.Domain{}, err
		}
		p := &reg.Proxies[i]
		if j := p.DomainIndex(nd.Name); j >= 0 {
			return p.Domains[j], nil
		}
		p.Domains = append(p.Domains, nd)
		return nd, nil
	})
}

// RemoveDomain drops name from the proxy. Removing a name that is not listed
// succeeds; the result reports whether anything was removed.
func (s *Store) RemoveDomain(ctx context.Context, id, name string) (bool, error) {
	return commit(ctx, s, "remove_domain", func(reg *model.Registry) (bool, error) {
		i := reg.ProxyIndex(id)
		if i < 0 {
			return false, proxyNotFound(id)
		}
		p := &reg.Proxies[i]
		j, err := findDomain(p, name)
		if err != nil {
			return false, err
		}
		if j < 0 {
			return false, nil
		}
		p.Domains = slices.Delete(p.Domains, j, j+1)
		return true, nil
	})
}

// UpdateDomainTag replaces the tag of an existing domain. An empty tag clears it.
func (s *Store) UpdateDomainTag(ctx context.Context, id, name, tag string) (model.Domain, error) {
	return commit(ctx, s, "update_domain_tag", func(reg *model.Registry) (model.Domain, error) {
		i := reg.ProxyIndex(id)
		if i < 0 {
			return model.Domain{}, proxyNotFound(id)
		}
		p := &reg.Proxies[i]
		j, err := findDomain(p, name)
		if err != nil {
			return model.Domain{}, err
		}
		if j < 0 {
			return model.Domain{}, domainNotFound(id, name)
		}
		p.Domains[j].Tag = tag
		return p.Domains[j], nil
	})
}

// findDomain locates name on p, trying the canonical form first and the
// trimmed input second so entries loaded from older files still match.
func findDomain(p *model.Proxy, name string) (int, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		_, err := model.CanonicalDomainName(trimmed)
		return -1, err
	}
	if j := p.DomainIndex(domainKey(trimmed)); j >= 0 {
		return j, nil
	}
	return p.DomainIndex(trimmed), nil
}
