package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"

	"github.com/John-Robertt/pacservice-go/internal/model"
)

// On-disk shapes are decoded loosely so that one bad entry does not cost the
// whole file.
type diskRegistry struct {
	Proxies []json.RawMessage `json:"proxies"`
}

type diskDomain struct {
	Name *string         `json:"name"`
	Tag  json.RawMessage `json:"tag"`
}

func (s *Store) loadFromDisk() error {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("registry file not found, starting empty", slog.String("path", s.path))
		} else {
			s.logger.Warn("registry file unreadable, starting empty", slog.String("path", s.path), slog.Any("error", err))
		}
		return nil
	}

	reg, dropped, err := decodeRegistry(data)
	if err != nil {
		s.logger.Warn("registry file corrupt, starting empty", slog.String("path", s.path), slog.Any("error", err))
		return nil
	}
	if dropped > 0 {
		s.logger.Debug("dropped malformed registry entries", slog.String("path", s.path), slog.Int("count", dropped))
	}
	s.publish(reg)
	s.logger.Info("registry loaded", slog.String("path", s.path), slog.Int("proxies", len(reg.Proxies)))
	return nil
}

// decodeRegistry parses the registry file. Proxy entries that are not objects,
// lack a usable string id or repeat an earlier id are dropped. Other proxy
// fields are taken when they have the expected type and zeroed otherwise. Domain
// entries that are not objects, lack a usable string name or repeat a name on
// the same proxy are dropped. dropped counts every dropped entry, including a
// domains value that is not an array.
func decodeRegistry(data []byte) (reg model.Registry, dropped int, err error) {
	var raw diskRegistry
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Registry{}, 0, err
	}

	reg.Proxies = make([]model.Proxy, 0, len(raw.Proxies))
	ids := make(map[string]struct{}, len(raw.Proxies))
	for _, rp := range raw.Proxies {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(rp, &fields); err != nil || fields == nil {
			dropped++
			continue
		}
		var id string
		if err := json.Unmarshal(fields["id"], &id); err != nil || strings.TrimSpace(id) == "" {
			dropped++
			continue
		}
		if _, ok := ids[id]; ok {
			dropped++
			continue
		}
		ids[id] = struct{}{}

		p := model.Proxy{ID: id}
		_ = json.Unmarshal(fields["host"], &p.Host)
		var proto string
		if json.Unmarshal(fields["proto"], &proto) == nil {
			p.Proto = model.Proto(proto)
		}
		p.Port = decodePort(fields["port"])

		var domains []json.RawMessage
		if rd, ok := fields["domains"]; ok && !isNull(rd) {
			if err := json.Unmarshal(rd, &domains); err != nil {
				dropped++
			}
		}
		p.Domains = make([]model.Domain, 0, len(domains))
		for _, rd := range domains {
			d, ok := decodeDomain(rd)
			if !ok || p.HasDomain(d.Name) {
				dropped++
				continue
			}
			p.Domains = append(p.Domains, d)
		}
		reg.Proxies = append(reg.Proxies, p)
	}
	return reg, dropped, nil
}

// decodePort accepts a JSON number or a string holding a decimal integer.
func decodePort(raw json.RawMessage) int {
	var n int
	if json.Unmarshal(raw, &n) == nil {
		return n
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return 0
}

func decodeDomain(raw json.RawMessage) (model.Domain, bool) {
	var dd diskDomain
	if err := json.Unmarshal(raw, &dd); err != nil || dd.Name == nil {
		return model.Domain{}, false
	}
	name := domainKey(*dd.Name)
	if name == "" {
		return model.Domain{}, false
	}
	// Non-string tags are dropped, the entry is kept.
	var tag string
	if len(dd.Tag) > 0 {
		_ = json.Unmarshal(dd.Tag, &tag)
	}
	return model.Domain{Name: name, Tag: tag}, true
}

// domainKey is the form domain names are stored and matched under. Names the
// canonical mapping rejects are only trimmed and lowercased.
func domainKey(name string) string {
	if canonical, err := model.CanonicalDomainName(name); err == nil {
		return canonical
	}
	return strings.ToLower(strings.TrimSpace(name))
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
