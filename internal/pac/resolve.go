package pac

import (
	"strings"

	"github.com/John-Robertt/pacservice-go/internal/model"
)

// FindProxy evaluates the policy Generate encodes: groups in listing order,
// domains in listing order, first dnsDomainIs match wins, Direct otherwise.
func FindProxy(reg model.Registry, host string) string {
	for _, p := range reg.Proxies {
		for _, d := range p.Domains {
			if dnsDomainIs(host, d.Name) {
				return p.ProxyString()
			}
		}
	}
	return Direct
}

// dnsDomainIs mirrors the PAC builtin, which is a plain suffix test.
func dnsDomainIs(host, domain string) bool {
	return strings.HasSuffix(host, domain)
}
