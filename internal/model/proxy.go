package model

import "strconv"

type Proto string

const (
	ProtoSOCKS  Proto = "SOCKS"
	ProtoSOCKS5 Proto = "SOCKS5"
	ProtoPROXY  Proto = "PROXY"
)

// Protos lists the accepted proto values in their canonical order.
var Protos = []Proto{ProtoSOCKS, ProtoSOCKS5, ProtoPROXY}

type Domain struct {
	Name string `json:"name"`
	Tag  string `json:"tag,omitempty"` // label only; no effect on routing
}

// Proxy is one upstream entry of the registry.
//
// Domains keeps insertion order: the PAC script walks it first-match-wins.
type Proxy struct {
	ID      string   `json:"id"`
	Proto   Proto    `json:"proto"`
	Host    string   `json:"host"`
	Port    int      `json:"port"`
	Domains []Domain `json:"domains"`
}

// ProxyString is the value a PAC script returns for this proxy, e.g. "SOCKS5 10.0.0.1:1080".
func (p Proxy) ProxyString() string {
	return string(p.Proto) + " " + p.Host + ":" + strconv.Itoa(p.Port)
}

func (p Proxy) Clone() Proxy {
	out := p
	out.Domains = make([]Domain, len(p.Domains))
	copy(out.Domains, p.Domains)
	return out
}

// HasDomain reports whether name is already listed on this proxy.
func (p Proxy) HasDomain(name string) bool {
	return p.DomainIndex(name) >= 0
}

func (p Proxy) DomainIndex(name string) int {
	for i, d := range p.Domains {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// ProxyPatch is a partial update. Nil fields are left untouched; ID is immutable.
type ProxyPatch struct {
	Proto   *Proto    `json:"proto,omitempty"`
	Host    *string   `json:"host,omitempty"`
	Port    *int      `json:"port,omitempty"`
	Domains *[]Domain `json:"domains,omitempty"`
}

// Registry is the unit of persistence: the full list of proxies in listing order.
type Registry struct {
	Proxies []Proxy `json:"proxies"`
}

// Clone returns a deep copy that shares no slices with r.
func (r Registry) Clone() Registry {
	out := Registry{Proxies: make([]Proxy, len(r.Proxies))}
	for i, p := range r.Proxies {
		out.Proxies[i] = p.Clone()
	}
	return out
}

func (r Registry) ProxyIndex(id string) int {
	for i, p := range r.Proxies {
		if p.ID == id {
			return i
		}
	}
	return -1
}
