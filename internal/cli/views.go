package cli

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/pacservice-go/internal/model"
)

// Text renderings for command payloads. The view types share their
// underlying struct tags, so JSON output is unchanged.

type proxyView model.Proxy

func (p proxyView) String() string {
	mp := model.Proxy(p)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\t%s", mp.ID, mp.ProxyString())
	for _, d := range mp.Domains {
		b.WriteString("\n  ")
		b.WriteString(domainView(d).String())
	}
	return b.String()
}

type proxyListView []model.Proxy

func (l proxyListView) String() string {
	if len(l) == 0 {
		return "(no proxies)"
	}
	parts := make([]string, len(l))
	for i, p := range l {
		parts[i] = proxyView(p).String()
	}
	return strings.Join(parts, "\n")
}

type domainView model.Domain

func (d domainView) String() string {
	if d.Tag == "" {
		return d.Name
	}
	return fmt.Sprintf("%s\t# %s", d.Name, d.Tag)
}

type resolveView struct {
	Host   string `json:"host"`
	Result string `json:"result"`
}

func (r resolveView) String() string { return r.Result }

type pacView struct {
	Script string `json:"pac"`
}

func (p pacView) String() string { return strings.TrimSuffix(p.Script, "\n") }

type messageView struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
	Domain  string `json:"domain,omitempty"`
}

func (m messageView) String() string { return m.Message }
