// Package pac compiles a proxy registry into a Proxy Auto-Configuration script.
//
// Output is byte-for-byte deterministic for a given registry: no timestamps,
// no map iteration. Groups are emitted as an ordered array so that two proxies
// sharing a proxy string stay separate and are walked in listing order.
package pac

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/John-Robertt/pacservice-go/internal/model"
)

// Direct is the value returned when no domain matches.
const Direct = "DIRECT"

// MIMEType is the content type PAC clients expect.
const MIMEType = "application/x-ns-proxy-autoconfig"

// Generate renders the FindProxyForURL script for reg.
func Generate(reg model.Registry) string {
	var b strings.Builder
	b.WriteString("function FindProxyForURL(url, host) {\n")
	b.WriteString("  var proxies = [\n")
	for i, p := range reg.Proxies {
		b.WriteString("    [")
		b.WriteString(jsString(p.ProxyString()))
		b.WriteString(", [\n")
		for j, d := range p.Domains {
			b.WriteString("      ")
			b.WriteString(jsString(d.Name))
			if j < len(p.Domains)-1 {
				b.WriteByte(',')
			}
			if d.Tag != "" {
				b.WriteString(" /* ")
				b.WriteString(commentText(d.Tag))
				b.WriteString(" */")
			}
			b.WriteByte('\n')
		}
		b.WriteString("    ]]")
		if i < len(reg.Proxies)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("  ];\n")
	b.WriteString("  for (var i = 0; i < proxies.length; i++) {\n")
	b.WriteString("    var domains = proxies[i][1];\n")
	b.WriteString("    for (var j = 0; j < domains.length; j++) {\n")
	b.WriteString("      if (dnsDomainIs(host, domains[j])) {\n")
	b.WriteString("        return proxies[i][0];\n")
	b.WriteString("      }\n")
	b.WriteString("    }\n")
	b.WriteString("  }\n")
	b.WriteString("  return \"" + Direct + "\";\n")
	b.WriteString("}\n")
	return b.String()
}

// commentText makes s safe inside a /* */ block: the close token is split and
// line breaks are flattened so the annotation stays on its line.
func commentText(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ", "\u2028", " ", "\u2029", " ").Replace(s)
	return strings.ReplaceAll(s, "*/", "*\\/")
}

// jsString quotes s as a double-quoted JavaScript string literal.
func jsString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == '"':
			b.WriteString(`\"`)
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f || r == '\u2028' || r == '\u2029' || r == utf8.RuneError && size == 1:
			b.WriteString(`\u`)
			hex := strconv.FormatInt(int64(r), 16)
			if r == utf8.RuneError {
				hex = "fffd"
			}
			b.WriteString(strings.Repeat("0", 4-len(hex)))
			b.WriteString(hex)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
