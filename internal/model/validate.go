package model

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

// ValidationError reports malformed input. It is always raised before any
// state is touched.
type ValidationError struct {
	AppError AppError
	Cause    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

func validationError(field, message, hint string, cause error) error {
	return &ValidationError{
		AppError: AppError{
			Code:    "VALIDATION_ERROR",
			Message: message,
			Stage:   "validate",
			Field:   field,
			Hint:    hint,
		},
		Cause: cause,
	}
}

// Underscores and other non-LDH characters show up in internal names, so the
// strict STD3 rules are relaxed. Label checks are off as well: CDN hosts such
// as r3---sn-abc.googlevideo.com put hyphens where IDNA 2008 forbids them.
var domainProfile = idna.New(
	idna.MapForLookup(),
	idna.StrictDomainName(false),
	idna.ValidateLabels(false),
	idna.Transitional(false),
)

func ParseProto(s string) (Proto, error) {
	for _, p := range Protos {
		if string(p) == s {
			return p, nil
		}
	}
	return "", validationError("proto", fmt.Sprintf("unsupported proto %q", s), "expected: SOCKS, SOCKS5 or PROXY", nil)
}

// CanonicalDomainName trims name and maps it to its lowercase ASCII form, the
// form browsers hand to FindProxyForURL as host. Names the IDNA mapping
// refuses are kept lowercased as given; only blank names and names with
// whitespace, quotes or control characters are rejected.
func CanonicalDomainName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationError("name", "domain name is required", "", nil)
	}
	if strings.IndexFunc(name, invalidNameRune) >= 0 {
		return "", validationError("name", fmt.Sprintf("domain name %q contains invalid characters", name), "", nil)
	}
	ascii, err := domainProfile.ToASCII(name)
	if err != nil || ascii == "" {
		return strings.ToLower(name), nil
	}
	return ascii, nil
}

func invalidNameRune(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r) || r == '"' || r == '\\'
}

// NormalizeDomain canonicalizes the name and passes the tag through.
func NormalizeDomain(d Domain) (Domain, error) {
	name, err := CanonicalDomainName(d.Name)
	if err != nil {
		return Domain{}, err
	}
	return Domain{Name: name, Tag: d.Tag}, nil
}

// NormalizeDomains normalizes every entry, keeping the first occurrence of a
// repeated name. The result is never nil.
func NormalizeDomains(in []Domain) ([]Domain, error) {
	out := make([]Domain, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, d := range in {
		nd, err := NormalizeDomain(d)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[nd.Name]; ok {
			continue
		}
		seen[nd.Name] = struct{}{}
		out = append(out, nd)
	}
	return out, nil
}

func validateHost(host string) error {
	if strings.TrimSpace(host) == "" {
		return validationError("host", "host must be a non-empty string", "", nil)
	}
	if strings.ContainsAny(host, " \t\r\n\"\\") {
		return validationError("host", fmt.Sprintf("host %q contains invalid characters", host), "", nil)
	}
	return nil
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return validationError("port", fmt.Sprintf("port %d out of range", port), "expected: 1-65535", nil)
	}
	return nil
}

// Validate checks the scalar fields of p. Domains are checked by NormalizeDomains.
func (p Proxy) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return validationError("id", "id must be a non-empty string", "", nil)
	}
	if _, err := ParseProto(string(p.Proto)); err != nil {
		return err
	}
	if err := validateHost(p.Host); err != nil {
		return err
	}
	return validatePort(p.Port)
}

func (p ProxyPatch) Validate() error {
	if p.Proto != nil {
		if _, err := ParseProto(string(*p.Proto)); err != nil {
			return err
		}
	}
	if p.Host != nil {
		if err := validateHost(*p.Host); err != nil {
			return err
		}
	}
	if p.Port != nil {
		if err := validatePort(*p.Port); err != nil {
			return err
		}
	}
	return nil
}
