package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultPACBaseName = "proxy"

// setAttachmentHeaders marks the PAC response as a download when the request
// asks for one (?download=1), honoring an optional ?fileName=.
func setAttachmentHeaders(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	if !isTruthy(q.Get("download")) && q.Get("fileName") == "" {
		return nil
	}
	filename, err := outputFileName(q.Get("fileName"))
	if err != nil {
		return err
	}
	// Add both filename and filename* for better UTF-8 compatibility.
	w.Header().Set("Content-Disposition", contentDispositionAttachment(filename))
	return nil
}

func outputFileName(raw string) (string, error) {
	base := strings.TrimSpace(raw)
	if base == "" {
		base = defaultPACBaseName
	}
	if strings.ContainsAny(base, "\r\n\x00") {
		return "", requestError("fileName", "fileName contains control characters", nil)
	}
	if strings.Contains(base, "/") || strings.Contains(base, "\\") {
		return "", requestError("fileName", "fileName must not contain path separators", nil)
	}
	if len(base) > 200 {
		return "", requestError("fileName", "fileName is too long (max 200 bytes)", nil)
	}

	name := base
	if !hasExt(name) {
		name += ".pac"
	}
	return name, nil
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func hasExt(name string) bool {
	i := strings.LastIndexByte(name, '.')
	return i > 0 && i < len(name)-1
}

func contentDispositionAttachment(filename string) string {
	// RFC 6266 + RFC 5987.
	escaped := strings.ReplaceAll(filename, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", escaped, pctEncode(filename))
}

func pctEncode(s string) string {
	// Go's QueryEscape uses '+' for spaces, which we rewrite to %20.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
