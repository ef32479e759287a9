package httpapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/John-Robertt/pacservice-go/internal/model"
)

const authRealm = `Basic realm="PAC Service"`

// withBasicAuth guards next when both credentials are configured and passes
// through otherwise.
func withBasicAuth(opt Options, next http.Handler) http.Handler {
	if !opt.authEnabled() {
		return next
	}
	wantUser := []byte(opt.BasicAuthUser)
	wantPass := []byte(opt.BasicAuthPass)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			unauthorized(w, "AUTH_REQUIRED", "authentication required")
			return
		}
		// Evaluate both comparisons so timing does not reveal which one failed.
		userOK := subtle.ConstantTimeCompare([]byte(user), wantUser)
		passOK := subtle.ConstantTimeCompare([]byte(pass), wantPass)
		if userOK&passOK != 1 {
			unauthorized(w, "INVALID_CREDENTIALS", "invalid credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, code, message string) {
	metricsIncAppError("auth", code)
	w.Header().Set("WWW-Authenticate", authRealm)
	WriteError(w, http.StatusUnauthorized, model.AppError{
		Code:    code,
		Message: message,
		Stage:   "auth",
	})
}
