package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/John-Robertt/pacservice-go/internal/store"
)

// NewHandler returns the production handler (mux + observability middleware).
//
// Tests can still use NewMux directly to avoid noisy logs unless needed.
func NewHandler(st *store.Store, opt Options) http.Handler {
	opt = opt.withDefaults()
	return withObservability(opt.Logger, NewMux(st, opt))
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func withObservability(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}

		// r.Pattern is empty when nothing matched; fold those into one label so
		// scanners cannot blow up the metric cardinality.
		pattern := r.Pattern
		if pattern == "" {
			pattern = "(unmatched)"
		}

		dur := time.Since(start)
		metricsObserveRequest(pattern, status, dur)

		// Minimal access log. Keep it safe: never log the query string.
		if r.URL.Path != "/health" && r.URL.Path != "/metrics" {
			log.Info("http",
				"method", r.Method,
				"path", r.URL.Path,
				"pattern", pattern,
				"status", status,
				"dur", dur.Round(time.Millisecond),
				"bytes", sw.bytes,
			)
		}
	})
}
