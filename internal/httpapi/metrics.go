package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pacservice_http_requests_total",
		Help: "HTTP requests by ServeMux pattern and status.",
	}, []string{"pattern", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pacservice_http_request_duration_seconds",
		Help:    "HTTP request latency by ServeMux pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pattern"})

	appErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pacservice_app_errors_total",
		Help: "Application errors returned to clients.",
	}, []string{"stage", "code"})
)

func metricsObserveRequest(pattern string, status int, dur time.Duration) {
	if status == 0 {
		status = http.StatusOK
	}
	if pattern == "" {
		pattern = "(unknown)"
	}
	httpRequestsTotal.WithLabelValues(pattern, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(pattern).Observe(dur.Seconds())
}

func metricsIncAppError(stage, code string) {
	stage = strings.TrimSpace(stage)
	code = strings.TrimSpace(code)
	if stage == "" {
		stage = "(unknown)"
	}
	if code == "" {
		code = "(unknown)"
	}
	appErrorsTotal.WithLabelValues(stage, code).Inc()
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
