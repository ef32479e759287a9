package httpapi

import (
	"log/slog"
	"time"
)

// Options controls HTTP API runtime behavior.
type Options struct {
	// BasicAuthUser and BasicAuthPass enable Basic auth on management routes
	// when both are non-empty.
	BasicAuthUser string
	BasicAuthPass string

	// MaxBodyBytes bounds JSON request bodies.
	MaxBodyBytes int64

	Logger *slog.Logger

	// Now is the clock behind /health; tests pin it.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 1 << 20
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) authEnabled() bool {
	return o.BasicAuthUser != "" && o.BasicAuthPass != ""
}
