package httpapi

import (
	"net/http"

	"github.com/John-Robertt/pacservice-go/internal/store"
)

// NewMux registers every route. Management routes sit behind Basic auth when
// it is configured; /health and the PAC routes never do, since browsers fetch
// the PAC script without credentials.
func NewMux(st *store.Store, opt Options) *http.ServeMux {
	opt = opt.withDefaults()
	h := &handler{store: st, opt: opt, log: opt.Logger}
	auth := func(fn http.HandlerFunc) http.Handler { return withBasicAuth(opt, fn) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /pac", h.handlePAC)
	mux.HandleFunc("GET /pac/resolve", h.handleResolve)

	mux.Handle("GET /metrics", withBasicAuth(opt, metricsHandler()))
	mux.Handle("GET /state", auth(h.handleState))
	mux.Handle("GET /proxies", auth(h.handleListProxies))
	mux.Handle("POST /proxies", auth(h.handleAddProxy))
	mux.Handle("GET /proxies/{id}", auth(h.handleGetProxy))
	mux.Handle("PUT /proxies/{id}", auth(h.handleUpdateProxy))
	mux.Handle("DELETE /proxies/{id}", auth(h.handleDeleteProxy))
	mux.Handle("POST /proxies/{id}/domains", auth(h.handleAddDomain))
	mux.Handle("PUT /proxies/{id}/domains/{domain}", auth(h.handleUpdateDomainTag))
	mux.Handle("DELETE /proxies/{id}/domains/{domain}", auth(h.handleRemoveDomain))
	return mux
}
