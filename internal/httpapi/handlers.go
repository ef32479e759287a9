package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/pacservice-go/internal/model"
	"github.com/John-Robertt/pacservice-go/internal/pac"
	"github.com/John-Robertt/pacservice-go/internal/store"
)

type handler struct {
	store *store.Store
	opt   Options
	log   *slog.Logger
}

type proxyRequest struct {
	ID      *string          `json:"id"`
	Proto   *string          `json:"proto"`
	Host    *string          `json:"host"`
	Port    *int             `json:"port"`
	Domains *[]domainRequest `json:"domains"`
}

type domainRequest struct {
	Name *string `json:"name"`
	Tag  *string `json:"tag"`
}

type tagRequest struct {
	Tag *string `json:"tag"`
}

type domainResponse struct {
	Domain model.Domain `json:"domain"`
}

type healthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

type resolveResponse struct {
	Host   string `json:"host"`
	Result string `json:"result"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Time:   h.opt.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) handleState(w http.ResponseWriter, r *http.Request) {
	reg, err := h.store.State(r.Context())
	if err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, reg)
}

func (h *handler) handleListProxies(w http.ResponseWriter, r *http.Request) {
	proxies, err := h.store.ListProxies(r.Context())
	if err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, proxies)
}

func (h *handler) handleGetProxy(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProxy(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (h *handler) handleAddProxy(w http.ResponseWriter, r *http.Request) {
	var req proxyRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	p, err := req.toProxy()
	if err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	created, err := h.store.AddProxy(r.Context(), p)
	if err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

func (h *handler) handleUpdateProxy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req proxyRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	patch, err := req.toPatch(id)
	if err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	updated, err := h.store.UpdateProxy(r.Context(), id, patch)
	if err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

func (h *handler) handleDeleteProxy(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.DeleteProxy(r.Context(), r.PathValue("id")); err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleAddDomain(w http.ResponseWriter, r *http.Request) {
	var req domainRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	d, err := req.toDomain("name")
	if err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	added, err := h.store.AddDomain(r.Context(), r.PathValue("id"), d)
	if err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, domainResponse{Domain: added})
}

func (h *handler) handleRemoveDomain(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.RemoveDomain(r.Context(), r.PathValue("id"), r.PathValue("domain")); err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleUpdateDomainTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	var tag string
	if req.Tag != nil {
		tag = *req.Tag
	}
	updated, err := h.store.UpdateDomainTag(r.Context(), r.PathValue("id"), r.PathValue("domain"), tag)
	if err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, domainResponse{Domain: updated})
}

func (h *handler) handlePAC(w http.ResponseWriter, r *http.Request) {
	reg, err := h.store.State(r.Context())
	if err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	if err := setAttachmentHeaders(w, r); err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pac.MIMEType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, pac.Generate(reg))
}

func (h *handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	host := strings.TrimSpace(r.URL.Query().Get("host"))
	if host == "" {
		h.writeErrorFromErr(w, r, requestError("host", "host query parameter is required", nil))
		return
	}
	reg, err := h.store.State(r.Context())
	if err != nil {
		h.writeErrorFromErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, resolveResponse{Host: host, Result: pac.FindProxy(reg, host)})
}

// decodeJSON reads exactly one JSON value with no unknown fields.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, h.opt.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return requestError("", "request body must be a JSON object", err)
		case errors.As(err, &mbe):
			return requestError("", fmt.Sprintf("request body exceeds %d bytes", mbe.Limit), err)
		default:
			return requestError(jsonErrorField(err), "invalid JSON body: "+err.Error(), err)
		}
	}
	if dec.More() {
		return requestError("", "request body must contain a single JSON object", nil)
	}
	return nil
}

func jsonErrorField(err error) string {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		return te.Field
	}
	return ""
}

func (req proxyRequest) toProxy() (model.Proxy, error) {
	var p model.Proxy
	if req.ID != nil {
		p.ID = *req.ID
	} else {
		id, err := uuid.NewV7()
		if err != nil {
			return model.Proxy{}, fmt.Errorf("generate proxy id: %w", err)
		}
		p.ID = id.String()
	}
	if req.Proto == nil {
		return model.Proxy{}, requestError("proto", "proto is required", nil)
	}
	proto, err := model.ParseProto(*req.Proto)
	if err != nil {
		return model.Proxy{}, err
	}
	p.Proto = proto
	if req.Host == nil {
		return model.Proxy{}, requestError("host", "host is required", nil)
	}
	p.Host = *req.Host
	if req.Port == nil {
		return model.Proxy{}, requestError("port", "port is required", nil)
	}
	p.Port = *req.Port
	if req.Domains != nil {
		p.Domains, err = toDomains(*req.Domains)
		if err != nil {
			return model.Proxy{}, err
		}
	}
	return p, nil
}

func (req proxyRequest) toPatch(id string) (model.ProxyPatch, error) {
	var patch model.ProxyPatch
	if req.ID != nil && *req.ID != id {
		return patch, requestError("id", "id is immutable", nil)
	}
	if req.Proto != nil {
		proto, err := model.ParseProto(*req.Proto)
		if err != nil {
			return patch, err
		}
		patch.Proto = &proto
	}
	patch.Host = req.Host
	patch.Port = req.Port
	if req.Domains != nil {
		domains, err := toDomains(*req.Domains)
		if err != nil {
			return patch, err
		}
		patch.Domains = &domains
	}
	return patch, nil
}

func toDomains(in []domainRequest) ([]model.Domain, error) {
	out := make([]model.Domain, 0, len(in))
	for i, d := range in {
		md, err := d.toDomain(fmt.Sprintf("domains[%d].name", i))
		if err != nil {
			return nil, err
		}
		out = append(out, md)
	}
	return out, nil
}

func (req domainRequest) toDomain(field string) (model.Domain, error) {
	if req.Name == nil {
		return model.Domain{}, requestError(field, "domain name is required", nil)
	}
	d := model.Domain{Name: *req.Name}
	if req.Tag != nil {
		d.Tag = *req.Tag
	}
	return d, nil
}
