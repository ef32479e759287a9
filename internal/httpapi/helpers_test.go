package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/pacservice-go/internal/model"
	"github.com/John-Robertt/pacservice-go/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.Open(filepath.Join(t.TempDir(), "db.json"))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestMux(t *testing.T, opt Options) (*store.Store, http.Handler) {
	t.Helper()
	st := newTestStore(t)
	return st, NewMux(st, opt)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	return doWith(t, h, method, target, body, nil)
}

func doWith(t *testing.T, h http.Handler, method, target, body string, prep func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if prep != nil {
		prep(req)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal response: %v\nbody=%q", err, rr.Body.String())
	}
	return v
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) model.AppError {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d; body=%s", rr.Code, status, rr.Body.String())
	}
	resp := decodeBody[model.ErrorResponse](t, rr)
	if resp.Error.Code != code {
		t.Fatalf("code = %q, want %q; body=%s", resp.Error.Code, code, rr.Body.String())
	}
	return resp.Error
}

const p1Body = `{"id":"p1","proto":"SOCKS5","host":"127.0.0.1","port":1080,"domains":[{"name":"Example.COM","tag":"work"}]}`
