package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/John-Robertt/pacservice-go/internal/model"
)

func TestWriteError_JSONShapeAndHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusBadRequest, model.AppError{
		Code:    "VALIDATION_ERROR",
		Message: "port must be between 1 and 65535",
		Stage:   "validate",
		Field:   "port",
		Hint:    "got 0",
	})

	if got, want := rr.Code, http.StatusBadRequest; got != want {
		t.Fatalf("status = %d, want %d", got, want)
	}

	if got, want := rr.Header().Get("Content-Type"), "application/json; charset=utf-8"; got != want {
		t.Fatalf("Content-Type = %q, want %q", got, want)
	}

	resp := decodeBody[model.ErrorResponse](t, rr)
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("code = %q, want %q", resp.Error.Code, "VALIDATION_ERROR")
	}
	if resp.Error.Stage != "validate" {
		t.Fatalf("stage = %q, want %q", resp.Error.Stage, "validate")
	}
	if resp.Error.Field != "port" {
		t.Fatalf("field = %q, want %q", resp.Error.Field, "port")
	}
}

func TestWriteText(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteText(rr, http.StatusOK, "ok\n")
	if rr.Body.String() != "ok\n" {
		t.Fatalf("body = %q", rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); got != "text/plain; charset=utf-8" {
		t.Fatalf("Content-Type = %q", got)
	}
}
