package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/John-Robertt/pacservice-go/internal/model"
	"github.com/John-Robertt/pacservice-go/internal/store"
)

// APIError is used by the HTTP layer for request validation and a few
// HTTP-specific errors.
type APIError struct {
	Status   int
	AppError model.AppError
	Cause    error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *APIError) Unwrap() error { return e.Cause }

func apiError(status int, app model.AppError, cause error) error {
	return &APIError{Status: status, AppError: app, Cause: cause}
}

func requestError(field, message string, cause error) error {
	return apiError(http.StatusBadRequest, model.AppError{
		Code:    "INVALID_REQUEST",
		Message: message,
		Stage:   "validate_request",
		Field:   field,
	}, cause)
}

// errorStatus maps an error to its HTTP status and client payload.
func errorStatus(err error) (int, model.AppError) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status, ae.AppError
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.AppError
	}

	var nf *store.NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound, nf.AppError
	}

	var ce *store.ConflictError
	if errors.As(err, &ce) {
		return http.StatusConflict, ce.AppError
	}

	// The cause carries the OS path; keep it in the log only.
	var pe *store.PersistenceError
	if errors.As(err, &pe) {
		return http.StatusInternalServerError, pe.AppError
	}

	if errors.Is(err, store.ErrClosed) {
		return http.StatusServiceUnavailable, model.AppError{
			Code:    "UNAVAILABLE",
			Message: "service is shutting down",
			Stage:   "store",
		}
	}

	// Fallback: internal bug.
	return http.StatusInternalServerError, model.AppError{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
		Stage:   "internal",
	}
}

func (h *handler) writeErrorFromErr(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	status, app := errorStatus(err)
	metricsIncAppError(app.Stage, app.Code)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "code", app.Code, "error", err)
	} else {
		h.log.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "code", app.Code, "error", err)
	}
	WriteError(w, status, app)
}
