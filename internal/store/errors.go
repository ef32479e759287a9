package store

import (
	"errors"
	"fmt"

	"github.com/John-Robertt/pacservice-go/internal/model"
)

// ErrClosed is returned by mutations submitted after Close.
var ErrClosed = errors.New("store: closed")

type NotFoundError struct {
	AppError model.AppError
	Cause    error
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
}

func (e *NotFoundError) Unwrap() error { return e.Cause }

type ConflictError struct {
	AppError model.AppError
	Cause    error
}

func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
}

func (e *ConflictError) Unwrap() error { return e.Cause }

// PersistenceError means the registry could not be written. The mutation that
// caused it was not published.
type PersistenceError struct {
	AppError model.AppError
	Path     string
	Cause    error
}

func (e *PersistenceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

func proxyNotFound(id string) error {
	return &NotFoundError{AppError: model.AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("proxy %q not found", id),
		Stage:   "store",
		Field:   "id",
	}}
}

func domainNotFound(id, name string) error {
	return &NotFoundError{AppError: model.AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("domain %q not found on proxy %q", name, id),
		Stage:   "store",
		Field:   "name",
	}}
}

func proxyConflict(id string) error {
	return &ConflictError{AppError: model.AppError{
		Code:    "CONFLICT",
		Message: fmt.Sprintf("proxy id %q already exists", id),
		Stage:   "store",
		Field:   "id",
	}}
}

func persistFailed(path, message string, cause error) error {
	return &PersistenceError{
		AppError: model.AppError{
			Code:    "PERSIST_FAILED",
			Message: message,
			Stage:   "persist",
		},
		Path:  path,
		Cause: cause,
	}
}
