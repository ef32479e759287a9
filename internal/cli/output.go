package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/John-Robertt/pacservice-go/internal/model"
	"github.com/John-Robertt/pacservice-go/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected operation (validation, not found, conflict)
	ExitCommandError = 2 // Command error (bad config, unreadable files, persist failure, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for diagnostics (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// Success outputs a successful result in the configured format. Text mode
// prints data with fmt, so payload types shape their text via String().
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(e CLIError) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &e,
		})
	}

	w := f.GetErrWriter()
	fmt.Fprintf(w, "Error [%s]: %s\n", e.Code, e.Message)
	if e.Hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", e.Hint)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Fail reports err through the formatter and returns the ExitError the
// command should return.
func (f *OutputFormatter) Fail(err error) error {
	app, code := classify(err)
	_ = f.Error(CLIError{Code: app.Code, Message: app.Message, Field: app.Field, Hint: app.Hint})
	return WrapExitError(code, app.Code, err)
}

func classify(err error) (model.AppError, int) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return ve.AppError, ExitFailure
	}
	var nf *store.NotFoundError
	if errors.As(err, &nf) {
		return nf.AppError, ExitFailure
	}
	var ce *store.ConflictError
	if errors.As(err, &ce) {
		return ce.AppError, ExitFailure
	}
	var pe *store.PersistenceError
	if errors.As(err, &pe) {
		app := pe.AppError
		app.Hint = pe.Error()
		return app, ExitCommandError
	}
	if errors.Is(err, store.ErrLocked) {
		return model.AppError{Code: "REGISTRY_LOCKED", Message: err.Error(), Hint: "stop serve or use the HTTP API"}, ExitCommandError
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return model.AppError{Code: "COMMAND_ERROR", Message: ee.Error()}, ee.Code
	}
	return model.AppError{Code: "COMMAND_ERROR", Message: err.Error()}, ExitCommandError
}
