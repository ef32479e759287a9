package model

// AppError is the error payload returned by the HTTP API and the CLI in json format.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage"`

	Field string `json:"field,omitempty"`
	Hint  string `json:"hint,omitempty"`
}

type ErrorResponse struct {
	Error AppError `json:"error"`
}
