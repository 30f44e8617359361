package errors

import "net/http"

type HTTPError struct {
	Code       int
	Message    string
	StatusCode int
}

// NewHTTPError builds a 400 error; use WithStatus for anything else.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func (e *HTTPError) WithStatus(statusCode int) *HTTPError {
	cp := *e
	cp.StatusCode = statusCode
	return &cp
}

func (e HTTPError) Error() string {
	return e.Message
}
