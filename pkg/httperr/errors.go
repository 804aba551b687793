package httperr

import (
	"errors"
	"maps"
	"net/http"
)

// HTTPError represents an error with an HTTP status code and a stable
// machine-readable key.
type HTTPError struct {
	Code    int
	Key     string
	Details map[string]any
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Key
}

// WithDetail returns a copy of the error carrying an extra response field.
func (e HTTPError) WithDetail(key string, value any) HTTPError {
	details := make(map[string]any, len(e.Details)+1)
	maps.Copy(details, e.Details)
	details[key] = value
	e.Details = details
	return e
}

var (
	ErrBadRequest          = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized        = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrForbidden           = HTTPError{Code: http.StatusForbidden, Key: "forbidden"}
	ErrTooManyRequests     = HTTPError{Code: http.StatusTooManyRequests, Key: "too_many_requests"}
	ErrInternalServerError = HTTPError{Code: http.StatusInternalServerError, Key: "internal_server_error"}
	ErrServiceUnavailable  = HTTPError{Code: http.StatusServiceUnavailable, Key: "service_unavailable"}
)

// New creates a custom HTTP error.
func New(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}

// From extracts an HTTPError from err, falling back to 500.
func From(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return ErrInternalServerError
}
