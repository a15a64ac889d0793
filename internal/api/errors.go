package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrUnauthorized is returned when the backend rejects the bearer token (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when the requested resource does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")
)

// APIError is returned for any non-2xx HTTP response.
// Message carries the backend's message field when the error body had one.
type APIError struct {
	// Status is the HTTP status code of the response.
	Status int
	// Message is the backend-provided error message, if any.
	Message string
	// RequestID is the X-Request-ID the request was sent with.
	RequestID string
}

// Error returns a human-readable description of the API error.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrUnauthorized) and errors.Is(err, ErrNotFound).
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == 401
	case ErrNotFound:
		return e.Status == 404
	}
	return false
}

// TransportError wraps a connection-level failure (DNS, refused
// connection, timeout). The backend was never reached.
type TransportError struct {
	// Cause is the underlying error from the HTTP client.
	Cause error
}

// Error returns a human-readable description of the transport error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Cause)
}

// Unwrap returns the underlying error cause.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ErrorMessage extracts a user-facing message from err. It returns the
// backend's message when err is an APIError carrying one, otherwise the
// fallback. Stores use this to populate their last-error field.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
