package commerce

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable means the store could not be reached.
	ErrUpstreamUnavailable = errors.New("commerce: upstream unavailable")
	// ErrUpstreamRequestFailed means the store answered with a non-2xx status.
	ErrUpstreamRequestFailed = errors.New("commerce: upstream request failed")
	// ErrInvalidResponse means the store answered with a body that is not the expected JSON.
	ErrInvalidResponse = errors.New("commerce: invalid upstream response")
	// ErrInvalidID means an order id is not a positive integer.
	ErrInvalidID = errors.New("commerce: invalid id")
)

// UpstreamError carries the status and body of a failed store request.
// The body is kept for logs and never returned to callers of the HTTP API.
type UpstreamError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("commerce: upstream status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("commerce: upstream status %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamRequestFailed
}

// NotFound reports whether the store answered 404.
func (e *UpstreamError) NotFound() bool {
	return e.StatusCode == 404
}
