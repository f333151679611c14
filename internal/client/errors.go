package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a transport-level failure: the service could not be reached or its
// answer could not be read.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("request error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("request error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusError is a non-2xx answer. Its message is the service's own wording.
type StatusError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, e.Message)
}

// RejectionReason returns the service's message verbatim.
func (e *StatusError) RejectionReason() string {
	return e.Message
}

// Temporary reports whether the same request may succeed later. Client errors
// other than timeouts and throttling are final.
func (e *StatusError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return e.StatusCode >= 500
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}
