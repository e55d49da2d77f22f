package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies client failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTimeout
	KindHTTPStatus
	KindNetwork
	KindDecode
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// StatusClientClosedRequest is reported when the caller cancels a request.
const StatusClientClosedRequest = 499

// Error is the only error type returned by Client requests.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int
	Details json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (status %d): %v", e.Message, e.Status, e.Err)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusCode returns the HTTP status carried by err, or 500.
func StatusCode(err error) int {
	if apiErr, ok := AsError(err); ok && apiErr.Status != 0 {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}

func newTimeoutError(err error) *Error {
	return &Error{Kind: KindTimeout, Message: "Request timeout", Status: http.StatusRequestTimeout, Err: err}
}

func newCanceledError(err error) *Error {
	return &Error{Kind: KindCanceled, Message: "Request canceled", Status: StatusClientClosedRequest, Err: err}
}

func newNetworkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: err.Error(), Status: http.StatusInternalServerError, Err: err}
}

func newDecodeError(err error) *Error {
	return &Error{Kind: KindDecode, Message: "Invalid JSON response", Status: http.StatusInternalServerError, Err: err}
}

func newUnknownError(message string, err error) *Error {
	if message == "" {
		message = "An unknown error occurred"
	}
	return &Error{Kind: KindUnknown, Message: message, Status: http.StatusInternalServerError, Err: err}
}

// newStatusError builds the error for a non-2xx response. The body may carry
// {"message": ..., "details": ...}; otherwise the status text is used.
func newStatusError(status int, body []byte) *Error {
	var payload struct {
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	}
	_ = json.Unmarshal(body, &payload)

	message := payload.Message
	if message == "" {
		message = http.StatusText(status)
	}
	if message == "" {
		message = "An error occurred"
	}

	e := &Error{Kind: KindHTTPStatus, Message: message, Status: status}
	if len(payload.Details) > 0 && string(payload.Details) != "null" {
		e.Details = payload.Details
	}
	return e
}

// contextError maps a finished caller context to the matching error.
func contextError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newTimeoutError(err)
	}
	return newCanceledError(err)
}
