package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	// ErrCodeConnection is a transport failure (refused, DNS, reset).
	ErrCodeConnection ErrorCode = iota
	// ErrCodeAuth is 401 or 403.
	ErrCodeAuth
	// ErrCodeNotFound is 404.
	ErrCodeNotFound
	// ErrCodeTooLarge is 413.
	ErrCodeTooLarge
	// ErrCodeRateLimit is 429.
	ErrCodeRateLimit
	// ErrCodeClient is any other 4xx.
	ErrCodeClient
	// ErrCodeServer is 5xx.
	ErrCodeServer
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeConnection:
		return "connection"
	case ErrCodeAuth:
		return "auth"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeTooLarge:
		return "too_large"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeClient:
		return "client"
	case ErrCodeServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is a classified HTTP failure.
type Error struct {
	// StatusCode is 0 for transport failures.
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	// Body holds the start of the response body.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewConnectionError wraps a transport failure.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

// ClassifyStatusCode returns nil for 2xx and a typed error otherwise. The
// message is the trimmed start of the body, or the status text.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	if len(body) > 4096 {
		body = body[:4096]
	}
	e := &Error{StatusCode: statusCode, Body: body, Message: strings.TrimSpace(string(body))}
	if e.Message == "" {
		e.Message = http.StatusText(statusCode)
	}
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case statusCode == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case statusCode == http.StatusRequestEntityTooLarge:
		e.Code = ErrCodeTooLarge
	case statusCode == http.StatusTooManyRequests:
		e.Code, e.Retryable = ErrCodeRateLimit, true
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeClient
	default:
		e.Code, e.Retryable = ErrCodeServer, statusCode >= 500
	}
	return e
}

// CodeOf returns the classification of err and whether it is an *Error.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
