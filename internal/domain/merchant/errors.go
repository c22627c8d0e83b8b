// Package merchant provides domain types for the merchant platform integration.
package merchant

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard domain errors.
var (
	ErrMissingCredentials = errors.New("store credentials are missing or invalid")
	ErrRateLimited        = errors.New("API rate limit exceeded")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrInvalidRequest     = errors.New("invalid request parameters")
	ErrServiceUnavailable = errors.New("merchant platform temporarily unavailable")
	ErrMalformedResponse  = errors.New("response body does not match expected shape")
)

// ErrorKind classifies failures surfaced to callers.
type ErrorKind string

const (
	// KindUpstream covers any non-2xx response from the platform.
	KindUpstream ErrorKind = "upstream"
	// KindAuth covers credential failures detected before or during a call.
	KindAuth ErrorKind = "auth"
	// KindParse covers response bodies that fail typed decoding.
	KindParse ErrorKind = "parse"
	// KindRateLimit covers 429 responses.
	KindRateLimit ErrorKind = "rate_limit"
	// KindServer covers 5xx responses.
	KindServer ErrorKind = "server"
)

// IsRetryable returns true if the kind indicates a retryable failure.
func (k ErrorKind) IsRetryable() bool {
	switch k {
	case KindRateLimit, KindServer:
		return true
	default:
		return false
	}
}

// APIError is a structured error from the merchant platform.
// Body carries an excerpt of the upstream response for diagnostics.
type APIError struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	StatusCode int       `json:"upstream_status,omitempty"`
	Body       string    `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("merchant [%s]: %s (status: %d)", e.Kind, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("merchant [%s]: %s", e.Kind, e.Message)
}

// Is implements errors.Is for APIError.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrMissingCredentials:
		return e.Kind == KindAuth
	case ErrRateLimited:
		return e.Kind == KindRateLimit || e.StatusCode == http.StatusTooManyRequests
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrResourceNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrInvalidRequest:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case ErrServiceUnavailable:
		return e.Kind == KindServer || e.StatusCode >= 500
	case ErrMalformedResponse:
		return e.Kind == KindParse
	default:
		return false
	}
}

// IsRetryable returns true if this error is safe to retry.
func (e *APIError) IsRetryable() bool {
	if e.Kind.IsRetryable() {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// NewUpstreamError builds the error for a non-2xx platform response.
// 401/403 become auth errors, 429 rate-limit, 5xx server; everything
// else stays a plain upstream error carrying status and body.
func NewUpstreamError(statusCode int, body string) *APIError {
	kind := KindUpstream
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		kind = KindAuth
	case statusCode == http.StatusTooManyRequests:
		kind = KindRateLimit
	case statusCode >= 500:
		kind = KindServer
	}
	return &APIError{
		Kind:       kind,
		Message:    fmt.Sprintf("unexpected status %d", statusCode),
		StatusCode: statusCode,
		Body:       truncate(body, 500),
	}
}

// NewAuthError reports missing or rejected credentials.
func NewAuthError(message string) *APIError {
	return &APIError{Kind: KindAuth, Message: message}
}

// NewParseError reports a response that failed typed decoding.
func NewParseError(message string, cause error) *APIError {
	if cause != nil {
		message = fmt.Sprintf("%s: %v", message, cause)
	}
	return &APIError{Kind: KindParse, Message: message}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
