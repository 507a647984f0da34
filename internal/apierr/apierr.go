package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies provider failures so callers can decide on retryability
// without inspecting error strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindRateLimited
	KindTimeout
	KindNotFound
	KindInvalidRequest
	KindUnavailable
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not_found"
	case KindInvalidRequest:
		return "invalid_request"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is a provider-boundary error carrying a machine-checkable kind.
type Error struct {
	Kind    Kind
	Source  string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Source, e.Message, e.Kind)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Kind)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a classified error for the given source.
func New(kind Kind, source, message string) *Error {
	return &Error{Kind: kind, Source: source, Message: message}
}

// Wrap classifies an underlying error while preserving its chain.
func Wrap(kind Kind, source string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Source: source, Message: err.Error(), Err: err}
}

// KindOf extracts the kind from an error chain. Context deadline errors are
// reported as timeouts even when nothing wrapped them explicitly.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}

// Retryable reports whether an error is worth another attempt. Auth failures
// and malformed requests never succeed on retry; everything else might.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindUnauthorized, KindInvalidRequest, KindNotFound:
		return false
	default:
		return true
	}
}

// FromStatusCode classifies an HTTP response status at the client boundary.
func FromStatusCode(status int, source, message string) *Error {
	var kind Kind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindUnauthorized
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = KindTimeout
	case status == http.StatusBadRequest:
		kind = KindInvalidRequest
	case status >= 500:
		kind = KindUnavailable
	default:
		kind = KindUnknown
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return New(kind, source, message)
}
