package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies a failed generative call. The executor's retry
// policy keys off this classification.
type ErrorKind string

const (
	// KindCredential covers auth, quota, billing and rate-limit
	// failures. The executor rotates to the next credential without
	// retrying the current one.
	KindCredential ErrorKind = "credential"
	// KindTransient covers 5xx, network and timeout failures,
	// retried on the same credential with exponential backoff.
	KindTransient ErrorKind = "transient"
	// KindFormat covers malformed JSON, schema violations and empty
	// responses, retried on the same credential with a correction
	// directive.
	KindFormat ErrorKind = "format"
	// KindFatal covers everything else; the executor moves to the
	// next credential immediately.
	KindFatal ErrorKind = "fatal"
)

// APIError is a classified failure from a generative backend,
// carrying the operation context so callers can render an actionable
// message.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Op         string
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error during %s (status %d): %s", e.Kind, e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error during %s: %s", e.Kind, e.Op, e.Message)
}

// NewAPIError builds a classified error from an HTTP status.
func NewAPIError(op string, status int, message string) *APIError {
	return &APIError{
		Kind:       kindForStatus(status),
		StatusCode: status,
		Op:         op,
		Message:    message,
	}
}

// FormatError builds a recoverable-format classification.
func FormatError(op, message string) *APIError {
	return &APIError{Kind: KindFormat, Op: op, Message: message}
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status == http.StatusTooManyRequests,
		status == http.StatusPaymentRequired:
		return KindCredential
	case status >= 500:
		return KindTransient
	case status == http.StatusBadRequest:
		return KindFatal
	default:
		return KindFatal
	}
}

// Classify maps any error onto an ErrorKind. Typed API errors keep
// their classification; network-level failures count as transient.
func Classify(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	return KindFatal
}
