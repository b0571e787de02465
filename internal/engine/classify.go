package engine

import (
	"context"
	"errors"
	"net"
	"net/http"
)

// HTTPStatusError wraps a non-success HTTP status code from the host.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return http.StatusText(e.StatusCode)
}

// StatusError returns an error for a non-2xx response status.
func StatusError(code int) error {
	return &HTTPStatusError{StatusCode: code}
}

// IsTransient returns true for errors worth retrying: connection failures,
// DNS errors, timeouts, and retryable HTTP statuses. Context cancellation is
// never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// A non-success status is treated as transient: the host serves 429s and
	// intermittent 5xx from its caption endpoints, and a later attempt often
	// succeeds.
	var httpErr *HTTPStatusError
	if errors.As(err, &httpErr) {
		return true
	}

	// Connection errors (dial failures, connection refused, etc.)
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	// DNS errors
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	// Timeout errors (net.Error includes OpError, so check after OpError)
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
