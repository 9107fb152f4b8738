/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// HTTPStatusError carries an HTTP status code of a failed request,
// so that IsTransient can classify server errors and rate limiting responses as retryable.
type HTTPStatusError struct {
	StatusCode int
}

// NewHTTPStatusError creates a new HTTPStatusError with the given status code.
func NewHTTPStatusError(statusCode int) *HTTPStatusError {
	return &HTTPStatusError{StatusCode: statusCode}
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP status %d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsTransient reports whether err is likely to go away on retry:
// network-level failures (timeouts, refused/reset connections),
// HTTP server errors (5xx) and rate limiting responses (429).
// All other errors are considered persistent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var httpErr *HTTPStatusError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests ||
			httpErr.StatusCode >= http.StatusInternalServerError
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}
