/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package httpapi

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/chorushub/go-clipkit/log"
)

// LoggingOpts represents an options for Logging middleware.
type LoggingOpts struct {
	// RequestStart enables logging of the request start in addition to its completion.
	RequestStart bool

	// ExcludedEndpoints is a list of endpoints for which the middleware is fully disabled.
	ExcludedEndpoints []string
}

type loggingHandler struct {
	next   http.Handler
	logger log.FieldLogger
	opts   LoggingOpts
}

// Logging is a middleware that logs info about HTTP request and response.
// Also, it puts a logger (with request id in fields) into the request's context.
func Logging(logger log.FieldLogger) func(next http.Handler) http.Handler {
	return LoggingWithOpts(logger, LoggingOpts{})
}

// LoggingWithOpts is a more configurable version of Logging middleware.
func LoggingWithOpts(logger log.FieldLogger, opts LoggingOpts) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return &loggingHandler{next: next, logger: logger, opts: opts}
	}
}

func (h *loggingHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	for _, endpoint := range h.opts.ExcludedEndpoints {
		if r.URL.Path == endpoint {
			h.next.ServeHTTP(rw, r)
			return
		}
	}

	startTime := time.Now()
	logger := h.logger.With(
		log.String("request_id", GetRequestIDFromContext(r.Context())),
		log.String("method", r.Method),
		log.String("uri", r.RequestURI),
		log.String("remote_addr", r.RemoteAddr),
		log.String("user_agent", r.UserAgent()),
	)
	r = r.WithContext(NewContextWithLogger(r.Context(), logger))

	if h.opts.RequestStart {
		logger.Info("request started")
	}

	wrw := chimiddleware.NewWrapResponseWriter(rw, r.ProtoMajor)
	h.next.ServeHTTP(wrw, r)

	logger.Info("response completed",
		log.Int("status_code", wrw.Status()),
		log.Int("bytes_written", wrw.BytesWritten()),
		log.Duration("elapsed", time.Since(startTime)),
	)
}
