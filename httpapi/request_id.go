/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package httpapi

import (
	"net/http"

	"github.com/rs/xid"
)

const headerRequestID = "X-Request-ID"

// RequestIDOpts represents an options for RequestID middleware.
type RequestIDOpts struct {
	GenerateID func() string
}

type requestIDHandler struct {
	next http.Handler
	opts RequestIDOpts
}

func newRequestID() string {
	return xid.New().String()
}

// RequestID is a middleware that reads value of X-Request-ID request's HTTP header
// and generates a new one if it's empty. The id is put into the request's context
// and returned in the X-Request-ID response header.
// It's using xid (based on Mongo Object ID algorithm). This ID generator has high performance
// with pretty enough entropy.
func RequestID() func(next http.Handler) http.Handler {
	return RequestIDWithOpts(RequestIDOpts{GenerateID: newRequestID})
}

// RequestIDWithOpts is a more configurable version of RequestID middleware.
func RequestIDWithOpts(opts RequestIDOpts) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return &requestIDHandler{next: next, opts: opts}
	}
}

func (h *requestIDHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(headerRequestID)
	if requestID == "" {
		requestID = h.opts.GenerateID()
	}
	rw.Header().Set(headerRequestID, requestID)
	r = r.WithContext(NewContextWithRequestID(r.Context(), requestID))
	h.next.ServeHTTP(rw, r)
}
