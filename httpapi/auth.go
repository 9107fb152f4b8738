/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/chorushub/go-clipkit/clientpool"
)

const authHeaderBearerPrefix = "bearer "

type authHandler struct {
	next http.Handler
	pool *clientpool.Pool
}

// Auth is a middleware that authenticates requests by the bearer token from the Authorization header.
// Requests with a missing, undecodable, or expired token are rejected with 401.
// On success, a client bound to the token is obtained from the pool and put into the request's context
// together with the caller's subject.
func Auth(pool *clientpool.Pool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return &authHandler{next: next, pool: pool}
	}
}

func (h *authHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		RespondError(rw, http.StatusUnauthorized,
			NewError(ErrCodeUnauthenticated, "Missing bearer token."), GetLoggerFromContext(r.Context()))
		return
	}
	claims, err := clientpool.ParseTokenClaims(token)
	if err != nil {
		RespondError(rw, http.StatusUnauthorized,
			NewError(ErrCodeUnauthenticated, "Invalid bearer token."), GetLoggerFromContext(r.Context()))
		return
	}
	if claims.ExpiresWithin(time.Now(), 0) {
		RespondError(rw, http.StatusUnauthorized,
			NewError(ErrCodeUnauthenticated, "Bearer token is expired."), GetLoggerFromContext(r.Context()))
		return
	}
	client := h.pool.GetClient(token)
	r = r.WithContext(NewContextWithClient(r.Context(), client))
	h.next.ServeHTTP(rw, r)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) <= len(authHeaderBearerPrefix) ||
		!strings.EqualFold(auth[:len(authHeaderBearerPrefix)], authHeaderBearerPrefix) {
		return ""
	}
	return auth[len(authHeaderBearerPrefix):]
}
