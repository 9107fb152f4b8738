/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package httpapi

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default parameter values for RateLimit middleware.
const (
	DefaultRateLimitBurst = 1

	// rateLimitKeyTTL is how long a per-caller limiter is kept after its last request.
	// Idle limiters are dropped on a periodic sweep, so the limiter map does not grow
	// without bound with the number of distinct callers.
	rateLimitKeyTTL      = time.Minute * 10
	rateLimitSweepPeriod = time.Minute
)

// RateLimitOpts represents an options for RateLimit middleware.
type RateLimitOpts struct {
	// Burst is the maximum number of requests allowed to pass at once. Defaults to DefaultRateLimitBurst.
	Burst int

	// GetKey returns the key the limit is accounted per. By default the authenticated
	// caller's subject is used, falling back to the request's remote address.
	GetKey func(r *http.Request) string
}

type rateLimitEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimitHandler struct {
	next  http.Handler
	limit rate.Limit
	opts  RateLimitOpts

	mu          sync.Mutex
	limiters    map[string]*rateLimitEntry
	lastSweep   time.Time
	keyTTL      time.Duration
	sweepPeriod time.Duration
}

// RateLimit is a middleware that limits the rate of requests per caller.
// Requests above the limit are rejected with 429.
func RateLimit(limit rate.Limit) func(next http.Handler) http.Handler {
	return RateLimitWithOpts(limit, RateLimitOpts{})
}

// RateLimitWithOpts is a more configurable version of RateLimit middleware.
func RateLimitWithOpts(limit rate.Limit, opts RateLimitOpts) func(next http.Handler) http.Handler {
	if opts.Burst == 0 {
		opts.Burst = DefaultRateLimitBurst
	}
	if opts.GetKey == nil {
		opts.GetKey = subjectOrRemoteAddr
	}
	return func(next http.Handler) http.Handler {
		return &rateLimitHandler{
			next:        next,
			limit:       limit,
			opts:        opts,
			limiters:    make(map[string]*rateLimitEntry),
			lastSweep:   time.Now(),
			keyTTL:      rateLimitKeyTTL,
			sweepPeriod: rateLimitSweepPeriod,
		}
	}
}

func (h *rateLimitHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if !h.limiterForKey(h.opts.GetKey(r)).Allow() {
		RespondError(rw, http.StatusTooManyRequests,
			NewError(ErrCodeTooManyRequests, "Too many requests."), GetLoggerFromContext(r.Context()))
		return
	}
	h.next.ServeHTTP(rw, r)
}

func (h *rateLimitHandler) limiterForKey(key string) *rate.Limiter {
	now := time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.sweepLocked(now)

	entry, ok := h.limiters[key]
	if !ok {
		entry = &rateLimitEntry{limiter: rate.NewLimiter(h.limit, h.opts.Burst)}
		h.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweepLocked drops limiters of callers not seen for keyTTL.
// Dropping one forgets its token bucket, which is acceptable since at that point
// the bucket has long refilled to the full burst anyway.
func (h *rateLimitHandler) sweepLocked(now time.Time) {
	if now.Sub(h.lastSweep) < h.sweepPeriod {
		return
	}
	h.lastSweep = now
	for key, entry := range h.limiters {
		if now.Sub(entry.lastSeen) > h.keyTTL {
			delete(h.limiters, key)
		}
	}
}

func subjectOrRemoteAddr(r *http.Request) string {
	if client := GetClientFromContext(r.Context()); client != nil && client.Subject != "" {
		return client.Subject
	}
	return r.RemoteAddr
}
