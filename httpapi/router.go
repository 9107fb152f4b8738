/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/chorushub/go-clipkit/clientpool"
	"github.com/chorushub/go-clipkit/clipstore"
	"github.com/chorushub/go-clipkit/log"
)

// systemEndpoints is a list of endpoints which are not involved in request logging.
var systemEndpoints = []string{"/metrics", "/healthz"}

// RouterOpts represents options for creating chi.Router.
type RouterOpts struct {
	// MaxAudioSize limits the size of one uploaded audio payload.
	MaxAudioSize int64

	// UploadRateLimit is the per-caller rate limit for clip uploads.
	// Zero disables upload rate limiting.
	UploadRateLimit rate.Limit

	// UploadRateBurst is the burst for the upload rate limit. Defaults to DefaultRateLimitBurst.
	UploadRateBurst int

	// MetricsHandler is a custom handler for the /metrics endpoint. promhttp.Handler() is used by default.
	MetricsHandler http.Handler
}

// NewRouter creates a new chi.Router serving the clip API and performs its basic configuration.
// All /clips endpoints require a bearer token; /healthz and /metrics don't.
func NewRouter(store *clipstore.Store, pool *clientpool.Pool, logger log.FieldLogger, opts RouterOpts) chi.Router {
	if opts.MaxAudioSize == 0 {
		opts.MaxAudioSize = int64(clipstore.DefaultMaxAudioSize)
	}

	router := chi.NewRouter()

	router.Use(RequestID())
	router.Use(LoggingWithOpts(logger, LoggingOpts{ExcludedEndpoints: systemEndpoints}))
	router.Use(Recovery())

	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	router.Method(http.MethodGet, "/metrics", metricsHandler)
	router.Method(http.MethodGet, "/healthz", NewHealthCheckHandler())

	handler := NewClipsHandler(store, opts.MaxAudioSize)
	router.Group(func(router chi.Router) {
		router.Use(Auth(pool))

		if opts.UploadRateLimit > 0 {
			rateLimit := RateLimitWithOpts(opts.UploadRateLimit, RateLimitOpts{Burst: opts.UploadRateBurst})
			router.With(rateLimit).Post("/clips", handler.UploadClip)
		} else {
			router.Post("/clips", handler.UploadClip)
		}

		router.Get("/clips", handler.ListClips)
		router.Get("/clips/{clipID}", handler.GetClip)
		router.Get("/clips/{clipID}/audio", handler.GetClipAudio)
		router.Post("/clips/{clipID}/votes", handler.AddVote)
		router.Post("/clips/{clipID}/ratings", handler.RateDifficulty)
	})

	router.NotFound(func(rw http.ResponseWriter, r *http.Request) {
		RespondError(rw, http.StatusNotFound, NewError(ErrCodeNotFound, "Not found."), logger)
	})
	router.MethodNotAllowed(func(rw http.ResponseWriter, r *http.Request) {
		RespondError(rw, http.StatusMethodNotAllowed, NewError(ErrCodeMethodNotAllowed, "Method not allowed."), logger)
	})

	return router
}
