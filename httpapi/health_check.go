/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package httpapi

import (
	"net/http"
)

// HealthCheck is a health-check operation returning statuses of the service's components.
type HealthCheck = func() (map[string]bool, error)

type healthCheckResponseData struct {
	Components map[string]bool `json:"components"`
}

// HealthCheckHandler implements http.Handler and does health-check of the service.
type HealthCheckHandler struct {
	healthCheckFn HealthCheck
}

// NewHealthCheckHandler creates a new http.Handler for doing health-check.
func NewHealthCheckHandler() *HealthCheckHandler {
	return NewHealthCheckHandlerWithCheck(nil)
}

// NewHealthCheckHandlerWithCheck creates a new http.Handler for doing health-check.
// The passed function will be called inside the handler and should return statuses of the service's components.
func NewHealthCheckHandlerWithCheck(fn HealthCheck) *HealthCheckHandler {
	if fn == nil {
		fn = func() (map[string]bool, error) {
			return map[string]bool{}, nil
		}
	}
	return &HealthCheckHandler{fn}
}

// ServeHTTP serves health-check HTTP request.
func (h *HealthCheckHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	components, err := h.healthCheckFn()
	if err != nil {
		RespondInternalError(rw, GetLoggerFromContext(r.Context()))
		return
	}
	statusCode := http.StatusOK
	for _, ok := range components {
		if !ok {
			statusCode = http.StatusServiceUnavailable
			break
		}
	}
	RespondJSON(rw, statusCode, healthCheckResponseData{Components: components}, GetLoggerFromContext(r.Context()))
}
