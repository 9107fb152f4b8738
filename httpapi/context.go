/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package httpapi

import (
	"context"

	"github.com/chorushub/go-clipkit/clientpool"
	"github.com/chorushub/go-clipkit/log"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyLogger
	ctxKeyClient
)

// NewContextWithRequestID creates a new context with request id.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// GetRequestIDFromContext extracts request id from the context.
func GetRequestIDFromContext(ctx context.Context) string {
	value := ctx.Value(ctxKeyRequestID)
	if value == nil {
		return ""
	}
	return value.(string)
}

// NewContextWithLogger creates a new context with logger.
func NewContextWithLogger(ctx context.Context, logger log.FieldLogger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, logger)
}

// GetLoggerFromContext extracts logger from the context.
func GetLoggerFromContext(ctx context.Context) log.FieldLogger {
	value := ctx.Value(ctxKeyLogger)
	if value == nil {
		return nil
	}
	return value.(log.FieldLogger)
}

// NewContextWithClient creates a new context with the authenticated caller's client.
func NewContextWithClient(ctx context.Context, client *clientpool.Client) context.Context {
	return context.WithValue(ctx, ctxKeyClient, client)
}

// GetClientFromContext extracts the authenticated caller's client from the context.
func GetClientFromContext(ctx context.Context) *clientpool.Client {
	value := ctx.Value(ctxKeyClient)
	if value == nil {
		return nil
	}
	return value.(*clientpool.Client)
}
