/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package retry

import (
	"context"
	"errors"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoffPolicyDelaySequence(t *testing.T) {
	p := NewDefaultExponentialBackoffPolicy()
	b := p.NewBackOff()

	wantDelays := []time.Duration{
		time.Millisecond * 500,
		time.Second,
		time.Second * 2,
	}
	for _, wantDelay := range wantDelays {
		require.Equal(t, wantDelay, b.NextBackOff())
	}
	require.Equal(t, backoff.Stop, b.NextBackOff(), "backoff should stop after all retry attempts are done")
}

func TestExponentialBackoffPolicyDelayCap(t *testing.T) {
	p := NewExponentialBackoffPolicyWithOpts(time.Second, 10, ExponentialBackoffPolicyOpts{
		MaxInterval: time.Second * 4,
		Multiplier:  2,
	})
	b := p.NewBackOff()

	wantDelays := []time.Duration{
		time.Second,
		time.Second * 2,
		time.Second * 4,
		time.Second * 4,
		time.Second * 4,
	}
	for _, wantDelay := range wantDelays {
		require.Equal(t, wantDelay, b.NextBackOff())
	}
}

func TestDoWithRetryExhaustsAttempts(t *testing.T) {
	wantErr := NewHTTPStatusError(http.StatusServiceUnavailable)

	var callsCount int
	var notifiedErrs []error
	notify := func(err error, delay time.Duration) {
		notifiedErrs = append(notifiedErrs, err)
	}

	p := NewExponentialBackoffPolicyWithOpts(time.Millisecond, 3, ExponentialBackoffPolicyOpts{})
	err := DoWithRetry(context.Background(), p, IsTransient, notify, func(ctx context.Context) error {
		callsCount++
		return wantErr
	})

	require.Equal(t, 4, callsCount, "total attempts should be maxRetries + 1")
	require.Len(t, notifiedErrs, 3, "notify should be called once per retry")
	require.Same(t, wantErr, err.(*HTTPStatusError), "the last error should be returned as is")
}

func TestDoWithRetryPermanentErrorIsNotRetried(t *testing.T) {
	wantErr := errors.New("malformed payload")

	var callsCount int
	p := NewExponentialBackoffPolicy(time.Millisecond, 3)
	err := DoWithRetry(context.Background(), p, IsTransient, nil, func(ctx context.Context) error {
		callsCount++
		return wantErr
	})

	require.Equal(t, 1, callsCount)
	require.ErrorIs(t, err, wantErr)
}

func TestDoWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	var callsCount int
	p := NewExponentialBackoffPolicy(time.Millisecond, 5)
	err := DoWithRetry(context.Background(), p, IsTransient, nil, func(ctx context.Context) error {
		callsCount++
		if callsCount < 3 {
			return NewHTTPStatusError(http.StatusTooManyRequests)
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, callsCount)
}

func TestDoWithRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var callsCount int
	p := NewExponentialBackoffPolicy(time.Hour, 3)
	err := DoWithRetry(ctx, p, IsTransient, nil, func(ctx context.Context) error {
		callsCount++
		cancel()
		return NewHTTPStatusError(http.StatusInternalServerError)
	})

	require.Error(t, err)
	require.Equal(t, 1, callsCount, "no retries should happen after the context is canceled")
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "server error", err: NewHTTPStatusError(http.StatusBadGateway), want: true},
		{name: "rate limited", err: NewHTTPStatusError(http.StatusTooManyRequests), want: true},
		{name: "client error", err: NewHTTPStatusError(http.StatusNotFound), want: false},
		{name: "network timeout", err: timeoutError{}, want: true},
		{name: "wrapped network timeout", err: &wrappedError{inner: timeoutError{}}, want: true},
		{name: "connection refused", err: syscall.ECONNREFUSED, want: true},
		{name: "connection reset", err: syscall.ECONNRESET, want: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "plain error", err: errors.New("validation failed"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

type wrappedError struct {
	inner error
}

func (e *wrappedError) Error() string { return "wrapped: " + e.inner.Error() }
func (e *wrappedError) Unwrap() error { return e.inner }
