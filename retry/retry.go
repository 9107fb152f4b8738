/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

// Package retry provides a mechanism for retrying failed operations with configurable backoff.
// Delays are deterministic (no jitter): the delay before the n-th retry attempt is
// min(initialInterval * multiplier^n, maxInterval).
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default values for ExponentialBackoffPolicy.
const (
	DefaultMaxRetryAttempts = 3
	DefaultInitialInterval  = time.Millisecond * 500
	DefaultMaxInterval      = time.Second * 10
	DefaultMultiplier       = 2.0
)

// IsRetryable defines a func that can tell if error is retryable as opposed to persistent.
type IsRetryable func(error) bool

// RetryableFunc is function that does some work and can be potentially retried.
type RetryableFunc func(ctx context.Context) error

// Policy defines backoff strategy.
type Policy interface {
	NewBackOff() backoff.BackOff
}

// DoWithRetry executes fn with retry according to policy p and with respect to context ctx.
// IsRetryable defines which errors lead to retry attempt (can be nil for any error).
// Notify can be used to receive notification on every retry with error and backoff delay
// (can be nil if no notifications required).
// Non-retryable errors and the last error after all attempts are exhausted
// are returned to the caller as is, without wrapping.
func DoWithRetry(ctx context.Context, p Policy, isRetryable IsRetryable, notify backoff.Notify, fn RetryableFunc) error {
	b := p.NewBackOff()
	bctx := backoff.WithContext(b, ctx)
	var op backoff.Operation = func() error {
		err := fn(bctx.Context())
		if err != nil &&
			(isRetryable != nil && !isRetryable(err)) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(op, bctx, notify)
}

// The PolicyFunc type is an adapter to allow the use of ordinary functions as retry.Policy.
type PolicyFunc func() backoff.BackOff

// NewBackOff implements retry.Policy.
func (f PolicyFunc) NewBackOff() backoff.BackOff {
	return f()
}

// ExponentialBackoffPolicy means repeat up to max times with exponentially growing delays.
// Delays are not randomized, so the delay sequence is fully determined by the attempt number.
// The total number of calls to the wrapped function is maxAttempts + 1.
type ExponentialBackoffPolicy struct {
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
	maxAttempts     int
}

// NewExponentialBackoffPolicy returns an exponential backoff policy with given initial interval
// and max retry attempt count. Default multiplier and max interval are used.
func NewExponentialBackoffPolicy(initialInterval time.Duration, maxRetryAttempts int) ExponentialBackoffPolicy {
	return ExponentialBackoffPolicy{
		initialInterval: initialInterval,
		maxInterval:     DefaultMaxInterval,
		multiplier:      DefaultMultiplier,
		maxAttempts:     maxRetryAttempts,
	}
}

// ExponentialBackoffPolicyOpts contains optional parameters for ExponentialBackoffPolicy.
type ExponentialBackoffPolicyOpts struct {
	// MaxInterval caps the delay between attempts. DefaultMaxInterval is used if zero.
	MaxInterval time.Duration

	// Multiplier is a factor by which the delay grows on each attempt.
	// DefaultMultiplier is used if zero.
	Multiplier float64
}

// NewExponentialBackoffPolicyWithOpts returns an exponential backoff policy
// with an ability to specify different optional parameters.
func NewExponentialBackoffPolicyWithOpts(
	initialInterval time.Duration, maxRetryAttempts int, opts ExponentialBackoffPolicyOpts,
) ExponentialBackoffPolicy {
	if opts.MaxInterval == 0 {
		opts.MaxInterval = DefaultMaxInterval
	}
	if opts.Multiplier == 0 {
		opts.Multiplier = DefaultMultiplier
	}
	return ExponentialBackoffPolicy{
		initialInterval: initialInterval,
		maxInterval:     opts.MaxInterval,
		multiplier:      opts.Multiplier,
		maxAttempts:     maxRetryAttempts,
	}
}

// NewDefaultExponentialBackoffPolicy returns an exponential backoff policy with default parameters
// (3 retry attempts, 500ms initial delay, 2.0 multiplier, 10s delay cap).
func NewDefaultExponentialBackoffPolicy() ExponentialBackoffPolicy {
	return NewExponentialBackoffPolicy(DefaultInitialInterval, DefaultMaxRetryAttempts)
}

// NewBackOff implements retry.Policy.
func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.initialInterval
	eb.MaxInterval = p.maxInterval
	eb.Multiplier = p.multiplier
	eb.RandomizationFactor = 0 // Keep the delay sequence deterministic.
	eb.MaxElapsedTime = 0
	var bf backoff.BackOff = eb
	if p.maxAttempts > 0 {
		bf = backoff.WithMaxRetries(eb, uint64(p.maxAttempts))
	}
	bf.Reset()
	return bf
}

// ConstantBackoffPolicy means repeat up to max times with constant interval delays.
type ConstantBackoffPolicy struct {
	interval    time.Duration
	maxAttempts int
}

// NewConstantBackoffPolicy returns a constant backoff policy with given interval and max retry attempt count.
func NewConstantBackoffPolicy(interval time.Duration, maxRetryAttempts int) ConstantBackoffPolicy {
	return ConstantBackoffPolicy{interval, maxRetryAttempts}
}

// NewBackOff implements retry.Policy.
func (p ConstantBackoffPolicy) NewBackOff() backoff.BackOff {
	var bf backoff.BackOff = backoff.NewConstantBackOff(p.interval)
	if p.maxAttempts > 0 {
		bf = backoff.WithMaxRetries(bf, uint64(p.maxAttempts))
	}
	bf.Reset()
	return bf
}
