// Package resilience provides fault tolerance patterns for external service calls.
package resilience

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy retries retryable failures with exponential backoff.
// A call is attempted at most MaxRetries+1 times; the wait before retry n
// (n starting at 0) is BaseDelay * 2^n.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration

	// IsRetryable classifies an error. Nil means nothing is retried.
	IsRetryable func(error) bool

	// NewTimer builds the timer used between attempts. Nil uses a real timer.
	NewTimer func() backoff.Timer

	// OnRetry is called before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryPolicy returns 3 retries starting at one second.
func DefaultRetryPolicy(isRetryable func(error) bool) *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:  3,
		BaseDelay:   time.Second,
		IsRetryable: isRetryable,
	}
}

// Delay returns the wait before the given retry attempt.
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay << uint(attempt)
}

// backOff builds a deterministic doubling schedule bounded by MaxRetries.
func (p *RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(p.MaxRetries, 0))), ctx)
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempts are exhausted. The last error is returned unchanged.
func (p *RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Retry(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Retry is the value-returning form of RetryPolicy.Do.
func Retry[T any](ctx context.Context, p *RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	var value T
	operation := func() error {
		v, err := fn(ctx)
		if err != nil {
			if p.IsRetryable == nil || !p.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		value = v
		return nil
	}

	attempt := 0
	notify := func(err error, delay time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		attempt++
	}

	var err error
	if p.NewTimer != nil {
		err = backoff.RetryNotifyWithTimer(operation, p.backOff(ctx), notify, p.NewTimer())
	} else {
		err = backoff.RetryNotify(operation, p.backOff(ctx), notify)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}
