package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errRetryable = errors.New("503 backend error")
	errFatal     = errors.New("400 bad request")
)

func isRetryable(err error) bool { return errors.Is(err, errRetryable) }

// recordingSleeper hands out timers that fire at once and remembers each wait.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) NewTimer() backoff.Timer {
	return &instantTimer{owner: r, c: make(chan time.Time, 1)}
}

type instantTimer struct {
	owner *recordingSleeper
	c     chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	t.owner.mu.Lock()
	t.owner.delays = append(t.owner.delays, d)
	t.owner.mu.Unlock()
	t.c <- time.Time{}
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

func TestRetryPolicy_AttemptBound(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
	}{
		{"no retries", 0},
		{"one retry", 1},
		{"three retries", 3},
		{"five retries", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sleeper := &recordingSleeper{}
			p := &RetryPolicy{
				MaxRetries:  tt.maxRetries,
				BaseDelay:   100 * time.Millisecond,
				IsRetryable: isRetryable,
				NewTimer:    sleeper.NewTimer,
			}

			calls := 0
			err := p.Do(context.Background(), func(context.Context) error {
				calls++
				return errRetryable
			})

			assert.Same(t, errRetryable, err, "original error is re-raised")
			assert.Equal(t, tt.maxRetries+1, calls)
			assert.Len(t, sleeper.delays, tt.maxRetries)
		})
	}
}

func TestRetryPolicy_ExponentialDelays(t *testing.T) {
	sleeper := &recordingSleeper{}
	p := &RetryPolicy{
		MaxRetries:  4,
		BaseDelay:   time.Second,
		IsRetryable: isRetryable,
		NewTimer:    sleeper.NewTimer,
	}

	_ = p.Do(context.Background(), func(context.Context) error { return errRetryable })

	assert.Equal(t, []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	}, sleeper.delays)
}

func TestRetryPolicy_FatalNotRetried(t *testing.T) {
	sleeper := &recordingSleeper{}
	p := &RetryPolicy{MaxRetries: 3, BaseDelay: time.Second, IsRetryable: isRetryable, NewTimer: sleeper.NewTimer}

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errFatal
	})

	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.delays)
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	sleeper := &recordingSleeper{}
	p := &RetryPolicy{MaxRetries: 3, BaseDelay: 10 * time.Millisecond, IsRetryable: isRetryable, NewTimer: sleeper.NewTimer}

	calls := 0
	v, err := Retry(context.Background(), p, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errRetryable
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, sleeper.delays)
}

func TestRetry_OnRetryHook(t *testing.T) {
	var attempts []int
	p := &RetryPolicy{
		MaxRetries:  2,
		BaseDelay:   time.Millisecond,
		IsRetryable: isRetryable,
		NewTimer:    (&recordingSleeper{}).NewTimer,
		OnRetry: func(attempt int, _ time.Duration, err error) {
			assert.ErrorIs(t, err, errRetryable)
			attempts = append(attempts, attempt)
		},
	}

	_ = p.Do(context.Background(), func(context.Context) error { return errRetryable })
	assert.Equal(t, []int{0, 1}, attempts)
}

func TestRetry_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &RetryPolicy{MaxRetries: 5, BaseDelay: time.Hour, IsRetryable: isRetryable}

	calls := 0
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(context.Context) error {
			calls++
			if calls == 1 {
				close(started)
			}
			return errRetryable
		})
	}()

	<-started
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not observe cancellation")
	}
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := DefaultRetryPolicy(isRetryable)
	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, time.Second, p.Delay(0))
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))
}

func TestRetry_NilClassifierRetriesNothing(t *testing.T) {
	p := &RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}

	err := p.Do(context.Background(), func(context.Context) error { return errRetryable })

	assert.Same(t, errRetryable, err, "nil classifier retries nothing and keeps the error")
}

func TestRetry_AlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, IsRetryable: isRetryable}

	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
