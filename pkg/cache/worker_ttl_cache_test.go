package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(clock *fakeClock) *TTLCache {
	return NewTTLCache(&TTLConfig{Now: clock.Now})
}

func TestTTLCache_SetGet(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
	}{
		{"one second", time.Second},
		{"one minute", time.Minute},
		{"one hour", time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			c := newTestCache(clock)
			defer c.Close()

			require.NoError(t, c.Set("k", "v", tt.ttl))

			v, ok := c.Get("k")
			require.True(t, ok)
			assert.Equal(t, "v", v)

			clock.Advance(tt.ttl)
			_, ok = c.Get("k")
			assert.True(t, ok, "entry is live until now passes expiresAt")

			clock.Advance(time.Millisecond)
			before := c.Stats().Misses
			_, ok = c.Get("k")
			assert.False(t, ok)
			assert.Equal(t, before+1, c.Stats().Misses)

			_, ok = c.Get("k")
			assert.False(t, ok)
			assert.Equal(t, before+2, c.Stats().Misses)
			assert.Equal(t, 0, c.Len(), "lazy expiry deletes the entry")
		})
	}
}

func TestTTLCache_SetRejectsBadInput(t *testing.T) {
	c := newTestCache(newFakeClock())
	defer c.Close()

	assert.ErrorIs(t, c.Set("", "v", time.Second), ErrEmptyKey)
	assert.ErrorIs(t, c.Set("k", "v", 0), ErrInvalidTTL)
	assert.ErrorIs(t, c.Set("k", "v", -time.Second), ErrInvalidTTL)
}

func TestTTLCache_OverwriteResetsTTL(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)
	defer c.Close()

	require.NoError(t, c.Set("k", 1, time.Second))
	clock.Advance(900 * time.Millisecond)
	require.NoError(t, c.Set("k", 2, time.Second))
	clock.Advance(900 * time.Millisecond)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, int64(2), c.Stats().Sets)
}

func TestTTLCache_HitBookkeeping(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)
	defer c.Close()

	require.NoError(t, c.Set("k", "v", time.Minute))
	clock.Advance(time.Second)

	assert.True(t, c.Has("k"))
	e, ok := c.Inspect("k")
	require.True(t, ok)
	assert.Equal(t, int64(0), e.HitCount, "Has does not count as a hit")

	c.Get("k")
	c.Get("k")
	e, _ = c.Inspect("k")
	assert.Equal(t, int64(2), e.HitCount)
	assert.Equal(t, clock.Now(), e.LastAccessedAt)
	assert.Equal(t, clock.Now().Add(-time.Second), e.CreatedAt)

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
	assert.InDelta(t, 1.0, stats.HitRate, 0.0001)
}

func TestTTLCache_HasExpired(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)
	defer c.Close()

	require.NoError(t, c.Set("k", "v", time.Second))
	clock.Advance(2 * time.Second)

	assert.False(t, c.Has("k"))
	assert.Equal(t, int64(0), c.Stats().Misses)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCache_DeleteIdempotent(t *testing.T) {
	c := newTestCache(newFakeClock())
	defer c.Close()

	require.NoError(t, c.Set("k", "v", time.Minute))
	assert.True(t, c.Delete("k"))
	assert.False(t, c.Delete("k"))
	assert.False(t, c.Delete("never-set"))

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.Stats().Deletes)
}

func TestTTLCache_InvalidatePattern(t *testing.T) {
	c := newTestCache(newFakeClock())
	defer c.Close()

	for _, k := range []string{"scan:user42:a", "label:user42:netflix.com", "list:user42"} {
		require.NoError(t, c.Set(k, "x", time.Minute))
	}
	for _, k := range []string{"scan:user7:a", "label:user7:netflix.com"} {
		require.NoError(t, c.Set(k, "y", time.Minute))
	}

	n, err := c.InvalidatePattern(".*user42.*")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, k := range []string{"scan:user7:a", "label:user7:netflix.com"} {
		v, ok := c.Get(k)
		assert.True(t, ok, k)
		assert.Equal(t, "y", v)
	}
	assert.Equal(t, 2, c.Len())
}

func TestTTLCache_InvalidatePatternBadRegex(t *testing.T) {
	c := newTestCache(newFakeClock())
	defer c.Close()

	_, err := c.InvalidatePattern("([")
	assert.Error(t, err)
}

func TestTTLCache_Sweep(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)
	defer c.Close()

	require.NoError(t, c.Set("short", 1, time.Second))
	require.NoError(t, c.Set("long", 2, time.Hour))
	clock.Advance(time.Minute)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Has("long"))
	assert.Equal(t, int64(1), c.Stats().Expired)
}

func TestTTLCache_SweepLoop(t *testing.T) {
	clock := newFakeClock()
	c := NewTTLCache(&TTLConfig{SweepInterval: 5 * time.Millisecond, Now: clock.Now})
	defer c.Close()

	require.NoError(t, c.Set("k", 1, time.Second))
	clock.Advance(time.Minute)

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestTTLCache_CloseTwice(t *testing.T) {
	c := NewTTLCache(nil)
	c.Close()
	c.Close()
}

func TestTTLCache_Concurrent(t *testing.T) {
	c := newTestCache(newFakeClock())
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("user%d:%d", i, j%10)
				_ = c.Set(key, j, time.Minute)
				c.Get(key)
				c.Has(key)
				if j%50 == 0 {
					_, _ = c.InvalidatePattern(fmt.Sprintf("^user%d:", i))
				}
			}
		}(i)
	}
	wg.Wait()

	stats := c.Stats()
	assert.Equal(t, int64(16*200), stats.Sets)
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	ttl := newTestCache(newFakeClock())
	defer ttl.Close()
	mc := NewMemoryCache(ttl)
	ctx := context.Background()

	type record struct {
		Domain string `json:"domain"`
		Score  int    `json:"score"`
	}
	in := []record{{"netflix.com", 95}, {"github.com", 90}}
	require.NoError(t, mc.Set(ctx, "scan:u1:q", in, time.Minute))

	var out []record
	ok, err := mc.Get(ctx, "scan:u1:q", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)

	out[0].Score = 1
	var again []record
	_, _ = mc.Get(ctx, "scan:u1:q", &again)
	assert.Equal(t, 95, again[0].Score, "cached value is not aliased")

	ok, err = mc.Get(ctx, "missing", &out)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := mc.InvalidatePattern(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(1), mc.Stats().Deletes)
}
