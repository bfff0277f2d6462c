package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T, prefix string) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCache(client, prefix)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c, mr := newTestRedisCache(t, "")
	ctx := context.Background()

	type record struct {
		Domain string `json:"domain"`
		Score  int    `json:"score"`
	}
	in := []record{{"netflix.com", 95}, {"github.com", 90}}
	require.NoError(t, c.Set(ctx, "scan:u1:q", in, time.Minute))

	assert.True(t, mr.Exists("signup:scan:u1:q"), "default prefix applied")

	var got []record
	ok, err := c.Get(ctx, "scan:u1:q", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, got)

	ok, err = c.Get(ctx, "scan:u1:missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Delete(ctx, "scan:u1:q"))
	assert.False(t, mr.Exists("signup:scan:u1:q"))
}

func TestRedisCache_SetRejectsBadInput(t *testing.T) {
	c, _ := newTestRedisCache(t, "")
	ctx := context.Background()

	assert.ErrorIs(t, c.Set(ctx, "", "v", time.Minute), ErrEmptyKey)
	assert.ErrorIs(t, c.Set(ctx, "k", "v", 0), ErrInvalidTTL)
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := newTestRedisCache(t, "")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "label:u1:netflix.com", "Netflix", 10*time.Second))

	mr.FastForward(9 * time.Second)
	var name string
	ok, err := c.Get(ctx, "label:u1:netflix.com", &name)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Netflix", name)

	mr.FastForward(2 * time.Second)
	ok, err = c.Get(ctx, "label:u1:netflix.com", &name)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_InvalidatePattern(t *testing.T) {
	c, mr := newTestRedisCache(t, "test:")
	ctx := context.Background()

	for _, k := range []string{
		"scan:user42:100:aa",
		"scan:user42:50:bb",
		"label:user42:netflix.com",
		"scan:u1:100:aa",
		"label:u1:github.com",
	} {
		require.NoError(t, c.Set(ctx, k, "v", time.Minute))
	}
	// Keys outside the prefix are never touched.
	require.NoError(t, mr.Set("other:scan:user42:1:cc", "v"))

	n, err := c.InvalidatePattern(ctx, ".*user42.*")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.ElementsMatch(t, []string{
		"other:scan:user42:1:cc",
		"test:label:u1:github.com",
		"test:scan:u1:100:aa",
	}, mr.Keys())
}

func TestRedisCache_InvalidatePatternMatchesUnprefixedKey(t *testing.T) {
	c, mr := newTestRedisCache(t, "")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "scan:u1:10:aa", "v", time.Minute))
	require.NoError(t, c.Set(ctx, "scan:u10:10:aa", "v", time.Minute))

	n, err := c.InvalidatePattern(ctx, "^scan:u1:")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"signup:scan:u10:10:aa"}, mr.Keys())
}

func TestRedisCache_InvalidatePatternBadRegex(t *testing.T) {
	c, _ := newTestRedisCache(t, "")

	_, err := c.InvalidatePattern(context.Background(), "(")
	assert.Error(t, err)
}
