package out

import (
	"context"
	"time"
)

// Cache defines the outbound port for caching.
// Every key written through it must embed the owning user id.
type Cache interface {
	// Get decodes the cached value into dest. A miss is (false, nil).
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// InvalidatePattern deletes every key matching the regular expression.
	InvalidatePattern(ctx context.Context, pattern string) (int, error)
}
