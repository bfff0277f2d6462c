// Package cache provides the in-process TTL cache and the Redis-backed cache.
package cache

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"
)

var (
	ErrEmptyKey   = errors.New("cache: empty key")
	ErrInvalidTTL = errors.New("cache: ttl must be positive")
)

// =============================================================================
// TTL Cache - In-Memory with Lazy Expiry and Periodic Sweep
// =============================================================================

// Entry is a cached value with its bookkeeping.
type Entry struct {
	Value          any
	ExpiresAt      time.Time
	CreatedAt      time.Time
	LastAccessedAt time.Time
	HitCount       int64
}

func (e *Entry) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// TTLConfig configures the TTL cache
type TTLConfig struct {
	// SweepInterval is the period of the background expiry sweep.
	// Zero or negative disables the sweep goroutine.
	SweepInterval time.Duration

	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// DefaultTTLConfig returns the default sweep cadence.
func DefaultTTLConfig() *TTLConfig {
	return &TTLConfig{
		SweepInterval: 5 * time.Minute,
		Now:           time.Now,
	}
}

// TTLCache is an expiring key/value store safe for concurrent use.
// Expired entries are removed on read and by a periodic sweep; there are no per-key timers.
type TTLCache struct {
	mu   sync.Mutex
	data map[string]*Entry
	now  func() time.Time

	hits    int64
	misses  int64
	sets    int64
	deletes int64
	expired int64

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewTTLCache creates a cache and starts its sweep loop.
func NewTTLCache(config *TTLConfig) *TTLCache {
	if config == nil {
		config = DefaultTTLConfig()
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	c := &TTLCache{
		data:   make(map[string]*Entry),
		now:    now,
		stopCh: make(chan struct{}),
	}

	if config.SweepInterval > 0 {
		c.wg.Add(1)
		go c.sweepLoop(config.SweepInterval)
	}

	return c
}

// Set stores value under key until now+ttl, replacing any previous entry and its expiry.
func (c *TTLCache) Set(key string, value any, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTTL, ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.data[key] = &Entry{
		Value:          value,
		ExpiresAt:      now.Add(ttl),
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	c.sets++
	return nil
}

// Get returns the value if present and not expired.
// An expired entry is deleted and counted as a miss.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		c.misses++
		return nil, false
	}

	now := c.now()
	if entry.expired(now) {
		delete(c.data, key)
		c.expired++
		c.misses++
		return nil, false
	}

	c.hits++
	entry.HitCount++
	entry.LastAccessedAt = now
	return entry.Value, true
}

// Has reports whether a live entry exists. It does not touch hit counters.
func (c *TTLCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return false
	}
	if entry.expired(c.now()) {
		delete(c.data, key)
		c.expired++
		return false
	}
	return true
}

// Delete removes key. Deleting a missing key is a no-op.
func (c *TTLCache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.data[key]; !ok {
		return false
	}
	delete(c.data, key)
	c.deletes++
	return true
}

// InvalidatePattern removes every key matching the regular expression and
// returns how many were removed.
func (c *TTLCache) InvalidatePattern(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("cache: invalid pattern %q: %w", pattern, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.data {
		if re.MatchString(key) {
			delete(c.data, key)
			removed++
		}
	}
	c.deletes += int64(removed)
	return removed, nil
}

// Inspect returns a copy of the entry without counting an access.
func (c *TTLCache) Inspect(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok || entry.expired(c.now()) {
		return Entry{}, false
	}
	return *entry, true
}

// Sweep removes every expired entry and returns the number removed.
func (c *TTLCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.data {
		if entry.expired(now) {
			delete(c.data, key)
			removed++
		}
	}
	c.expired += int64(removed)
	return removed
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Stats returns cache statistics
func (c *TTLCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	hitRate := float64(0)
	total := c.hits + c.misses
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Keys:    len(c.data),
		Hits:    c.hits,
		Misses:  c.misses,
		Sets:    c.sets,
		Deletes: c.deletes,
		Expired: c.expired,
		HitRate: hitRate,
	}
}

// Stats contains cumulative cache counters
type Stats struct {
	Keys    int     `json:"keys"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Deletes int64   `json:"deletes"`
	Expired int64   `json:"expired"`
	HitRate float64 `json:"hit_rate"`
}

// Close stops the sweep loop. It is safe to call more than once.
func (c *TTLCache) Close() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	c.wg.Wait()
}

func (c *TTLCache) sweepLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stopCh:
			return
		}
	}
}
