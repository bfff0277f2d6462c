// Package metrics tracks per-operation latency for remote calls.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// =============================================================================
// Latency Tracker with P50/P95/P99 Percentiles
// =============================================================================

// LatencyTracker keeps a sliding window of latency samples.
type LatencyTracker struct {
	mu         sync.Mutex
	samples    []int64 // microseconds
	maxSamples int
	sorted     bool
	errors     int64
	total      int64
}

// NewLatencyTracker creates a tracker holding the last windowSize samples.
func NewLatencyTracker(windowSize int) *LatencyTracker {
	if windowSize <= 0 {
		windowSize = 1000
	}
	return &LatencyTracker{
		samples:    make([]int64, 0, windowSize),
		maxSamples: windowSize,
	}
}

// Record records a latency measurement.
func (lt *LatencyTracker) Record(d time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	if len(lt.samples) >= lt.maxSamples {
		// Drop the oldest 10% at once to avoid shifting on every sample.
		removeCount := lt.maxSamples / 10
		if removeCount < 1 {
			removeCount = 1
		}
		lt.samples = append(lt.samples[:0], lt.samples[removeCount:]...)
	}

	lt.samples = append(lt.samples, d.Microseconds())
	lt.sorted = false
	lt.total++
}

// RecordError counts a failed call.
func (lt *LatencyTracker) RecordError() {
	lt.mu.Lock()
	lt.errors++
	lt.mu.Unlock()
}

// Stats returns latency statistics including percentiles.
func (lt *LatencyTracker) Stats() LatencyStats {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	stats := LatencyStats{Count: lt.total, Errors: lt.errors}
	n := len(lt.samples)
	if n == 0 {
		return stats
	}

	if !lt.sorted {
		sort.Slice(lt.samples, func(i, j int) bool { return lt.samples[i] < lt.samples[j] })
		lt.sorted = true
	}

	var sum int64
	for _, v := range lt.samples {
		sum += v
	}

	stats.Min = micros(lt.samples[0])
	stats.Max = micros(lt.samples[n-1])
	stats.Avg = micros(sum / int64(n))
	stats.P50 = micros(lt.percentile(0.50))
	stats.P95 = micros(lt.percentile(0.95))
	stats.P99 = micros(lt.percentile(0.99))
	stats.Samples = n
	return stats
}

// percentile must be called with the lock held on sorted samples.
func (lt *LatencyTracker) percentile(p float64) int64 {
	idx := int(float64(len(lt.samples)-1) * p)
	return lt.samples[idx]
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}

// LatencyStats holds latency statistics.
type LatencyStats struct {
	Count   int64         `json:"count"`
	Errors  int64         `json:"errors"`
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
	Avg     time.Duration `json:"avg"`
	P50     time.Duration `json:"p50"`
	P95     time.Duration `json:"p95"`
	P99     time.Duration `json:"p99"`
	Samples int           `json:"samples"`
}

// ToMap renders the stats in milliseconds for JSON responses.
func (s LatencyStats) ToMap() map[string]any {
	return map[string]any{
		"count":       s.Count,
		"errors":      s.Errors,
		"min_ms":      float64(s.Min.Microseconds()) / 1000,
		"max_ms":      float64(s.Max.Microseconds()) / 1000,
		"avg_ms":      float64(s.Avg.Microseconds()) / 1000,
		"p50_ms":      float64(s.P50.Microseconds()) / 1000,
		"p95_ms":      float64(s.P95.Microseconds()) / 1000,
		"p99_ms":      float64(s.P99.Microseconds()) / 1000,
		"sample_size": s.Samples,
	}
}

// =============================================================================
// Multi-Operation Latency Registry
// =============================================================================

// LatencyRegistry holds one tracker per operation name.
type LatencyRegistry struct {
	mu       sync.RWMutex
	trackers map[string]*LatencyTracker
	window   int
}

// NewLatencyRegistry creates a new latency registry.
func NewLatencyRegistry(windowSize int) *LatencyRegistry {
	return &LatencyRegistry{
		trackers: make(map[string]*LatencyTracker),
		window:   windowSize,
	}
}

func (r *LatencyRegistry) tracker(op string) *LatencyTracker {
	r.mu.RLock()
	t, ok := r.trackers[op]
	r.mu.RUnlock()
	if ok {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok = r.trackers[op]; !ok {
		t = NewLatencyTracker(r.window)
		r.trackers[op] = t
	}
	return t
}

// Record records a latency for the given operation.
func (r *LatencyRegistry) Record(op string, d time.Duration) {
	r.tracker(op).Record(d)
}

// Observe times a call and counts it as failed when err is non-nil.
func (r *LatencyRegistry) Observe(op string, start time.Time, err error) {
	t := r.tracker(op)
	t.Record(time.Since(start))
	if err != nil {
		t.RecordError()
	}
}

// Stats returns latency statistics for one operation.
func (r *LatencyRegistry) Stats(op string) LatencyStats {
	r.mu.RLock()
	t, ok := r.trackers[op]
	r.mu.RUnlock()
	if !ok {
		return LatencyStats{}
	}
	return t.Stats()
}

// AllStats returns latency statistics for all operations.
func (r *LatencyRegistry) AllStats() map[string]LatencyStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]LatencyStats, len(r.trackers))
	for name, t := range r.trackers {
		result[name] = t.Stats()
	}
	return result
}
