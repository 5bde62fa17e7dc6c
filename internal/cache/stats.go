package cache

import (
	"context"
	"sync/atomic"
	"time"
)

// Statistics holds monotonic hit/miss/eviction counters for one decorated
// cache instance. All methods are safe for concurrent use; recording never
// fails the surrounding operation.
type Statistics struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// NewStatistics creates a zeroed counter set.
func NewStatistics() *Statistics {
	return &Statistics{}
}

// RecordHit increments the hit counter.
func (s *Statistics) RecordHit() {
	s.hits.Add(1)
}

// RecordMiss increments the miss counter.
func (s *Statistics) RecordMiss() {
	s.misses.Add(1)
}

// RecordEviction increments the eviction counter.
func (s *Statistics) RecordEviction() {
	s.evictions.Add(1)
}

// Snapshot returns a consistent-enough copy for monitoring; counters keep
// moving underneath it.
func (s *Statistics) Snapshot() StatsSnapshot {
	snapshot := StatsSnapshot{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
	}
	if total := snapshot.Hits + snapshot.Misses; total > 0 {
		snapshot.HitRate = float64(snapshot.Hits) / float64(total)
	}
	return snapshot
}

// Reset zeroes the counters without touching cached data.
func (s *Statistics) Reset() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.evictions.Store(0)
}

// InstrumentedCache is the outermost decorator in the chain: it counts
// hits and misses on the read path and delegates everything else.
type InstrumentedCache struct {
	inner Cache
	stats *Statistics
}

// NewInstrumentedCache wraps inner with hit/miss accounting. A nil stats
// allocates a fresh counter set.
func NewInstrumentedCache(inner Cache, stats *Statistics) *InstrumentedCache {
	if stats == nil {
		stats = NewStatistics()
	}
	return &InstrumentedCache{
		inner: inner,
		stats: stats,
	}
}

// Stats exposes the counters backing this instance.
func (i *InstrumentedCache) Stats() *Statistics {
	return i.stats
}

func (i *InstrumentedCache) Get(ctx context.Context, key string) (interface{}, bool) {
	value, ok := i.inner.Get(ctx, key)
	if ok {
		i.stats.RecordHit()
	} else {
		i.stats.RecordMiss()
	}
	return value, ok
}

func (i *InstrumentedCache) GetAll(ctx context.Context, keys []string) (map[string]interface{}, error) {
	result, err := i.inner.GetAll(ctx, keys)
	if err != nil {
		return nil, err
	}

	// Count each distinct requested key once, so duplicates in the batch
	// cannot inflate either counter.
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := result[key]; ok {
			i.stats.RecordHit()
		} else {
			i.stats.RecordMiss()
		}
	}
	return result, nil
}

func (i *InstrumentedCache) Put(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return i.inner.Put(ctx, key, value, ttl)
}

func (i *InstrumentedCache) PutAll(ctx context.Context, entries map[string]interface{}, ttl time.Duration) error {
	return i.inner.PutAll(ctx, entries, ttl)
}

func (i *InstrumentedCache) PutIfAbsent(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	return i.inner.PutIfAbsent(ctx, key, value, ttl)
}

func (i *InstrumentedCache) Remove(ctx context.Context, key string) error {
	return i.inner.Remove(ctx, key)
}

func (i *InstrumentedCache) Contains(ctx context.Context, key string) (bool, error) {
	return i.inner.Contains(ctx, key)
}

func (i *InstrumentedCache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	return i.inner.Increment(ctx, key, delta)
}
