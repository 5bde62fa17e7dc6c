package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"nexus-cache/internal/common/errors"
)

// localEntry carries a value together with its absolute deadline. A zero
// deadline means the entry never expires.
type localEntry struct {
	value     interface{}
	expiresAt time.Time
}

func (e localEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// LocalCache is the in-process tier: a bounded LRU holding at most capacity
// entries, with per-entry TTLs checked lazily on read and swept by an
// optional janitor goroutine.
//
// TTL policy: a ttl <= 0 on Put falls back to the cache's default TTL; when
// the default is also zero the entry never expires.
//
// Entries pushed out by the capacity bound are reported through the
// eviction hook; entries dropped because their TTL lapsed are not.
type LocalCache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, localEntry]

	defaultTTL time.Duration

	// suppressEvict is set while the cache itself removes entries
	// (expiry, explicit Remove) so the LRU callback only reports
	// capacity-driven evictions.
	suppressEvict bool
	onEvict       func(key string)

	stopJanitor chan struct{}
	stopOnce    sync.Once
}

// NewLocalCache creates a bounded in-process cache. A cleanupInterval of
// zero disables the background sweep; expired entries are then dropped
// lazily on access.
func NewLocalCache(capacity int, defaultTTL, cleanupInterval time.Duration) (*LocalCache, error) {
	if capacity <= 0 {
		return nil, errors.ConfigError("local cache capacity must be positive")
	}

	c := &LocalCache{
		defaultTTL:  defaultTTL,
		stopJanitor: make(chan struct{}),
	}

	entries, err := lru.NewWithEvict[string, localEntry](capacity, func(key string, _ localEntry) {
		if c.suppressEvict {
			return
		}
		if hook := c.onEvict; hook != nil {
			hook(key)
		}
	})
	if err != nil {
		return nil, errors.InternalError("failed to create LRU store", err)
	}
	c.entries = entries

	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	}

	return c, nil
}

// SetEvictionHook registers a callback invoked with the key of every entry
// evicted by the capacity bound. Must be set before the cache is shared.
func (c *LocalCache) SetEvictionHook(hook func(key string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = hook
}

// Stop terminates the janitor goroutine. Safe to call more than once.
func (c *LocalCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopJanitor) })
}

// Len returns the current entry count, including entries whose TTL has
// lapsed but which have not been swept yet.
func (c *LocalCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

func (c *LocalCache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key, time.Now())
}

// getLocked reads an entry and drops it when expired. Callers hold c.mu.
func (c *LocalCache) getLocked(key string, now time.Time) (interface{}, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if entry.expired(now) {
		c.removeLocked(key)
		return nil, false
	}
	return entry.value, true
}

func (c *LocalCache) GetAll(ctx context.Context, keys []string) (map[string]interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	result := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		if value, ok := c.getLocked(key, now); ok {
			result[key] = value
		}
	}
	return result, nil
}

func (c *LocalCache) Put(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(key, value, ttl)
	return nil
}

func (c *LocalCache) putLocked(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	entry := localEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries.Add(key, entry)
}

func (c *LocalCache) PutAll(ctx context.Context, entries map[string]interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, value := range entries {
		c.putLocked(key, value, ttl)
	}
	return nil
}

func (c *LocalCache) PutIfAbsent(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.getLocked(key, time.Now()); ok {
		return false, nil
	}
	c.putLocked(key, value, ttl)
	return true, nil
}

func (c *LocalCache) Remove(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
	return nil
}

// removeLocked deletes without reporting an eviction. Callers hold c.mu.
func (c *LocalCache) removeLocked(key string) {
	c.suppressEvict = true
	c.entries.Remove(key)
	c.suppressEvict = false
}

func (c *LocalCache) Contains(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.getLocked(key, time.Now())
	return ok, nil
}

func (c *LocalCache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	current, ok := c.getLocked(key, now)
	if !ok {
		c.putLocked(key, delta, 0)
		return delta, nil
	}

	counter, ok := toInt64(current)
	if !ok {
		return 0, errors.CacheError("value is not an integer counter", nil).
			WithContext("key", key)
	}

	counter += delta

	// Preserve the existing deadline rather than restarting the TTL.
	entry, _ := c.entries.Peek(key)
	entry.value = counter
	c.entries.Add(key, entry)

	return counter, nil
}

// janitor sweeps expired entries so a quiet cache does not pin dead values
// until their keys are touched again.
func (c *LocalCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopJanitor:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *LocalCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, key := range c.entries.Keys() {
		if entry, ok := c.entries.Peek(key); ok && entry.expired(now) {
			c.removeLocked(key)
		}
	}
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	default:
		return 0, false
	}
}
