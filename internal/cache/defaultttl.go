package cache

import (
	"context"
	"time"
)

// DefaultTTLCache resolves the configured namespace default on the write
// path: any Put-family call with a ttl <= 0 is rewritten to the default
// before it reaches the providers, so an "unset" TTL means the namespace
// default rather than the provider's no-expiry policy. Explicit TTLs pass
// through untouched, and reads are not intercepted.
type DefaultTTLCache struct {
	inner Cache
	ttl   time.Duration
}

// NewDefaultTTLCache wraps inner so writes without a TTL get def.
func NewDefaultTTLCache(inner Cache, def time.Duration) *DefaultTTLCache {
	return &DefaultTTLCache{
		inner: inner,
		ttl:   def,
	}
}

func (d *DefaultTTLCache) resolve(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return d.ttl
	}
	return ttl
}

func (d *DefaultTTLCache) Get(ctx context.Context, key string) (interface{}, bool) {
	return d.inner.Get(ctx, key)
}

func (d *DefaultTTLCache) GetAll(ctx context.Context, keys []string) (map[string]interface{}, error) {
	return d.inner.GetAll(ctx, keys)
}

func (d *DefaultTTLCache) Put(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return d.inner.Put(ctx, key, value, d.resolve(ttl))
}

func (d *DefaultTTLCache) PutAll(ctx context.Context, entries map[string]interface{}, ttl time.Duration) error {
	return d.inner.PutAll(ctx, entries, d.resolve(ttl))
}

func (d *DefaultTTLCache) PutIfAbsent(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	return d.inner.PutIfAbsent(ctx, key, value, d.resolve(ttl))
}

func (d *DefaultTTLCache) Remove(ctx context.Context, key string) error {
	return d.inner.Remove(ctx, key)
}

func (d *DefaultTTLCache) Contains(ctx context.Context, key string) (bool, error) {
	return d.inner.Contains(ctx, key)
}

func (d *DefaultTTLCache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	return d.inner.Increment(ctx, key, delta)
}
