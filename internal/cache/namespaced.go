package cache

import (
	"context"
	"time"
)

// NamespacedCache isolates a logical cache inside a shared store by
// rewriting every key to "namespace:key". It adds no caching behavior of
// its own; two namespaces over the same store never observe each other's
// keys, even when the un-prefixed keys collide.
type NamespacedCache struct {
	inner     Cache
	namespace string
	prefix    string
}

// NewNamespacedCache wraps inner so all keys carry the namespace prefix.
func NewNamespacedCache(inner Cache, namespace string) *NamespacedCache {
	return &NamespacedCache{
		inner:     inner,
		namespace: namespace,
		prefix:    namespace + ":",
	}
}

// Namespace returns the namespace this cache prefixes keys with.
func (n *NamespacedCache) Namespace() string {
	return n.namespace
}

func (n *NamespacedCache) key(key string) string {
	return n.prefix + key
}

func (n *NamespacedCache) Get(ctx context.Context, key string) (interface{}, bool) {
	return n.inner.Get(ctx, n.key(key))
}

func (n *NamespacedCache) GetAll(ctx context.Context, keys []string) (map[string]interface{}, error) {
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = n.key(key)
	}

	result, err := n.inner.GetAll(ctx, prefixed)
	if err != nil {
		return nil, err
	}

	unprefixed := make(map[string]interface{}, len(result))
	for key, value := range result {
		unprefixed[key[len(n.prefix):]] = value
	}
	return unprefixed, nil
}

func (n *NamespacedCache) Put(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return n.inner.Put(ctx, n.key(key), value, ttl)
}

func (n *NamespacedCache) PutAll(ctx context.Context, entries map[string]interface{}, ttl time.Duration) error {
	prefixed := make(map[string]interface{}, len(entries))
	for key, value := range entries {
		prefixed[n.key(key)] = value
	}
	return n.inner.PutAll(ctx, prefixed, ttl)
}

func (n *NamespacedCache) PutIfAbsent(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	return n.inner.PutIfAbsent(ctx, n.key(key), value, ttl)
}

func (n *NamespacedCache) Remove(ctx context.Context, key string) error {
	return n.inner.Remove(ctx, n.key(key))
}

func (n *NamespacedCache) Contains(ctx context.Context, key string) (bool, error) {
	return n.inner.Contains(ctx, n.key(key))
}

func (n *NamespacedCache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	return n.inner.Increment(ctx, n.key(key), delta)
}
