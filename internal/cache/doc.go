// Package cache provides the multi-level cache providers and the decorators
// composed around them.
//
// This package wraps battle-tested libraries:
//   - github.com/hashicorp/golang-lru/v2 for the bounded in-process tier
//   - github.com/go-redis/redis/v8 (via internal/redis) for the remote tier
//   - github.com/sony/gobreaker (via internal/circuitbreaker) around remote I/O
//
// It provides two base providers and five wrappers:
//
// 1. LocalCache - bounded in-process LRU (tier L1)
//   - Max entry count with LRU eviction
//   - Per-entry TTLs, lazily checked plus an optional janitor sweep
//   - Eviction hook for statistics routing
//
// 2. RedisCache - shared remote cache (tier L2)
//   - Values encoded through a pluggable codec (JSON or msgpack)
//   - Expiry delegated to Redis TTLs
//   - Circuit breaker keeps a store outage from stacking timeouts
//
// 3. TieredCache - L1 over L2 with read-repair
//   - Reads check L1, fall through to L2, repopulate L1 on an L2 hit
//   - Writes go to both tiers; a one-tier failure is a degraded write
//
// 4. DefaultTTLCache - write-path TTL resolution
//   - Rewrites a ttl <= 0 to the namespace default before it reaches the
//     providers
//
// 5. NamespacedCache - key-space isolation by prefixing
//
// 6. StampedeGuard - miss-path distributed locking
//   - Collapses concurrent misses for a key into serialized re-checks
//   - Fails open on lock trouble; never recomputes values itself
//
// 7. InstrumentedCache - hit/miss counters
//
// The chain order is fixed and assembled once per namespace by the manager
// package: tiered base, then default-TTL resolution, then namespaced, then
// stampede guard, then instrumentation.
//
// Caller contract on a miss: fetch from the source of truth, then Put the
// result. The stampede guard only serializes the miss re-check; it does not
// perform the fetch, and a miss under the lock is not negatively cached.
//
// Usage:
//
//	local, _ := cache.NewLocalCache(10000, 5*time.Minute, 10*time.Minute)
//	remote, _ := cache.NewRedisCache(client, codec.NewJSONCodec(), breaker, logger)
//	tiered := cache.NewTieredCache(local, remote, 5*time.Minute, logger)
//
//	users := cache.NewNamespacedCache(tiered, "users")
//	if value, ok := users.Get(ctx, "42"); ok {
//		// cache hit
//	}
package cache
