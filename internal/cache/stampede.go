package cache

import (
	"context"
	"time"

	"nexus-cache/internal/common/logging"
	"nexus-cache/internal/locks"
)

// StampedeGuard gates the read-miss path behind a distributed lock so that,
// per key, at most one caller across the process group is inside the
// miss-recheck section at a time. Combined with the caller's own
// fetch-then-Put pattern, N concurrent misses collapse into one origin
// fetch instead of N.
//
// The guard never fetches or recomputes values itself, and it never turns
// lock trouble into an error: a lock that cannot be acquired within the
// wait window degrades to a miss (fail-open), trading redundant
// recomputation for caller liveness. Hits and mutating operations bypass
// the lock entirely.
//
// A re-check that still misses is not negatively cached; callers that need
// to shield a failing origin should Put a short-lived sentinel themselves.
type StampedeGuard struct {
	inner     Cache
	namespace string
	locks     locks.Provider
	wait      time.Duration
	logger    logging.Logger
}

// NewStampedeGuard wraps inner with miss-path locking. wait bounds lock
// acquisition; a wait <= 0 applies DefaultLockWaitTimeout.
func NewStampedeGuard(inner Cache, namespace string, provider locks.Provider, wait time.Duration, logger logging.Logger) *StampedeGuard {
	if wait <= 0 {
		wait = DefaultLockWaitTimeout
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &StampedeGuard{
		inner:     inner,
		namespace: namespace,
		locks:     provider,
		wait:      wait,
		logger:    logger,
	}
}

func (g *StampedeGuard) lockName(key string) string {
	return "lock:" + g.namespace + ":" + key
}

func (g *StampedeGuard) Get(ctx context.Context, key string) (interface{}, bool) {
	if value, ok := g.inner.Get(ctx, key); ok {
		return value, true
	}

	name := g.lockName(key)
	lock, err := g.locks.TryLock(ctx, name, g.wait)
	if err != nil {
		// Fail open: the caller falls through to its origin fetch.
		g.logger.WithContext(ctx).Warn("Stampede lock not acquired, failing open",
			logging.String("namespace", g.namespace),
			logging.String("lock", name),
			logging.Duration("wait", g.wait),
			logging.Err(err),
		)
		return nil, false
	}

	// Another holder may have populated the key while we waited.
	value, ok := g.inner.Get(ctx, key)

	if unlockErr := lock.Unlock(ctx); unlockErr != nil {
		g.logger.WithContext(ctx).Warn("Stampede lock release failed",
			logging.String("lock", name),
			logging.Err(unlockErr),
		)
	}

	return value, ok
}

// GetAll is not miss-gated; batch refreshes are expected to come from a
// single loader, so per-key locking would only add round trips.
func (g *StampedeGuard) GetAll(ctx context.Context, keys []string) (map[string]interface{}, error) {
	return g.inner.GetAll(ctx, keys)
}

func (g *StampedeGuard) Put(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return g.inner.Put(ctx, key, value, ttl)
}

func (g *StampedeGuard) PutAll(ctx context.Context, entries map[string]interface{}, ttl time.Duration) error {
	return g.inner.PutAll(ctx, entries, ttl)
}

func (g *StampedeGuard) PutIfAbsent(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	return g.inner.PutIfAbsent(ctx, key, value, ttl)
}

func (g *StampedeGuard) Remove(ctx context.Context, key string) error {
	return g.inner.Remove(ctx, key)
}

func (g *StampedeGuard) Contains(ctx context.Context, key string) (bool, error) {
	return g.inner.Contains(ctx, key)
}

func (g *StampedeGuard) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	return g.inner.Increment(ctx, key, delta)
}
