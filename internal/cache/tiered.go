package cache

import (
	"context"
	"time"

	"nexus-cache/internal/common/errors"
	"nexus-cache/internal/common/logging"
)

// TieredCache layers the in-process tier (L1) over the remote tier (L2).
// Reads check L1 first and repair it from L2 on an L2 hit; writes go to
// both tiers, L2 first as the source of truth. The composite never fetches
// or computes a value itself.
//
// Consistency is read-repair only. A Put seen by one process's L1 reaches
// other processes via L2 once their own L1 entries expire; localTTL caps
// that staleness window.
type TieredCache struct {
	l1       Cache
	l2       Cache
	localTTL time.Duration
	logger   logging.Logger
}

// NewTieredCache composes two tiers. localTTL caps how long L1 holds an
// entry regardless of the write's own TTL; a zero localTTL applies
// DefaultLocalTTL.
func NewTieredCache(l1, l2 Cache, localTTL time.Duration, logger logging.Logger) *TieredCache {
	if localTTL <= 0 {
		localTTL = DefaultLocalTTL
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &TieredCache{
		l1:       l1,
		l2:       l2,
		localTTL: localTTL,
		logger:   logger,
	}
}

// capLocal bounds an entry's L1 lifetime.
func (t *TieredCache) capLocal(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > t.localTTL {
		return t.localTTL
	}
	return ttl
}

func (t *TieredCache) Get(ctx context.Context, key string) (interface{}, bool) {
	if value, ok := t.l1.Get(ctx, key); ok {
		return value, true
	}

	value, ok := t.l2.Get(ctx, key)
	if !ok {
		return nil, false
	}

	// Read-repair so the next lookup is served in-process.
	if err := t.l1.Put(ctx, key, value, t.localTTL); err != nil {
		t.logger.Debug("Read-repair into local tier failed",
			logging.String("key", key),
			logging.Err(err),
		)
	}
	return value, true
}

func (t *TieredCache) GetAll(ctx context.Context, keys []string) (map[string]interface{}, error) {
	result, err := t.l1.GetAll(ctx, keys)
	if err != nil {
		result = map[string]interface{}{}
	}
	if len(result) == len(keys) {
		return result, nil
	}

	missing := make([]string, 0, len(keys)-len(result))
	for _, key := range keys {
		if _, ok := result[key]; !ok {
			missing = append(missing, key)
		}
	}

	remote, err := t.l2.GetAll(ctx, missing)
	if err != nil {
		// L1 can still answer for its subset.
		return result, nil
	}

	for key, value := range remote {
		result[key] = value
		if putErr := t.l1.Put(ctx, key, value, t.localTTL); putErr != nil {
			t.logger.Debug("Read-repair into local tier failed",
				logging.String("key", key),
				logging.Err(putErr),
			)
		}
	}
	return result, nil
}

func (t *TieredCache) Put(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	remoteErr := t.l2.Put(ctx, key, value, ttl)
	if errors.IsType(remoteErr, errors.ErrTypeSerialization) {
		// The value is not cacheable anywhere; keep the tiers consistent.
		return remoteErr
	}

	localErr := t.l1.Put(ctx, key, value, t.capLocal(ttl))

	return t.writeStatus(key, localErr, remoteErr)
}

func (t *TieredCache) PutAll(ctx context.Context, entries map[string]interface{}, ttl time.Duration) error {
	remoteErr := t.l2.PutAll(ctx, entries, ttl)
	if errors.IsType(remoteErr, errors.ErrTypeSerialization) {
		return remoteErr
	}

	localErr := t.l1.PutAll(ctx, entries, t.capLocal(ttl))

	return t.writeStatus("", localErr, remoteErr)
}

// writeStatus folds per-tier write results into the caller-facing error: a
// failure of both tiers is a hard cache error, a failure of one is a
// degraded write.
func (t *TieredCache) writeStatus(key string, localErr, remoteErr error) error {
	switch {
	case localErr == nil && remoteErr == nil:
		return nil
	case localErr != nil && remoteErr != nil:
		return errors.CacheError("write failed on both cache tiers", remoteErr)
	case remoteErr != nil:
		t.logger.Warn("Remote tier write failed, local tier holds the value",
			logging.String("key", key),
			logging.Err(remoteErr),
		)
		return errors.CacheError("remote tier write failed", remoteErr).
			WithCode(DegradedWriteCode).
			WithContext("tier", "l2")
	default:
		return errors.CacheError("local tier write failed", localErr).
			WithCode(DegradedWriteCode).
			WithContext("tier", "l1")
	}
}

func (t *TieredCache) PutIfAbsent(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if ok, _ := t.l1.Contains(ctx, key); ok {
		return false, nil
	}

	// L2 arbitrates: it is shared, so only one process can win the write.
	stored, err := t.l2.PutIfAbsent(ctx, key, value, ttl)
	if err != nil || !stored {
		return stored, err
	}

	if localErr := t.l1.Put(ctx, key, value, t.capLocal(ttl)); localErr != nil {
		t.logger.Debug("Local tier write after PutIfAbsent failed",
			logging.String("key", key),
			logging.Err(localErr),
		)
	}
	return true, nil
}

func (t *TieredCache) Remove(ctx context.Context, key string) error {
	if err := t.l1.Remove(ctx, key); err != nil {
		t.logger.Debug("Local tier remove failed",
			logging.String("key", key),
			logging.Err(err),
		)
	}
	return t.l2.Remove(ctx, key)
}

func (t *TieredCache) Contains(ctx context.Context, key string) (bool, error) {
	if ok, _ := t.l1.Contains(ctx, key); ok {
		return true, nil
	}
	return t.l2.Contains(ctx, key)
}

// Increment runs against L2 so the counter is shared across processes; the
// L1 copy is invalidated rather than updated to avoid drift.
func (t *TieredCache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	value, err := t.l2.Increment(ctx, key, delta)
	if err != nil {
		return 0, err
	}

	if removeErr := t.l1.Remove(ctx, key); removeErr != nil {
		t.logger.Debug("Local tier invalidation after increment failed",
			logging.String("key", key),
			logging.Err(removeErr),
		)
	}
	return value, nil
}
