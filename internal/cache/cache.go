package cache

import (
	"context"
	"time"

	"nexus-cache/internal/common/errors"
)

// Cache defines the contract shared by every provider and decorator in the
// subsystem. Values are opaque to the cache; providers that cross a process
// boundary run them through a codec.
//
// TTL semantics are provider policy: a ttl <= 0 means "use the provider
// default" where one is configured, and "no expiry" otherwise. Each
// provider documents its own policy.
type Cache interface {
	// Get returns the value for key, or false when absent. Reads never
	// fail: a provider outage degrades to a miss.
	Get(ctx context.Context, key string) (interface{}, bool)

	// GetAll returns the present subset of keys.
	GetAll(ctx context.Context, keys []string) (map[string]interface{}, error)

	// Put stores a value. Serialization failures are surfaced; a value
	// that cannot be encoded is never silently dropped.
	Put(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// PutAll stores every entry with a shared ttl.
	PutAll(ctx context.Context, entries map[string]interface{}, ttl time.Duration) error

	// PutIfAbsent stores the value only when the key is not already
	// present, reporting whether the write happened.
	PutIfAbsent(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// Remove deletes a key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Contains reports whether the key is present and unexpired.
	Contains(ctx context.Context, key string) (bool, error)

	// Increment atomically adds delta to the integer value held at key,
	// counting from zero when absent, and returns the new value.
	Increment(ctx context.Context, key string, delta int64) (int64, error)
}

// DegradedWriteCode marks a partial tiered write: one tier accepted the
// value while the other failed.
const DegradedWriteCode = "DEGRADED_WRITE"

// IsDegradedWrite reports whether err is a partial tiered-write failure.
// The surviving tier holds the value, so callers may treat this as a
// warning rather than a failed write.
func IsDegradedWrite(err error) bool {
	appErr, ok := err.(*errors.AppError)
	return ok && appErr.Code == DegradedWriteCode
}
