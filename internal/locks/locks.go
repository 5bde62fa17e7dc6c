// Package locks provides distributed mutual exclusion with a bounded wait,
// used by the cache layer to serialize miss-path re-checks for a key. The
// default implementation uses the Redlock algorithm from
// go-redsync/redsync/v4.
package locks

import (
	"context"
	"time"
)

// Lock is a held distributed lock handle. It must be released by the holder
// when the protected section completes; the expiry on the underlying store
// bounds how long an orphaned handle can block other holders.
type Lock interface {
	// Key returns the unique identifier for this lock.
	Key() string

	// Unlock releases the lock.
	Unlock(ctx context.Context) error
}

// Provider hands out named distributed locks.
type Provider interface {
	// TryLock attempts to acquire the named lock, waiting at most wait for
	// a current holder to release it. Failure to acquire within the wait
	// window is reported as a lock_timeout error.
	TryLock(ctx context.Context, name string, wait time.Duration) (Lock, error)

	// Close releases provider resources.
	Close() error
}
