package cache

import "time"

// Tiers selects which cache tiers back a namespace.
type Tiers string

const (
	// TiersBoth layers the in-process tier over the remote tier.
	TiersBoth Tiers = "both"
	// TiersLocalOnly uses only the in-process tier.
	TiersLocalOnly Tiers = "local"
	// TiersRemoteOnly uses only the remote tier.
	TiersRemoteOnly Tiers = "remote"
)

// Config holds the per-namespace cache settings. It is captured when the
// namespace's decorator chain is first built and is immutable afterwards;
// configs passed on later lookups of the same namespace are ignored.
type Config struct {
	// TTL is the default entry lifetime. Zero defers to provider policy.
	TTL time.Duration `json:"ttl"`

	// LocalTTL caps how long entries live in the in-process tier,
	// bounding the cross-process staleness window. Zero applies the
	// 5-minute default.
	LocalTTL time.Duration `json:"local_ttl,omitempty"`

	// Tiers selects the backing tiers. Defaults to TiersBoth.
	Tiers Tiers `json:"tiers,omitempty"`

	// StampedeProtection gates the read-miss path behind a distributed
	// lock so concurrent misses collapse into serialized re-checks.
	StampedeProtection bool `json:"stampede_protection"`

	// LockWaitTimeout bounds how long a miss waits for the stampede lock
	// before failing open. Zero applies the 3-second default.
	LockWaitTimeout time.Duration `json:"lock_wait_timeout,omitempty"`
}

// DefaultLocalTTL caps the in-process tier lifetime when a namespace does
// not set its own.
const DefaultLocalTTL = 5 * time.Minute

// DefaultLockWaitTimeout bounds stampede lock acquisition when a namespace
// does not set its own.
const DefaultLockWaitTimeout = 3 * time.Second

// DefaultConfig returns the settings applied to namespaces that are
// requested without an explicit configuration.
func DefaultConfig() Config {
	return Config{
		TTL:                10 * time.Minute,
		LocalTTL:           DefaultLocalTTL,
		Tiers:              TiersBoth,
		StampedeProtection: true,
		LockWaitTimeout:    DefaultLockWaitTimeout,
	}
}

// Normalized fills unset fields so the decorator chain never sees a zero
// value it would have to re-interpret.
func (c Config) Normalized() Config {
	if c.LocalTTL <= 0 {
		c.LocalTTL = DefaultLocalTTL
	}
	if c.Tiers == "" {
		c.Tiers = TiersBoth
	}
	if c.LockWaitTimeout <= 0 {
		c.LockWaitTimeout = DefaultLockWaitTimeout
	}
	return c
}
