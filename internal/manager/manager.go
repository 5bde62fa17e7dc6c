// Package manager provides the unified cache manager: a concurrency-safe
// registry that lazily builds one decorated cache instance per namespace
// and aggregates their statistics.
//
// The decorator chain is assembled exactly once per namespace, in a fixed
// order: tiered base, default-TTL resolution, namespaced wrapper, stampede
// guard when enabled, then instrumentation. Every later request for the
// same namespace returns the same instance; there is no per-call
// construction that could leave decorators operating on unrelated copies.
package manager

import (
	"context"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"

	"nexus-cache/internal/cache"
	"nexus-cache/internal/circuitbreaker"
	"nexus-cache/internal/codec"
	"nexus-cache/internal/common/errors"
	"nexus-cache/internal/common/logging"
	"nexus-cache/internal/config"
	"nexus-cache/internal/locks"
	"nexus-cache/internal/redis"
)

// namespaceEntry is one registry slot: the fully decorated chain plus the
// settings it was built with.
type namespaceEntry struct {
	cache  *cache.InstrumentedCache
	stats  *cache.Statistics
	config cache.Config
}

// Manager owns the namespace registry and the shared tier singletons. One
// LocalCache, one remote cache, and one lock provider serve every
// namespace; only the key prefix differs between them.
type Manager struct {
	local    *cache.LocalCache
	remote   cache.Cache
	locks    locks.Provider
	defaults cache.Config
	logger   logging.Logger

	registry *xsync.MapOf[string, *namespaceEntry]

	closers []func() error
}

// New creates a manager over caller-owned tiers. remote and lockProvider
// may be nil: namespaces then run local-only and without stampede
// protection respectively.
func New(local *cache.LocalCache, remote cache.Cache, lockProvider locks.Provider, defaults cache.Config, logger logging.Logger) (*Manager, error) {
	if local == nil {
		return nil, errors.ConfigError("local cache is required")
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	m := &Manager{
		local:    local,
		remote:   remote,
		locks:    lockProvider,
		defaults: defaults,
		logger:   logger,
		registry: xsync.NewMapOf[string, *namespaceEntry](),
	}

	// Keys carry the namespace prefix, so capacity evictions in the shared
	// L1 can be attributed to the namespace that owns them.
	local.SetEvictionHook(m.routeEviction)

	return m, nil
}

// FromConfig builds a manager and all shared tiers from the application
// configuration: Redis client, JSON codec, circuit breaker, redsync lock
// provider, and the bounded local cache. Close releases everything it
// constructed.
func FromConfig(cfg *config.Config, logger logging.Logger) (*Manager, error) {
	if cfg == nil {
		cfg = config.Load()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError(err.Error())
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	local, err := cache.NewLocalCache(cfg.LocalCapacity, cfg.LocalTTL, cfg.LocalTTL)
	if err != nil {
		return nil, err
	}

	client, err := redis.NewClient(&redis.Config{
		Address:  cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
	})
	if err != nil {
		local.Stop()
		return nil, errors.ConnectionError("failed to connect to the remote cache tier", err)
	}

	breaker := circuitbreaker.NewGoBreaker("cache-remote", circuitbreaker.DefaultConfig(), logger)

	remote, err := cache.NewRedisCache(client, codec.NewJSONCodec(), breaker, logger)
	if err != nil {
		local.Stop()
		client.Close()
		return nil, err
	}

	lockProvider, err := locks.NewRedsyncProvider(client, locks.RedsyncOptions{})
	if err != nil {
		local.Stop()
		client.Close()
		return nil, err
	}

	defaults := cache.DefaultConfig()
	defaults.TTL = cfg.DefaultTTL
	defaults.LocalTTL = cfg.LocalTTL
	defaults.StampedeProtection = cfg.StampedeProtection
	defaults.LockWaitTimeout = cfg.LockWaitTimeout

	m, err := New(local, remote, lockProvider, defaults, logger)
	if err != nil {
		local.Stop()
		client.Close()
		return nil, err
	}

	m.closers = append(m.closers,
		lockProvider.Close,
		client.Close,
		func() error { local.Stop(); return nil },
	)
	return m, nil
}

// GetCache returns the decorated cache for a namespace, building the chain
// on first access. Concurrent first callers all receive the same instance.
// cfg applies only to that first construction; pass nil to use the
// manager's defaults.
func (m *Manager) GetCache(namespace string, cfg *cache.Config) cache.Cache {
	entry, _ := m.registry.LoadOrCompute(namespace, func() *namespaceEntry {
		return m.buildChain(namespace, cfg)
	})
	return entry.cache
}

// buildChain assembles the decorator chain for one namespace. Runs at most
// once per namespace, under the registry's per-key serialization.
func (m *Manager) buildChain(namespace string, cfg *cache.Config) *namespaceEntry {
	resolved := m.defaults
	if cfg != nil {
		resolved = *cfg
	}
	resolved = resolved.Normalized()

	var base cache.Cache = m.baseFor(namespace, resolved)
	if resolved.TTL > 0 {
		base = cache.NewDefaultTTLCache(base, resolved.TTL)
	}

	var chain cache.Cache = cache.NewNamespacedCache(base, namespace)

	if resolved.StampedeProtection {
		if m.locks != nil {
			chain = cache.NewStampedeGuard(chain, namespace, m.locks, resolved.LockWaitTimeout, m.logger)
		} else {
			m.logger.Warn("Stampede protection requested but no lock provider is configured",
				logging.String("namespace", namespace),
			)
		}
	}

	stats := cache.NewStatistics()
	instrumented := cache.NewInstrumentedCache(chain, stats)

	m.logger.Info("Cache namespace registered",
		logging.String("namespace", namespace),
		logging.String("tiers", string(resolved.Tiers)),
		logging.Bool("stampede_protection", resolved.StampedeProtection),
		logging.Duration("ttl", resolved.TTL),
	)

	return &namespaceEntry{
		cache:  instrumented,
		stats:  stats,
		config: resolved,
	}
}

// baseFor picks the tier arrangement. Missing tiers degrade to what is
// available rather than failing the namespace.
func (m *Manager) baseFor(namespace string, cfg cache.Config) cache.Cache {
	switch cfg.Tiers {
	case cache.TiersLocalOnly:
		return m.local
	case cache.TiersRemoteOnly:
		if m.remote == nil {
			m.logger.Warn("Remote tier requested but not configured, using local tier",
				logging.String("namespace", namespace),
			)
			return m.local
		}
		return m.remote
	default:
		if m.remote == nil {
			m.logger.Warn("Tiered cache requested but no remote tier is configured, using local tier",
				logging.String("namespace", namespace),
			)
			return m.local
		}
		return cache.NewTieredCache(m.local, m.remote, cfg.LocalTTL, m.logger)
	}
}

// RemoveCache drops a namespace from the registry. Keys already written
// under the namespace are left to expire through their own TTLs.
func (m *Manager) RemoveCache(namespace string) {
	m.registry.Delete(namespace)
}

// CacheNames returns the currently registered namespaces.
func (m *Manager) CacheNames() []string {
	names := make([]string, 0, m.registry.Size())
	m.registry.Range(func(name string, _ *namespaceEntry) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Statistics returns the counters for one namespace.
func (m *Manager) Statistics(namespace string) (cache.StatsSnapshot, bool) {
	entry, ok := m.registry.Load(namespace)
	if !ok {
		return cache.StatsSnapshot{}, false
	}
	return entry.stats.Snapshot(), true
}

// AllStatistics snapshots every namespace's counters for an external
// metrics collaborator to poll.
func (m *Manager) AllStatistics() map[string]cache.StatsSnapshot {
	result := make(map[string]cache.StatsSnapshot, m.registry.Size())
	m.registry.Range(func(name string, entry *namespaceEntry) bool {
		result[name] = entry.stats.Snapshot()
		return true
	})
	return result
}

// ResetStatistics zeroes a namespace's counters without touching its data.
func (m *Manager) ResetStatistics(namespace string) error {
	entry, ok := m.registry.Load(namespace)
	if !ok {
		return errors.NotFoundError("cache namespace " + namespace)
	}
	entry.stats.Reset()
	return nil
}

// Close releases resources the manager constructed itself (FromConfig);
// caller-owned tiers passed to New are untouched.
func (m *Manager) Close() error {
	var firstErr error
	for _, closer := range m.closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// routeEviction attributes a shared-L1 capacity eviction to the namespace
// whose prefix the key carries.
func (m *Manager) routeEviction(key string) {
	namespace, _, found := strings.Cut(key, ":")
	if !found {
		return
	}
	if entry, ok := m.registry.Load(namespace); ok {
		entry.stats.RecordEviction()
	}
}

// Health pings the shared tiers that can be pinged.
func (m *Manager) Health(ctx context.Context) error {
	type pinger interface{ Health() error }
	if hp, ok := m.remote.(pinger); ok {
		return hp.Health()
	}
	return nil
}
