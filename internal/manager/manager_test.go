package manager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus-cache/internal/cache"
	"nexus-cache/internal/codec"
	"nexus-cache/internal/locks"
	"nexus-cache/internal/redis"
)

func newTestManager(t *testing.T, localCapacity int) (*Manager, *miniredis.Miniredis) {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client, err := redis.NewClient(&redis.Config{Address: s.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	local, err := cache.NewLocalCache(localCapacity, time.Minute, 0)
	require.NoError(t, err)
	t.Cleanup(local.Stop)

	remote, err := cache.NewRedisCache(client, codec.NewJSONCodec(), nil, nil)
	require.NoError(t, err)

	lockProvider, err := locks.NewRedsyncProvider(client, locks.RedsyncOptions{
		Expiry:     2 * time.Second,
		RetryDelay: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	m, err := New(local, remote, lockProvider, cache.DefaultConfig(), nil)
	require.NoError(t, err)
	return m, s
}

func TestManager_RequiresLocalCache(t *testing.T) {
	m, err := New(nil, nil, nil, cache.DefaultConfig(), nil)
	assert.Error(t, err)
	assert.Nil(t, m)
}

func TestManager_GetCacheReturnsSameInstance(t *testing.T) {
	m, _ := newTestManager(t, 64)

	first := m.GetCache("orders", nil)
	second := m.GetCache("orders", nil)

	assert.Same(t, first, second)
}

func TestManager_ConcurrentFirstAccessBuildsOneChain(t *testing.T) {
	m, _ := newTestManager(t, 64)

	const callers = 32
	instances := make([]cache.Cache, callers)

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			instances[i] = m.GetCache("orders", nil)
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Same(t, instances[0], instances[i])
	}
}

func TestManager_LaterConfigIsIgnored(t *testing.T) {
	m, _ := newTestManager(t, 64)

	first := m.GetCache("users", &cache.Config{TTL: time.Minute, StampedeProtection: true})
	second := m.GetCache("users", &cache.Config{TTL: time.Hour, StampedeProtection: false})

	assert.Same(t, first, second)
}

func TestManager_NamespaceIsolation(t *testing.T) {
	m, _ := newTestManager(t, 64)
	ctx := context.Background()

	users := m.GetCache("users", nil)
	orders := m.GetCache("orders", nil)

	require.NoError(t, users.PutAll(ctx, map[string]interface{}{"42": "user"}, time.Minute))

	_, ok := orders.Get(ctx, "42")
	assert.False(t, ok)
}

func TestManager_ExampleScenario(t *testing.T) {
	m, _ := newTestManager(t, 64)
	ctx := context.Background()

	users := m.GetCache("users", &cache.Config{
		TTL:                60 * time.Second,
		StampedeProtection: true,
	})

	require.NoError(t, users.Put(ctx, "42", map[string]interface{}{"name": "Ada"}, 60*time.Second))

	value, ok := users.Get(ctx, "42")
	require.True(t, ok)
	decoded, ok := value.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Ada", decoded["name"])

	snapshot, ok := m.Statistics("users")
	require.True(t, ok)
	assert.Equal(t, int64(1), snapshot.Hits)
	assert.Zero(t, snapshot.Misses)

	// A second manager call returns the same instance with the same
	// cumulative counters.
	again := m.GetCache("users", nil)
	assert.Same(t, users, again)

	snapshot, _ = m.Statistics("users")
	assert.Equal(t, int64(1), snapshot.Hits)
}

func TestManager_NamespaceDefaultTTLApplied(t *testing.T) {
	m, s := newTestManager(t, 64)
	ctx := context.Background()

	users := m.GetCache("users", &cache.Config{TTL: time.Second})

	// An unset TTL on the write resolves to the namespace default, not
	// the remote store's no-expiry policy.
	require.NoError(t, users.Put(ctx, "42", "Ada", 0))
	assert.Equal(t, time.Second, s.TTL("users:42"))

	// An explicit TTL on the write is kept as-is.
	require.NoError(t, users.Put(ctx, "43", "Grace", time.Minute))
	assert.Equal(t, time.Minute, s.TTL("users:43"))
}

func TestManager_TieredReadRepairAcrossManagers(t *testing.T) {
	// Two managers over one Redis simulate two processes sharing L2.
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	newProcess := func() *Manager {
		client, err := redis.NewClient(&redis.Config{Address: s.Addr()})
		require.NoError(t, err)
		t.Cleanup(func() { client.Close() })

		local, err := cache.NewLocalCache(64, time.Minute, 0)
		require.NoError(t, err)
		t.Cleanup(local.Stop)

		remote, err := cache.NewRedisCache(client, codec.NewJSONCodec(), nil, nil)
		require.NoError(t, err)

		m, err := New(local, remote, nil, cache.DefaultConfig(), nil)
		require.NoError(t, err)
		return m
	}

	ctx := context.Background()
	writer := newProcess().GetCache("products", nil)
	reader := newProcess().GetCache("products", nil)

	require.NoError(t, writer.Put(ctx, "sku-1", "widget", time.Minute))

	value, ok := reader.Get(ctx, "sku-1")
	require.True(t, ok)
	assert.Equal(t, "widget", value)
}

func TestManager_RemoveCache(t *testing.T) {
	m, _ := newTestManager(t, 64)

	first := m.GetCache("ephemeral", nil)
	m.RemoveCache("ephemeral")

	assert.NotContains(t, m.CacheNames(), "ephemeral")

	// A fresh chain is built on the next access.
	second := m.GetCache("ephemeral", nil)
	assert.NotSame(t, first, second)
}

func TestManager_CacheNames(t *testing.T) {
	m, _ := newTestManager(t, 64)

	m.GetCache("users", nil)
	m.GetCache("orders", nil)

	names := m.CacheNames()
	assert.ElementsMatch(t, []string{"users", "orders"}, names)
}

func TestManager_AllStatistics(t *testing.T) {
	m, _ := newTestManager(t, 64)
	ctx := context.Background()

	users := m.GetCache("users", nil)
	m.GetCache("orders", nil)

	require.NoError(t, users.Put(ctx, "42", "v", time.Minute))
	users.Get(ctx, "42")
	users.Get(ctx, "missing")

	all := m.AllStatistics()
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all["users"].Hits)
	assert.Equal(t, int64(1), all["users"].Misses)
	assert.Zero(t, all["orders"].Hits)
}

func TestManager_ResetStatistics(t *testing.T) {
	m, _ := newTestManager(t, 64)
	ctx := context.Background()

	users := m.GetCache("users", nil)
	require.NoError(t, users.Put(ctx, "k", "v", time.Minute))
	users.Get(ctx, "k")

	require.NoError(t, m.ResetStatistics("users"))

	snapshot, _ := m.Statistics("users")
	assert.Zero(t, snapshot.Hits)

	// Data survives a counter reset.
	_, ok := users.Get(ctx, "k")
	assert.True(t, ok)

	assert.Error(t, m.ResetStatistics("unknown"))
}

func TestManager_EvictionRouting(t *testing.T) {
	// Two-entry L1 so a third write must evict.
	local, err := cache.NewLocalCache(2, time.Minute, 0)
	require.NoError(t, err)
	t.Cleanup(local.Stop)

	m, err := New(local, nil, nil, cache.DefaultConfig(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	hot := m.GetCache("hot", &cache.Config{Tiers: cache.TiersLocalOnly, StampedeProtection: false})

	require.NoError(t, hot.Put(ctx, "a", 1, time.Minute))
	require.NoError(t, hot.Put(ctx, "b", 2, time.Minute))
	require.NoError(t, hot.Put(ctx, "c", 3, time.Minute))

	snapshot, ok := m.Statistics("hot")
	require.True(t, ok)
	assert.Equal(t, int64(1), snapshot.Evictions)
}

func TestManager_StampedeProtectionAcrossNamespaceInstances(t *testing.T) {
	m, _ := newTestManager(t, 64)
	ctx := context.Background()

	users := m.GetCache("users", &cache.Config{
		TTL:                time.Minute,
		StampedeProtection: true,
		LockWaitTimeout:    500 * time.Millisecond,
	})

	const callers = 16
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			_, _ = users.Get(ctx, "cold-key")
		}()
	}
	wg.Wait()

	snapshot, _ := m.Statistics("users")
	assert.Equal(t, int64(callers), snapshot.Misses)
}

func TestManager_LocalOnlyWhenRemoteMissing(t *testing.T) {
	local, err := cache.NewLocalCache(64, time.Minute, 0)
	require.NoError(t, err)
	t.Cleanup(local.Stop)

	m, err := New(local, nil, nil, cache.DefaultConfig(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	c := m.GetCache("standalone", nil)

	require.NoError(t, c.Put(ctx, "k", "v", time.Minute))
	value, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestFromConfig(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	t.Setenv("REDIS_ADDRESS", s.Addr())

	m, err := FromConfig(nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	ctx := context.Background()
	users := m.GetCache("users", nil)

	require.NoError(t, users.Put(ctx, "42", "Ada", time.Minute))
	value, ok := users.Get(ctx, "42")
	require.True(t, ok)
	assert.Equal(t, "Ada", value)

	assert.NoError(t, m.Health(ctx))
}
