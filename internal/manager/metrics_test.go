package manager

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCollector_Registers(t *testing.T) {
	m, _ := newTestManager(t, 64)

	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(NewStatsCollector(m)))
}

func TestStatsCollector_ExportsPerNamespaceCounters(t *testing.T) {
	m, _ := newTestManager(t, 64)
	ctx := context.Background()

	users := m.GetCache("users", nil)
	require.NoError(t, users.Put(ctx, "42", "Ada", time.Minute))
	users.Get(ctx, "42")
	users.Get(ctx, "missing")

	collector := NewStatsCollector(m)

	expected := `
# HELP cache_hits_total Cache hits per namespace.
# TYPE cache_hits_total counter
cache_hits_total{namespace="users"} 1
# HELP cache_misses_total Cache misses per namespace.
# TYPE cache_misses_total counter
cache_misses_total{namespace="users"} 1
# HELP cache_hit_rate Hit rate per namespace.
# TYPE cache_hit_rate gauge
cache_hit_rate{namespace="users"} 0.5
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"cache_hits_total", "cache_misses_total", "cache_hit_rate"))
}

func TestStatsCollector_CoversEveryNamespace(t *testing.T) {
	m, _ := newTestManager(t, 64)

	m.GetCache("users", nil)
	m.GetCache("orders", nil)
	m.GetCache("products", nil)

	// Four metric families for each of the three namespaces.
	count := testutil.CollectAndCount(NewStatsCollector(m))
	assert.Equal(t, 12, count)
}

func TestStatsCollector_ScrapeReflectsCurrentCounters(t *testing.T) {
	m, _ := newTestManager(t, 64)
	ctx := context.Background()

	users := m.GetCache("users", nil)
	collector := NewStatsCollector(m)

	expected := `
# HELP cache_hits_total Cache hits per namespace.
# TYPE cache_hits_total counter
cache_hits_total{namespace="users"} 0
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected), "cache_hits_total"))

	// Counters move between scrapes without re-creating the collector.
	require.NoError(t, users.Put(ctx, "k", "v", time.Minute))
	users.Get(ctx, "k")

	expected = `
# HELP cache_hits_total Cache hits per namespace.
# TYPE cache_hits_total counter
cache_hits_total{namespace="users"} 1
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected), "cache_hits_total"))
}
