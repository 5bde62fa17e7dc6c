package manager

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatsCollector bridges the manager's per-namespace statistics into
// Prometheus. It is pull-based: counters are read from AllStatistics on
// every scrape, the subsystem never pushes metrics itself.
type StatsCollector struct {
	manager *Manager

	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
	hitRate   *prometheus.Desc
}

// Compile-time check that StatsCollector implements prometheus.Collector.
var _ prometheus.Collector = (*StatsCollector)(nil)

// NewStatsCollector creates a collector over the manager's registry.
// Register it with a prometheus.Registerer to expose the metrics.
func NewStatsCollector(m *Manager) *StatsCollector {
	namespaceLabel := []string{"namespace"}
	return &StatsCollector{
		manager: m,
		hits: prometheus.NewDesc(
			"cache_hits_total",
			"Cache hits per namespace.",
			namespaceLabel, nil,
		),
		misses: prometheus.NewDesc(
			"cache_misses_total",
			"Cache misses per namespace.",
			namespaceLabel, nil,
		),
		evictions: prometheus.NewDesc(
			"cache_evictions_total",
			"Local-tier capacity evictions per namespace.",
			namespaceLabel, nil,
		),
		hitRate: prometheus.NewDesc(
			"cache_hit_rate",
			"Hit rate per namespace.",
			namespaceLabel, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.hitRate
}

// Collect implements prometheus.Collector.
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	for namespace, snapshot := range c.manager.AllStatistics() {
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(snapshot.Hits), namespace)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(snapshot.Misses), namespace)
		ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(snapshot.Evictions), namespace)
		ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue, snapshot.HitRate, namespace)
	}
}
