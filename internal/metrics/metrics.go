// Package metrics defines the prometheus collectors shared by the scrape
// pipeline. Collectors are registered once via promauto at init time.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "r6tracker_fetches_total",
		Help: "Total page fetches by page kind and outcome",
	}, []string{"page", "outcome"})

	RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "r6tracker_retries_total",
		Help: "Total retry attempts by error class",
	}, []string{"error_class"})

	BlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "r6tracker_blocks_total",
		Help: "Total anti-bot challenge pages detected",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "r6tracker_cache_hits_total",
		Help: "Total roster cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "r6tracker_cache_misses_total",
		Help: "Total roster cache misses",
	})

	CycleDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "r6tracker_cycle_duration_seconds",
		Help:    "Wall time of a full scrape cycle",
		Buckets: []float64{5, 10, 20, 30, 45, 60, 90, 120},
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "r6tracker_active_sessions",
		Help: "Browser sessions currently executing a fetch",
	})
)
