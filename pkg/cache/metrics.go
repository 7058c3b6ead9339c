package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_cache_hits_total",
		Help: "Total number of fresh cache hits",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_cache_misses_total",
		Help: "Total number of cache misses",
	})

	CacheStaleHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_cache_stale_hits_total",
		Help: "Total number of stale-tier reads",
	})

	CacheSetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_cache_sets_total",
		Help: "Total number of cache sets",
	})

	CacheDeletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_cache_deletes_total",
		Help: "Total number of cache deletes",
	})
)
