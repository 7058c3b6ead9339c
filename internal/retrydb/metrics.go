package retrydb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagerbook_db_retries_total",
		Help: "Total number of database retries after transient contention",
	}, []string{"op"})

	RetriesExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagerbook_db_retries_exhausted_total",
		Help: "Total number of operations that failed after exhausting retries",
	}, []string{"op"})
)
