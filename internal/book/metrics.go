package book

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	PlacementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagerbook_placements_total",
		Help: "Total number of accepted placements",
	}, []string{"kind"})

	CancellationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_cancellations_total",
		Help: "Total number of cancelled wagers",
	})
)
