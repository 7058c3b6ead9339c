package wager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	WagersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_wagers_created_total",
		Help: "Total number of single wagers created",
	})

	ParlaysCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_parlays_created_total",
		Help: "Total number of parlays created",
	})

	WagersSettledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagerbook_wagers_settled_total",
		Help: "Total number of single wagers moved to a terminal status",
	}, []string{"status"})

	ParlaysSettledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagerbook_parlays_settled_total",
		Help: "Total number of parlays moved to a terminal status",
	}, []string{"status"})
)
