package leaderboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var PassesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wagerbook_leaderboard_passes_total",
	Help: "Total number of announced leaderboard passes",
})
