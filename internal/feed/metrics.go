package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	ProviderRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagerbook_provider_requests_total",
		Help: "Total number of upstream provider requests",
	}, []string{"provider", "outcome"})

	FetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_feed_fetch_errors_total",
		Help: "Total number of failed cache fills",
	})

	StaleServesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_feed_stale_serves_total",
		Help: "Total number of stale payloads served on provider failure",
	})

	QuotaRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wagerbook_sports_quota_remaining",
		Help: "Sports provider remaining request quota from rate-limit headers",
	})
)
