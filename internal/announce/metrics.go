package announce

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	PublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagerbook_announcements_published_total",
		Help: "Total number of published settlement events",
	}, []string{"kind"})

	PublishErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_announcement_errors_total",
		Help: "Total number of failed event publishes",
	})
)
