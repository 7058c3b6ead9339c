package settlement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	PassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagerbook_settlement_passes_total",
		Help: "Total number of completed settlement passes",
	}, []string{"type"})

	PassDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wagerbook_settlement_pass_duration_seconds",
		Help:    "Duration of settlement passes",
		Buckets: prometheus.DefBuckets,
	})

	PassErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_settlement_pass_errors_total",
		Help: "Total number of passes that failed before checking subjects",
	})

	SubjectErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_settlement_subject_errors_total",
		Help: "Total number of per-subject check failures",
	})

	QuotaAbortsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_settlement_quota_aborts_total",
		Help: "Total number of passes aborted early on low provider quota",
	})

	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagerbook_settlement_resolutions_total",
		Help: "Total number of wagers and parlays resolved",
	}, []string{"kind", "status"})
)
