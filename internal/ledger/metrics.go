package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	CreditsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_ledger_credits_total",
		Help: "Total number of applied credits",
	})

	DebitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_ledger_debits_total",
		Help: "Total number of applied debits",
	})

	DebitsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagerbook_ledger_debits_rejected_total",
		Help: "Total number of debits rejected for insufficient funds",
	})
)
