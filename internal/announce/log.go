package announce

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher writes events to the structured log. It is the default
// sink when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.logger.Info("settlement-event",
		zap.String("event_id", e.EventID.String()),
		zap.String("kind", string(e.Kind)),
		zap.Int64("wager_id", e.WagerID),
		zap.Int64("account_id", e.AccountID),
		zap.String("result", e.Result),
		zap.Int64("payout_cents", e.PayoutCents),
		zap.String("subject", e.Subject))

	PublishedTotal.WithLabelValues(string(e.Kind)).Inc()
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
