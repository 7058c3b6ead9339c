// Package announce publishes settlement outcome events to downstream
// consumers.
package announce

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the resolved entity.
type Kind string

const (
	KindWager       Kind = "wager"
	KindParlay      Kind = "parlay"
	KindLeaderboard Kind = "leaderboard_pass"
)

// Event is the wire payload for a settlement announcement.
type Event struct {
	EventID     uuid.UUID `json:"event_id"`
	Kind        Kind      `json:"kind"`
	WagerID     int64     `json:"wager_id,omitempty"`
	AccountID   int64     `json:"account_id"`
	Result      string    `json:"result"`
	PayoutCents int64     `json:"payout_cents,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewEvent stamps an event with a fresh id and timestamp.
func NewEvent(kind Kind) Event {
	return Event{
		EventID:    uuid.New(),
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers settlement events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}
