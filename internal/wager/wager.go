// Package wager holds the wager/parlay data model, the resolution state
// machine, and the persistent stores behind it.
package wager

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a wager or parlay id is unknown.
	ErrNotFound = errors.New("wager not found")

	// ErrTooFewLegs is returned when a parlay is created with fewer than
	// two legs.
	ErrTooFewLegs = errors.New("parlay requires at least two legs")

	// ErrInvalidStake is returned when a stake is not strictly positive.
	ErrInvalidStake = errors.New("stake must be positive")

	// ErrInvalidOdds is returned when decimal odds are below 1.0.
	ErrInvalidOdds = errors.New("odds must be >= 1.0")
)

// Kind distinguishes the two wager families.
type Kind string

const (
	KindSports Kind = "sports"
	KindMarket Kind = "market"
)

// Status is a wager's resolution state. pending is the only non-terminal
// state; no entity is mutated after reaching a terminal status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusWon       Status = "won"
	StatusLost      Status = "lost"
	StatusPush      Status = "push"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// Wager is a single wager at fixed odds, locked at placement time.
type Wager struct {
	ID          int64
	AccountID   int64
	Kind        Kind
	Subject     string
	Pick        string // "home"/"away" for sports, "yes"/"no" for contracts
	StakeCents  int64
	Odds        float64 // decimal
	Status      Status
	PayoutCents int64 // set iff status is won or push
	CloseAt     time.Time
	CreatedAt   time.Time
	SettledAt   *time.Time
}

// Parlay is a multi-leg wager; odds multiply and it pays out only when
// every leg wins. CombinedOdds is locked in at creation time and never
// recomputed from live prices.
type Parlay struct {
	ID           int64
	AccountID    int64
	StakeCents   int64
	CombinedOdds float64
	Status       Status
	PayoutCents  int64
	Legs         []Leg
	CreatedAt    time.Time
	SettledAt    *time.Time
}

// Leg is one independent pick inside a parlay.
type Leg struct {
	ID       int64
	ParlayID int64
	Subject  string
	Pick     string
	Odds     float64
	Status   Status
	CloseAt  time.Time
}

// Subject is the parsed form of a subject key. Sports subjects are
// "sports:<sport>:<event>[:<market>]"; prediction-market subjects are
// "market:<ticker>".
type Subject struct {
	Kind    Kind
	Sport   string
	EventID string
	Market  string
	Ticker  string
}

// SportsSubjectKey builds the composite key for a sports event market.
func SportsSubjectKey(sport, eventID, market string) string {
	if market == "" {
		market = "h2h"
	}
	return fmt.Sprintf("sports:%s:%s:%s", sport, eventID, market)
}

// MarketSubjectKey builds the key for a prediction-market contract.
func MarketSubjectKey(ticker string) string {
	return fmt.Sprintf("market:%s", ticker)
}

// ParseSubject parses a subject key back into its parts.
func ParseSubject(key string) (Subject, error) {
	parts := strings.Split(key, ":")
	switch {
	case len(parts) >= 2 && parts[0] == "market":
		// Tickers may themselves contain colons.
		return Subject{Kind: KindMarket, Ticker: strings.Join(parts[1:], ":")}, nil
	case len(parts) == 4 && parts[0] == "sports":
		return Subject{Kind: KindSports, Sport: parts[1], EventID: parts[2], Market: parts[3]}, nil
	case len(parts) == 3 && parts[0] == "sports":
		return Subject{Kind: KindSports, Sport: parts[1], EventID: parts[2], Market: "h2h"}, nil
	default:
		return Subject{}, fmt.Errorf("malformed subject key %q", key)
	}
}

// PendingSubject is one distinct subject that still has unresolved
// wagers or legs keyed to it. CloseAt is the earliest known close time
// across families, zero when unknown.
type PendingSubject struct {
	Subject string
	CloseAt time.Time
}
