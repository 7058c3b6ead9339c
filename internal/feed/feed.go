// Package feed consumes the two upstream result providers through a
// TTL-bounded cache with stale-on-error fallback. Both providers are
// rate limited; all calls go through the Fetcher so the call volume
// stays bounded.
package feed

import (
	"errors"
	"time"
)

// ErrProviderUnavailable is returned when an upstream fetch failed and
// no stale cache entry existed to fall back on.
var ErrProviderUnavailable = errors.New("provider unavailable")

// SportsEvent is one upcoming event from the sports provider's listing.
type SportsEvent struct {
	ID           string
	Sport        string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	Prices       []PriceQuote
}

// PriceQuote is a decimal-odds price for one side of an event.
type PriceQuote struct {
	Name    string
	Decimal float64
}

// SportsResult is the sports provider's view of an event's outcome.
// Completed is the only field that makes a result definitive; a live
// score never resolves a wager.
type SportsResult struct {
	EventID      string
	CommenceTime time.Time
	Started      bool
	Completed    bool
	HomeTeam     string
	AwayTeam     string
	HomeScore    int
	AwayScore    int
}

// Contract is the prediction-market provider's view of a binary contract.
type Contract struct {
	Ticker    string
	Status    string // "initialized", "active", "closed", "settled"
	Result    string // "yes" or "no" once settled
	CloseTime time.Time
}

// Settled reports whether the contract has a definitive result.
func (c *Contract) Settled() bool {
	return c.Status == "settled" && (c.Result == "yes" || c.Result == "no")
}

// Verdict is a definitive external outcome for one subject, normalized
// across the two provider families.
type Verdict struct {
	Subject   string
	Completed bool
	Winner    string // "home"/"away" for sports, "yes"/"no" for contracts
	Push      bool   // exact tie / no-action
}

// SportsVerdict normalizes a completed sports result into a verdict.
// Returns false if the result is not definitive yet.
func SportsVerdict(subject string, r *SportsResult) (Verdict, bool) {
	if r == nil || !r.Completed {
		return Verdict{}, false
	}

	v := Verdict{Subject: subject, Completed: true}
	switch {
	case r.HomeScore > r.AwayScore:
		v.Winner = "home"
	case r.AwayScore > r.HomeScore:
		v.Winner = "away"
	default:
		v.Push = true
	}
	return v, true
}

// ContractVerdict normalizes a settled contract into a verdict.
// Returns false if the contract is not settled yet.
func ContractVerdict(subject string, c *Contract) (Verdict, bool) {
	if c == nil || !c.Settled() {
		return Verdict{}, false
	}
	return Verdict{Subject: subject, Completed: true, Winner: c.Result}, true
}
