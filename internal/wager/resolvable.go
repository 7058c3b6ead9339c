package wager

import (
	"github.com/tbarret/wagerbook/internal/feed"
	"github.com/tbarret/wagerbook/pkg/odds"
)

// StatusChange is the result of applying a verdict: the terminal status
// to write and the payout to credit (zero for lost).
type StatusChange struct {
	Status      Status
	PayoutCents int64
}

// Resolvable is the shared resolution interface over the wager variants.
// It is a pure decision layer: implementations never touch storage.
type Resolvable interface {
	// SubjectIDs returns the subjects this entity is still waiting on.
	SubjectIDs() []string

	// ApplyVerdict folds a definitive verdict into the entity's in-memory
	// state and reports the terminal transition, if one results.
	ApplyVerdict(subject string, v feed.Verdict) (StatusChange, bool)
}

// LegOutcome decides a single pick's status under a definitive verdict.
func LegOutcome(pick string, v feed.Verdict) Status {
	if v.Push {
		return StatusPush
	}
	if pick == v.Winner {
		return StatusWon
	}
	return StatusLost
}

// SubjectIDs returns the wager's subject while it is pending.
func (w *Wager) SubjectIDs() []string {
	if w.Status.Terminal() {
		return nil
	}
	return []string{w.Subject}
}

// ApplyVerdict resolves a pending single wager. Won and push set the
// payout (full payout and stake refund respectively); lost pays nothing.
func (w *Wager) ApplyVerdict(subject string, v feed.Verdict) (StatusChange, bool) {
	if w.Status.Terminal() || w.Subject != subject || !v.Completed {
		return StatusChange{}, false
	}

	change := StatusChange{Status: LegOutcome(w.Pick, v)}
	switch change.Status {
	case StatusWon:
		change.PayoutCents = odds.Payout(w.StakeCents, w.Odds)
	case StatusPush:
		change.PayoutCents = w.StakeCents
	}

	w.Status = change.Status
	w.PayoutCents = change.PayoutCents
	return change, true
}

// SubjectIDs returns the subjects of the parlay's unresolved legs.
func (p *Parlay) SubjectIDs() []string {
	if p.Status.Terminal() {
		return nil
	}

	var subjects []string
	for _, leg := range p.Legs {
		if !leg.Status.Terminal() {
			subjects = append(subjects, leg.Subject)
		}
	}
	return subjects
}

// ApplyVerdict resolves the matching pending legs, then aggregates.
func (p *Parlay) ApplyVerdict(subject string, v feed.Verdict) (StatusChange, bool) {
	if p.Status.Terminal() || !v.Completed {
		return StatusChange{}, false
	}

	for i := range p.Legs {
		leg := &p.Legs[i]
		if leg.Status.Terminal() || leg.Subject != subject {
			continue
		}
		leg.Status = LegOutcome(leg.Pick, v)
	}

	return p.Aggregate()
}

// Aggregate folds leg states into the parlay's own state:
//
//   - any lost leg loses the parlay immediately; remaining legs do not
//     need to resolve
//   - once all legs are terminal: all pushes refund the stake; otherwise
//     every non-push leg won, and the parlay pays out at the effective
//     odds (pushed legs drop out of the product)
func (p *Parlay) Aggregate() (StatusChange, bool) {
	if p.Status.Terminal() {
		return StatusChange{}, false
	}

	allTerminal := true
	allPush := true
	for _, leg := range p.Legs {
		switch leg.Status {
		case StatusLost:
			p.Status = StatusLost
			p.PayoutCents = 0
			return StatusChange{Status: StatusLost}, true
		case StatusPush:
		case StatusWon:
			allPush = false
		default:
			allTerminal = false
			allPush = false
		}
	}

	if !allTerminal {
		return StatusChange{}, false
	}

	var change StatusChange
	if allPush {
		change = StatusChange{Status: StatusPush, PayoutCents: p.StakeCents}
	} else {
		change = StatusChange{
			Status:      StatusWon,
			PayoutCents: odds.ParlayPayout(p.StakeCents, p.EffectiveOdds()),
		}
	}

	p.Status = change.Status
	p.PayoutCents = change.PayoutCents
	return change, true
}

// EffectiveOdds is the locked-in odds product with pushed legs removed.
// A pushed leg contributes 1.0, treating that portion as refunded.
func (p *Parlay) EffectiveOdds() float64 {
	var won []float64
	for _, leg := range p.Legs {
		if leg.Status == StatusWon {
			won = append(won, leg.Odds)
		}
	}
	return odds.CombinedOdds(won)
}
