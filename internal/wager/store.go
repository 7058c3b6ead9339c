package wager

import "context"

// Store is the persistence boundary for wagers and parlays. Terminal
// transitions are conditional writes: they apply only while the current
// status is still pending, which is what makes settlement retry-safe.
type Store interface {
	// CreateWager persists a new pending wager and assigns its id.
	CreateWager(ctx context.Context, w *Wager) error

	// WagerByID returns a wager or ErrNotFound.
	WagerByID(ctx context.Context, id int64) (*Wager, error)

	// WagersBySubject lists wagers on a subject with the given status.
	WagersBySubject(ctx context.Context, subject string, status Status) ([]*Wager, error)

	// WagersByAccount lists an account's wagers, optionally pending only.
	WagersByAccount(ctx context.Context, accountID int64, pendingOnly bool) ([]*Wager, error)

	// TerminalizeWager conditionally moves a pending wager to a terminal
	// status. Returns applied=false, without error, if the wager was no
	// longer pending.
	TerminalizeWager(ctx context.Context, id int64, status Status, payoutCents int64) (bool, error)

	// CreateParlay persists a parlay with its legs and assigns ids.
	// Rejects parlays with fewer than two legs.
	CreateParlay(ctx context.Context, p *Parlay) error

	// ParlayByID returns a parlay with its legs or ErrNotFound.
	ParlayByID(ctx context.Context, id int64) (*Parlay, error)

	// ParlaysByAccount lists an account's parlays with legs.
	ParlaysByAccount(ctx context.Context, accountID int64, pendingOnly bool) ([]*Parlay, error)

	// LegsBySubject lists parlay legs on a subject with the given status.
	LegsBySubject(ctx context.Context, subject string, status Status) ([]*Leg, error)

	// TerminalizeLeg conditionally moves a pending leg to a terminal
	// status.
	TerminalizeLeg(ctx context.Context, legID int64, status Status) (bool, error)

	// TerminalizeParlay conditionally moves a pending parlay to a
	// terminal status.
	TerminalizeParlay(ctx context.Context, id int64, status Status, payoutCents int64) (bool, error)

	// PendingSubjects returns the distinct subjects with unresolved
	// wagers or legs, each with the earliest known close time. The
	// settlement engine polls this every cycle.
	PendingSubjects(ctx context.Context) ([]PendingSubject, error)

	// ResolvableParlays returns pending parlays whose outcome is already
	// decided by their legs: a lost leg, or no pending legs left. These
	// only exist when the parent write did not land alongside the
	// deciding leg; full sweeps pick them back up.
	ResolvableParlays(ctx context.Context) ([]*Parlay, error)

	// Close releases the underlying resources.
	Close() error
}
