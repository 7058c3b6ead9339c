// Package ledger holds per-account virtual balances. Balances are int64
// cents, are never negative, and change only through atomic credit/debit
// operations that journal an entry per mutation.
package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientFunds is returned by Debit when the account balance
	// is smaller than the requested amount. No state is mutated.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned when a credit or debit amount is not
	// strictly positive.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Reason classifies a balance change in the journal.
type Reason string

const (
	ReasonStake        Reason = "stake"
	ReasonPayout       Reason = "payout"
	ReasonRefund       Reason = "refund"
	ReasonParlayStake  Reason = "parlay_stake"
	ReasonParlayPayout Reason = "parlay_payout"
	ReasonParlayRefund Reason = "parlay_refund"
	ReasonInitial      Reason = "initial"
)

// Entry is one journaled balance change.
type Entry struct {
	ID                int64
	AccountID         int64
	DeltaCents        int64 // negative for debits
	BalanceAfterCents int64
	Reason            Reason
	RelatedRef        string // wager:<id>, parlay:<id>
	CreatedAt         time.Time
}

// AccountBalance is a point-in-time balance snapshot row.
type AccountBalance struct {
	AccountID    int64
	BalanceCents int64
}

// Ledger is the account balance store. Accounts are created lazily on
// first reference and never deleted. Credit and Debit are atomic with
// respect to concurrent callers on the same account.
type Ledger interface {
	// Credit adds amountCents to the account, creating it if absent.
	// Returns the new balance.
	Credit(ctx context.Context, accountID, amountCents int64, reason Reason, ref string) (int64, error)

	// Debit subtracts amountCents from the account. Fails with
	// ErrInsufficientFunds, without mutating state, if the balance is
	// smaller than amountCents.
	Debit(ctx context.Context, accountID, amountCents int64, reason Reason, ref string) (int64, error)

	// Balance returns the current balance, creating the account if absent.
	Balance(ctx context.Context, accountID int64) (int64, error)

	// Snapshot returns all account balances, for leaderboard ranking.
	Snapshot(ctx context.Context) ([]AccountBalance, error)

	// History returns the journal for an account, newest first.
	History(ctx context.Context, accountID int64, limit int) ([]Entry, error)

	// Close releases the underlying resources.
	Close() error
}
