package ledger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryLedger is an in-process ledger used in memory store mode and as
// a test fixture. A single mutex serializes writers, which makes every
// operation linearizable.
type MemoryLedger struct {
	mu              sync.Mutex
	balances        map[int64]int64
	journal         []Entry
	nextEntryID     int64
	startingBalance int64
	logger          *zap.Logger
}

// NewMemoryLedger creates an in-memory ledger. Accounts created lazily
// start at startingBalanceCents.
func NewMemoryLedger(startingBalanceCents int64, logger *zap.Logger) *MemoryLedger {
	return &MemoryLedger{
		balances:        make(map[int64]int64),
		nextEntryID:     1,
		startingBalance: startingBalanceCents,
		logger:          logger,
	}
}

func (m *MemoryLedger) ensureAccountLocked(accountID int64) {
	if _, ok := m.balances[accountID]; ok {
		return
	}
	m.balances[accountID] = m.startingBalance
	if m.startingBalance > 0 {
		m.appendEntryLocked(accountID, m.startingBalance, m.startingBalance, ReasonInitial, "")
	}
}

func (m *MemoryLedger) appendEntryLocked(accountID, delta, after int64, reason Reason, ref string) {
	m.journal = append(m.journal, Entry{
		ID:                m.nextEntryID,
		AccountID:         accountID,
		DeltaCents:        delta,
		BalanceAfterCents: after,
		Reason:            reason,
		RelatedRef:        ref,
		CreatedAt:         time.Now(),
	})
	m.nextEntryID++
}

// Credit adds funds to an account, creating it if absent.
func (m *MemoryLedger) Credit(_ context.Context, accountID, amountCents int64, reason Reason, ref string) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureAccountLocked(accountID)
	m.balances[accountID] += amountCents
	newBalance := m.balances[accountID]
	m.appendEntryLocked(accountID, amountCents, newBalance, reason, ref)

	CreditsTotal.Inc()
	m.logger.Debug("ledger-credit",
		zap.Int64("account-id", accountID),
		zap.Int64("amount-cents", amountCents),
		zap.Int64("balance-cents", newBalance),
		zap.String("reason", string(reason)))

	return newBalance, nil
}

// Debit removes funds from an account, failing without mutation if the
// balance is insufficient.
func (m *MemoryLedger) Debit(_ context.Context, accountID, amountCents int64, reason Reason, ref string) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureAccountLocked(accountID)
	if m.balances[accountID] < amountCents {
		DebitsRejectedTotal.Inc()
		return m.balances[accountID], ErrInsufficientFunds
	}

	m.balances[accountID] -= amountCents
	newBalance := m.balances[accountID]
	m.appendEntryLocked(accountID, -amountCents, newBalance, reason, ref)

	DebitsTotal.Inc()
	m.logger.Debug("ledger-debit",
		zap.Int64("account-id", accountID),
		zap.Int64("amount-cents", amountCents),
		zap.Int64("balance-cents", newBalance),
		zap.String("reason", string(reason)))

	return newBalance, nil
}

// Balance returns the current balance, creating the account if absent.
func (m *MemoryLedger) Balance(_ context.Context, accountID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureAccountLocked(accountID)
	return m.balances[accountID], nil
}

// Snapshot returns every account balance.
func (m *MemoryLedger) Snapshot(_ context.Context) ([]AccountBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]AccountBalance, 0, len(m.balances))
	for id, bal := range m.balances {
		out = append(out, AccountBalance{AccountID: id, BalanceCents: bal})
	}
	return out, nil
}

// History returns journal entries for an account, newest first.
func (m *MemoryLedger) History(_ context.Context, accountID int64, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Entry
	for i := len(m.journal) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.journal[i].AccountID == accountID {
			out = append(out, m.journal[i])
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory ledger.
func (m *MemoryLedger) Close() error {
	return nil
}
