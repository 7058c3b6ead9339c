package wager

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryStore is an in-process Store used in memory store mode and as a
// test fixture. Returned entities are copies; callers never alias
// internal state.
type MemoryStore struct {
	mu         sync.Mutex
	wagers     map[int64]*Wager
	parlays    map[int64]*Parlay
	nextWager  int64
	nextParlay int64
	nextLeg    int64
	logger     *zap.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		wagers:     make(map[int64]*Wager),
		parlays:    make(map[int64]*Parlay),
		nextWager:  1,
		nextParlay: 1,
		nextLeg:    1,
		logger:     logger,
	}
}

func copyWager(w *Wager) *Wager {
	c := *w
	return &c
}

func copyParlay(p *Parlay) *Parlay {
	c := *p
	c.Legs = make([]Leg, len(p.Legs))
	copy(c.Legs, p.Legs)
	return &c
}

// CreateWager persists a new pending wager.
func (m *MemoryStore) CreateWager(_ context.Context, w *Wager) error {
	if w.StakeCents <= 0 {
		return ErrInvalidStake
	}
	if w.Odds < 1.0 {
		return ErrInvalidOdds
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	w.ID = m.nextWager
	m.nextWager++
	w.Status = StatusPending
	w.CreatedAt = time.Now()
	m.wagers[w.ID] = copyWager(w)

	WagersCreatedTotal.Inc()
	return nil
}

// WagerByID returns a wager or ErrNotFound.
func (m *MemoryStore) WagerByID(_ context.Context, id int64) (*Wager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wagers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyWager(w), nil
}

// WagersBySubject lists wagers on a subject with the given status.
func (m *MemoryStore) WagersBySubject(_ context.Context, subject string, status Status) ([]*Wager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Wager
	for _, w := range m.wagers {
		if w.Subject == subject && w.Status == status {
			out = append(out, copyWager(w))
		}
	}
	sortWagers(out)
	return out, nil
}

// WagersByAccount lists an account's wagers.
func (m *MemoryStore) WagersByAccount(_ context.Context, accountID int64, pendingOnly bool) ([]*Wager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Wager
	for _, w := range m.wagers {
		if w.AccountID != accountID {
			continue
		}
		if pendingOnly && w.Status.Terminal() {
			continue
		}
		out = append(out, copyWager(w))
	}
	sortWagers(out)
	return out, nil
}

// TerminalizeWager conditionally finalizes a pending wager.
func (m *MemoryStore) TerminalizeWager(_ context.Context, id int64, status Status, payoutCents int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wagers[id]
	if !ok {
		return false, ErrNotFound
	}
	if w.Status.Terminal() {
		return false, nil
	}

	now := time.Now()
	w.Status = status
	w.PayoutCents = payoutCents
	w.SettledAt = &now

	WagersSettledTotal.WithLabelValues(string(status)).Inc()
	return true, nil
}

// CreateParlay persists a parlay with its legs.
func (m *MemoryStore) CreateParlay(_ context.Context, p *Parlay) error {
	if len(p.Legs) < 2 {
		return ErrTooFewLegs
	}
	if p.StakeCents <= 0 {
		return ErrInvalidStake
	}
	for _, leg := range p.Legs {
		if leg.Odds < 1.0 {
			return ErrInvalidOdds
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = m.nextParlay
	m.nextParlay++
	p.Status = StatusPending
	p.CreatedAt = time.Now()
	for i := range p.Legs {
		p.Legs[i].ID = m.nextLeg
		m.nextLeg++
		p.Legs[i].ParlayID = p.ID
		p.Legs[i].Status = StatusPending
	}
	m.parlays[p.ID] = copyParlay(p)

	ParlaysCreatedTotal.Inc()
	return nil
}

// ParlayByID returns a parlay with its legs or ErrNotFound.
func (m *MemoryStore) ParlayByID(_ context.Context, id int64) (*Parlay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.parlays[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyParlay(p), nil
}

// ParlaysByAccount lists an account's parlays.
func (m *MemoryStore) ParlaysByAccount(_ context.Context, accountID int64, pendingOnly bool) ([]*Parlay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Parlay
	for _, p := range m.parlays {
		if p.AccountID != accountID {
			continue
		}
		if pendingOnly && p.Status.Terminal() {
			continue
		}
		out = append(out, copyParlay(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LegsBySubject lists parlay legs on a subject with the given status.
func (m *MemoryStore) LegsBySubject(_ context.Context, subject string, status Status) ([]*Leg, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Leg
	for _, p := range m.parlays {
		for i := range p.Legs {
			leg := p.Legs[i]
			if leg.Subject == subject && leg.Status == status {
				out = append(out, &leg)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// TerminalizeLeg conditionally finalizes a pending leg.
func (m *MemoryStore) TerminalizeLeg(_ context.Context, legID int64, status Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.parlays {
		for i := range p.Legs {
			if p.Legs[i].ID != legID {
				continue
			}
			if p.Legs[i].Status.Terminal() {
				return false, nil
			}
			p.Legs[i].Status = status
			return true, nil
		}
	}
	return false, ErrNotFound
}

// TerminalizeParlay conditionally finalizes a pending parlay.
func (m *MemoryStore) TerminalizeParlay(_ context.Context, id int64, status Status, payoutCents int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.parlays[id]
	if !ok {
		return false, ErrNotFound
	}
	if p.Status.Terminal() {
		return false, nil
	}

	now := time.Now()
	p.Status = status
	p.PayoutCents = payoutCents
	p.SettledAt = &now

	ParlaysSettledTotal.WithLabelValues(string(status)).Inc()
	return true, nil
}

// PendingSubjects returns distinct pending subjects across wagers and
// legs, each with the earliest known close time.
func (m *MemoryStore) PendingSubjects(_ context.Context) ([]PendingSubject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	earliest := make(map[string]time.Time)
	observe := func(subject string, closeAt time.Time) {
		cur, seen := earliest[subject]
		if !seen {
			earliest[subject] = closeAt
			return
		}
		if closeAt.IsZero() {
			return
		}
		if cur.IsZero() || closeAt.Before(cur) {
			earliest[subject] = closeAt
		}
	}

	for _, w := range m.wagers {
		if w.Status == StatusPending {
			observe(w.Subject, w.CloseAt)
		}
	}
	for _, p := range m.parlays {
		if p.Status.Terminal() {
			continue
		}
		for _, leg := range p.Legs {
			if leg.Status == StatusPending {
				observe(leg.Subject, leg.CloseAt)
			}
		}
	}

	out := make([]PendingSubject, 0, len(earliest))
	for subject, closeAt := range earliest {
		out = append(out, PendingSubject{Subject: subject, CloseAt: closeAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out, nil
}

// ResolvableParlays returns pending parlays whose legs already decided
// the outcome.
func (m *MemoryStore) ResolvableParlays(_ context.Context) ([]*Parlay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Parlay
	for _, p := range m.parlays {
		if p.Status.Terminal() {
			continue
		}
		anyPending, anyLost := false, false
		for _, leg := range p.Legs {
			switch leg.Status {
			case StatusPending:
				anyPending = true
			case StatusLost:
				anyLost = true
			}
		}
		if anyLost || !anyPending {
			out = append(out, copyParlay(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func sortWagers(ws []*Wager) {
	sort.Slice(ws, func(i, j int) bool { return ws[i].ID < ws[j].ID })
}
