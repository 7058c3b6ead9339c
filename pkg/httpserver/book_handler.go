package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/tbarret/wagerbook/internal/book"
	"github.com/tbarret/wagerbook/internal/ledger"
	"github.com/tbarret/wagerbook/internal/wager"
	"github.com/tbarret/wagerbook/pkg/odds"
)

// BookHandler exposes placement, cancellation and account queries.
type BookHandler struct {
	book   *book.Service
	logger *zap.Logger
}

func NewBookHandler(b *book.Service, logger *zap.Logger) *BookHandler {
	return &BookHandler{book: b, logger: logger}
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

type placeWagerRequest struct {
	AccountID  int64      `json:"account_id"`
	Subject    string     `json:"subject"`
	Pick       string     `json:"pick"`
	StakeCents int64      `json:"stake_cents"`
	Odds       float64    `json:"odds,omitempty"`
	// AmericanOdds takes precedence over Odds when set.
	AmericanOdds *int       `json:"american_odds,omitempty"`
	CloseAt      *time.Time `json:"close_at,omitempty"`
}

type legRequest struct {
	Subject      string     `json:"subject"`
	Pick         string     `json:"pick"`
	Odds         float64    `json:"odds,omitempty"`
	AmericanOdds *int       `json:"american_odds,omitempty"`
	CloseAt      *time.Time `json:"close_at,omitempty"`
}

type placeParlayRequest struct {
	AccountID  int64        `json:"account_id"`
	StakeCents int64        `json:"stake_cents"`
	Legs       []legRequest `json:"legs"`
}

type wagerResponse struct {
	ID           int64      `json:"id"`
	AccountID    int64      `json:"account_id"`
	Subject      string     `json:"subject"`
	Pick         string     `json:"pick"`
	StakeCents   int64      `json:"stake_cents"`
	Odds         float64    `json:"odds"`
	AmericanOdds int        `json:"american_odds"`
	Status       string     `json:"status"`
	PayoutCents  int64      `json:"payout_cents"`
	CloseAt      *time.Time `json:"close_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	SettledAt    *time.Time `json:"settled_at,omitempty"`
}

type legResponse struct {
	Subject string  `json:"subject"`
	Pick    string  `json:"pick"`
	Odds    float64 `json:"odds"`
	Status  string  `json:"status"`
}

type parlayResponse struct {
	ID           int64         `json:"id"`
	AccountID    int64         `json:"account_id"`
	StakeCents   int64         `json:"stake_cents"`
	CombinedOdds float64       `json:"combined_odds"`
	Status       string        `json:"status"`
	PayoutCents  int64         `json:"payout_cents"`
	Legs         []legResponse `json:"legs"`
	CreatedAt    time.Time     `json:"created_at"`
	SettledAt    *time.Time    `json:"settled_at,omitempty"`
}

func toWagerResponse(w *wager.Wager) wagerResponse {
	resp := wagerResponse{
		ID:           w.ID,
		AccountID:    w.AccountID,
		Subject:      w.Subject,
		Pick:         w.Pick,
		StakeCents:   w.StakeCents,
		Odds:         w.Odds,
		AmericanOdds: odds.DecimalToAmerican(w.Odds),
		Status:       string(w.Status),
		PayoutCents:  w.PayoutCents,
		CreatedAt:    w.CreatedAt,
		SettledAt:    w.SettledAt,
	}
	if !w.CloseAt.IsZero() {
		closeAt := w.CloseAt
		resp.CloseAt = &closeAt
	}
	return resp
}

func toParlayResponse(p *wager.Parlay) parlayResponse {
	resp := parlayResponse{
		ID:           p.ID,
		AccountID:    p.AccountID,
		StakeCents:   p.StakeCents,
		CombinedOdds: p.CombinedOdds,
		Status:       string(p.Status),
		PayoutCents:  p.PayoutCents,
		Legs:         make([]legResponse, 0, len(p.Legs)),
		CreatedAt:    p.CreatedAt,
		SettledAt:    p.SettledAt,
	}
	for _, leg := range p.Legs {
		resp.Legs = append(resp.Legs, legResponse{
			Subject: leg.Subject,
			Pick:    leg.Pick,
			Odds:    leg.Odds,
			Status:  string(leg.Status),
		})
	}
	return resp
}

// PlaceWager handles POST /api/wagers.
func (h *BookHandler) PlaceWager(w http.ResponseWriter, r *http.Request) {
	var req placeWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sub, err := wager.ParseSubject(req.Subject)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	decimal := req.Odds
	if req.AmericanOdds != nil {
		decimal = odds.AmericanToDecimal(*req.AmericanOdds)
	}

	placeReq := book.PlaceWagerRequest{
		AccountID:  req.AccountID,
		Kind:       sub.Kind,
		Subject:    req.Subject,
		Pick:       req.Pick,
		StakeCents: req.StakeCents,
		Odds:       decimal,
	}
	if req.CloseAt != nil {
		placeReq.CloseAt = *req.CloseAt
	}

	placed, err := h.book.PlaceWager(r.Context(), placeReq)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toWagerResponse(placed))
}

// PlaceParlay handles POST /api/parlays.
func (h *BookHandler) PlaceParlay(w http.ResponseWriter, r *http.Request) {
	var req placeParlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	legs := make([]wager.Leg, 0, len(req.Legs))
	for _, lr := range req.Legs {
		decimal := lr.Odds
		if lr.AmericanOdds != nil {
			decimal = odds.AmericanToDecimal(*lr.AmericanOdds)
		}
		leg := wager.Leg{Subject: lr.Subject, Pick: lr.Pick, Odds: decimal}
		if lr.CloseAt != nil {
			leg.CloseAt = *lr.CloseAt
		}
		legs = append(legs, leg)
	}

	placed, err := h.book.PlaceParlay(r.Context(), book.PlaceParlayRequest{
		AccountID:  req.AccountID,
		StakeCents: req.StakeCents,
		Legs:       legs,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toParlayResponse(placed))
}

// CancelWager handles DELETE /api/wagers/{id}?account_id=N.
func (h *BookHandler) CancelWager(w http.ResponseWriter, r *http.Request) {
	wagerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, "invalid wager id", http.StatusBadRequest)
		return
	}
	accountID, err := strconv.ParseInt(r.URL.Query().Get("account_id"), 10, 64)
	if err != nil {
		h.writeError(w, "missing or invalid account_id", http.StatusBadRequest)
		return
	}

	if err := h.book.CancelWager(r.Context(), accountID, wagerID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type pendingResponse struct {
	Wagers  []wagerResponse  `json:"wagers"`
	Parlays []parlayResponse `json:"parlays"`
}

// Pending handles GET /api/accounts/{id}/pending.
func (h *BookHandler) Pending(w http.ResponseWriter, r *http.Request) {
	h.listAccount(w, r, h.book.ListPending)
}

// History handles GET /api/accounts/{id}/history.
func (h *BookHandler) History(w http.ResponseWriter, r *http.Request) {
	h.listAccount(w, r, h.book.ListHistory)
}

func (h *BookHandler) listAccount(w http.ResponseWriter, r *http.Request,
	list func(ctx context.Context, accountID int64) ([]*wager.Wager, []*wager.Parlay, error)) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, "invalid account id", http.StatusBadRequest)
		return
	}

	ws, ps, err := list(r.Context(), accountID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := pendingResponse{
		Wagers:  make([]wagerResponse, 0, len(ws)),
		Parlays: make([]parlayResponse, 0, len(ps)),
	}
	for _, wg := range ws {
		resp.Wagers = append(resp.Wagers, toWagerResponse(wg))
	}
	for _, p := range ps {
		resp.Parlays = append(resp.Parlays, toParlayResponse(p))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type balanceResponse struct {
	AccountID    int64 `json:"account_id"`
	BalanceCents int64 `json:"balance_cents"`
}

// Balance handles GET /api/accounts/{id}/balance.
func (h *BookHandler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, "invalid account id", http.StatusBadRequest)
		return
	}

	balance, err := h.book.BalanceOf(r.Context(), accountID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, balanceResponse{AccountID: accountID, BalanceCents: balance})
}

// writeServiceError maps domain errors onto HTTP status codes.
func (h *BookHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		h.writeError(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, wager.ErrNotFound):
		h.writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, book.ErrAlreadyResolved), errors.Is(err, book.ErrEventStarted):
		h.writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, wager.ErrInvalidStake), errors.Is(err, wager.ErrInvalidOdds),
		errors.Is(err, wager.ErrTooFewLegs):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("request-failed", zap.Error(err))
		h.writeError(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *BookHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, statusCode, ErrorResponse{Error: message})
}

func (h *BookHandler) writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}
