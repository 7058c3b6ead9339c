package httpserver

import (
	"context"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/tbarret/wagerbook/internal/feed"
	"github.com/tbarret/wagerbook/internal/wager"
	"github.com/tbarret/wagerbook/pkg/odds"
)

// EventLister lists upcoming events with head-to-head prices for one
// sport.
type EventLister interface {
	ListUpcoming(ctx context.Context, sport string) ([]feed.SportsEvent, error)
}

// EventsHandler exposes the browsing surface over the sports provider.
// Listings carry the subject key a placement request needs.
type EventsHandler struct {
	lister    EventLister
	sportKeys []string
	logger    *zap.Logger
}

func NewEventsHandler(lister EventLister, sportKeys []string, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{lister: lister, sportKeys: sportKeys, logger: logger}
}

type priceResponse struct {
	Name         string  `json:"name"`
	Odds         float64 `json:"odds"`
	AmericanOdds int     `json:"american_odds"`
}

type eventResponse struct {
	Subject      string          `json:"subject"`
	Sport        string          `json:"sport"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	CommenceTime time.Time       `json:"commence_time"`
	Prices       []priceResponse `json:"prices"`
}

func toEventResponse(ev feed.SportsEvent) eventResponse {
	resp := eventResponse{
		Subject:      wager.SportsSubjectKey(ev.Sport, ev.ID, "h2h"),
		Sport:        ev.Sport,
		HomeTeam:     ev.HomeTeam,
		AwayTeam:     ev.AwayTeam,
		CommenceTime: ev.CommenceTime,
		Prices:       make([]priceResponse, 0, len(ev.Prices)),
	}
	for _, q := range ev.Prices {
		resp.Prices = append(resp.Prices, priceResponse{
			Name:         q.Name,
			Odds:         q.Decimal,
			AmericanOdds: odds.DecimalToAmerican(q.Decimal),
		})
	}
	return resp
}

type eventsResponse struct {
	Events []eventResponse `json:"events"`
}

// List handles GET /api/events?sport=K. Without a sport filter it
// browses every configured sport; a single bad listing is skipped so
// one provider hiccup does not empty the whole browse.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	sports := h.sportKeys
	if sport := r.URL.Query().Get("sport"); sport != "" {
		sports = []string{sport}
	}
	if len(sports) == 0 {
		h.writeJSON(w, http.StatusOK, eventsResponse{Events: []eventResponse{}})
		return
	}

	resp := eventsResponse{Events: make([]eventResponse, 0)}
	failures := 0
	for _, sport := range sports {
		events, err := h.lister.ListUpcoming(r.Context(), sport)
		if err != nil {
			h.logger.Warn("event-listing-failed",
				zap.String("sport", sport),
				zap.Error(err))
			failures++
			continue
		}
		for _, ev := range events {
			resp.Events = append(resp.Events, toEventResponse(ev))
		}
	}

	if failures == len(sports) {
		h.writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "event listings unavailable"})
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *EventsHandler) writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}
