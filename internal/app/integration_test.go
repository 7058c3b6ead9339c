package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tbarret/wagerbook/internal/book"
	"github.com/tbarret/wagerbook/internal/wager"
	"github.com/tbarret/wagerbook/pkg/config"
)

func testAppConfig(sportsURL, marketURL string) *config.Config {
	return &config.Config{
		LogLevel:             "info",
		HTTPPort:             "0",
		SportsBaseURL:        sportsURL,
		SportsAPIKey:         "test-key",
		SportsOddsTTL:        time.Minute,
		SportsScoreTTL:       time.Second,
		SportsQuotaFloor:     10,
		MarketBaseURL:        marketURL,
		MarketTTL:            time.Minute,
		MarketCloseTTL:       time.Second,
		PassInterval:         time.Second,
		FullSweepEvery:       5,
		LeadWindow:           time.Hour,
		MinElapsed:           90 * time.Minute,
		DefaultDuration:      3 * time.Hour,
		StartingBalanceCents: 100000,
		StoreMode:            "memory",
	}
}

// sportsScoreHandler mimics the sports provider's scores endpoint.
func sportsScoreHandler(commence time.Time, completed bool, homeScore, awayScore int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/scores") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("x-requests-remaining", "500")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[{
			"id": "evt1",
			"commence_time": %q,
			"completed": %t,
			"home_team": "Lakers",
			"away_team": "Celtics",
			"scores": [
				{"name": "Lakers", "score": "%d"},
				{"name": "Celtics", "score": "%d"}
			]
		}]`, commence.Format(time.RFC3339), completed, homeScore, awayScore)
	}
}

func TestPlaceAndSettleEndToEnd(t *testing.T) {
	commence := time.Now().Add(-4 * time.Hour)
	sports := httptest.NewServer(sportsScoreHandler(commence, true, 110, 95))
	defer sports.Close()
	market := httptest.NewServer(http.NotFoundHandler())
	defer market.Close()

	application, err := New(testAppConfig(sports.URL, market.URL), zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = application.Shutdown() }()

	ctx := context.Background()
	subject := wager.SportsSubjectKey("basketball_nba", "evt1", "h2h")

	placed, err := application.Book().PlaceWager(ctx, book.PlaceWagerRequest{
		AccountID:  1,
		Kind:       wager.KindSports,
		Subject:    subject,
		Pick:       "home",
		StakeCents: 5000,
		Odds:       2.5,
		CloseAt:    commence,
	})
	require.NoError(t, err)

	balance, err := application.Book().BalanceOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(95000), balance)

	application.SettleOnce(ctx)

	wagers, _, err := application.Book().ListHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, wagers, 1)
	assert.Equal(t, placed.ID, wagers[0].ID)
	assert.Equal(t, wager.StatusWon, wagers[0].Status)
	assert.Equal(t, int64(12500), wagers[0].PayoutCents)

	// 100000 - 5000 stake + 12500 payout.
	balance, err = application.Book().BalanceOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(107500), balance)
}

func TestSettleLeavesInProgressEventPending(t *testing.T) {
	commence := time.Now().Add(-4 * time.Hour)
	sports := httptest.NewServer(sportsScoreHandler(commence, false, 55, 60))
	defer sports.Close()
	market := httptest.NewServer(http.NotFoundHandler())
	defer market.Close()

	application, err := New(testAppConfig(sports.URL, market.URL), zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = application.Shutdown() }()

	ctx := context.Background()
	subject := wager.SportsSubjectKey("basketball_nba", "evt1", "h2h")

	_, err = application.Book().PlaceWager(ctx, book.PlaceWagerRequest{
		AccountID:  1,
		Kind:       wager.KindSports,
		Subject:    subject,
		Pick:       "home",
		StakeCents: 5000,
		Odds:       2.5,
		CloseAt:    commence,
	})
	require.NoError(t, err)

	application.SettleOnce(ctx)

	wagers, _, err := application.Book().ListPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, wagers, 1)
	assert.Equal(t, wager.StatusPending, wagers[0].Status)
}

func TestCancelBeforeStartEndToEnd(t *testing.T) {
	commence := time.Now().Add(2 * time.Hour)
	sports := httptest.NewServer(sportsScoreHandler(commence, false, 0, 0))
	defer sports.Close()
	market := httptest.NewServer(http.NotFoundHandler())
	defer market.Close()

	application, err := New(testAppConfig(sports.URL, market.URL), zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = application.Shutdown() }()

	ctx := context.Background()
	subject := wager.SportsSubjectKey("basketball_nba", "evt1", "h2h")

	placed, err := application.Book().PlaceWager(ctx, book.PlaceWagerRequest{
		AccountID:  1,
		Kind:       wager.KindSports,
		Subject:    subject,
		Pick:       "home",
		StakeCents: 5000,
		Odds:       2.5,
		CloseAt:    commence,
	})
	require.NoError(t, err)

	require.NoError(t, application.Book().CancelWager(ctx, 1, placed.ID))

	balance, err := application.Book().BalanceOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), balance)
}
