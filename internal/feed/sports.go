package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// SportsClient is an HTTP client for the sports odds/results provider.
// All reads go through the Fetcher; the remaining-request header of
// every real call feeds the quota tracker.
type SportsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	fetcher    *Fetcher
	quota      *Quota
	oddsTTL    time.Duration
	scoreTTL   time.Duration
	logger     *zap.Logger
}

// SportsConfig holds sports client configuration.
type SportsConfig struct {
	BaseURL  string
	APIKey   string
	Fetcher  *Fetcher
	Quota    *Quota
	OddsTTL  time.Duration
	ScoreTTL time.Duration
	Logger   *zap.Logger
}

// NewSportsClient creates a new sports provider client.
func NewSportsClient(cfg *SportsConfig) *SportsClient {
	return &SportsClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		fetcher:  cfg.Fetcher,
		quota:    cfg.Quota,
		oddsTTL:  cfg.OddsTTL,
		scoreTTL: cfg.ScoreTTL,
		logger:   cfg.Logger,
	}
}

type oddsEventDTO struct {
	ID           string    `json:"id"`
	CommenceTime time.Time `json:"commence_time"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	Bookmakers   []struct {
		Markets []struct {
			Key      string `json:"key"`
			Outcomes []struct {
				Name  string  `json:"name"`
				Price float64 `json:"price"`
			} `json:"outcomes"`
		} `json:"markets"`
	} `json:"bookmakers"`
}

type scoreEventDTO struct {
	ID           string    `json:"id"`
	CommenceTime time.Time `json:"commence_time"`
	Completed    bool      `json:"completed"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	Scores       []struct {
		Name  string `json:"name"`
		Score string `json:"score"`
	} `json:"scores"`
}

// ListUpcoming fetches upcoming events with head-to-head prices for a
// sport. Listings cache with the long discovery TTL.
func (c *SportsClient) ListUpcoming(ctx context.Context, sport string) ([]SportsEvent, error) {
	key := fmt.Sprintf("sports:odds:%s", sport)

	payload, _, err := c.fetcher.Fetch(ctx, key, c.oddsTTL, func(ctx context.Context) ([]byte, error) {
		params := url.Values{}
		params.Add("apiKey", c.apiKey)
		params.Add("regions", "us")
		params.Add("markets", "h2h")
		params.Add("oddsFormat", "decimal")
		return c.get(ctx, fmt.Sprintf("/v4/sports/%s/odds", sport), params)
	})
	if err != nil {
		return nil, err
	}

	var dtos []oddsEventDTO
	err = json.Unmarshal(payload, &dtos)
	if err != nil {
		return nil, fmt.Errorf("unmarshal odds listing: %w", err)
	}

	events := make([]SportsEvent, 0, len(dtos))
	for _, dto := range dtos {
		ev := SportsEvent{
			ID:           dto.ID,
			Sport:        sport,
			HomeTeam:     dto.HomeTeam,
			AwayTeam:     dto.AwayTeam,
			CommenceTime: dto.CommenceTime,
		}
		// First book's head-to-head market is the price table we expose.
		for _, bk := range dto.Bookmakers {
			for _, mkt := range bk.Markets {
				if mkt.Key != "h2h" {
					continue
				}
				for _, out := range mkt.Outcomes {
					ev.Prices = append(ev.Prices, PriceQuote{Name: out.Name, Decimal: out.Price})
				}
				break
			}
			if len(ev.Prices) > 0 {
				break
			}
		}
		events = append(events, ev)
	}

	return events, nil
}

// Result fetches the current result state of one event. Result checks
// cache with the short TTL; the Completed flag is the only thing that
// makes the result definitive, regardless of cache age.
func (c *SportsClient) Result(ctx context.Context, sport, eventID string) (*SportsResult, error) {
	key := fmt.Sprintf("sports:score:%s:%s", sport, eventID)

	payload, _, err := c.fetcher.Fetch(ctx, key, c.scoreTTL, func(ctx context.Context) ([]byte, error) {
		params := url.Values{}
		params.Add("apiKey", c.apiKey)
		params.Add("daysFrom", "3")
		params.Add("eventIds", eventID)
		return c.get(ctx, fmt.Sprintf("/v4/sports/%s/scores", sport), params)
	})
	if err != nil {
		return nil, err
	}

	var dtos []scoreEventDTO
	err = json.Unmarshal(payload, &dtos)
	if err != nil {
		return nil, fmt.Errorf("unmarshal scores: %w", err)
	}

	for _, dto := range dtos {
		if dto.ID != eventID {
			continue
		}

		result := &SportsResult{
			EventID:      dto.ID,
			CommenceTime: dto.CommenceTime,
			Started:      dto.Completed || time.Now().After(dto.CommenceTime),
			Completed:    dto.Completed,
			HomeTeam:     dto.HomeTeam,
			AwayTeam:     dto.AwayTeam,
		}
		for _, s := range dto.Scores {
			score, err := strconv.Atoi(s.Score)
			if err != nil {
				continue
			}
			switch s.Name {
			case dto.HomeTeam:
				result.HomeScore = score
			case dto.AwayTeam:
				result.AwayScore = score
			}
		}
		return result, nil
	}

	return nil, fmt.Errorf("event %s not found in scores response", eventID)
}

// QuotaLow reports whether the provider is critically rate limited.
func (c *SportsClient) QuotaLow() bool {
	return c.quota.Low()
}

func (c *SportsClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	requestURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		ProviderRequestsTotal.WithLabelValues("sports", "error").Inc()
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if remaining := resp.Header.Get("x-requests-remaining"); remaining != "" {
		if val, err := strconv.ParseFloat(remaining, 64); err == nil {
			c.quota.Update(val)
		}
	}

	if resp.StatusCode != http.StatusOK {
		ProviderRequestsTotal.WithLabelValues("sports", "error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		ProviderRequestsTotal.WithLabelValues("sports", "error").Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}

	ProviderRequestsTotal.WithLabelValues("sports", "ok").Inc()
	return body, nil
}
