package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// MarketClient is an HTTP client for the prediction-market provider.
// Contracts resolve to a binary yes/no settlement value.
type MarketClient struct {
	baseURL    string
	httpClient *http.Client
	fetcher    *Fetcher
	ttl        time.Duration
	closeTTL   time.Duration
	logger     *zap.Logger
}

// MarketConfig holds prediction-market client configuration.
type MarketConfig struct {
	BaseURL  string
	Fetcher  *Fetcher
	TTL      time.Duration // browsing / far-from-close checks
	CloseTTL time.Duration // near-settlement checks
	Logger   *zap.Logger
}

// NewMarketClient creates a new prediction-market provider client.
func NewMarketClient(cfg *MarketConfig) *MarketClient {
	return &MarketClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		fetcher:  cfg.Fetcher,
		ttl:      cfg.TTL,
		closeTTL: cfg.CloseTTL,
		logger:   cfg.Logger,
	}
}

type contractDTO struct {
	Market struct {
		Ticker    string    `json:"ticker"`
		Status    string    `json:"status"`
		Result    string    `json:"result"`
		CloseTime time.Time `json:"close_time"`
	} `json:"market"`
}

// Contract fetches one contract's state. nearClose selects the short
// TTL used once a contract is close to (or past) its close time.
func (c *MarketClient) Contract(ctx context.Context, ticker string, nearClose bool) (*Contract, error) {
	ttl := c.ttl
	if nearClose {
		ttl = c.closeTTL
	}

	key := fmt.Sprintf("market:contract:%s", ticker)
	payload, _, err := c.fetcher.Fetch(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, fmt.Sprintf("/markets/%s", ticker))
	})
	if err != nil {
		return nil, err
	}

	var dto contractDTO
	err = json.Unmarshal(payload, &dto)
	if err != nil {
		return nil, fmt.Errorf("unmarshal contract: %w", err)
	}

	return &Contract{
		Ticker:    dto.Market.Ticker,
		Status:    dto.Market.Status,
		Result:    dto.Market.Result,
		CloseTime: dto.Market.CloseTime,
	}, nil
}

func (c *MarketClient) get(ctx context.Context, path string) ([]byte, error) {
	requestURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		ProviderRequestsTotal.WithLabelValues("market", "error").Inc()
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		ProviderRequestsTotal.WithLabelValues("market", "error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		ProviderRequestsTotal.WithLabelValues("market", "error").Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}

	ProviderRequestsTotal.WithLabelValues("market", "ok").Inc()
	return body, nil
}
