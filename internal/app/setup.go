package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tbarret/wagerbook/internal/announce"
	"github.com/tbarret/wagerbook/internal/book"
	"github.com/tbarret/wagerbook/internal/feed"
	"github.com/tbarret/wagerbook/internal/leaderboard"
	"github.com/tbarret/wagerbook/internal/ledger"
	"github.com/tbarret/wagerbook/internal/settlement"
	"github.com/tbarret/wagerbook/internal/wager"
	"github.com/tbarret/wagerbook/pkg/cache"
	"github.com/tbarret/wagerbook/pkg/config"
	"github.com/tbarret/wagerbook/pkg/healthprobe"
	"github.com/tbarret/wagerbook/pkg/httpserver"
)

// New wires the full application from configuration.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	probe := healthprobe.New()

	feedCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	fetcher := feed.NewFetcher(feedCache, logger)
	sports, market := setupProviders(cfg, fetcher, logger)

	accountLedger, err := setupLedger(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup ledger: %w", err)
	}

	store, err := setupStore(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup wager store: %w", err)
	}

	publisher := setupPublisher(cfg, logger)
	notifier := leaderboard.NewNotifier(accountLedger, publisher, logger)

	bookSvc := book.NewService(accountLedger, store,
		book.NewFeedStartChecker(sports, market), logger)

	engine := settlement.NewEngine(settlement.Config{
		PassInterval:    cfg.PassInterval,
		FullSweepEvery:  cfg.FullSweepEvery,
		LeadWindow:      cfg.LeadWindow,
		MinElapsed:      cfg.MinElapsed,
		DefaultDuration: cfg.DefaultDuration,
	}, store, accountLedger, settlement.NewFeedVerdictSource(sports, market),
		publisher, notifier, logger)

	httpServer := httpserver.New(&httpserver.Config{
		Port:      cfg.HTTPPort,
		Logger:    logger,
		Probe:     probe,
		Book:      bookSvc,
		Events:    sports,
		SportKeys: splitSportKeys(cfg.SportsSports),
	})

	return &App{
		cfg:        cfg,
		logger:     logger,
		probe:      probe,
		httpServer: httpServer,
		engine:     engine,
		bookSvc:    bookSvc,
		ledger:     accountLedger,
		store:      store,
		publisher:  publisher,
		feedCache:  feedCache,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

func splitSportKeys(keys string) []string {
	var out []string
	for _, key := range strings.Split(keys, ",") {
		if key = strings.TrimSpace(key); key != "" {
			out = append(out, key)
		}
	}
	return out
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupProviders(cfg *config.Config, fetcher *feed.Fetcher, logger *zap.Logger) (*feed.SportsClient, *feed.MarketClient) {
	sports := feed.NewSportsClient(&feed.SportsConfig{
		BaseURL:  cfg.SportsBaseURL,
		APIKey:   cfg.SportsAPIKey,
		Fetcher:  fetcher,
		Quota:    feed.NewQuota(cfg.SportsQuotaFloor),
		OddsTTL:  cfg.SportsOddsTTL,
		ScoreTTL: cfg.SportsScoreTTL,
		Logger:   logger,
	})

	market := feed.NewMarketClient(&feed.MarketConfig{
		BaseURL:  cfg.MarketBaseURL,
		Fetcher:  fetcher,
		TTL:      cfg.MarketTTL,
		CloseTTL: cfg.MarketCloseTTL,
		Logger:   logger,
	})

	return sports, market
}

func setupLedger(cfg *config.Config, logger *zap.Logger) (ledger.Ledger, error) {
	if cfg.StoreMode == "postgres" {
		pg, err := ledger.NewPostgresLedger(&ledger.PostgresConfig{
			Host:                 cfg.PostgresHost,
			Port:                 cfg.PostgresPort,
			User:                 cfg.PostgresUser,
			Password:             cfg.PostgresPass,
			Database:             cfg.PostgresDB,
			SSLMode:              cfg.PostgresSSL,
			StartingBalanceCents: cfg.StartingBalanceCents,
			Logger:               logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres ledger: %w", err)
		}
		return pg, nil
	}

	return ledger.NewMemoryLedger(cfg.StartingBalanceCents, logger), nil
}

func setupStore(cfg *config.Config, logger *zap.Logger) (wager.Store, error) {
	if cfg.StoreMode == "postgres" {
		pg, err := wager.NewPostgresStore(&wager.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres store: %w", err)
		}
		return pg, nil
	}

	return wager.NewMemoryStore(logger), nil
}

func setupPublisher(cfg *config.Config, logger *zap.Logger) announce.Publisher {
	if cfg.KafkaBrokers != "" {
		return announce.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	}
	return announce.NewLogPublisher(logger)
}
