package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Sports provider
	SportsBaseURL    string
	SportsAPIKey     string
	SportsSports     string // comma-separated sport keys to browse
	SportsOddsTTL    time.Duration
	SportsScoreTTL   time.Duration
	SportsQuotaFloor float64

	// Prediction-market provider
	MarketBaseURL  string
	MarketTTL      time.Duration
	MarketCloseTTL time.Duration

	// Settlement
	PassInterval    time.Duration
	FullSweepEvery  int
	LeadWindow      time.Duration
	MinElapsed      time.Duration
	DefaultDuration time.Duration

	// Accounts
	StartingBalanceCents int64

	// Announcements
	KafkaBrokers string // empty means log-only publisher
	KafkaTopic   string

	// Storage
	StoreMode    string // "postgres" or "memory"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Sports provider defaults
		SportsBaseURL:    getEnvOrDefault("SPORTS_API_URL", "https://api.the-odds-api.com"),
		SportsAPIKey:     os.Getenv("SPORTS_API_KEY"),
		SportsSports:     getEnvOrDefault("SPORTS_KEYS", "basketball_nba,americanfootball_nfl"),
		SportsOddsTTL:    getDurationOrDefault("SPORTS_ODDS_TTL", 5*time.Minute),
		SportsScoreTTL:   getDurationOrDefault("SPORTS_SCORE_TTL", 60*time.Second),
		SportsQuotaFloor: getFloat64OrDefault("SPORTS_QUOTA_FLOOR", 25.0),

		// Prediction-market provider defaults
		MarketBaseURL:  getEnvOrDefault("MARKET_API_URL", "https://api.elections.kalshi.com/trade-api/v2"),
		MarketTTL:      getDurationOrDefault("MARKET_TTL", 5*time.Minute),
		MarketCloseTTL: getDurationOrDefault("MARKET_CLOSE_TTL", 60*time.Second),

		// Settlement defaults
		PassInterval:    getDurationOrDefault("SETTLEMENT_PASS_INTERVAL", 2*time.Minute),
		FullSweepEvery:  getIntOrDefault("SETTLEMENT_FULL_SWEEP_EVERY", 15),
		LeadWindow:      getDurationOrDefault("SETTLEMENT_LEAD_WINDOW", time.Hour),
		MinElapsed:      getDurationOrDefault("SETTLEMENT_MIN_ELAPSED", 90*time.Minute),
		DefaultDuration: getDurationOrDefault("SETTLEMENT_DEFAULT_DURATION", 3*time.Hour),

		// Account defaults
		StartingBalanceCents: getInt64OrDefault("STARTING_BALANCE_CENTS", 0),

		// Announcement defaults
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:   getEnvOrDefault("KAFKA_TOPIC", "wager.resolutions"),

		// Storage defaults
		StoreMode:    getEnvOrDefault("STORE_MODE", "memory"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "wagerbook"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "wagerbook123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "wagerbook"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.SportsBaseURL == "" {
		return fmt.Errorf("SPORTS_API_URL cannot be empty")
	}

	if c.MarketBaseURL == "" {
		return fmt.Errorf("MARKET_API_URL cannot be empty")
	}

	if c.StoreMode != "postgres" && c.StoreMode != "memory" {
		return fmt.Errorf("STORE_MODE must be 'postgres' or 'memory', got %q", c.StoreMode)
	}

	if c.PassInterval <= 0 {
		return fmt.Errorf("SETTLEMENT_PASS_INTERVAL must be positive, got %s", c.PassInterval)
	}

	if c.FullSweepEvery < 1 {
		return fmt.Errorf("SETTLEMENT_FULL_SWEEP_EVERY must be >= 1, got %d", c.FullSweepEvery)
	}

	if c.StartingBalanceCents < 0 {
		return fmt.Errorf("STARTING_BALANCE_CENTS cannot be negative, got %d", c.StartingBalanceCents)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
