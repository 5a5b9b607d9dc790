package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pairlens/pairlens/internal/backtest"
)

// Config holds all application configuration
type Config struct {
	// Exchange API
	BinanceBaseURL   string
	BinanceWSURL     string
	DefaultInterval  string
	CandleLimit      int
	DefaultLookbacks []string

	// Universe
	Symbols []string

	// Analysis
	MinCorrelation float64

	// Backtest defaults, overridable per run from the CLI
	Backtest backtest.Config

	// Performance
	CacheTTL                time.Duration
	WebsocketReconnectDelay time.Duration
	HTTPTimeout             time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		// Exchange API
		BinanceBaseURL:   getEnv("BINANCE_BASE_URL", "https://api.binance.com"),
		BinanceWSURL:     getEnv("BINANCE_WS_URL", "wss://stream.binance.com:9443/ws"),
		DefaultInterval:  getEnv("DEFAULT_INTERVAL", "1h"),
		CandleLimit:      int(getEnvInt("CANDLE_LIMIT", 500)),
		DefaultLookbacks: getEnvList("CONFLUENCE_INTERVALS", []string{"5m", "15m", "1h", "4h"}),

		// Universe
		Symbols: getEnvList("SYMBOLS", []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "ADAUSDT", "XRPUSDT"}),

		// Analysis
		MinCorrelation: getEnvFloat("MIN_CORRELATION", 0.7),

		Backtest: backtest.Config{
			EntrySpreadThreshold: getEnvFloat("BACKTEST_ENTRY_THRESHOLD", backtest.DefaultConfig().EntrySpreadThreshold),
			MinCorrelation:       getEnvFloat("BACKTEST_MIN_CORRELATION", backtest.DefaultConfig().MinCorrelation),
			TakeProfitPercent:    getEnvFloat("BACKTEST_TAKE_PROFIT_PERCENT", backtest.DefaultConfig().TakeProfitPercent),
			StopLossPercent:      getEnvFloat("BACKTEST_STOP_LOSS_PERCENT", backtest.DefaultConfig().StopLossPercent),
		},

		// Performance
		CacheTTL:                getEnvDuration("CACHE_TTL_MS", 60000) * time.Millisecond,
		WebsocketReconnectDelay: getEnvDuration("WEBSOCKET_RECONNECT_DELAY_MS", 1000) * time.Millisecond,
		HTTPTimeout:             getEnvDuration("HTTP_TIMEOUT_MS", 10000) * time.Millisecond,

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithFile loads the environment-based configuration and then overlays
// values from a YAML config file when path is non-empty.
func LoadWithFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if v.IsSet("symbols") {
		cfg.Symbols = v.GetStringSlice("symbols")
	}
	if v.IsSet("interval") {
		cfg.DefaultInterval = v.GetString("interval")
	}
	if v.IsSet("candle_limit") {
		cfg.CandleLimit = v.GetInt("candle_limit")
	}
	if v.IsSet("confluence_intervals") {
		cfg.DefaultLookbacks = v.GetStringSlice("confluence_intervals")
	}
	if v.IsSet("min_correlation") {
		cfg.MinCorrelation = v.GetFloat64("min_correlation")
	}
	if v.IsSet("log_level") {
		cfg.LogLevel = v.GetString("log_level")
	}
	if v.IsSet("backtest") {
		if err := v.UnmarshalKey("backtest", &cfg.Backtest); err != nil {
			return nil, fmt.Errorf("parse backtest config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engines cannot work with.
func (c *Config) Validate() error {
	if c.CandleLimit < 150 {
		return fmt.Errorf("CANDLE_LIMIT must be at least 150, got %d", c.CandleLimit)
	}
	if c.MinCorrelation < 0 || c.MinCorrelation > 1 {
		return fmt.Errorf("MIN_CORRELATION must be in [0, 1], got %v", c.MinCorrelation)
	}
	if len(c.Symbols) < 2 {
		return fmt.Errorf("at least two symbols are required, got %d", len(c.Symbols))
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue int64) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return time.Duration(parsed)
		}
	}
	return time.Duration(defaultValue)
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
