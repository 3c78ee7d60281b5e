package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	m "olps/models"
)

type Config struct {
	AlphaVantageApiKey string
	Symbols            []string
	Strategy           m.Strategy
	Epsilon            float64
	Granularity        m.Granularity
	Lookback           time.Duration
	InitialWealth      float64
	Live               bool
	LiveInterval       time.Duration
	LiveBackoff        time.Duration
	DatabaseUrl        string
	Port               string
	PaperCash          decimal.Decimal
}

var defaultSymbols = []string{"AAPL", "MSFT", "GOOGL", "META"}

// Load reads .env (when there is one) and then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds the config from any key lookup, unset keys take their default
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	var err error
	cfg := &Config{
		AlphaVantageApiKey: get("ALPHAVANTAGE_API_KEY", ""),
		Symbols:            parseSymbols(get("SYMBOLS", "")),
		DatabaseUrl:        get("DATABASE_URL", ""),
		Port:               get("PORT", "8080"),
	}

	if cfg.Strategy, err = m.ParseStrategy(get("STRATEGY", "pamr")); err != nil {
		return nil, fmt.Errorf("STRATEGY: %w", err)
	}
	if cfg.Granularity, err = m.ParseGranularity(get("GRANULARITY", "daily")); err != nil {
		return nil, fmt.Errorf("GRANULARITY: %w", err)
	}
	if cfg.Epsilon, err = strconv.ParseFloat(get("EPSILON", "0.5"), 64); err != nil || cfg.Epsilon < 0 {
		return nil, fmt.Errorf("EPSILON must be a non-negative number, got %q", get("EPSILON", ""))
	}
	if cfg.InitialWealth, err = strconv.ParseFloat(get("INITIAL_WEALTH", "1.0"), 64); err != nil || cfg.InitialWealth <= 0 {
		return nil, fmt.Errorf("INITIAL_WEALTH must be a positive number, got %q", get("INITIAL_WEALTH", ""))
	}
	if cfg.Live, err = strconv.ParseBool(get("LIVE", "false")); err != nil {
		return nil, fmt.Errorf("LIVE: %w", err)
	}
	if cfg.Lookback, err = parsePositiveDuration("LOOKBACK", get("LOOKBACK", "17520h")); err != nil {
		return nil, err
	}
	if cfg.LiveInterval, err = parsePositiveDuration("LIVE_INTERVAL", get("LIVE_INTERVAL", "24h")); err != nil {
		return nil, err
	}
	if cfg.LiveBackoff, err = parsePositiveDuration("LIVE_BACKOFF", get("LIVE_BACKOFF", "60s")); err != nil {
		return nil, err
	}
	if cfg.PaperCash, err = decimal.NewFromString(get("PAPER_CASH", "100000")); err != nil || !cfg.PaperCash.IsPositive() {
		return nil, fmt.Errorf("PAPER_CASH must be a positive amount, got %q", get("PAPER_CASH", ""))
	}

	if cfg.AlphaVantageApiKey == "" {
		return nil, fmt.Errorf("ALPHAVANTAGE_API_KEY is required")
	}

	return cfg, nil
}

// Addr is the http listen address
func (c *Config) Addr() string {
	return ":" + c.Port
}

func parseSymbols(s string) []string {
	if s == "" {
		return append([]string(nil), defaultSymbols...)
	}

	var res []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		symbol := strings.ToUpper(strings.TrimSpace(part))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		res = append(res, symbol)
	}
	return res
}

func parsePositiveDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, value)
	}
	return d, nil
}
