// Package config provides env-backed configuration for the gateway.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration. Every field has a working default
// so the gateway runs with no environment at all (file store, local
// upstream).
type Config struct {
	Port            string
	DataDir         string
	DatabaseURL     string
	RedisURL        string
	UpstreamURL     string
	UpstreamTimeout time.Duration

	// MarketCodes is the full catalog list, searched in order. Injected
	// into the search engine and the refresher as data, not compiled in.
	MarketCodes []string

	RefreshSchedule string
	RefreshTimezone string

	RateLimitRPS   float64
	RateLimitBurst int

	// AllowedReferers enables the referer gate on /api when non-empty;
	// fragments match by substring.
	AllowedReferers []string
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		Port:            getenv("PORT", "8080"),
		DataDir:         getenv("DATA_DIR", "data"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		UpstreamURL:     getenv("UPSTREAM_URL", "http://localhost:8000"),
		UpstreamTimeout: getduration("UPSTREAM_TIMEOUT", 30*time.Second),
		MarketCodes:     getcsv("MARKET_CODES", "KOSPI,KOSDAQ,NASDAQ,NYSE,AMEX,ETF_KR,ETF_US"),
		RefreshSchedule: getenv("REFRESH_SCHEDULE", "0 5 * * *"),
		RefreshTimezone: getenv("REFRESH_TIMEZONE", "Asia/Seoul"),
		RateLimitRPS:    getfloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:  getint("RATE_LIMIT_BURST", 20),
		AllowedReferers: getcsv("ALLOWED_REFERERS", ""),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getcsv(key, fallback string) []string {
	raw := getenv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getfloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
