package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// ProviderConfig carries the credential and endpoint for one optional
// enrichment data source. Either field empty means the source is disabled.
type ProviderConfig struct {
	APIKey  string
	BaseURL string
}

// Configured reports whether the source can be called.
func (p ProviderConfig) Configured() bool {
	return p.APIKey != "" && p.BaseURL != ""
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL         string
	JWTSecret           string
	Port                string
	PlacesAPIKey        string
	CompanyData         ProviderConfig
	CompanyDataFallback ProviderConfig
	LegalRegistry       ProviderConfig
	EnrichmentMode      string
	EnrichmentBudget    time.Duration
	CacheFreshness      time.Duration
	PhoneRegion         string
	RateLimitSearch     RateLimitConfig
	TokenTTL            time.Duration
}

// Load reads configuration from environment variables and applies sane
// defaults. Production deployments default to fast enrichment with a tight
// budget so search latency stays bounded.
func Load() (*Config, error) {
	defaultMode := "comprehensive"
	defaultBudget := "60s"
	if strings.ToLower(getEnv("APP_ENV", "development")) == "production" {
		defaultMode = "fast"
		defaultBudget = "20s"
	}

	cfg := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		JWTSecret:    getEnv("JWT_SECRET", "dev-secret"),
		Port:         getEnv("PORT", "8080"),
		PlacesAPIKey: os.Getenv("GOOGLE_PLACES_API_KEY"),
		CompanyData: ProviderConfig{
			APIKey:  os.Getenv("COMPANY_DATA_API_KEY"),
			BaseURL: os.Getenv("COMPANY_DATA_API_URL"),
		},
		CompanyDataFallback: ProviderConfig{
			APIKey:  os.Getenv("FALLBACK_COMPANY_API_KEY"),
			BaseURL: os.Getenv("FALLBACK_COMPANY_API_URL"),
		},
		LegalRegistry: ProviderConfig{
			APIKey:  os.Getenv("LEGAL_REGISTRY_API_KEY"),
			BaseURL: os.Getenv("LEGAL_REGISTRY_API_URL"),
		},
		EnrichmentMode:   getEnv("ENRICHMENT_MODE", defaultMode),
		EnrichmentBudget: parseDuration(getEnv("ENRICHMENT_BUDGET", defaultBudget), 60*time.Second),
		CacheFreshness:   parseDuration(getEnv("CACHE_FRESHNESS", "24h"), 24*time.Hour),
		PhoneRegion:      getEnv("PHONE_REGION", "US"),
		TokenTTL:         parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour),
	}

	switch cfg.EnrichmentMode {
	case "fast", "comprehensive":
	default:
		return nil, fmt.Errorf("invalid ENRICHMENT_MODE value: %q", cfg.EnrichmentMode)
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_SEARCH", "5/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SEARCH value: %w", err)
	}
	cfg.RateLimitSearch = rl

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil {
		return fallback
	}
	return d
}
