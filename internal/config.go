package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Application base URL (for checkout redirects)
	BaseURL string

	// Cost accounting
	// ExchangeRateTWD converts USD costs to TWD. A deployment constant,
	// never fetched live: a cost recomputed later still uses the rate
	// configured at computation time.
	ExchangeRateTWD float64

	// Guest limiting
	GuestDailyLimit      int
	GuestEventRetention  time.Duration

	// AI Provider Configuration
	AIProvider       string // "mock" is the only built-in provider
	AIModel          string
	AIRequestTimeout time.Duration

	// Telemetry recorder (fire-and-forget usage/cost persistence)
	RecorderWorkers   int
	RecorderQueueSize int

	// Stripe Billing Configuration
	// Required when billing is enabled in production. In development the
	// upgrade handlers function as stubs if these are empty.
	StripeSecretKey     string
	StripeWebhookSecret string

	// Stripe Price IDs for paid tiers
	StripeCreatorPriceID  string
	StripeProPriceID      string
	StripeLifetimePriceID string

	// Admin report endpoint authentication
	AdminUsername string
	AdminPassword string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Base URL defaults to localhost for development
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		// Cost accounting defaults
		ExchangeRateTWD: getEnvFloat("EXCHANGE_RATE_TWD", 31.5),

		// Guest limiting defaults
		GuestDailyLimit:     getEnvInt("GUEST_DAILY_LIMIT", 2),
		GuestEventRetention: getEnvDuration("GUEST_EVENT_RETENTION", 7*24*time.Hour),

		// AI provider defaults
		AIProvider:       getEnv("AI_PROVIDER", "mock"),
		AIModel:          getEnv("AI_MODEL", "gpt-4o"),
		AIRequestTimeout: getEnvDuration("AI_REQUEST_TIMEOUT", 120*time.Second),

		// Telemetry recorder defaults
		RecorderWorkers:   getEnvInt("RECORDER_WORKERS", 2),
		RecorderQueueSize: getEnvInt("RECORDER_QUEUE_SIZE", 256),

		// Stripe billing (optional, stubs work without these)
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		// Stripe price IDs (required when billing is enabled)
		StripeCreatorPriceID:  getEnv("STRIPE_CREATOR_PRICE_ID", ""),
		StripeProPriceID:      getEnv("STRIPE_PRO_PRICE_ID", ""),
		StripeLifetimePriceID: getEnv("STRIPE_LIFETIME_PRICE_ID", ""),

		// Admin authentication
		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.ExchangeRateTWD <= 0 {
		return nil, fmt.Errorf("EXCHANGE_RATE_TWD must be positive, got: %v", cfg.ExchangeRateTWD)
	}

	if cfg.GuestDailyLimit < 0 {
		return nil, fmt.Errorf("GUEST_DAILY_LIMIT must not be negative, got: %d", cfg.GuestDailyLimit)
	}

	// Validate AI provider configuration
	if cfg.AIProvider != "mock" {
		return nil, fmt.Errorf("AI_PROVIDER must be 'mock', got: %s", cfg.AIProvider)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
