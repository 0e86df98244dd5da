package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the application reads from the environment.
// It is constructed once in main and injected; no package reads the
// environment after startup.
type Config struct {
	Port         string
	DatabasePath string

	// SecretKey signs both the auth JWT and the flash cookie store.
	SecretKey    string
	BCryptCost   int
	CookieSecure bool

	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceID       string
	PremiumPrice        string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string

	SearchAPIURL string
}

// Load reads configuration from the environment, after loading an
// optional .env file. Missing required values are an error.
func Load() (*Config, error) {
	// Best effort; a missing .env file just means the environment is
	// already populated (containers, CI).
	_ = godotenv.Load()

	cfg := &Config{
		Port:                envOrDefault("PORT", "8080"),
		DatabasePath:        envOrDefault("DATABASE_PATH", "agentportal.db"),
		SecretKey:           os.Getenv("SECRET_KEY"),
		BCryptCost:          12,
		CookieSecure:        os.Getenv("COOKIE_SECURE") != "false",
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePriceID:       os.Getenv("STRIPE_PRICE_ID"),
		PremiumPrice:        envOrDefault("PREMIUM_PRICE", "5.00"),
		CheckoutSuccessURL:  envOrDefault("STRIPE_SUCCESS_URL", "http://localhost:8080/checkout/success"),
		CheckoutCancelURL:   envOrDefault("STRIPE_CANCEL_URL", "http://localhost:8080/premium"),
		SearchAPIURL:        envOrDefault("SEARCH_API_URL", "https://ebay-agent-cockpit.onrender.com/search"),
	}

	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY environment variable is required")
	}
	if len(cfg.SecretKey) < 32 {
		return nil, fmt.Errorf("SECRET_KEY must be at least 32 characters for HMAC-SHA256 security")
	}
	if cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY environment variable is required")
	}
	if cfg.StripeWebhookSecret == "" {
		return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET environment variable is required")
	}
	if cfg.StripePriceID == "" {
		return nil, fmt.Errorf("STRIPE_PRICE_ID environment variable is required")
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		if parsed < 4 || parsed > 14 {
			return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", parsed)
		}
		cfg.BCryptCost = parsed
	}

	return cfg, nil
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
