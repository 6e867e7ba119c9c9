package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"storefront-backend/internal/payments/stripe"
)

type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// Client
	ClientURL   string
	CORSOrigins []string

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	ForceDemoMode       bool
	CheckoutCurrency    string

	// Catalog
	CatalogFile string

	// Demo payments
	DemoSessionRetention time.Duration
	DemoCleanupInterval  time.Duration
	DemoPaymentDelay     time.Duration

	// Redis
	EnableRedis bool
	RedisURL    string

	// Rate Limiting
	RateLimitRequests int
	RateLimitWindow   int
	RateLimitBurst    int

	// Features
	EnableMetrics bool
}

func New() *Config {
	clientURL := strings.TrimRight(getEnv("CLIENT_URL", "http://localhost:5173"), "/")

	c := &Config{
		// Server
		Port:        getEnv("PORT", "3001"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Client
		ClientURL:   clientURL,
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", clientURL)),

		// Stripe
		StripeSecretKey:     strings.TrimSpace(getEnv("STRIPE_SECRET_KEY", "")),
		StripeWebhookSecret: strings.TrimSpace(getEnv("STRIPE_WEBHOOK_SECRET", "")),
		ForceDemoMode:       getEnvAsBool("DEMO_MODE", false),
		CheckoutCurrency:    strings.ToLower(getEnv("CHECKOUT_CURRENCY", "jpy")),

		// Catalog
		CatalogFile: getEnv("CATALOG_FILE", ""),

		// Demo payments
		DemoSessionRetention: getEnvAsDuration("DEMO_SESSION_RETENTION", time.Hour),
		DemoCleanupInterval:  getEnvAsDuration("DEMO_CLEANUP_INTERVAL", 5*time.Minute),
		DemoPaymentDelay:     getEnvAsDuration("DEMO_PAYMENT_DELAY", 1500*time.Millisecond),

		// Redis
		EnableRedis: getEnvAsBool("ENABLE_REDIS", false),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),

		// Rate Limiting
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvAsInt("RATE_LIMIT_WINDOW", 60),
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 0),

		// Features
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}

	return c
}

// DemoMode reports whether checkout sessions are simulated locally instead of
// being created with Stripe.
func (c *Config) DemoMode() bool {
	return c.ForceDemoMode || c.StripeSecretKey == ""
}

// SuccessURL is the page Stripe redirects to after payment. Stripe replaces the
// {CHECKOUT_SESSION_ID} placeholder itself.
func (c *Config) SuccessURL() string {
	return c.ClientURL + "/success?session_id={CHECKOUT_SESSION_ID}"
}

func (c *Config) CancelURL() string {
	return c.ClientURL + "/cancel"
}

func (c *Config) DemoCheckoutURL() string {
	return c.ClientURL + "/demo-checkout"
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.ClientURL == "" {
		return fmt.Errorf("CLIENT_URL is required")
	}
	if c.CheckoutCurrency == "" {
		return fmt.Errorf("CHECKOUT_CURRENCY is required")
	}
	if c.DemoSessionRetention <= 0 {
		return fmt.Errorf("DEMO_SESSION_RETENTION must be positive")
	}
	if c.DemoCleanupInterval <= 0 {
		return fmt.Errorf("DEMO_CLEANUP_INTERVAL must be positive")
	}
	if c.DemoPaymentDelay < 0 {
		return fmt.Errorf("DEMO_PAYMENT_DELAY must not be negative")
	}
	if c.StripeWebhookSecret != "" && !stripe.IsWebhookSecret(c.StripeWebhookSecret) {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET must start with %s", stripe.WebhookSecretPrefix)
	}
	for _, origin := range c.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ORIGINS entry %q must be an http(s) origin", origin)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return valueStr == "true" || valueStr == "1"
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimRight(strings.TrimSpace(part), "/"); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
