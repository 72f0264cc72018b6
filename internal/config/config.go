// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full server configuration.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	DatabaseURL string `env:"DATABASE_URL,required"`

	SessionSecret string        `env:"SESSION_SECRET,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Signup sessions are volatile; idle ones are evicted after this TTL.
	SignupTTL time.Duration `env:"SIGNUP_TTL" envDefault:"2h"`

	Stripe   StripeConfig
	Postmark PostmarkConfig

	// ServiceAreaZIPs overrides the built-in delivery zone when set.
	ServiceAreaZIPs []string `env:"SERVICE_AREA_ZIPS" envSeparator:","`

	// FormRatePerMinute limits public form posts per client IP.
	FormRatePerMinute int `env:"FORM_RATE_PER_MINUTE" envDefault:"10"`

	// TrustProxyHeader reads client IPs from X-Forwarded-For. Enable
	// only when a proxy in front of the server overwrites the header.
	TrustProxyHeader bool `env:"TRUST_PROXY_HEADER" envDefault:"false"`
}

// StripeConfig holds payment-provider settings.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	PriceSip      string `env:"STRIPE_PRICE_SIP"`
	PriceDaily    string `env:"STRIPE_PRICE_DAILY"`
	PriceChef     string `env:"STRIPE_PRICE_CHEF"`
	PromoCouponID string `env:"STRIPE_PROMO_COUPON" envDefault:"promo_10pct"`
}

// PostmarkConfig holds transactional email settings. When the server
// token is empty, email is disabled and notifications are dropped.
type PostmarkConfig struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	FromAddress  string `env:"EMAIL_FROM" envDefault:"hello@hearthbroth.com"`
	TeamAddress  string `env:"EMAIL_TEAM" envDefault:"team@hearthbroth.com"`
}

// Load reads configuration from the environment, consulting a .env
// file if one exists.
func Load() (*Config, error) {
	// The .env file is a development convenience; absence is fine.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}
