// Package billing provides Stripe integration for subscription checkout
// and payment webhooks.
package billing

import (
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// Config holds Stripe configuration.
type Config struct {
	SecretKey     string
	WebhookSecret string
	PriceIDs      PriceIDs
	// PromoCouponID is the coupon applied for the first-week discount.
	PromoCouponID string
}

// PriceIDs holds the Stripe price ID for each tier.
type PriceIDs struct {
	Sip   string
	Daily string
	Chef  string
}

// StripeProvider defines the interface for Stripe API operations.
// This allows mocking in tests.
type StripeProvider interface {
	CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(id string) (*stripe.CheckoutSession, error)
}

// DefaultStripeProvider implements StripeProvider using the real Stripe SDK.
type DefaultStripeProvider struct{}

// CreateCheckoutSession creates a checkout session via Stripe SDK.
func (p *DefaultStripeProvider) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

// GetCheckoutSession retrieves a checkout session via Stripe SDK.
func (p *DefaultStripeProvider) GetCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	return session.Get(id, nil)
}

// Client wraps Stripe operations.
type Client struct {
	config   Config
	provider StripeProvider
}

// NewClient creates a new Stripe client.
func NewClient(cfg Config) *Client {
	stripe.Key = cfg.SecretKey
	return &Client{
		config:   cfg,
		provider: &DefaultStripeProvider{},
	}
}

// NewClientWithProvider creates a new Stripe client with a custom provider (for testing).
func NewClientWithProvider(cfg Config, provider StripeProvider) *Client {
	return &Client{
		config:   cfg,
		provider: provider,
	}
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() Config {
	return c.config
}

// TierFromPriceID returns the tier ID for a given Stripe price ID,
// or empty string when the price is not one of ours.
func (c *Client) TierFromPriceID(priceID string) string {
	switch priceID {
	case c.config.PriceIDs.Sip:
		return "sip"
	case c.config.PriceIDs.Daily:
		return "daily"
	case c.config.PriceIDs.Chef:
		return "chef"
	default:
		return ""
	}
}

// PriceIDFromTier returns the Stripe price ID for a given tier.
func (c *Client) PriceIDFromTier(tierID string) string {
	switch tierID {
	case "sip":
		return c.config.PriceIDs.Sip
	case "daily":
		return c.config.PriceIDs.Daily
	case "chef":
		return c.config.PriceIDs.Chef
	default:
		return ""
	}
}
