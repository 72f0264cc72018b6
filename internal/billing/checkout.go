package billing

import (
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v76"
)

// CreateCheckoutParams contains parameters for creating a checkout session.
type CreateCheckoutParams struct {
	TierID     string
	Email      string
	ApplyPromo bool   // first-week discount coupon
	DraftID    string // signup draft, carried in metadata for webhook cleanup
	ChickenCt  int
	BeefCt     int
	SuccessURL string
	CancelURL  string
}

// CreateCheckoutSession creates a Stripe checkout session for a weekly
// subscription. The chosen split and draft travel in session metadata
// so the webhook consumer can finalize records without the browser.
func (c *Client) CreateCheckoutSession(params CreateCheckoutParams) (*stripe.CheckoutSession, error) {
	priceID := c.PriceIDFromTier(params.TierID)
	if priceID == "" {
		return nil, fmt.Errorf("invalid tier: %s", params.TierID)
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		Metadata: map[string]string{
			"tier_id":    params.TierID,
			"chicken_ct": strconv.Itoa(params.ChickenCt),
			"beef_ct":    strconv.Itoa(params.BeefCt),
			"draft_id":   params.DraftID,
		},
	}

	if params.Email != "" {
		sessionParams.CustomerEmail = stripe.String(params.Email)
	}

	if params.ApplyPromo && c.config.PromoCouponID != "" {
		sessionParams.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(c.config.PromoCouponID)},
		}
	}

	return c.provider.CreateCheckoutSession(sessionParams)
}

// GetCheckoutSession retrieves a checkout session by ID.
func (c *Client) GetCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	return c.provider.GetCheckoutSession(id)
}
