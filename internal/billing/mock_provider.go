package billing

import (
	"github.com/stripe/stripe-go/v76"
)

// MockStripeProvider is a mock implementation of StripeProvider for testing.
type MockStripeProvider struct {
	CreateCheckoutSessionFn func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSessionFn    func(id string) (*stripe.CheckoutSession, error)
}

// CreateCheckoutSession calls the mock function.
func (m *MockStripeProvider) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if m.CreateCheckoutSessionFn != nil {
		return m.CreateCheckoutSessionFn(params)
	}
	return &stripe.CheckoutSession{
		ID:  "cs_test_mock",
		URL: "https://checkout.stripe.com/test",
	}, nil
}

// GetCheckoutSession calls the mock function.
func (m *MockStripeProvider) GetCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	if m.GetCheckoutSessionFn != nil {
		return m.GetCheckoutSessionFn(id)
	}
	return &stripe.CheckoutSession{ID: id}, nil
}

// MockWebhookVerifier is a mock implementation of WebhookVerifier for testing.
type MockWebhookVerifier struct {
	ConstructEventFn func(payload []byte, header string, secret string) (stripe.Event, error)
}

// ConstructEvent calls the mock function.
func (m *MockWebhookVerifier) ConstructEvent(payload []byte, header string, secret string) (stripe.Event, error) {
	if m.ConstructEventFn != nil {
		return m.ConstructEventFn(payload, header, secret)
	}
	return stripe.Event{}, nil
}
