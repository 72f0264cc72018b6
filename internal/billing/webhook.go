package billing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// WebhookVerifier defines the interface for verifying webhook signatures.
type WebhookVerifier interface {
	ConstructEvent(payload []byte, header string, secret string) (stripe.Event, error)
}

// DefaultWebhookVerifier uses the real Stripe webhook package.
type DefaultWebhookVerifier struct{}

// ConstructEvent verifies and constructs a Stripe event from webhook payload.
func (v *DefaultWebhookVerifier) ConstructEvent(payload []byte, header string, secret string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, header, secret)
}

// WebhookEvent represents a parsed Stripe webhook event. Stripe may
// deliver the same event more than once, so consumers must treat every
// field as at-least-once input and write idempotently.
type WebhookEvent struct {
	Type               string
	CustomerID         string
	CustomerEmail      string
	SubscriptionID     string
	SubscriptionStatus string
	PriceID            string
	TierID             string
	ChickenCt          int
	BeefCt             int
	DraftID            string
	StartedAt          time.Time
}

// WebhookHandler handles Stripe webhook requests.
type WebhookHandler struct {
	client   *Client
	verifier WebhookVerifier
	onEvent  func(event WebhookEvent) error
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(client *Client, onEvent func(WebhookEvent) error) *WebhookHandler {
	return &WebhookHandler{
		client:   client,
		verifier: &DefaultWebhookVerifier{},
		onEvent:  onEvent,
	}
}

// NewWebhookHandlerWithVerifier creates a webhook handler with a custom verifier (for testing).
func NewWebhookHandlerWithVerifier(client *Client, verifier WebhookVerifier, onEvent func(WebhookEvent) error) *WebhookHandler {
	return &WebhookHandler{
		client:   client,
		verifier: verifier,
		onEvent:  onEvent,
	}
}

// ServeHTTP handles incoming Stripe webhooks.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	event, err := h.verifier.ConstructEvent(body, signature, h.client.config.WebhookSecret)
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	webhookEvent, err := h.parseEvent(&event)
	if err != nil {
		// Ack event types we don't handle so Stripe stops retrying them.
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.onEvent != nil {
		if err := h.onEvent(webhookEvent); err != nil {
			http.Error(w, "handler error", http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) parseEvent(event *stripe.Event) (WebhookEvent, error) {
	we := WebhookEvent{
		Type: string(event.Type),
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return we, err
		}
		if session.Customer != nil {
			we.CustomerID = session.Customer.ID
		}
		if session.CustomerDetails != nil {
			we.CustomerEmail = session.CustomerDetails.Email
		}
		if session.Subscription != nil {
			we.SubscriptionID = session.Subscription.ID
		}
		applyMetadata(&we, session.Metadata)

	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return we, err
		}
		if sub.Customer != nil {
			we.CustomerID = sub.Customer.ID
		}
		we.SubscriptionID = sub.ID
		we.SubscriptionStatus = string(sub.Status)
		we.StartedAt = time.Unix(sub.StartDate, 0).UTC()
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			we.PriceID = sub.Items.Data[0].Price.ID
			if we.TierID == "" {
				we.TierID = h.client.TierFromPriceID(we.PriceID)
			}
		}
		applyMetadata(&we, sub.Metadata)

	default:
		return we, fmt.Errorf("unhandled event type: %s", event.Type)
	}

	return we, nil
}

// applyMetadata copies the signup attributes that checkout stamped on
// the Stripe object back into the event.
func applyMetadata(we *WebhookEvent, metadata map[string]string) {
	if metadata == nil {
		return
	}
	if tierID := metadata["tier_id"]; tierID != "" {
		we.TierID = tierID
	}
	if ct, err := strconv.Atoi(metadata["chicken_ct"]); err == nil {
		we.ChickenCt = ct
	}
	if ct, err := strconv.Atoi(metadata["beef_ct"]); err == nil {
		we.BeefCt = ct
	}
	if draftID := metadata["draft_id"]; draftID != "" {
		we.DraftID = draftID
	}
}

// RelevantEventTypes returns the Stripe event types that should be handled.
func RelevantEventTypes() []string {
	return []string{
		"checkout.session.completed",
		"customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted",
	}
}
