package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hearthbroth/hearthbroth/internal/billing"
	"github.com/hearthbroth/hearthbroth/internal/database"
	"github.com/hearthbroth/hearthbroth/internal/wizard"
)

// webhookTimeout bounds the database work done per webhook delivery.
const webhookTimeout = 10 * time.Second

// handleCreateCheckout turns a completed signup session into a Stripe
// checkout session. The split and draft ride along in metadata so the
// webhook can finalize records after payment.
func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID  string `json:"session_id"`
		SuccessURL string `json:"success_url"`
		CancelURL  string `json:"cancel_url"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "signup session not found")
		return
	}

	state, _ := sess.Snapshot()
	if _, allowed := wizard.Check(wizard.StepConfirm, &state); !allowed {
		writeJSON(w, http.StatusConflict, map[string]string{
			"redirect": wizard.Resolve(wizard.StepConfirm, &state).String(),
		})
		return
	}

	// The draft must exist before checkout so its ID can travel in the
	// session metadata for post-payment cleanup.
	s.saveDraft(r.Context(), sess)
	draftID := ""
	if id := sess.DraftID(); id != nil {
		draftID = id.String()
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = s.baseURL + "/signup/success?checkout={CHECKOUT_SESSION_ID}"
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = s.baseURL + "/signup/confirm"
	}

	checkout, err := s.billingClient.CreateCheckoutSession(billing.CreateCheckoutParams{
		TierID:     state.TierID,
		Email:      state.Email,
		ApplyPromo: true,
		DraftID:    draftID,
		ChickenCt:  derefInt(state.ChickenCt),
		BeefCt:     derefInt(state.BeefCt),
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to create checkout session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"checkout_session_id": checkout.ID,
		"checkout_url":        checkout.URL,
	})
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// createWebhookHandler returns the Stripe webhook handler.
func (s *Server) createWebhookHandler() http.Handler {
	return billing.NewWebhookHandler(s.billingClient, s.consumeWebhookEvent)
}

// consumeWebhookEvent applies a Stripe event to local records. Stripe
// delivers at least once, so every write here is an upsert on a
// natural key and a replay lands on the same rows.
func (s *Server) consumeWebhookEvent(event billing.WebhookEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	switch event.Type {
	case "checkout.session.completed":
		if event.CustomerID == "" {
			return nil
		}
		if err := s.store.UpsertCustomer(ctx, event.CustomerID, event.CustomerEmail); err != nil {
			return err
		}
		s.finalizeDraft(ctx, event)
		s.sendWelcome(ctx, event)

	case "customer.subscription.created", "customer.subscription.updated":
		return s.store.UpsertSubscription(ctx, database.Subscription{
			StripeSubscriptionID: event.SubscriptionID,
			StripeCustomerID:     event.CustomerID,
			TierID:               event.TierID,
			ChickenCt:            event.ChickenCt,
			BeefCt:               event.BeefCt,
			Status:               event.SubscriptionStatus,
			StartedAt:            event.StartedAt,
		})

	case "customer.subscription.deleted":
		return s.store.UpdateSubscriptionStatus(ctx, event.SubscriptionID, "canceled")
	}

	return nil
}

// finalizeDraft copies the contact and delivery details the wizard
// collected onto the customer record, then clears the drafts for that
// customer. The draft is the only place the delivery address lives
// before this point, so the copy must land before the sweep.
func (s *Server) finalizeDraft(ctx context.Context, event billing.WebhookEvent) {
	draftID, err := uuid.Parse(event.DraftID)
	if err != nil {
		return
	}
	draft, err := s.store.GetDraft(ctx, draftID)
	if err != nil || draft == nil {
		return
	}

	var state wizard.State
	if err := json.Unmarshal(draft.Payload, &state); err == nil {
		smsOptIn := state.SMSOptIn != nil && *state.SMSOptIn
		if state.FirstName != "" {
			if err := s.store.UpdateCustomerContact(ctx, event.CustomerID,
				state.FirstName, state.LastName, state.Phone, smsOptIn); err != nil {
				log.Printf("webhook: contact update failed for %s: %v", event.CustomerID, err)
			}
		}
		if state.Address != nil {
			if err := s.store.UpdateCustomerDelivery(ctx, event.CustomerID, database.DeliveryInfo{
				Phone:                state.Phone,
				Street:               state.Address.Street,
				Unit:                 state.Address.Unit,
				City:                 state.Address.City,
				State:                state.Address.State,
				PostalCode:           state.Address.Zip,
				DeliveryInstructions: state.Instructions,
				SMSOptIn:             smsOptIn,
			}); err != nil {
				log.Printf("webhook: delivery update failed for %s: %v", event.CustomerID, err)
			}
		}
	}

	// Link before deleting so the customer-wide sweep also catches
	// drafts from an earlier, retried checkout.
	if err := s.store.SetDraftStripeCustomer(ctx, draft.ID, event.CustomerID); err != nil {
		log.Printf("webhook: draft link failed for %s: %v", draft.ID, err)
	}
	if err := s.store.DeleteDraftsByStripeCustomer(ctx, event.CustomerID); err != nil {
		log.Printf("webhook: draft cleanup failed for %s: %v", event.CustomerID, err)
	}
}

func (s *Server) sendWelcome(ctx context.Context, event billing.WebhookEvent) {
	if s.notifier == nil || event.CustomerEmail == "" {
		return
	}
	tierName := event.TierID
	if tier, err := s.catalog.Get(event.TierID); err == nil {
		tierName = tier.Name
	}
	if err := s.notifier.Welcome(ctx, event.CustomerEmail, tierName); err != nil {
		log.Printf("webhook: welcome email failed for %s: %v", event.CustomerEmail, err)
	}
}
