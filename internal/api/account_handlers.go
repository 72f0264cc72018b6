package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hearthbroth/hearthbroth/internal/auth"
	"github.com/hearthbroth/hearthbroth/internal/database"
	"github.com/hearthbroth/hearthbroth/internal/wizard"
)

// handleLogin verifies credentials and issues a session token. Unknown
// email and wrong password answer identically so the endpoint leaks
// nothing about which emails have accounts.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	account, err := s.store.GetAccount(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if account == nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := auth.VerifyPassword(req.Password, account.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	// The customer record may not exist yet if payment hasn't
	// confirmed; the token still works and the dashboard shows an
	// empty state.
	stripeCustomerID := ""
	if customer, err := s.store.GetCustomerByEmail(r.Context(), req.Email); err == nil && customer != nil {
		stripeCustomerID = customer.StripeCustomerID
	}

	token, err := s.tokenIssuer.Issue(req.Email, stripeCustomerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// customerForClaims resolves the authenticated customer. Tokens minted
// before the payment webhook carry no customer ID, so fall back to the
// email lookup; a nil customer with nil error means payment has not
// confirmed yet.
func (s *Server) customerForClaims(ctx context.Context, claims *auth.Claims) (*database.Customer, error) {
	if claims.StripeCustomerID != "" {
		return s.store.GetCustomerByStripeID(ctx, claims.StripeCustomerID)
	}
	return s.store.GetCustomerByEmail(ctx, claims.Email)
}

type profileResponse struct {
	Email                string `json:"email"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Phone                string `json:"phone"`
	SMSOptIn             bool   `json:"sms_opt_in"`
	Street               string `json:"street"`
	Unit                 string `json:"unit"`
	City                 string `json:"city"`
	State                string `json:"state"`
	PostalCode           string `json:"postal_code"`
	DeliveryInstructions string `json:"delivery_instructions"`
}

// handleAccountProfile returns the customer's contact and delivery
// details for the account dashboard. Before payment confirms there is
// no customer record and the profile is null.
func (s *Server) handleAccountProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	customer, err := s.customerForClaims(r.Context(), claims)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if customer == nil {
		writeJSON(w, http.StatusOK, map[string]any{"profile": nil})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"profile": profileResponse{
		Email:                customer.Email,
		FirstName:            customer.FirstName,
		LastName:             customer.LastName,
		Phone:                customer.Phone,
		SMSOptIn:             customer.SMSOptIn,
		Street:               customer.Street,
		Unit:                 customer.Unit,
		City:                 customer.City,
		State:                customer.State,
		PostalCode:           customer.PostalCode,
		DeliveryInstructions: customer.DeliveryInstructions,
	}})
}

// handleUpdateDelivery saves the dashboard's delivery form: address,
// instructions, phone, and SMS preference in one shot.
func (s *Server) handleUpdateDelivery(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req struct {
		Phone        string `json:"phone"`
		Street       string `json:"street"`
		Unit         string `json:"unit"`
		City         string `json:"city"`
		State        string `json:"state"`
		PostalCode   string `json:"postal_code"`
		Instructions string `json:"delivery_instructions"`
		SMSOptIn     bool   `json:"sms_opt_in"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	errs := wizard.ValidateAddress(wizard.AddressInput{
		Street:       req.Street,
		Unit:         req.Unit,
		City:         req.City,
		State:        req.State,
		Zip:          req.PostalCode,
		Instructions: req.Instructions,
	})
	if errs == nil {
		errs = wizard.FieldErrors{}
	}
	// This form names the field postal_code.
	if msg, ok := errs["zip"]; ok {
		delete(errs, "zip")
		errs["postal_code"] = msg
	}
	if phoneErrs := wizard.ValidatePhone(req.Phone); phoneErrs != nil {
		errs["phone"] = phoneErrs["phone"]
	}
	// An existing customer can't move outside the zone any more than a
	// new signup can start there.
	if _, ok := errs["postal_code"]; !ok && !s.area.Serviceable(req.PostalCode) {
		errs["postal_code"] = "That ZIP is outside our delivery area"
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	customer, err := s.customerForClaims(r.Context(), claims)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if customer == nil {
		writeError(w, http.StatusNotFound, "no customer record yet")
		return
	}

	if err := s.store.UpdateCustomerDelivery(r.Context(), customer.StripeCustomerID, database.DeliveryInfo{
		Phone:                req.Phone,
		Street:               req.Street,
		Unit:                 req.Unit,
		City:                 req.City,
		State:                req.State,
		PostalCode:           req.PostalCode,
		DeliveryInstructions: req.Instructions,
		SMSOptIn:             req.SMSOptIn,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleUpdatePlan saves the dashboard's plan form: tier plus a split
// that must account for every container in the new tier.
func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req struct {
		SubscriptionID string `json:"subscription_id"`
		TierID         string `json:"tier_id"`
		ChickenCt      int    `json:"chicken_ct"`
		BeefCt         int    `json:"beef_ct"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tier, err := s.catalog.Get(req.TierID)
	if err != nil {
		writeFieldErrors(w, wizard.FieldErrors{"tier_id": "Unknown tier"})
		return
	}
	if req.ChickenCt < 0 || req.BeefCt < 0 || req.ChickenCt+req.BeefCt != tier.Containers {
		writeFieldErrors(w, wizard.FieldErrors{
			"chicken_ct": fmt.Sprintf("Counts must add up to %d containers", tier.Containers),
		})
		return
	}

	customer, err := s.customerForClaims(r.Context(), claims)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if customer == nil {
		writeError(w, http.StatusNotFound, "no customer record yet")
		return
	}

	matched, err := s.store.UpdateSubscriptionPlan(r.Context(),
		req.SubscriptionID, customer.StripeCustomerID, req.TierID, req.ChickenCt, req.BeefCt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !matched {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":         req.SubscriptionID,
		"tier_id":    req.TierID,
		"chicken_ct": req.ChickenCt,
		"beef_ct":    req.BeefCt,
	})
}

type subscriptionResponse struct {
	ID        string `json:"id"`
	TierID    string `json:"tier_id"`
	TierName  string `json:"tier_name"`
	ChickenCt int    `json:"chicken_ct"`
	BeefCt    int    `json:"beef_ct"`
	Status    string `json:"status"`
	StartedAt string `json:"started_at"`
}

// handleListAccountSubscriptions returns the authenticated customer's
// subscriptions for the account dashboard.
func (s *Server) handleListAccountSubscriptions(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	stripeCustomerID := claims.StripeCustomerID
	if stripeCustomerID == "" {
		// Token predates the payment webhook; check whether the
		// customer exists by now.
		customer, err := s.store.GetCustomerByEmail(r.Context(), claims.Email)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		if customer == nil {
			writeJSON(w, http.StatusOK, map[string]any{"subscriptions": []subscriptionResponse{}})
			return
		}
		stripeCustomerID = customer.StripeCustomerID
	}

	subs, err := s.store.ListSubscriptionsByCustomer(r.Context(), stripeCustomerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subscriptions": s.toSubscriptionResponses(subs),
	})
}

func (s *Server) toSubscriptionResponses(subs []database.Subscription) []subscriptionResponse {
	out := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		tierName := sub.TierID
		if tier, err := s.catalog.Get(sub.TierID); err == nil {
			tierName = tier.Name
		}
		out = append(out, subscriptionResponse{
			ID:        sub.StripeSubscriptionID,
			TierID:    sub.TierID,
			TierName:  tierName,
			ChickenCt: sub.ChickenCt,
			BeefCt:    sub.BeefCt,
			Status:    sub.Status,
			StartedAt: sub.StartedAt.Format("2006-01-02"),
		})
	}
	return out
}
