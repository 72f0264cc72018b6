// Package api provides the storefront HTTP API: catalog, signup flow,
// checkout, webhooks, and public forms.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/hearthbroth/hearthbroth/internal/auth"
	"github.com/hearthbroth/hearthbroth/internal/billing"
	"github.com/hearthbroth/hearthbroth/internal/catalog"
	"github.com/hearthbroth/hearthbroth/internal/database"
	"github.com/hearthbroth/hearthbroth/internal/email"
	"github.com/hearthbroth/hearthbroth/internal/servicearea"
	"github.com/hearthbroth/hearthbroth/internal/wizard"
)

// Store defines the database operations the API server needs.
type Store interface {
	UpsertDraft(ctx context.Context, id *uuid.UUID, email string, currentStep int, payload []byte) (uuid.UUID, error)
	GetDraft(ctx context.Context, id uuid.UUID) (*database.Draft, error)
	SetDraftStripeCustomer(ctx context.Context, id uuid.UUID, stripeCustomerID string) error
	DeleteDraft(ctx context.Context, id uuid.UUID) error
	DeleteDraftsByStripeCustomer(ctx context.Context, stripeCustomerID string) error

	UpsertCustomer(ctx context.Context, stripeCustomerID, email string) error
	UpdateCustomerContact(ctx context.Context, stripeCustomerID, firstName, lastName, phone string, smsOptIn bool) error
	UpdateCustomerDelivery(ctx context.Context, stripeCustomerID string, info database.DeliveryInfo) error
	GetCustomerByStripeID(ctx context.Context, stripeCustomerID string) (*database.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*database.Customer, error)

	UpsertSubscription(ctx context.Context, sub database.Subscription) error
	UpdateSubscriptionStatus(ctx context.Context, stripeSubscriptionID, status string) error
	UpdateSubscriptionPlan(ctx context.Context, stripeSubscriptionID, stripeCustomerID, tierID string, chickenCt, beefCt int) (bool, error)
	ListSubscriptionsByCustomer(ctx context.Context, stripeCustomerID string) ([]database.Subscription, error)

	UpsertAccount(ctx context.Context, email, passwordHash string) error
	GetAccount(ctx context.Context, email string) (*database.Account, error)

	CreateInterest(ctx context.Context, email *string, zip, street string) (*database.Interest, error)
	UpsertWaitlistEntry(ctx context.Context, email, name string) (*database.WaitlistEntry, error)
	CreateContactMessage(ctx context.Context, name, email, subject, body string) (*database.ContactMessage, error)
}

// Server is the API server.
type Server struct {
	store         Store
	catalog       *catalog.Catalog
	area          *servicearea.Area
	sessions      *wizard.Sessions
	billingClient *billing.Client
	tokenIssuer   *auth.Issuer
	notifier      *email.Notifier
	baseURL       string
	formLimiter   *ipLimiter
	trustProxy    bool
	mux           *http.ServeMux
}

// Config holds API server configuration.
type Config struct {
	Store         Store
	Catalog       *catalog.Catalog
	Area          *servicearea.Area
	Sessions      *wizard.Sessions
	BillingClient *billing.Client
	TokenIssuer   *auth.Issuer
	Notifier      *email.Notifier
	BaseURL       string
	// FormRatePerMinute caps public form posts per client IP.
	FormRatePerMinute int
	// TrustProxyHeader makes rate limiting read the client IP from
	// X-Forwarded-For. Enable only behind a proxy that overwrites the
	// header; otherwise clients can rotate it to dodge the limiter.
	TrustProxyHeader bool
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	s := &Server{
		store:         cfg.Store,
		catalog:       cfg.Catalog,
		area:          cfg.Area,
		sessions:      cfg.Sessions,
		billingClient: cfg.BillingClient,
		tokenIssuer:   cfg.TokenIssuer,
		notifier:      cfg.Notifier,
		baseURL:       cfg.BaseURL,
		formLimiter:   newIPLimiter(cfg.FormRatePerMinute),
		trustProxy:    cfg.TrustProxyHeader,
		mux:           http.NewServeMux(),
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	authMiddleware := auth.Middleware(s.tokenIssuer)

	// Public endpoints
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/tiers", s.handleListTiers)
	s.mux.HandleFunc("GET /api/tiers/{tierID}", s.handleGetTier)
	s.mux.HandleFunc("GET /api/service-area/{zip}", s.handleServiceArea)

	// Signup flow
	s.mux.HandleFunc("POST /api/signup", s.handleStartSignup)
	s.mux.HandleFunc("GET /api/signup/{sessionID}", s.handleGetSignup)
	s.mux.HandleFunc("GET /api/signup/{sessionID}/steps/{step}", s.handleCheckStep)
	s.mux.HandleFunc("POST /api/signup/{sessionID}/steps/{step}", s.handleSubmitStep)
	s.mux.HandleFunc("POST /api/signup/{sessionID}/resume", s.handleResumeSignup)
	s.mux.HandleFunc("POST /api/drafts", s.handleSaveDraft)

	// Billing endpoints
	s.mux.HandleFunc("POST /api/checkout/session", s.handleCreateCheckout)
	s.mux.Handle("POST /api/stripe/webhook", s.createWebhookHandler())

	// Public forms
	s.mux.HandleFunc("POST /api/interest", s.rateLimited(s.handleInterest))
	s.mux.HandleFunc("POST /api/waitlist", s.rateLimited(s.handleWaitlist))
	s.mux.HandleFunc("POST /api/contact", s.rateLimited(s.handleContact))

	// Account endpoints
	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("GET /api/account/profile", s.withAuth(authMiddleware, s.handleAccountProfile))
	s.mux.HandleFunc("PUT /api/account/delivery", s.withAuth(authMiddleware, s.handleUpdateDelivery))
	s.mux.HandleFunc("PUT /api/account/plan", s.withAuth(authMiddleware, s.handleUpdatePlan))
	s.mux.HandleFunc("GET /api/account/subscriptions", s.withAuth(authMiddleware, s.handleListAccountSubscriptions))
}

func (s *Server) withAuth(middleware func(http.Handler) http.Handler, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware(http.HandlerFunc(handler)).ServeHTTP(w, r)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Add CORS headers
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	s.mux.ServeHTTP(w, r)
}

// Close releases resources.
func (s *Server) Close() {
	if s.sessions != nil {
		s.sessions.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeFieldErrors reports validation failures inline so the client can
// render them next to the offending fields.
func writeFieldErrors(w http.ResponseWriter, errs wizard.FieldErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":  "validation failed",
		"fields": errs,
	})
}

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
