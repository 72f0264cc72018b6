// Package main provides the Hearth Broth storefront API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hearthbroth/hearthbroth/internal/api"
	"github.com/hearthbroth/hearthbroth/internal/auth"
	"github.com/hearthbroth/hearthbroth/internal/billing"
	"github.com/hearthbroth/hearthbroth/internal/catalog"
	"github.com/hearthbroth/hearthbroth/internal/config"
	"github.com/hearthbroth/hearthbroth/internal/database"
	"github.com/hearthbroth/hearthbroth/internal/email"
	"github.com/hearthbroth/hearthbroth/internal/servicearea"
	"github.com/hearthbroth/hearthbroth/internal/wizard"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "Run migrations and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Run migrations
	log.Println("Running database migrations...")
	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations complete")

	if *migrateOnly {
		return
	}

	// Connect to database
	ctx := context.Background()
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Session token issuer for the account dashboard
	tokenIssuer, err := auth.NewIssuer(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		log.Fatalf("Failed to create token issuer: %v", err)
	}

	// Billing client
	billingClient := billing.NewClient(billing.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		PriceIDs: billing.PriceIDs{
			Sip:   cfg.Stripe.PriceSip,
			Daily: cfg.Stripe.PriceDaily,
			Chef:  cfg.Stripe.PriceChef,
		},
		PromoCouponID: cfg.Stripe.PromoCouponID,
	})
	if billingClient.GetConfig().WebhookSecret == "" {
		log.Println("STRIPE_WEBHOOK_SECRET not set, webhook deliveries will be rejected")
	}

	// Transactional email; without a Postmark token notifications are
	// dropped so the rest of the service still works in development.
	var sender email.Sender = email.NopSender{}
	if cfg.Postmark.ServerToken != "" {
		postmarkSender, err := email.NewPostmarkSender(
			cfg.Postmark.ServerToken, cfg.Postmark.AccountToken, cfg.Postmark.FromAddress)
		if err != nil {
			log.Fatalf("Failed to create email sender: %v", err)
		}
		sender = postmarkSender
	} else {
		log.Println("POSTMARK_SERVER_TOKEN not set, email notifications disabled")
	}
	notifier := email.NewNotifier(sender, cfg.Postmark.TeamAddress)

	// Signup sessions live in memory; idle flows are evicted and come
	// back through persisted drafts.
	sessions := wizard.NewSessions(cfg.SignupTTL)
	sessions.StartReaper(5 * time.Minute)

	// Create API server
	server := api.NewServer(api.Config{
		Store:             db,
		Catalog:           catalog.Default(),
		Area:              servicearea.New(cfg.ServiceAreaZIPs),
		Sessions:          sessions,
		BillingClient:     billingClient,
		TokenIssuer:       tokenIssuer,
		Notifier:          notifier,
		BaseURL:           cfg.BaseURL,
		FormRatePerMinute: cfg.FormRatePerMinute,
		TrustProxyHeader:  cfg.TrustProxyHeader,
	})
	defer server.Close()

	// Create HTTP server
	addr := fmt.Sprintf(":%s", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped")
}
