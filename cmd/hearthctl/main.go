// Package main provides hearthctl, the Hearth Broth admin CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/hearthbroth/hearthbroth/internal/catalog"
	"github.com/hearthbroth/hearthbroth/internal/config"
	"github.com/hearthbroth/hearthbroth/internal/database"
	"github.com/hearthbroth/hearthbroth/internal/pricing"
	"github.com/hearthbroth/hearthbroth/internal/wizard"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	staleAfter   time.Duration
	statusFilter string
)

var rootCmd = &cobra.Command{
	Use:   "hearthctl",
	Short: "Admin tooling for the broth subscription service",
	Long:  `Manages the database, inspects the catalog, and reviews signups and subscriptions.`,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down]",
	Short: "Run database migrations",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMigrate,
}

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "List the subscription tiers",
	Run:   runTiers,
}

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Inspect signup drafts",
}

var draftsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List abandoned signup drafts",
	RunE:  runDraftsList,
}

var interestCmd = &cobra.Command{
	Use:   "interest",
	Short: "Inspect out-of-area interest captures",
}

var interestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List interest captures, newest first",
	RunE:  runInterestList,
}

var subsCmd = &cobra.Command{
	Use:   "subs",
	Short: "Inspect subscriptions",
}

var subsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscriptions",
	RunE:  runSubsList,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hearthctl %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	draftsListCmd.Flags().DurationVar(&staleAfter, "stale", 24*time.Hour, "Only show drafts idle at least this long")
	subsListCmd.Flags().StringVar(&statusFilter, "status", "", "Filter by subscription status (e.g. active, canceled)")

	draftsCmd.AddCommand(draftsListCmd)
	interestCmd.AddCommand(interestListCmd)
	subsCmd.AddCommand(subsListCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tiersCmd)
	rootCmd.AddCommand(draftsCmd)
	rootCmd.AddCommand(interestCmd)
	rootCmd.AddCommand(subsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if rootCmd.Execute() != nil {
		os.Exit(1)
	}
}

func databaseURL() (string, error) {
	cfg, err := config.Load()
	if err == nil && cfg.DatabaseURL != "" {
		return cfg.DatabaseURL, nil
	}
	// Fall back to the bare env var so the CLI works without a full
	// server configuration.
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("DATABASE_URL is required")
}

func connect(ctx context.Context) (*database.DB, error) {
	url, err := databaseURL()
	if err != nil {
		return nil, err
	}
	return database.New(ctx, url)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	direction := "up"
	if len(args) == 1 {
		direction = args[0]
	}
	url, err := databaseURL()
	if err != nil {
		return err
	}

	var spin *spinner.Spinner
	if isatty.IsTerminal(os.Stderr.Fd()) {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		spin.Suffix = fmt.Sprintf(" migrating %s...", direction)
		spin.Start()
		defer spin.Stop()
	}

	switch direction {
	case "up":
		err = database.Migrate(url)
	case "down":
		err = database.MigrateDown(url)
	default:
		return fmt.Errorf("unknown direction %q, use up or down", direction)
	}
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Printf("Migrations %s complete\n", direction)
	return nil
}

func runTiers(cmd *cobra.Command, args []string) {
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)

	for _, tier := range catalog.Default().List() {
		name := tier.Name
		if tier.Popular {
			name += " *"
		}
		_, _ = bold.Printf("%-8s", name)
		fmt.Printf(" %2d x %s  $%s/week", tier.Containers, tier.Size, tier.WeeklyPrice.StringFixed(2))
		_, _ = green.Printf("  first week $%s\n", pricing.FirstWeekPrice(tier.WeeklyPrice).StringFixed(2))
		_, _ = dim.Printf("         %s\n", tier.Description)
	}
}

func runDraftsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	drafts, err := db.ListStaleDrafts(ctx, time.Now().Add(-staleAfter))
	if err != nil {
		return fmt.Errorf("failed to list drafts: %w", err)
	}
	if len(drafts) == 0 {
		fmt.Println("No stale drafts")
		return nil
	}

	dim := color.New(color.FgHiBlack)
	for _, d := range drafts {
		step := wizard.Step(d.CurrentStep)
		fmt.Printf("%s  %-30s stalled at %s", d.ID, d.Email, step)
		_, _ = dim.Printf("  (last seen %s)\n", d.UpdatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("\n%d stale draft(s)\n", len(drafts))
	return nil
}

func runInterestList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	captures, err := db.ListInterest(ctx)
	if err != nil {
		return fmt.Errorf("failed to list interest captures: %w", err)
	}
	if len(captures) == 0 {
		fmt.Println("No interest captures")
		return nil
	}

	dim := color.New(color.FgHiBlack)
	for _, i := range captures {
		email := "(no email)"
		if i.Email != nil {
			email = *i.Email
		}
		fmt.Printf("%s  %-30s %s", i.Zip, email, i.Street)
		_, _ = dim.Printf("  (%s)\n", i.CreatedAt.Format("2006-01-02"))
	}
	fmt.Printf("\n%d interest capture(s)\n", len(captures))
	return nil
}

func runSubsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	subs, err := db.ListSubscriptionsByStatus(ctx, statusFilter)
	if err != nil {
		return fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		fmt.Println("No subscriptions")
		return nil
	}

	cat := catalog.Default()
	statusColor := map[string]*color.Color{
		"active":   color.New(color.FgGreen),
		"past_due": color.New(color.FgYellow),
		"canceled": color.New(color.FgRed),
	}

	for _, sub := range subs {
		tierName := sub.TierID
		if tier, err := cat.Get(sub.TierID); err == nil {
			tierName = tier.Name
		}
		fmt.Printf("%s  %-8s %2d chicken / %2d beef  since %s  ",
			sub.StripeSubscriptionID, tierName, sub.ChickenCt, sub.BeefCt,
			sub.StartedAt.Format("2006-01-02"))
		if c, ok := statusColor[sub.Status]; ok {
			_, _ = c.Println(sub.Status)
		} else {
			fmt.Println(sub.Status)
		}
	}
	fmt.Printf("\n%d subscription(s)\n", len(subs))
	return nil
}
