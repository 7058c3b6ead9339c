package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tbarret/wagerbook/internal/app"
	"github.com/tbarret/wagerbook/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show an account's balance and recent wagers",
	RunE:  runBalanceCmd,
}

//nolint:gochecknoglobals // Cobra boilerplate
var balanceAccountID int64

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().Int64VarP(&balanceAccountID, "account", "a", 0, "Account id (required)")
	_ = balanceCmd.MarkFlagRequired("account")
}

func runBalanceCmd(_ *cobra.Command, _ []string) error {
	application, logger, err := setupCLIApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = application.Shutdown()
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	balance, err := application.Book().BalanceOf(ctx, balanceAccountID)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}

	fmt.Printf("Account %d\n", balanceAccountID)
	fmt.Printf("Balance: %d.%02d\n", balance/100, balance%100)

	wagers, parlays, err := application.Book().ListHistory(ctx, balanceAccountID)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	if len(wagers) > 0 {
		fmt.Printf("\nWagers:\n")
		for _, w := range wagers {
			fmt.Printf("  #%d %s %s stake=%d odds=%.3f status=%s payout=%d\n",
				w.ID, w.Subject, w.Pick, w.StakeCents, w.Odds, w.Status, w.PayoutCents)
		}
	}
	if len(parlays) > 0 {
		fmt.Printf("\nParlays:\n")
		for _, p := range parlays {
			fmt.Printf("  #%d legs=%d stake=%d combined=%.3f status=%s payout=%d\n",
				p.ID, len(p.Legs), p.StakeCents, p.CombinedOdds, p.Status, p.PayoutCents)
		}
	}

	return nil
}

// setupCLIApp builds the application for one-shot CLI commands.
func setupCLIApp() (*app.App, *zap.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create app: %w", err)
	}

	return application, logger, nil
}
