package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List an account's unsettled wagers and parlays",
	RunE:  runPendingCmd,
}

//nolint:gochecknoglobals // Cobra boilerplate
var pendingAccountID int64

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(pendingCmd)
	pendingCmd.Flags().Int64VarP(&pendingAccountID, "account", "a", 0, "Account id (required)")
	_ = pendingCmd.MarkFlagRequired("account")
}

func runPendingCmd(_ *cobra.Command, _ []string) error {
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

	wagers, parlays, err := application.Book().ListPending(ctx, pendingAccountID)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}

	if len(wagers) == 0 && len(parlays) == 0 {
		fmt.Printf("Account %d has no pending wagers\n", pendingAccountID)
		return nil
	}

	for _, w := range wagers {
		closeAt := "unknown"
		if !w.CloseAt.IsZero() {
			closeAt = w.CloseAt.Format(time.RFC3339)
		}
		fmt.Printf("wager #%d %s %s stake=%d odds=%.3f closes=%s\n",
			w.ID, w.Subject, w.Pick, w.StakeCents, w.Odds, closeAt)
	}
	for _, p := range parlays {
		fmt.Printf("parlay #%d stake=%d combined=%.3f\n", p.ID, p.StakeCents, p.CombinedOdds)
		for _, leg := range p.Legs {
			fmt.Printf("  leg %s %s odds=%.3f status=%s\n", leg.Subject, leg.Pick, leg.Odds, leg.Status)
		}
	}

	return nil
}
