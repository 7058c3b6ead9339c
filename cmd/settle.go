package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Run a single full settlement sweep",
	Long: `Runs one full settlement sweep over every pending subject and exits.
Useful for catch-up after downtime and for cron-style deployments that
do not keep the service running.`,
	RunE: runSettleCmd,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(settleCmd)
}

func runSettleCmd(_ *cobra.Command, _ []string) error {
	application, logger, err := setupCLIApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = application.Shutdown()
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	application.SettleOnce(ctx)
	fmt.Println("settlement sweep complete")

	return nil
}
