package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "wagerbook",
	Short: "Virtual-balance wager ledger and settlement engine",
	Long: `Wagerbook keeps virtual account balances, records single and parlay
wagers against sports events and prediction-market contracts, and runs a
periodic settlement engine that fetches external verdicts, resolves
pending wagers and credits payouts.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
