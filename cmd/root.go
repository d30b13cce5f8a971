package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "pmxt",
	Short: "Unified prediction market client",
	Long: `pmxt talks to Polymarket, Kalshi, Limitless and other prediction markets
through a local pmxt server. The server is started on first use and shared
by every command until stopped.

Configuration comes from the environment (or a .env file): PMXT_EXCHANGE,
PMXT_BASE_URL, PMXT_PRIVATE_KEY, PMXT_API_KEY and friends.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().StringP("exchange", "e", "", "Exchange to use (overrides PMXT_EXCHANGE)")
}
