package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mselser95/pmxt-go/internal/app"
	"github.com/mselser95/pmxt-go/pkg/wallet"
)

//nolint:gochecknoglobals // Cobra boilerplate
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show balances and positions",
	Long: `Shows the exchange balances and open positions of the configured account.

When POLYGON_RPC_URL is set, the on-chain collateral balance and exchange
allowance of the funder (or signer) address are shown too. With --watch the
account is polled every WALLET_POLL_INTERVAL and exported as metrics.

Examples:
  pmxt balance
  pmxt balance --watch --metrics-port 9090`,
	Args: cobra.NoArgs,
	RunE: runBalance,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().Bool("watch", false, "Keep polling until interrupted")
	balanceCmd.Flags().String("metrics-port", "", "Serve metrics and health on this port while watching")
}

func runBalance(cmd *cobra.Command, _ []string) error {
	watch, _ := cmd.Flags().GetBool("watch")
	metricsPort, _ := cmd.Flags().GetString("metrics-port")

	a, cleanup, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	if addr, ok := a.WalletAddress(); ok {
		fmt.Printf("Address: %s\n", addr.Hex())
	}

	return a.TrackWallet(commandContext(cmd), &app.TrackOptions{
		Once:        !watch,
		MetricsPort: metricsPort,
		OnSnapshot:  printSnapshot,
	})
}

func printSnapshot(s *wallet.Snapshot) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "\n%s\n", s.At.Format("2006-01-02 15:04:05"))

	if len(s.Balances) == 0 {
		fmt.Fprintf(w, "No balances.\n")
	} else {
		fmt.Fprintf(w, "CURRENCY\tTOTAL\tAVAILABLE\tLOCKED\n")
		for _, b := range s.Balances {
			fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\n", b.Currency, b.Total, b.Available, b.Locked)
		}
	}

	if s.Collateral != nil {
		fmt.Fprintf(w, "\nOn-chain collateral:\t%.2f\n", wallet.TokenUnits(s.Collateral.Token))
		fmt.Fprintf(w, "Exchange allowance:\t%.2f\n", wallet.TokenUnits(s.Collateral.Allowance))
		fmt.Fprintf(w, "Gas balance:\t%.4f\n", wallet.NativeUnits(s.Collateral.Native))
	}

	if len(s.Positions) == 0 {
		fmt.Fprintf(w, "\nNo open positions.\n")
		return
	}

	fmt.Fprintf(w, "\nMARKET\tOUTCOME\tSIZE\tENTRY\tCURRENT\tUNREALIZED\tREALIZED\n")
	for _, p := range s.Positions {
		outcome := p.OutcomeLabel
		if outcome == "" {
			outcome = truncate(p.OutcomeID, 16)
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.3f\t%.3f\t%+.2f\t%s\n",
			truncate(p.MarketID, 20), outcome, p.Size, p.EntryPrice, p.CurrentPrice,
			p.UnrealizedPnL, formatOptional(p.RealizedPnL))
	}
	fmt.Fprintf(w, "\nPosition value:\t%.2f\n", s.PositionValue())
	fmt.Fprintf(w, "Unrealized PnL:\t%+.2f\n", s.UnrealizedPnL())
}
