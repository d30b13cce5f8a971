package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mselser95/pmxt-go/internal/app"
	"github.com/mselser95/pmxt-go/pkg/filter"
	"github.com/mselser95/pmxt-go/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var snapshotMarketsCmd = &cobra.Command{
	Use:   "snapshot-markets",
	Short: "Record market snapshots to storage",
	Long: `Fetches markets, applies the local filters and stores one snapshot row
per market in the configured storage (STORAGE_MODE=console or postgres).

With --interval the snapshot repeats until interrupted, and markets seen for
the first time are printed.

Examples:
  pmxt snapshot-markets --query election --min-volume24h 5000
  STORAGE_MODE=postgres pmxt snapshot-markets --interval 5m --limit 500`,
	Args: cobra.NoArgs,
	RunE: runSnapshotMarkets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(snapshotMarketsCmd)
	snapshotMarketsCmd.Flags().StringP("query", "q", "", "Search query sent to the exchange")
	snapshotMarketsCmd.Flags().IntP("limit", "l", 100, "Maximum number of markets per poll")
	snapshotMarketsCmd.Flags().StringP("sort", "s", "volume", "Sort by: volume, liquidity, newest")
	snapshotMarketsCmd.Flags().String("status", "active", "Market status: active, closed, all")
	snapshotMarketsCmd.Flags().Duration("interval", 0, "Repeat every interval (0 polls once)")
	addMarketFilterFlags(snapshotMarketsCmd)
}

func runSnapshotMarkets(cmd *cobra.Command, _ []string) error {
	params, err := marketParamsFromFlags(cmd)
	if err != nil {
		return err
	}
	query, err := marketQueryFromFlags(cmd)
	if err != nil {
		return err
	}
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval < 0 {
		return fmt.Errorf("interval must be non-negative, got %s", interval)
	}

	a, cleanup, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := commandContext(cmd)
	store, err := app.NewStorage(ctx, a.Config(), a.Logger())
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	var criteria filter.MarketCriteria
	if query != nil {
		criteria = query
	}

	count := 0
	err = a.SnapshotMarkets(ctx, &app.SnapshotOptions{
		Params:   params,
		Criteria: criteria,
		Storage:  store,
		Interval: interval,
		OnNewMarket: func(m *types.UnifiedMarket) {
			count++
			if interval > 0 {
				fmt.Printf("new market %s  %s  yes %s\n", truncate(m.MarketID, 20), truncate(m.Title, 60), formatOutcomePrice(m.Yes))
			}
		},
	})
	if err != nil {
		return err
	}

	fmt.Printf("Snapshotted %d distinct markets from %s\n", count, a.Exchange().Name())
	return nil
}
