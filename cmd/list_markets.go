package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mselser95/pmxt-go/pkg/pmxt"
	"github.com/mselser95/pmxt-go/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listMarketsCmd = &cobra.Command{
	Use:   "list-markets",
	Short: "List markets, optionally filtered locally",
	Long: `Fetches markets from the exchange and applies local filters.

--query, --limit, --sort and --status are sent to the exchange. Every other
filter flag is applied locally to the fetched page.

Examples:
  pmxt list-markets --query election --min-volume24h 10000
  pmxt list-markets -e kalshi --min-price 0.2 --max-price 0.8
  pmxt list-markets --text bitcoin --search-in title,tags --resolves-before 2026-12-31`,
	Args: cobra.NoArgs,
	RunE: runListMarkets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(listMarketsCmd)
	listMarketsCmd.Flags().StringP("query", "q", "", "Search query sent to the exchange")
	listMarketsCmd.Flags().IntP("limit", "l", 50, "Maximum number of markets to fetch")
	listMarketsCmd.Flags().StringP("sort", "s", "volume", "Sort by: volume, liquidity, newest")
	listMarketsCmd.Flags().String("status", "active", "Market status: active, closed, all")
	listMarketsCmd.Flags().BoolP("verbose", "v", false, "Show outcome ids and details")
	addMarketFilterFlags(listMarketsCmd)
}

func runListMarkets(cmd *cobra.Command, _ []string) error {
	params, err := marketParamsFromFlags(cmd)
	if err != nil {
		return err
	}
	query, err := marketQueryFromFlags(cmd)
	if err != nil {
		return err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")

	a, cleanup, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ex := a.Exchange()
	markets, err := ex.FetchMarkets(commandContext(cmd), params)
	if err != nil {
		return fmt.Errorf("fetch markets: %w", err)
	}
	fetched := len(markets)
	if query != nil {
		markets = ex.FilterMarkets(markets, query)
	}

	if len(markets) == 0 {
		fmt.Println("No markets found.")
		return nil
	}

	displayMarketsTable(os.Stdout, markets, verbose)
	fmt.Printf("\nTotal: %d markets (fetched %d from %s)\n", len(markets), fetched, ex.Name())
	return nil
}

func marketParamsFromFlags(cmd *cobra.Command) (*pmxt.MarketParams, error) {
	f := cmd.Flags()
	query, _ := f.GetString("query")
	limit, _ := f.GetInt("limit")
	sortBy, _ := f.GetString("sort")
	status, _ := f.GetString("status")

	switch sortBy {
	case "volume", "liquidity", "newest":
	default:
		return nil, fmt.Errorf("invalid sort option: %s. Valid options: volume, liquidity, newest", sortBy)
	}
	switch status {
	case "active", "closed", "all":
	default:
		return nil, fmt.Errorf("invalid status: %s. Valid options: active, closed, all", status)
	}

	return &pmxt.MarketParams{Query: query, Limit: limit, Sort: sortBy, Status: status}, nil
}

func displayMarketsTable(out io.Writer, markets []types.UnifiedMarket, verbose bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "MARKET ID\tYES\tNO\tVOL 24H\tLIQUIDITY\tRESOLVES\tTITLE\n")
	fmt.Fprintf(w, "---------\t---\t--\t-------\t---------\t--------\t-----\n")

	for i := range markets {
		m := &markets[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(m.MarketID, 20),
			formatOutcomePrice(m.Yes),
			formatOutcomePrice(m.No),
			formatVolume(m.Volume24h),
			formatVolume(m.Liquidity),
			formatDate(m.ResolutionDate),
			truncate(m.Title, 60))

		if verbose {
			if m.Category != "" {
				fmt.Fprintf(w, "\tCategory: %s\n", m.Category)
			}
			for _, o := range m.Outcomes {
				fmt.Fprintf(w, "\t%s: %.3f (%s)\n", o.Label, o.Price, o.OutcomeID)
			}
			if m.URL != "" {
				fmt.Fprintf(w, "\t%s\n", m.URL)
			}
			fmt.Fprintf(w, "\n")
		}
	}
}
