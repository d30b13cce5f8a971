package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mselser95/pmxt-go/pkg/pmxt"
	"github.com/mselser95/pmxt-go/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var matchMarketCmd = &cobra.Command{
	Use:   "match-market <text>",
	Short: "Find the single market matching a text",
	Long: `Fetches markets and returns the one whose title (or --search-in fields)
contains the text. Fails when none or several markets match.

Examples:
  pmxt match-market "Trump"
  pmxt match-market bitcoin --search-in title,tags --query crypto`,
	Args: cobra.ExactArgs(1),
	RunE: runMatchMarket,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(matchMarketCmd)
	matchMarketCmd.Flags().StringP("query", "q", "", "Search query sent to the exchange (defaults to the text)")
	matchMarketCmd.Flags().IntP("limit", "l", 200, "Maximum number of markets to fetch")
	matchMarketCmd.Flags().StringSlice("search-in", nil, "Fields to search: title, description, category, tags, outcomes")
}

func runMatchMarket(cmd *cobra.Command, args []string) error {
	text := args[0]
	query, _ := cmd.Flags().GetString("query")
	if query == "" {
		query = text
	}
	limit, _ := cmd.Flags().GetInt("limit")
	rawFields, _ := cmd.Flags().GetStringSlice("search-in")
	fields, err := parseSearchFields(rawFields)
	if err != nil {
		return err
	}

	a, cleanup, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ex := a.Exchange()
	markets, err := ex.FetchMarkets(commandContext(cmd), &pmxt.MarketParams{Query: query, Limit: limit, SearchIn: fields})
	if err != nil {
		return fmt.Errorf("fetch markets: %w", err)
	}

	m, err := ex.MatchMarket(markets, text, fields...)
	if err != nil {
		var ambiguous *types.AmbiguousMatchError
		if errors.As(err, &ambiguous) {
			fmt.Fprintln(os.Stderr, "Narrow the text, or pass --search-in to change the fields searched.")
		}
		return err
	}

	displayMarketDetail(m)
	return nil
}

func displayMarketDetail(m *types.UnifiedMarket) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Market:\t%s\n", m.Title)
	fmt.Fprintf(w, "ID:\t%s\n", m.MarketID)
	if m.Category != "" {
		fmt.Fprintf(w, "Category:\t%s\n", m.Category)
	}
	fmt.Fprintf(w, "Volume 24h:\t%s\n", formatVolume(m.Volume24h))
	fmt.Fprintf(w, "Liquidity:\t%s\n", formatVolume(m.Liquidity))
	fmt.Fprintf(w, "Resolves:\t%s\n", formatDate(m.ResolutionDate))
	if m.URL != "" {
		fmt.Fprintf(w, "URL:\t%s\n", m.URL)
	}

	fmt.Fprintf(w, "\nOUTCOME\tPRICE\t24H CHANGE\tOUTCOME ID\n")
	for _, o := range m.Outcomes {
		fmt.Fprintf(w, "%s\t%.3f\t%s\t%s\n", o.Label, o.Price, formatOptional(o.PriceChange24h), o.OutcomeID)
	}
}
