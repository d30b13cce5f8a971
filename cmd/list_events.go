package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mselser95/pmxt-go/pkg/filter"
	"github.com/mselser95/pmxt-go/pkg/pmxt"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listEventsCmd = &cobra.Command{
	Use:   "list-events",
	Short: "List events and their markets",
	Long: `Fetches events (groups of related markets) and applies local filters.

Examples:
  pmxt list-events --query election --min-markets 2
  pmxt list-events -e kalshi --min-total-volume 100000 --verbose`,
	Args: cobra.NoArgs,
	RunE: runListEvents,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(listEventsCmd)
	listEventsCmd.Flags().StringP("query", "q", "", "Search query sent to the exchange")
	listEventsCmd.Flags().IntP("limit", "l", 20, "Maximum number of events to fetch")
	listEventsCmd.Flags().String("text", "", "Keep events containing this text (local)")
	listEventsCmd.Flags().String("category", "", "Keep events in this category")
	listEventsCmd.Flags().Float64("min-markets", 0, "Minimum number of markets")
	listEventsCmd.Flags().Float64("min-total-volume", 0, "Minimum summed 24h volume")
	listEventsCmd.Flags().BoolP("verbose", "v", false, "List each event's markets")
}

func runListEvents(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	query, _ := f.GetString("query")
	limit, _ := f.GetInt("limit")
	verbose, _ := f.GetBool("verbose")
	category, _ := f.GetString("category")

	criteria := &filter.EventQuery{
		Category:    category,
		MarketCount: rangeFromFlags(cmd, "min-markets", ""),
		TotalVolume: rangeFromFlags(cmd, "min-total-volume", ""),
	}
	if f.Changed("text") {
		text, _ := f.GetString("text")
		criteria.Text = filter.Substring(text)
	}

	a, cleanup, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ex := a.Exchange()
	events, err := ex.FetchEvents(commandContext(cmd), &pmxt.EventParams{Query: query, Limit: limit})
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}
	events = ex.FilterEvents(events, criteria)

	if len(events) == 0 {
		fmt.Println("No events found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "EVENT ID\tMARKETS\tVOL 24H\tTITLE\n")
	fmt.Fprintf(w, "--------\t-------\t-------\t-----\n")
	for i := range events {
		ev := &events[i]
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			truncate(ev.ID, 24), ev.MarketCount(), formatVolume(ev.TotalVolume24h()), truncate(ev.Title, 60))
		if verbose {
			for j := range ev.Markets {
				m := &ev.Markets[j]
				fmt.Fprintf(w, "\t\t\t- %s (yes %s)\n", truncate(m.Title, 56), formatOutcomePrice(m.Yes))
			}
		}
	}
	w.Flush()

	fmt.Printf("\nTotal: %d events\n", len(events))
	return nil
}
