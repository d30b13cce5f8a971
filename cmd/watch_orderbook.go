package cmd

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mselser95/pmxt-go/internal/app"
	"github.com/mselser95/pmxt-go/internal/orderbook"
	"github.com/mselser95/pmxt-go/pkg/pmxt"
)

//nolint:gochecknoglobals // Cobra boilerplate
var watchOrderbookCmd = &cobra.Command{
	Use:   "watch-orderbook [outcome-id...]",
	Short: "Stream live order books",
	Long: `Streams order book updates for one or more outcomes until interrupted.

Outcomes are given as ids, or resolved from the single market matching
--market. With --metrics-port the latest books are also served at
/api/orderbook?outcome=<id>, next to /metrics and /health.

Examples:
  pmxt watch-orderbook 2174263314346390629056905015582624153801
  pmxt watch-orderbook --market "Trump" --depth 5
  pmxt watch-orderbook --market bitcoin --json --metrics-port 9090`,
	RunE: runWatchOrderbook,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(watchOrderbookCmd)
	watchOrderbookCmd.Flags().StringP("market", "m", "", "Watch every outcome of the market matching this text")
	watchOrderbookCmd.Flags().IntP("depth", "d", 5, "Price levels to request and print per side")
	watchOrderbookCmd.Flags().String("metrics-port", "", "Serve metrics, health and /api/orderbook on this port")
	watchOrderbookCmd.Flags().Bool("json", false, "Print one JSON object per update")
}

type bookUpdateJSON struct {
	OutcomeID  string      `json:"outcomeId"`
	Label      string      `json:"label,omitempty"`
	ReceivedAt int64       `json:"receivedAt"`
	Bids       [][]float64 `json:"bids"`
	Asks       [][]float64 `json:"asks"`
}

func runWatchOrderbook(cmd *cobra.Command, args []string) error {
	marketText, _ := cmd.Flags().GetString("market")
	depth, _ := cmd.Flags().GetInt("depth")
	metricsPort, _ := cmd.Flags().GetString("metrics-port")
	asJSON, _ := cmd.Flags().GetBool("json")

	if len(args) == 0 && marketText == "" {
		return errors.New("give at least one outcome id or --market")
	}
	if depth < 0 {
		return fmt.Errorf("depth must be non-negative, got %d", depth)
	}

	a, cleanup, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	outcomeIDs := args
	labels := make(map[string]string)
	if marketText != "" {
		ex := a.Exchange()
		markets, err := ex.FetchMarkets(commandContext(cmd), &pmxt.MarketParams{Query: marketText, Limit: 200})
		if err != nil {
			return fmt.Errorf("fetch markets: %w", err)
		}
		m, err := ex.MatchMarket(markets, marketText)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Watching %s (%s)\n", m.Title, m.MarketID)
		for _, o := range m.Outcomes {
			outcomeIDs = append(outcomeIDs, o.OutcomeID)
			labels[o.OutcomeID] = o.Label
		}
	}

	enc := json.NewEncoder(os.Stdout)
	onUpdate := func(u *orderbook.Update) {
		if asJSON {
			_ = enc.Encode(updateJSON(u, labels[u.OutcomeID], depth))
			return
		}
		printBookUpdate(u, labels[u.OutcomeID], depth)
	}

	return a.WatchOrderBooks(commandContext(cmd), &app.WatchOptions{
		OutcomeIDs:  outcomeIDs,
		Depth:       depth,
		MetricsPort: metricsPort,
		OnUpdate:    onUpdate,
	})
}

func updateJSON(u *orderbook.Update, label string, depth int) *bookUpdateJSON {
	out := &bookUpdateJSON{
		OutcomeID:  u.OutcomeID,
		Label:      label,
		ReceivedAt: u.ReceivedAt.UnixMilli(),
		Bids:       [][]float64{},
		Asks:       [][]float64{},
	}
	for i, l := range u.Book.Bids {
		if depth > 0 && i >= depth {
			break
		}
		out.Bids = append(out.Bids, []float64{l.Price, l.Size})
	}
	for i, l := range u.Book.Asks {
		if depth > 0 && i >= depth {
			break
		}
		out.Asks = append(out.Asks, []float64{l.Price, l.Size})
	}
	return out
}

func printBookUpdate(u *orderbook.Update, label string, depth int) {
	name := truncate(u.OutcomeID, 20)
	if label != "" {
		name = fmt.Sprintf("%s (%s)", label, name)
	}

	bid, ask := "-", "-"
	if l, ok := u.Book.BestBid(); ok {
		bid = fmt.Sprintf("%.3f x %.2f", l.Price, l.Size)
	}
	if l, ok := u.Book.BestAsk(); ok {
		ask = fmt.Sprintf("%.3f x %.2f", l.Price, l.Size)
	}

	fmt.Printf("[%s] %s  bid %s  ask %s  (%d/%d levels, depth %d)\n",
		u.ReceivedAt.Format("15:04:05.000"), name, bid, ask, len(u.Book.Bids), len(u.Book.Asks), depth)
}
