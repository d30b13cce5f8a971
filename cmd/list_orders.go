package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mselser95/pmxt-go/pkg/pmxt"
	"github.com/mselser95/pmxt-go/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listOrdersCmd = &cobra.Command{
	Use:   "list-orders",
	Short: "List open, closed or all orders",
	Long: `Lists orders of the configured account. Open orders by default.

Examples:
  pmxt list-orders
  pmxt list-orders --closed --since 2026-01-01 --limit 20
  pmxt list-orders --all --market-id 663583
  pmxt list-orders --trades`,
	Args: cobra.NoArgs,
	RunE: runListOrders,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(listOrdersCmd)
	f := listOrdersCmd.Flags()
	f.String("market-id", "", "Only orders of this market")
	f.Bool("closed", false, "List filled and cancelled orders")
	f.Bool("all", false, "List open and closed orders")
	f.Bool("trades", false, "List your fills instead of orders")
	f.String("since", "", "Only orders after this date (YYYY-MM-DD or RFC3339)")
	f.String("until", "", "Only orders before this date (YYYY-MM-DD or RFC3339)")
	f.IntP("limit", "l", 0, "Maximum number of results (0 for server default)")
}

func runListOrders(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	marketID, _ := f.GetString("market-id")
	closed, _ := f.GetBool("closed")
	all, _ := f.GetBool("all")
	trades, _ := f.GetBool("trades")
	limit, _ := f.GetInt("limit")

	if closed && all {
		return fmt.Errorf("--closed and --all are mutually exclusive")
	}

	history := &pmxt.OrderHistoryParams{MarketID: marketID, Limit: limit}
	var err error
	if since, _ := f.GetString("since"); since != "" {
		if history.Since, err = parseDate(since); err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
	}
	if until, _ := f.GetString("until"); until != "" {
		if history.Until, err = parseDate(until); err != nil {
			return fmt.Errorf("invalid --until: %w", err)
		}
	}

	a, cleanup, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := commandContext(cmd)
	ex := a.Exchange()

	if trades {
		mine, err := ex.FetchMyTrades(ctx, &pmxt.MyTradesParams{
			MarketID: marketID, Since: history.Since, Limit: limit,
		})
		if err != nil {
			return fmt.Errorf("fetch my trades: %w", err)
		}
		displayUserTrades(mine)
		return nil
	}

	var orders []types.Order
	switch {
	case all:
		orders, err = ex.FetchAllOrders(ctx, history)
	case closed:
		orders, err = ex.FetchClosedOrders(ctx, history)
	default:
		orders, err = ex.FetchOpenOrders(ctx, marketID)
	}
	if err != nil {
		return fmt.Errorf("fetch orders: %w", err)
	}

	displayOrders(orders)
	return nil
}

func displayOrders(orders []types.Order) {
	if len(orders) == 0 {
		fmt.Println("No orders found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ORDER ID\tSTATUS\tSIDE\tTYPE\tPRICE\tAMOUNT\tFILLED\tREMAINING\tCREATED\n")
	for i := range orders {
		o := &orders[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%s\n",
			truncate(o.ID, 20), o.Status, o.Side, o.Type, formatOptional(o.Price),
			o.Amount, o.Filled, o.Remaining, formatMillis(o.Timestamp))
	}
}

func displayUserTrades(trades []types.UserTrade) {
	if len(trades) == 0 {
		fmt.Println("No trades found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "TRADE ID\tORDER ID\tSIDE\tPRICE\tAMOUNT\tTIME\n")
	for i := range trades {
		t := &trades[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\t%.2f\t%s\n",
			truncate(t.ID, 20), truncate(t.OrderID, 20), t.Side, t.Price, t.Amount, formatMillis(t.Timestamp))
	}
}
