package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var cancelOrdersCmd = &cobra.Command{
	Use:   "cancel-orders [order-id...]",
	Short: "Cancel orders by id, or every open order",
	Long: `Cancels the given orders. With --all, every open order (optionally of
one market) is cancelled. Failures are reported and the rest continue.

Examples:
  pmxt cancel-orders 0xabc 0xdef
  pmxt cancel-orders --all --market-id 663583`,
	RunE: runCancelOrders,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(cancelOrdersCmd)
	cancelOrdersCmd.Flags().Bool("all", false, "Cancel every open order")
	cancelOrdersCmd.Flags().String("market-id", "", "With --all, only orders of this market")
}

func runCancelOrders(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	marketID, _ := cmd.Flags().GetString("market-id")

	if all == (len(args) > 0) {
		return errors.New("give either order ids or --all")
	}

	a, cleanup, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := commandContext(cmd)
	ex := a.Exchange()

	ids := args
	if all {
		open, err := ex.FetchOpenOrders(ctx, marketID)
		if err != nil {
			return fmt.Errorf("fetch open orders: %w", err)
		}
		for i := range open {
			ids = append(ids, open[i].ID)
		}
		if len(ids) == 0 {
			fmt.Println("No open orders.")
			return nil
		}
	}

	failed := 0
	for _, id := range ids {
		order, err := ex.CancelOrder(ctx, id)
		if err != nil {
			failed++
			a.Logger().Error("cancel-order-failed", zap.String("order-id", id), zap.Error(err))
			fmt.Printf("✗ %s: %v\n", id, err)
			continue
		}
		fmt.Printf("✓ %s %s\n", order.ID, order.Status)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d cancellations failed", failed, len(ids))
	}
	return nil
}
