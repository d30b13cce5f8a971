package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/pkg/pmxt"
	"github.com/mselser95/pmxt-go/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var placeOrderCmd = &cobra.Command{
	Use:   "place-order",
	Short: "Place a market or limit order",
	Long: `Places an order on one outcome. Market orders are the default; pass
--price for a limit order.

--dry-run fetches the order book and prints the volume-weighted execution
price for the amount without placing anything.

Examples:
  pmxt place-order --market-id 663583 --outcome-id 1043... --amount 10 --dry-run
  pmxt place-order --market-id 663583 --outcome-id 1043... --side sell --price 0.55 --amount 5`,
	Args: cobra.NoArgs,
	RunE: runPlaceOrder,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(placeOrderCmd)
	f := placeOrderCmd.Flags()
	f.String("market-id", "", "Market id (required)")
	f.String("outcome-id", "", "Outcome id (required)")
	f.String("side", "buy", "Order side: buy or sell")
	f.Float64("amount", 0, "Number of contracts (required)")
	f.Float64("price", 0, "Limit price between 0 and 1; omit for a market order")
	f.Int("fee", 0, "Fee rate, e.g. 1000 for 0.1%")
	f.Bool("dry-run", false, "Print the expected execution price only")
	_ = placeOrderCmd.MarkFlagRequired("market-id")
	_ = placeOrderCmd.MarkFlagRequired("outcome-id")
	_ = placeOrderCmd.MarkFlagRequired("amount")
}

func orderParamsFromFlags(cmd *cobra.Command) (*pmxt.OrderParams, error) {
	f := cmd.Flags()
	marketID, _ := f.GetString("market-id")
	outcomeID, _ := f.GetString("outcome-id")
	sideName, _ := f.GetString("side")
	amount, _ := f.GetFloat64("amount")

	side := types.OrderSide(sideName)
	if side != types.SideBuy && side != types.SideSell {
		return nil, fmt.Errorf("invalid side %q: use buy or sell", sideName)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %v", amount)
	}

	params := &pmxt.OrderParams{
		MarketID:  marketID,
		OutcomeID: outcomeID,
		Side:      side,
		Type:      types.OrderTypeMarket,
		Amount:    amount,
	}

	if f.Changed("price") {
		price, _ := f.GetFloat64("price")
		if price <= 0 || price >= 1 {
			return nil, fmt.Errorf("price must be between 0 and 1, got %v", price)
		}
		params.Type = types.OrderTypeLimit
		params.Price = &price
	}
	if f.Changed("fee") {
		fee, _ := f.GetInt("fee")
		params.Fee = &fee
	}
	return params, nil
}

func runPlaceOrder(cmd *cobra.Command, _ []string) error {
	params, err := orderParamsFromFlags(cmd)
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	a, cleanup, err := newApp(cmd, !dryRun)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := commandContext(cmd)
	ex := a.Exchange()

	if dryRun {
		book, err := ex.FetchOrderBook(ctx, params.OutcomeID)
		if err != nil {
			return fmt.Errorf("fetch order book: %w", err)
		}
		result, err := ex.GetExecutionPriceDetailed(ctx, book, params.Side, params.Amount)
		if err != nil {
			return fmt.Errorf("get execution price: %w", err)
		}

		fmt.Printf("Dry run: %s %.2f of %s\n", params.Side, params.Amount, params.OutcomeID)
		fmt.Printf("  Average price: %.4f\n", result.Price)
		fmt.Printf("  Fillable:      %.2f\n", result.FilledAmount)
		if !result.FullyFilled {
			fmt.Println("  Not enough liquidity to fill the full amount.")
		}
		if params.Price != nil && result.FullyFilled {
			if (params.Side == types.SideBuy && result.Price > *params.Price) ||
				(params.Side == types.SideSell && result.Price < *params.Price) {
				fmt.Printf("  Limit %.4f would not fill immediately.\n", *params.Price)
			}
		}
		return nil
	}

	order, err := ex.CreateOrder(ctx, params)
	if err != nil {
		if errors.Is(err, types.ErrInvalidOrderParams) {
			return err
		}
		return fmt.Errorf("create order: %w", err)
	}

	a.Logger().Info("order-placed",
		zap.String("order-id", order.ID),
		zap.String("status", order.Status),
		zap.String("side", string(order.Side)),
		zap.Float64("amount", order.Amount))

	fmt.Printf("✓ Order %s %s\n", order.ID, order.Status)
	fmt.Printf("  %s %s %.2f @ %s (filled %.2f, remaining %.2f)\n",
		order.Side, order.Type, order.Amount, formatOptional(order.Price), order.Filled, order.Remaining)
	return nil
}
