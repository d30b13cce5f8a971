package pmxt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/pkg/types"
)

// CreateOrder places an order. Invalid params fail locally with
// types.ErrInvalidOrderParams before anything is sent.
func (e *Exchange) CreateOrder(ctx context.Context, params *OrderParams) (*types.Order, error) {
	arg, err := params.arg()
	if err != nil {
		return nil, err
	}

	var raw wireOrder
	if err := e.call(ctx, "createOrder", []any{arg}, &raw); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	order := convertOrder(&raw)
	e.logger.Info("order-created",
		zap.String("order-id", order.ID),
		zap.String("market-id", order.MarketID),
		zap.String("side", string(order.Side)),
		zap.Float64("amount", order.Amount))
	return order, nil
}

// CancelOrder cancels an open order and returns its final state.
func (e *Exchange) CancelOrder(ctx context.Context, orderID string) (*types.Order, error) {
	var raw wireOrder
	if err := e.call(ctx, "cancelOrder", []any{orderID}, &raw); err != nil {
		return nil, fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	return convertOrder(&raw), nil
}

// FetchOrder returns one order.
func (e *Exchange) FetchOrder(ctx context.Context, orderID string) (*types.Order, error) {
	var raw wireOrder
	if err := e.call(ctx, "fetchOrder", []any{orderID}, &raw); err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", orderID, err)
	}
	return convertOrder(&raw), nil
}

// FetchOpenOrders returns open orders, all of them when marketID is empty.
func (e *Exchange) FetchOpenOrders(ctx context.Context, marketID string) ([]types.Order, error) {
	var args []any
	if marketID != "" {
		args = []any{marketID}
	}

	var raw []wireOrder
	if err := e.call(ctx, "fetchOpenOrders", args, &raw); err != nil {
		return nil, fmt.Errorf("fetch open orders: %w", err)
	}
	return convertOrders(raw), nil
}

// FetchMyTrades returns the authenticated user's fills.
func (e *Exchange) FetchMyTrades(ctx context.Context, params *MyTradesParams) ([]types.UserTrade, error) {
	var raw []wireTrade
	if err := e.call(ctx, "fetchMyTrades", params.args(), &raw); err != nil {
		return nil, fmt.Errorf("fetch my trades: %w", err)
	}
	return convertUserTrades(raw), nil
}

// FetchClosedOrders returns filled and cancelled orders.
func (e *Exchange) FetchClosedOrders(ctx context.Context, params *OrderHistoryParams) ([]types.Order, error) {
	var raw []wireOrder
	if err := e.call(ctx, "fetchClosedOrders", params.args(), &raw); err != nil {
		return nil, fmt.Errorf("fetch closed orders: %w", err)
	}
	return convertOrders(raw), nil
}

// FetchAllOrders returns open and closed orders, newest first.
func (e *Exchange) FetchAllOrders(ctx context.Context, params *OrderHistoryParams) ([]types.Order, error) {
	var raw []wireOrder
	if err := e.call(ctx, "fetchAllOrders", params.args(), &raw); err != nil {
		return nil, fmt.Errorf("fetch all orders: %w", err)
	}
	return convertOrders(raw), nil
}

// FetchPositions returns current positions across all markets.
func (e *Exchange) FetchPositions(ctx context.Context) ([]types.Position, error) {
	var raw []wirePosition
	if err := e.call(ctx, "fetchPositions", nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch positions: %w", err)
	}
	return convertPositions(raw), nil
}

// FetchBalance returns account balances by currency.
func (e *Exchange) FetchBalance(ctx context.Context) ([]types.Balance, error) {
	var raw []wireBalance
	if err := e.call(ctx, "fetchBalance", nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch balance: %w", err)
	}
	return convertBalances(raw), nil
}

// GetExecutionPriceDetailed simulates filling amount against book on the
// server.
func (e *Exchange) GetExecutionPriceDetailed(
	ctx context.Context,
	book *types.OrderBook,
	side types.OrderSide,
	amount float64,
) (*types.ExecutionPriceResult, error) {
	if book == nil {
		return nil, fmt.Errorf("get execution price: order book is nil")
	}

	var raw wireExecution
	args := []any{bookArg(book), string(side), amount}
	if err := e.call(ctx, "getExecutionPriceDetailed", args, &raw); err != nil {
		return nil, fmt.Errorf("get execution price: %w", err)
	}
	return convertExecution(&raw), nil
}

// GetExecutionPrice returns the average fill price, or 0 when the book
// cannot fill amount.
func (e *Exchange) GetExecutionPrice(ctx context.Context, book *types.OrderBook, side types.OrderSide, amount float64) (float64, error) {
	res, err := e.GetExecutionPriceDetailed(ctx, book, side, amount)
	if err != nil {
		return 0, err
	}
	if !res.FullyFilled {
		return 0, nil
	}
	return res.Price, nil
}
