package pmxt

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/mselser95/pmxt-go/pkg/types"
)

// Watch methods block until the server has the next update from its
// exchange websocket. Call them in a loop to stream:
//
//	for {
//		book, err := ex.WatchOrderBook(ctx, outcomeID, 0)
//		...
//	}
//
// The HTTP client timeout also bounds each wait.

// WatchOrderBook returns the next order book update. limit caps the depth;
// 0 leaves it to the server.
func (e *Exchange) WatchOrderBook(ctx context.Context, outcomeID string, limit int) (*types.OrderBook, error) {
	args := []any{outcomeID}
	if limit > 0 {
		args = append(args, limit)
	}

	var raw wireOrderBook
	if err := e.call(ctx, "watchOrderBook", args, &raw); err != nil {
		return nil, fmt.Errorf("watch order book: %w", err)
	}
	return convertOrderBook(&raw), nil
}

// WatchTrades returns the next batch of trades. since is unix millis; 0
// for since or limit leaves it unset.
func (e *Exchange) WatchTrades(ctx context.Context, outcomeID string, since int64, limit int) ([]types.Trade, error) {
	// Positional: a limit without since still needs the since slot.
	args := []any{outcomeID}
	switch {
	case since > 0 && limit > 0:
		args = append(args, since, limit)
	case since > 0:
		args = append(args, since)
	case limit > 0:
		args = append(args, nil, limit)
	}

	var raw []wireTrade
	if err := e.call(ctx, "watchTrades", args, &raw); err != nil {
		return nil, fmt.Errorf("watch trades: %w", err)
	}
	return convertTrades(raw), nil
}

// WatchPrices returns the next AMM price update for a market contract. The
// payload is exchange specific.
func (e *Exchange) WatchPrices(ctx context.Context, marketAddress string) (json.RawMessage, error) {
	var data json.RawMessage
	if err := e.call(ctx, "watchPrices", []any{marketAddress}, &data); err != nil {
		return nil, fmt.Errorf("watch prices: %w", err)
	}
	return data, nil
}

// WatchUserPositions returns the next position update. Requires
// credentials.
func (e *Exchange) WatchUserPositions(ctx context.Context) ([]types.Position, error) {
	var raw []wirePosition
	if err := e.call(ctx, "watchUserPositions", nil, &raw); err != nil {
		return nil, fmt.Errorf("watch user positions: %w", err)
	}
	return convertPositions(raw), nil
}

// WatchUserTransactions returns the next account transaction update. The
// payload is exchange specific. Requires credentials.
func (e *Exchange) WatchUserTransactions(ctx context.Context) (json.RawMessage, error) {
	var data json.RawMessage
	if err := e.call(ctx, "watchUserTransactions", nil, &data); err != nil {
		return nil, fmt.Errorf("watch user transactions: %w", err)
	}
	return data, nil
}
