package pmxt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/pkg/filter"
	"github.com/mselser95/pmxt-go/pkg/types"
)

// FetchMarkets returns active markets. A nil params fetches the exchange
// default page.
func (e *Exchange) FetchMarkets(ctx context.Context, params *MarketParams) ([]types.UnifiedMarket, error) {
	var raw []wireMarket
	if err := e.call(ctx, "fetchMarkets", params.args(), &raw); err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}
	return convertMarkets(raw), nil
}

// FetchMarketsPaginated returns one page from a stable server-side
// snapshot. Pass the previous NextCursor to continue; an empty NextCursor
// marks the last page.
func (e *Exchange) FetchMarketsPaginated(ctx context.Context, limit int, cursor string) (*types.PaginatedMarketsResult, error) {
	m := newArgMap(nil)
	m.positive("limit", limit)
	m.str("cursor", cursor)

	var raw wirePaginated
	if err := e.call(ctx, "fetchMarketsPaginated", m.args(), &raw); err != nil {
		return nil, fmt.Errorf("fetch markets page: %w", err)
	}
	return &types.PaginatedMarketsResult{
		Data:       convertMarkets(raw.Data),
		Total:      int(raw.Total.millis()),
		NextCursor: raw.NextCursor,
	}, nil
}

// FetchEvents returns events, each with its markets.
func (e *Exchange) FetchEvents(ctx context.Context, params *EventParams) ([]types.UnifiedEvent, error) {
	var raw []wireEvent
	if err := e.call(ctx, "fetchEvents", params.args(), &raw); err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	return convertEvents(raw), nil
}

// FetchMarket returns the first market matching lookup. The server fails
// when nothing matches.
func (e *Exchange) FetchMarket(ctx context.Context, lookup *MarketLookup) (*types.UnifiedMarket, error) {
	var raw wireMarket
	if err := e.call(ctx, "fetchMarket", lookup.args(), &raw); err != nil {
		return nil, fmt.Errorf("fetch market: %w", err)
	}
	m := convertMarket(&raw)
	return &m, nil
}

// FetchEvent returns the first event matching lookup.
func (e *Exchange) FetchEvent(ctx context.Context, lookup *EventLookup) (*types.UnifiedEvent, error) {
	var raw wireEvent
	if err := e.call(ctx, "fetchEvent", lookup.args(), &raw); err != nil {
		return nil, fmt.Errorf("fetch event: %w", err)
	}
	ev := convertEvent(&raw)
	return &ev, nil
}

// FetchOHLCV returns price candles for an outcome. outcomeID is
// MarketOutcome.OutcomeID, not the market id.
func (e *Exchange) FetchOHLCV(ctx context.Context, outcomeID string, params *OHLCVParams) ([]types.PriceCandle, error) {
	var raw []wireCandle
	if err := e.call(ctx, "fetchOHLCV", []any{outcomeID, params.arg()}, &raw); err != nil {
		return nil, fmt.Errorf("fetch ohlcv: %w", err)
	}
	return convertCandles(raw), nil
}

// FetchOrderBook returns the current book for an outcome.
func (e *Exchange) FetchOrderBook(ctx context.Context, outcomeID string) (*types.OrderBook, error) {
	var raw wireOrderBook
	if err := e.call(ctx, "fetchOrderBook", []any{outcomeID}, &raw); err != nil {
		return nil, fmt.Errorf("fetch order book: %w", err)
	}
	return convertOrderBook(&raw), nil
}

// FetchTrades returns public trades for an outcome.
func (e *Exchange) FetchTrades(ctx context.Context, outcomeID string, params *TradesParams) ([]types.Trade, error) {
	var raw []wireTrade
	if err := e.call(ctx, "fetchTrades", []any{outcomeID, params.arg()}, &raw); err != nil {
		return nil, fmt.Errorf("fetch trades: %w", err)
	}
	return convertTrades(raw), nil
}

// LoadMarkets fetches every market once and keeps it on the handle, keyed
// by market id. Later calls return the kept set unless reload is true.
// Paginate over the result locally for results that do not drift between
// pages.
func (e *Exchange) LoadMarkets(ctx context.Context, reload bool) (map[string]*types.UnifiedMarket, error) {
	e.mu.RLock()
	if e.loaded && !reload {
		out := e.snapshotLocked()
		e.mu.RUnlock()
		return out, nil
	}
	e.mu.RUnlock()

	markets, err := e.FetchMarkets(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load markets: %w", err)
	}

	byID := make(map[string]*types.UnifiedMarket, len(markets))
	for i := range markets {
		byID[markets[i].MarketID] = &markets[i]
	}

	e.mu.Lock()
	e.markets = byID
	e.loaded = true
	out := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Info("markets-loaded", zap.Int("count", len(byID)))
	return out, nil
}

// Markets returns the markets kept by LoadMarkets, or an empty map.
func (e *Exchange) Markets() map[string]*types.UnifiedMarket {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

// snapshotLocked deep-copies the kept markets so callers cannot change
// what the handle holds.
func (e *Exchange) snapshotLocked() map[string]*types.UnifiedMarket {
	out := make(map[string]*types.UnifiedMarket, len(e.markets))
	for id, m := range e.markets {
		out[id] = m.Clone()
	}
	return out
}

// FilterMarkets filters markets locally. See filter.Markets.
func (e *Exchange) FilterMarkets(markets []types.UnifiedMarket, c filter.MarketCriteria) []types.UnifiedMarket {
	return filter.Markets(markets, c)
}

// FilterEvents filters events locally. See filter.Events.
func (e *Exchange) FilterEvents(events []types.UnifiedEvent, c filter.EventCriteria) []types.UnifiedEvent {
	return filter.Events(events, c)
}

// MatchMarket resolves query to exactly one market. See filter.MatchMarket.
func (e *Exchange) MatchMarket(markets []types.UnifiedMarket, query string, searchIn ...filter.SearchField) (*types.UnifiedMarket, error) {
	return filter.MatchMarket(markets, query, searchIn...)
}

// MatchEvent resolves query to exactly one event. See filter.MatchEvent.
func (e *Exchange) MatchEvent(events []types.UnifiedEvent, query string, searchIn ...filter.SearchField) (*types.UnifiedEvent, error) {
	return filter.MatchEvent(events, query, searchIn...)
}
