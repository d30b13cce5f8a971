package pmxt

import (
	"fmt"
	"time"

	"github.com/mselser95/pmxt-go/pkg/filter"
	"github.com/mselser95/pmxt-go/pkg/types"
)

// MarketParams narrows FetchMarkets. Zero fields are not sent.
type MarketParams struct {
	Query    string
	Limit    int
	Offset   int
	Sort     string // "volume", "liquidity", "newest"
	Status   string // "active", "closed", "all"
	SearchIn []filter.SearchField

	// Extra holds exchange-specific parameters, sent as given.
	Extra map[string]any
}

func (p *MarketParams) args() []any {
	if p == nil {
		return nil
	}
	m := newArgMap(p.Extra)
	m.str("query", p.Query)
	m.positive("limit", p.Limit)
	m.positive("offset", p.Offset)
	m.str("sort", p.Sort)
	m.str("status", p.Status)
	m.fields("searchIn", p.SearchIn)
	return m.args()
}

// EventParams narrows FetchEvents.
type EventParams struct {
	Query    string
	Limit    int
	Offset   int
	Status   string
	SearchIn []filter.SearchField
	Extra    map[string]any
}

func (p *EventParams) args() []any {
	if p == nil {
		return nil
	}
	m := newArgMap(p.Extra)
	m.str("query", p.Query)
	m.positive("limit", p.Limit)
	m.positive("offset", p.Offset)
	m.str("status", p.Status)
	m.fields("searchIn", p.SearchIn)
	return m.args()
}

// MarketLookup identifies a single market for FetchMarket. Set one of the
// identifying fields.
type MarketLookup struct {
	MarketID            string
	OutcomeID           string // reverse lookup
	EventID             string
	Slug                string
	Query               string
	SearchIn            []filter.SearchField
	SimilarityThreshold float64
	Extra               map[string]any
}

func (p *MarketLookup) args() []any {
	if p == nil {
		return nil
	}
	m := newArgMap(p.Extra)
	m.str("marketId", p.MarketID)
	m.str("outcomeId", p.OutcomeID)
	m.str("eventId", p.EventID)
	m.str("slug", p.Slug)
	m.str("query", p.Query)
	m.fields("searchIn", p.SearchIn)
	if p.SimilarityThreshold > 0 {
		m["similarityThreshold"] = p.SimilarityThreshold
	}
	return m.args()
}

// EventLookup identifies a single event for FetchEvent.
type EventLookup struct {
	EventID  string
	Slug     string
	Query    string
	SearchIn []filter.SearchField
	Extra    map[string]any
}

func (p *EventLookup) args() []any {
	if p == nil {
		return nil
	}
	m := newArgMap(p.Extra)
	m.str("eventId", p.EventID)
	m.str("slug", p.Slug)
	m.str("query", p.Query)
	m.fields("searchIn", p.SearchIn)
	return m.args()
}

// OHLCVParams shapes FetchOHLCV.
type OHLCVParams struct {
	Resolution types.CandleInterval
	Limit      int
	Start      time.Time
	End        time.Time
	Extra      map[string]any
}

func (p *OHLCVParams) arg() map[string]any {
	if p == nil {
		return map[string]any{}
	}
	m := newArgMap(nil)
	m.str("resolution", string(p.Resolution))
	m.positive("limit", p.Limit)
	m.stamp("start", p.Start)
	m.stamp("end", p.End)
	m.extra(p.Extra)
	return m
}

// TradesParams shapes FetchTrades.
type TradesParams struct {
	Limit int
	Since int64 // unix millis
	Extra map[string]any
}

func (p *TradesParams) arg() map[string]any {
	if p == nil {
		return map[string]any{}
	}
	m := newArgMap(nil)
	m.positive("limit", p.Limit)
	if p.Since > 0 {
		m["since"] = p.Since
	}
	m.extra(p.Extra)
	return m
}

// OrderParams describes an order. Name the target either with Outcome
// (e.g. market.Yes) or with MarketID and OutcomeID, not both.
type OrderParams struct {
	MarketID  string
	OutcomeID string
	Outcome   *types.MarketOutcome

	Side   types.OrderSide
	Type   types.OrderType
	Amount float64  // contracts
	Price  *float64 // required for limit orders, 0.0 to 1.0
	Fee    *int     // fee rate, e.g. 1000 for 0.1%
}

func (p *OrderParams) arg() (map[string]any, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: params are nil", types.ErrInvalidOrderParams)
	}

	marketID, outcomeID := p.MarketID, p.OutcomeID
	switch {
	case p.Outcome != nil:
		if marketID != "" || outcomeID != "" {
			return nil, fmt.Errorf("%w: set either outcome or market id and outcome id, not both", types.ErrInvalidOrderParams)
		}
		if p.Outcome.MarketID == "" {
			return nil, fmt.Errorf("%w: outcome has no market id, use an outcome from a fetched market", types.ErrInvalidOrderParams)
		}
		marketID, outcomeID = p.Outcome.MarketID, p.Outcome.OutcomeID
	case marketID == "" || outcomeID == "":
		return nil, fmt.Errorf("%w: set either outcome or both market id and outcome id", types.ErrInvalidOrderParams)
	}

	side := p.Side
	if side == "" {
		side = types.SideBuy
	}
	orderType := p.Type
	if orderType == "" {
		orderType = types.OrderTypeMarket
	}
	if side != types.SideBuy && side != types.SideSell {
		return nil, fmt.Errorf("%w: side %q", types.ErrInvalidOrderParams, side)
	}
	if orderType != types.OrderTypeMarket && orderType != types.OrderTypeLimit {
		return nil, fmt.Errorf("%w: type %q", types.ErrInvalidOrderParams, orderType)
	}

	m := map[string]any{
		"marketId":  marketID,
		"outcomeId": outcomeID,
		"side":      string(side),
		"type":      string(orderType),
		"amount":    p.Amount,
	}
	if p.Price != nil {
		m["price"] = *p.Price
	}
	if p.Fee != nil {
		m["fee"] = *p.Fee
	}
	return m, nil
}

// MyTradesParams narrows FetchMyTrades.
type MyTradesParams struct {
	OutcomeID string
	MarketID  string
	Since     time.Time
	Limit     int
	Cursor    string // pagination cursor from a previous call (Kalshi)
}

func (p *MyTradesParams) args() []any {
	if p == nil {
		return nil
	}
	m := newArgMap(nil)
	m.str("outcomeId", p.OutcomeID)
	m.str("marketId", p.MarketID)
	m.stamp("since", p.Since)
	m.positive("limit", p.Limit)
	m.str("cursor", p.Cursor)
	return m.args()
}

// OrderHistoryParams narrows FetchClosedOrders and FetchAllOrders.
type OrderHistoryParams struct {
	MarketID string
	Since    time.Time
	Until    time.Time
	Limit    int
}

func (p *OrderHistoryParams) args() []any {
	if p == nil {
		return nil
	}
	m := newArgMap(nil)
	m.str("marketId", p.MarketID)
	m.stamp("since", p.Since)
	m.stamp("until", p.Until)
	m.positive("limit", p.Limit)
	return m.args()
}

// argMap is a params object that skips zero values.
type argMap map[string]any

func newArgMap(extra map[string]any) argMap {
	m := make(argMap, len(extra)+4)
	m.extra(extra)
	return m
}

func (m argMap) extra(extra map[string]any) {
	for k, v := range extra {
		if _, set := m[k]; !set {
			m[k] = v
		}
	}
}

func (m argMap) str(key, v string) {
	if v != "" {
		m[key] = v
	}
}

func (m argMap) positive(key string, v int) {
	if v > 0 {
		m[key] = v
	}
}

func (m argMap) stamp(key string, v time.Time) {
	if !v.IsZero() {
		m[key] = v.UTC().Format(time.RFC3339Nano)
	}
}

func (m argMap) fields(key string, fs []filter.SearchField) {
	if len(fs) == 0 {
		return
	}
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	m[key] = out
}

// args wraps the object as the single positional argument, or sends no
// arguments when it is empty.
func (m argMap) args() []any {
	if len(m) == 0 {
		return nil
	}
	return []any{map[string]any(m)}
}
