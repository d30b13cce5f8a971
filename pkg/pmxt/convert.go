package pmxt

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/mselser95/pmxt-go/pkg/types"
)

// Wire records mirror the server's camelCase JSON. Every field is optional;
// the converters below fill zero values for whatever is missing.

// number decodes a JSON number, a numeric string, or null. Anything else
// leaves it unset.
type number struct {
	v  float64
	ok bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			n.v, n.ok = v, true
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err == nil {
		n.v, n.ok = v, true
	}
	return nil
}

func (n number) ptr() *float64 {
	if !n.ok {
		return nil
	}
	v := n.v
	return &v
}

func (n number) millis() int64 {
	if !n.ok {
		return 0
	}
	return int64(math.Round(n.v))
}

// text decodes a JSON string or number as a string. Exchanges disagree on
// whether ids are numeric.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*t = text(s)
		return nil
	}
	if b[0] == '-' || (b[0] >= '0' && b[0] <= '9') {
		*t = text(b)
	}
	return nil
}

// date decodes an ISO-8601 string or epoch milliseconds. Unparsable input
// is left zero.
type date time.Time

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (d *date) UnmarshalJSON(b []byte) error {
	var n number
	if len(b) > 0 && b[0] != '"' {
		_ = n.UnmarshalJSON(b)
		if n.ok {
			*d = date(time.UnixMilli(n.millis()).UTC())
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*d = date(t)
			return nil
		}
	}
	return nil
}

type wireOutcome struct {
	OutcomeID      text           `json:"outcomeId"`
	Label          string         `json:"label"`
	Price          number         `json:"price"`
	PriceChange24h number         `json:"priceChange24h"`
	Metadata       map[string]any `json:"metadata"`
	MarketID       text           `json:"marketId"`
}

type wireMarket struct {
	MarketID       text          `json:"marketId"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Outcomes       []wireOutcome `json:"outcomes"`
	ResolutionDate date          `json:"resolutionDate"`
	Volume24h      number        `json:"volume24h"`
	Volume         number        `json:"volume"`
	Liquidity      number        `json:"liquidity"`
	OpenInterest   number        `json:"openInterest"`
	URL            string        `json:"url"`
	Image          string        `json:"image"`
	Category       string        `json:"category"`
	Tags           []string      `json:"tags"`
	Yes            *wireOutcome  `json:"yes"`
	No             *wireOutcome  `json:"no"`
	Up             *wireOutcome  `json:"up"`
	Down           *wireOutcome  `json:"down"`
}

type wireEvent struct {
	ID          text         `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Slug        string       `json:"slug"`
	Markets     []wireMarket `json:"markets"`
	URL         string       `json:"url"`
	Image       string       `json:"image"`
	Category    string       `json:"category"`
	Tags        []string     `json:"tags"`
}

type wirePaginated struct {
	Data       []wireMarket `json:"data"`
	Total      number       `json:"total"`
	NextCursor string       `json:"nextCursor"`
}

type wireCandle struct {
	Timestamp number `json:"timestamp"`
	Open      number `json:"open"`
	High      number `json:"high"`
	Low       number `json:"low"`
	Close     number `json:"close"`
	Volume    number `json:"volume"`
}

type wireLevel struct {
	Price number `json:"price"`
	Size  number `json:"size"`
}

type wireOrderBook struct {
	Bids      []wireLevel `json:"bids"`
	Asks      []wireLevel `json:"asks"`
	Timestamp number      `json:"timestamp"`
}

type wireTrade struct {
	ID        text   `json:"id"`
	Timestamp number `json:"timestamp"`
	Price     number `json:"price"`
	Amount    number `json:"amount"`
	Side      string `json:"side"`
	OrderID   text   `json:"orderId"`
}

type wireOrder struct {
	ID        text   `json:"id"`
	MarketID  text   `json:"marketId"`
	OutcomeID text   `json:"outcomeId"`
	Side      string `json:"side"`
	Type      string `json:"type"`
	Amount    number `json:"amount"`
	Status    string `json:"status"`
	Filled    number `json:"filled"`
	Remaining number `json:"remaining"`
	Timestamp number `json:"timestamp"`
	Price     number `json:"price"`
	Fee       number `json:"fee"`
}

type wirePosition struct {
	MarketID      text   `json:"marketId"`
	OutcomeID     text   `json:"outcomeId"`
	OutcomeLabel  string `json:"outcomeLabel"`
	Size          number `json:"size"`
	EntryPrice    number `json:"entryPrice"`
	CurrentPrice  number `json:"currentPrice"`
	UnrealizedPnL number `json:"unrealizedPnL"`
	RealizedPnL   number `json:"realizedPnL"`
}

type wireBalance struct {
	Currency  string `json:"currency"`
	Total     number `json:"total"`
	Available number `json:"available"`
	Locked    number `json:"locked"`
}

type wireExecution struct {
	Price        number `json:"price"`
	FilledAmount number `json:"filledAmount"`
	FullyFilled  bool   `json:"fullyFilled"`
}

func convertOutcome(w *wireOutcome) types.MarketOutcome {
	return types.MarketOutcome{
		OutcomeID:      string(w.OutcomeID),
		Label:          w.Label,
		Price:          w.Price.v,
		PriceChange24h: w.PriceChange24h.ptr(),
		Metadata:       w.Metadata,
		MarketID:       string(w.MarketID),
	}
}

func convertMarket(w *wireMarket) types.UnifiedMarket {
	m := types.UnifiedMarket{
		MarketID:       string(w.MarketID),
		Title:          w.Title,
		Description:    w.Description,
		Outcomes:       make([]types.MarketOutcome, 0, len(w.Outcomes)),
		ResolutionDate: time.Time(w.ResolutionDate),
		Volume24h:      w.Volume24h.v,
		Volume:         w.Volume.ptr(),
		Liquidity:      w.Liquidity.v,
		OpenInterest:   w.OpenInterest.ptr(),
		URL:            w.URL,
		Image:          w.Image,
		Category:       w.Category,
		Tags:           w.Tags,
	}
	for i := range w.Outcomes {
		m.Outcomes = append(m.Outcomes, convertOutcome(&w.Outcomes[i]))
	}

	m.Yes = linkOutcome(m.Outcomes, w.Yes)
	m.No = linkOutcome(m.Outcomes, w.No)
	m.Up = linkOutcome(m.Outcomes, w.Up)
	m.Down = linkOutcome(m.Outcomes, w.Down)
	return m
}

// linkOutcome points a convenience outcome at its entry in outcomes when
// the ids agree, so both views share one record.
func linkOutcome(outcomes []types.MarketOutcome, w *wireOutcome) *types.MarketOutcome {
	if w == nil {
		return nil
	}
	if id := string(w.OutcomeID); id != "" {
		for i := range outcomes {
			if outcomes[i].OutcomeID == id {
				return &outcomes[i]
			}
		}
	}
	o := convertOutcome(w)
	return &o
}

func convertMarkets(ws []wireMarket) []types.UnifiedMarket {
	out := make([]types.UnifiedMarket, 0, len(ws))
	for i := range ws {
		out = append(out, convertMarket(&ws[i]))
	}
	return out
}

func convertEvent(w *wireEvent) types.UnifiedEvent {
	return types.UnifiedEvent{
		ID:          string(w.ID),
		Title:       w.Title,
		Description: w.Description,
		Slug:        w.Slug,
		Markets:     convertMarkets(w.Markets),
		URL:         w.URL,
		Image:       w.Image,
		Category:    w.Category,
		Tags:        w.Tags,
	}
}

func convertEvents(ws []wireEvent) []types.UnifiedEvent {
	out := make([]types.UnifiedEvent, 0, len(ws))
	for i := range ws {
		out = append(out, convertEvent(&ws[i]))
	}
	return out
}

func convertCandles(ws []wireCandle) []types.PriceCandle {
	out := make([]types.PriceCandle, 0, len(ws))
	for _, w := range ws {
		out = append(out, types.PriceCandle{
			Timestamp: w.Timestamp.millis(),
			Open:      w.Open.v,
			High:      w.High.v,
			Low:       w.Low.v,
			Close:     w.Close.v,
			Volume:    w.Volume.ptr(),
		})
	}
	return out
}

func convertLevels(ws []wireLevel) []types.OrderLevel {
	out := make([]types.OrderLevel, 0, len(ws))
	for _, w := range ws {
		out = append(out, types.OrderLevel{Price: w.Price.v, Size: w.Size.v})
	}
	return out
}

func convertOrderBook(w *wireOrderBook) *types.OrderBook {
	return &types.OrderBook{
		Bids:      convertLevels(w.Bids),
		Asks:      convertLevels(w.Asks),
		Timestamp: w.Timestamp.millis(),
	}
}

func convertTrade(w *wireTrade) types.Trade {
	side := w.Side
	if side == "" {
		side = "unknown"
	}
	return types.Trade{
		ID:        string(w.ID),
		Timestamp: w.Timestamp.millis(),
		Price:     w.Price.v,
		Amount:    w.Amount.v,
		Side:      side,
	}
}

func convertTrades(ws []wireTrade) []types.Trade {
	out := make([]types.Trade, 0, len(ws))
	for i := range ws {
		out = append(out, convertTrade(&ws[i]))
	}
	return out
}

func convertUserTrades(ws []wireTrade) []types.UserTrade {
	out := make([]types.UserTrade, 0, len(ws))
	for i := range ws {
		out = append(out, types.UserTrade{
			Trade:   convertTrade(&ws[i]),
			OrderID: string(ws[i].OrderID),
		})
	}
	return out
}

func convertOrder(w *wireOrder) *types.Order {
	return &types.Order{
		ID:        string(w.ID),
		MarketID:  string(w.MarketID),
		OutcomeID: string(w.OutcomeID),
		Side:      types.OrderSide(strings.ToLower(w.Side)),
		Type:      types.OrderType(strings.ToLower(w.Type)),
		Amount:    w.Amount.v,
		Status:    w.Status,
		Filled:    w.Filled.v,
		Remaining: w.Remaining.v,
		Timestamp: w.Timestamp.millis(),
		Price:     w.Price.ptr(),
		Fee:       w.Fee.ptr(),
	}
}

func convertOrders(ws []wireOrder) []types.Order {
	out := make([]types.Order, 0, len(ws))
	for i := range ws {
		out = append(out, *convertOrder(&ws[i]))
	}
	return out
}

func convertPositions(ws []wirePosition) []types.Position {
	out := make([]types.Position, 0, len(ws))
	for _, w := range ws {
		out = append(out, types.Position{
			MarketID:      string(w.MarketID),
			OutcomeID:     string(w.OutcomeID),
			OutcomeLabel:  w.OutcomeLabel,
			Size:          w.Size.v,
			EntryPrice:    w.EntryPrice.v,
			CurrentPrice:  w.CurrentPrice.v,
			UnrealizedPnL: w.UnrealizedPnL.v,
			RealizedPnL:   w.RealizedPnL.ptr(),
		})
	}
	return out
}

func convertBalances(ws []wireBalance) []types.Balance {
	out := make([]types.Balance, 0, len(ws))
	for _, w := range ws {
		out = append(out, types.Balance{
			Currency:  w.Currency,
			Total:     w.Total.v,
			Available: w.Available.v,
			Locked:    w.Locked.v,
		})
	}
	return out
}

func convertExecution(w *wireExecution) *types.ExecutionPriceResult {
	return &types.ExecutionPriceResult{
		Price:        w.Price.v,
		FilledAmount: w.FilledAmount.v,
		FullyFilled:  w.FullyFilled,
	}
}

// bookArg is the order book as sent back to the server.
func bookArg(b *types.OrderBook) map[string]any {
	level := func(ls []types.OrderLevel) []map[string]float64 {
		out := make([]map[string]float64, 0, len(ls))
		for _, l := range ls {
			out = append(out, map[string]float64{"price": l.Price, "size": l.Size})
		}
		return out
	}

	arg := map[string]any{
		"bids": level(b.Bids),
		"asks": level(b.Asks),
	}
	if b.Timestamp != 0 {
		arg["timestamp"] = b.Timestamp
	}
	return arg
}
