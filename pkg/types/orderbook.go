package types

// OrderLevel is a single price level in the order book.
type OrderLevel struct {
	Price float64
	Size  float64
}

// OrderBook is the current book for one outcome.
// Bids are sorted high to low, asks low to high.
type OrderBook struct {
	Bids      []OrderLevel
	Asks      []OrderLevel
	Timestamp int64 // unix millis, 0 when absent
}

// BestBid returns the top bid level.
func (b *OrderBook) BestBid() (OrderLevel, bool) {
	if len(b.Bids) == 0 {
		return OrderLevel{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the top ask level.
func (b *OrderBook) BestAsk() (OrderLevel, bool) {
	if len(b.Asks) == 0 {
		return OrderLevel{}, false
	}
	return b.Asks[0], true
}

// CandleInterval is an OHLCV resolution accepted by the sidecar.
type CandleInterval string

const (
	Interval1m  CandleInterval = "1m"
	Interval5m  CandleInterval = "5m"
	Interval15m CandleInterval = "15m"
	Interval1h  CandleInterval = "1h"
	Interval6h  CandleInterval = "6h"
	Interval1d  CandleInterval = "1d"
)

// PriceCandle is one OHLCV candle. Prices are probabilities.
type PriceCandle struct {
	Timestamp int64 // unix millis
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    *float64
}

// ExecutionPriceResult is the sidecar's fill simulation against a book.
type ExecutionPriceResult struct {
	Price        float64 // volume-weighted average
	FilledAmount float64
	FullyFilled  bool
}
