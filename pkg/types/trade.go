package types

// OrderSide is buy or sell.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderType is market or limit.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// Trade is a public trade on an outcome.
type Trade struct {
	ID        string
	Timestamp int64 // unix millis
	Price     float64
	Amount    float64
	Side      string // "buy", "sell" or "unknown"
}

// UserTrade is a fill belonging to the authenticated user.
type UserTrade struct {
	Trade
	OrderID string
}

// Order is an open, filled or cancelled order.
type Order struct {
	ID        string
	MarketID  string
	OutcomeID string
	Side      OrderSide
	Type      OrderType
	Amount    float64
	Status    string // pending, open, filled, cancelled, rejected
	Filled    float64
	Remaining float64
	Timestamp int64
	Price     *float64 // limit orders only
	Fee       *float64
}

// Position is a holding in one outcome.
type Position struct {
	MarketID      string
	OutcomeID     string
	OutcomeLabel  string
	Size          float64 // negative for short
	EntryPrice    float64
	CurrentPrice  float64
	UnrealizedPnL float64
	RealizedPnL   *float64
}

// Balance is the account balance for one currency.
type Balance struct {
	Currency  string
	Total     float64
	Available float64
	Locked    float64
}
