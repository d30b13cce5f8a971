package types

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// OutcomeSide names one of the convenience outcomes of a binary market.
type OutcomeSide string

const (
	OutcomeYes  OutcomeSide = "yes"
	OutcomeNo   OutcomeSide = "no"
	OutcomeUp   OutcomeSide = "up"
	OutcomeDown OutcomeSide = "down"
)

// ParseOutcomeSide accepts YES/Yes/yes style input.
func ParseOutcomeSide(s string) (OutcomeSide, bool) {
	switch side := OutcomeSide(strings.ToLower(strings.TrimSpace(s))); side {
	case OutcomeYes, OutcomeNo, OutcomeUp, OutcomeDown:
		return side, true
	default:
		return "", false
	}
}

// MarketOutcome is a single tradeable outcome within a market.
type MarketOutcome struct {
	// OutcomeID is what fetchOHLCV/fetchOrderBook/fetchTrades expect.
	// Polymarket: CLOB token id. Kalshi: market ticker.
	OutcomeID      string
	Label          string
	Price          float64  // 0.0 to 1.0
	PriceChange24h *float64 // nil when the exchange does not report it
	Metadata       map[string]any
	MarketID       string
}

// UnifiedMarket is the exchange-agnostic market record returned by the sidecar.
type UnifiedMarket struct {
	MarketID       string
	Title          string
	Description    string
	Outcomes       []MarketOutcome
	ResolutionDate time.Time // zero when absent
	Volume24h      float64
	Volume         *float64
	Liquidity      float64
	OpenInterest   *float64
	URL            string
	Image          string
	Category       string
	Tags           []string

	// Convenience references for binary markets. When the referenced outcome
	// is present in Outcomes these point into that slice.
	Yes  *MarketOutcome
	No   *MarketOutcome
	Up   *MarketOutcome
	Down *MarketOutcome
}

// Question is an alias for Title.
func (m *UnifiedMarket) Question() string {
	return m.Title
}

// Outcome returns the named convenience outcome, or nil.
func (m *UnifiedMarket) Outcome(side OutcomeSide) *MarketOutcome {
	switch side {
	case OutcomeYes:
		return m.Yes
	case OutcomeNo:
		return m.No
	case OutcomeUp:
		return m.Up
	case OutcomeDown:
		return m.Down
	default:
		return nil
	}
}

// Clone returns a copy that shares no mutable state with m. Convenience
// references that point into Outcomes point into the copy's Outcomes.
func (m *UnifiedMarket) Clone() *UnifiedMarket {
	if m == nil {
		return nil
	}

	out := *m
	out.Volume = clonePtr(m.Volume)
	out.OpenInterest = clonePtr(m.OpenInterest)
	out.Tags = slices.Clone(m.Tags)
	out.Outcomes = make([]MarketOutcome, len(m.Outcomes))
	for i := range m.Outcomes {
		out.Outcomes[i] = m.Outcomes[i].clone()
	}

	out.Yes = m.rebase(m.Yes, out.Outcomes)
	out.No = m.rebase(m.No, out.Outcomes)
	out.Up = m.rebase(m.Up, out.Outcomes)
	out.Down = m.rebase(m.Down, out.Outcomes)
	return &out
}

func (m *UnifiedMarket) rebase(ref *MarketOutcome, outcomes []MarketOutcome) *MarketOutcome {
	if ref == nil {
		return nil
	}
	for i := range m.Outcomes {
		if &m.Outcomes[i] == ref {
			return &outcomes[i]
		}
	}
	c := ref.clone()
	return &c
}

func (o MarketOutcome) clone() MarketOutcome {
	o.PriceChange24h = clonePtr(o.PriceChange24h)
	o.Metadata = maps.Clone(o.Metadata)
	return o
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// HasResolutionDate reports whether the exchange provided a resolution date.
func (m *UnifiedMarket) HasResolutionDate() bool {
	return !m.ResolutionDate.IsZero()
}

// UnifiedEvent groups related markets.
type UnifiedEvent struct {
	ID          string
	Title       string
	Description string
	Slug        string
	Markets     []UnifiedMarket
	URL         string
	Image       string
	Category    string
	Tags        []string
}

// MarketCount returns the number of markets owned by the event.
func (e *UnifiedEvent) MarketCount() int {
	return len(e.Markets)
}

// TotalVolume24h sums the 24h volume of every market in the event.
func (e *UnifiedEvent) TotalVolume24h() float64 {
	var total float64
	for i := range e.Markets {
		total += e.Markets[i].Volume24h
	}
	return total
}

// PaginatedMarketsResult is one page of a cursor-paginated market fetch.
type PaginatedMarketsResult struct {
	Data  []UnifiedMarket
	Total int
	// NextCursor is empty on the last page.
	NextCursor string
}
