// Package filter selects and resolves markets and events that have already
// been fetched from the sidecar. It performs no I/O and holds no state.
package filter

import (
	"time"

	"github.com/mselser95/pmxt-go/pkg/types"
)

// SearchField names a record field scanned by a text constraint.
type SearchField string

const (
	FieldTitle       SearchField = "title"
	FieldDescription SearchField = "description"
	FieldCategory    SearchField = "category"
	FieldTags        SearchField = "tags"
	FieldOutcomes    SearchField = "outcomes" // markets only
)

// MarketCriteria is one of Text, *MarketQuery or MarketPredicate.
type MarketCriteria interface {
	keepMarket(m *types.UnifiedMarket) bool
}

// EventCriteria is one of Text, *EventQuery or EventPredicate.
type EventCriteria interface {
	keepEvent(e *types.UnifiedEvent) bool
}

// Text keeps records whose title contains the string, ignoring case.
type Text string

func (t Text) keepMarket(m *types.UnifiedMarket) bool {
	return containsFold(m.Title, string(t))
}

func (t Text) keepEvent(e *types.UnifiedEvent) bool {
	return containsFold(e.Title, string(t))
}

// MarketPredicate keeps markets for which it returns true.
type MarketPredicate func(m *types.UnifiedMarket) bool

func (p MarketPredicate) keepMarket(m *types.UnifiedMarket) bool {
	return p == nil || p(m)
}

// EventPredicate keeps events for which it returns true.
type EventPredicate func(e *types.UnifiedEvent) bool

func (p EventPredicate) keepEvent(e *types.UnifiedEvent) bool {
	return p == nil || p(e)
}

// Range is an inclusive numeric bound. A nil end is open.
type Range struct {
	Min *float64
	Max *float64
}

// Min returns a range bounded below.
func Min(v float64) *Range {
	return &Range{Min: &v}
}

// Max returns a range bounded above.
func Max(v float64) *Range {
	return &Range{Max: &v}
}

// Between returns a range bounded on both ends.
func Between(minV, maxV float64) *Range {
	return &Range{Min: &minV, Max: &maxV}
}

// Contains reports whether v lies within the range.
func (r *Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// DateRange bounds a resolution date. Comparisons are strict; a zero
// bound is unset.
type DateRange struct {
	Before time.Time
	After  time.Time
}

func (d *DateRange) contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	if !d.Before.IsZero() && !t.Before(d.Before) {
		return false
	}
	if !d.After.IsZero() && !t.After(d.After) {
		return false
	}
	return true
}

// OutcomeRange bounds a value of one convenience outcome. With an empty
// Outcome the constraint is not applied.
type OutcomeRange struct {
	Outcome types.OutcomeSide
	Range
}

// Substring returns a text constraint for a query. A set but empty
// constraint still requires the searched field to be present.
func Substring(s string) *string {
	return &s
}

// MarketQuery is a conjunction of constraints. Zero-valued fields impose
// no constraint.
type MarketQuery struct {
	Text     *string
	SearchIn []SearchField // defaults to title

	Category string   // exact, case-sensitive
	Tags     []string // any requested tag, case-insensitive

	Volume24h    *Range
	Volume       *Range // absent volume counts as 0
	Liquidity    *Range
	OpenInterest *Range // absent open interest counts as 0

	ResolutionDate *DateRange

	Price          *OutcomeRange
	PriceChange24h *OutcomeRange
}

// EventQuery is a conjunction of constraints over events.
type EventQuery struct {
	Text     *string
	SearchIn []SearchField // defaults to title; outcomes is ignored

	Category string
	Tags     []string

	MarketCount *Range
	TotalVolume *Range // sum of market 24h volume
}

func (q *MarketQuery) keepMarket(m *types.UnifiedMarket) bool {
	if q == nil {
		return true
	}
	if q.Text != nil && !marketHasText(m, *q.Text, q.SearchIn) {
		return false
	}
	if q.Category != "" && m.Category != q.Category {
		return false
	}
	if len(q.Tags) > 0 && !anyTag(m.Tags, q.Tags) {
		return false
	}
	if q.Volume24h != nil && !q.Volume24h.Contains(m.Volume24h) {
		return false
	}
	if q.Volume != nil && !q.Volume.Contains(valueOrZero(m.Volume)) {
		return false
	}
	if q.Liquidity != nil && !q.Liquidity.Contains(m.Liquidity) {
		return false
	}
	if q.OpenInterest != nil && !q.OpenInterest.Contains(valueOrZero(m.OpenInterest)) {
		return false
	}
	if q.ResolutionDate != nil && !q.ResolutionDate.contains(m.ResolutionDate) {
		return false
	}
	if q.Price != nil && q.Price.Outcome != "" {
		o := m.Outcome(q.Price.Outcome)
		if o == nil || !q.Price.Contains(o.Price) {
			return false
		}
	}
	if q.PriceChange24h != nil && q.PriceChange24h.Outcome != "" {
		o := m.Outcome(q.PriceChange24h.Outcome)
		if o == nil || o.PriceChange24h == nil || !q.PriceChange24h.Contains(*o.PriceChange24h) {
			return false
		}
	}
	return true
}

func (q *EventQuery) keepEvent(e *types.UnifiedEvent) bool {
	if q == nil {
		return true
	}
	if q.Text != nil && !eventHasText(e, *q.Text, q.SearchIn) {
		return false
	}
	if q.Category != "" && e.Category != q.Category {
		return false
	}
	if len(q.Tags) > 0 && !anyTag(e.Tags, q.Tags) {
		return false
	}
	if q.MarketCount != nil && !q.MarketCount.Contains(float64(e.MarketCount())) {
		return false
	}
	if q.TotalVolume != nil && !q.TotalVolume.Contains(e.TotalVolume24h()) {
		return false
	}
	return true
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
