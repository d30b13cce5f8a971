package filter

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/pmxt-go/pkg/types"
)

func ptr(v float64) *float64 { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func binaryMarket(id, title string, yes, no float64, yesChange, noChange *float64) types.UnifiedMarket {
	m := types.UnifiedMarket{
		MarketID: id,
		Title:    title,
		Outcomes: []types.MarketOutcome{
			{OutcomeID: id + "a", Label: "Yes", Price: yes, PriceChange24h: yesChange, MarketID: id},
			{OutcomeID: id + "b", Label: "No", Price: no, PriceChange24h: noChange, MarketID: id},
		},
	}
	m.Yes = &m.Outcomes[0]
	m.No = &m.Outcomes[1]
	return m
}

func testMarkets() []types.UnifiedMarket {
	m1 := binaryMarket("1", "Will Trump win the 2024 election?", 0.55, 0.45, ptr(0.05), ptr(-0.05))
	m1.Description = "Presidential election market"
	m1.ResolutionDate = date(2024, time.November, 5)
	m1.Volume24h = 50000
	m1.Volume = ptr(500000)
	m1.Liquidity = 100000
	m1.OpenInterest = ptr(80000)
	m1.Category = "Politics"
	m1.Tags = []string{"Election", "2024", "Presidential"}

	m2 := binaryMarket("2", "Will Biden run for reelection?", 0.25, 0.75, ptr(-0.15), ptr(0.15))
	m2.Description = "Democratic primary speculation"
	m2.ResolutionDate = date(2024, time.June, 1)
	m2.Volume24h = 30000
	m2.Volume = ptr(300000)
	m2.Liquidity = 50000
	m2.OpenInterest = ptr(40000)
	m2.Category = "Politics"
	m2.Tags = []string{"Election", "Democratic"}

	m3 := binaryMarket("3", "Bitcoin above $100k by end of year?", 0.35, 0.65, ptr(0.02), ptr(-0.02))
	m3.Description = "Crypto price prediction"
	m3.ResolutionDate = date(2024, time.December, 31)
	m3.Volume24h = 75000
	m3.Volume = ptr(750000)
	m3.Liquidity = 150000
	m3.OpenInterest = ptr(120000)
	m3.Category = "Crypto"
	m3.Tags = []string{"Bitcoin", "Price"}

	m4 := binaryMarket("4", "Will Fed Chair be Kevin Warsh?", 0.15, 0.85, ptr(-0.10), ptr(0.10))
	m4.Description = "Trump Fed Chair nomination"
	m4.ResolutionDate = date(2025, time.January, 20)
	m4.Volume24h = 10000
	m4.Volume = ptr(100000)
	m4.Liquidity = 20000
	m4.OpenInterest = ptr(15000)
	m4.Category = "Politics"
	m4.Tags = []string{"Fed", "Trump"}

	return []types.UnifiedMarket{m1, m2, m3, m4}
}

func eventMarket(id, title string, vol float64) types.UnifiedMarket {
	m := binaryMarket(id, title, 0.5, 0.5, nil, nil)
	m.Description = "Market description"
	m.ResolutionDate = date(2025, time.January, 1)
	m.Volume24h = vol
	m.Liquidity = 10000
	return m
}

func testEvents() []types.UnifiedEvent {
	return []types.UnifiedEvent{
		{
			ID:          "1",
			Title:       "2024 Presidential Election",
			Description: "Markets related to 2024 US presidential election",
			Slug:        "2024-presidential-election",
			Category:    "Politics",
			Tags:        []string{"Election", "Presidential", "2024"},
			Markets: []types.UnifiedMarket{
				eventMarket("1a", "Trump wins", 50000),
				eventMarket("1b", "Biden wins", 40000),
				eventMarket("1c", "Other wins", 10000),
			},
		},
		{
			ID:          "2",
			Title:       "Trump Cabinet Nominations",
			Description: "Who will Trump nominate for key positions?",
			Slug:        "trump-cabinet-nominations",
			Category:    "Politics",
			Tags:        []string{"Trump", "Cabinet"},
			Markets: []types.UnifiedMarket{
				eventMarket("2a", "Kevin Warsh as Fed Chair", 15000),
				eventMarket("2b", "Marco Rubio as Secretary of State", 20000),
				eventMarket("2c", "Scott Bessent as Treasury Secretary", 18000),
				eventMarket("2d", "Robert Lighthizer as Trade Rep", 12000),
				eventMarket("2e", "Stephen Miller as Chief of Staff", 10000),
			},
		},
		{
			ID:          "3",
			Title:       "Crypto Price Predictions 2024",
			Description: "Cryptocurrency price targets for end of year",
			Slug:        "crypto-prices-2024",
			Category:    "Crypto",
			Tags:        []string{"Bitcoin", "Ethereum", "Price"},
			Markets: []types.UnifiedMarket{
				eventMarket("3a", "Bitcoin above $100k", 80000),
				eventMarket("3b", "Ethereum above $5k", 60000),
			},
		},
		{
			ID:          "4",
			Title:       "Fed Rate Decisions",
			Description: "Federal Reserve interest rate predictions",
			Slug:        "fed-rate-decisions",
			Category:    "Economics",
			Tags:        []string{"Fed", "Interest Rates"},
			Markets:     []types.UnifiedMarket{eventMarket("4a", "Rate cut in January", 25000)},
		},
	}
}

func marketIDs(markets []types.UnifiedMarket) []string {
	ids := make([]string, len(markets))
	for i := range markets {
		ids[i] = markets[i].MarketID
	}
	return ids
}

func eventIDs(events []types.UnifiedEvent) []string {
	ids := make([]string, len(events))
	for i := range events {
		ids[i] = events[i].ID
	}
	return ids
}

func TestMarkets(t *testing.T) {
	tests := []struct {
		name     string
		criteria MarketCriteria
		want     []string
	}{
		{name: "nil_keeps_all", criteria: nil, want: []string{"1", "2", "3", "4"}},
		{name: "text_trump", criteria: Text("Trump"), want: []string{"1"}},
		{name: "text_case_insensitive", criteria: Text("bitcoin"), want: []string{"3"}},
		{name: "text_no_hits", criteria: Text("xyz123notfound"), want: []string{}},
		{name: "query_text_default_title", criteria: &MarketQuery{Text: Substring("Trump")}, want: []string{"1"}},
		{
			name:     "query_text_description",
			criteria: &MarketQuery{Text: Substring("nomination"), SearchIn: []SearchField{FieldDescription}},
			want:     []string{"4"},
		},
		{
			name:     "query_text_tags",
			criteria: &MarketQuery{Text: Substring("Presidential"), SearchIn: []SearchField{FieldTags}},
			want:     []string{"1"},
		},
		{
			name:     "query_text_outcomes",
			criteria: &MarketQuery{Text: Substring("Yes"), SearchIn: []SearchField{FieldOutcomes}},
			want:     []string{"1", "2", "3", "4"},
		},
		{
			name: "query_text_multiple_fields",
			criteria: &MarketQuery{
				Text:     Substring("Trump"),
				SearchIn: []SearchField{FieldTitle, FieldDescription, FieldTags},
			},
			want: []string{"1", "4"},
		},
		{
			name:     "query_text_category",
			criteria: &MarketQuery{Text: Substring("Politics"), SearchIn: []SearchField{FieldCategory}},
			want:     []string{"1", "2", "4"},
		},
		{name: "volume_24h_min", criteria: &MarketQuery{Volume24h: Min(40000)}, want: []string{"1", "3"}},
		{name: "volume_24h_max", criteria: &MarketQuery{Volume24h: Max(35000)}, want: []string{"2", "4"}},
		{name: "volume_24h_between", criteria: &MarketQuery{Volume24h: Between(25000, 60000)}, want: []string{"1", "2"}},
		{name: "volume_24h_inclusive_bounds", criteria: &MarketQuery{Volume24h: Between(30000, 50000)}, want: []string{"1", "2"}},
		{name: "volume_min", criteria: &MarketQuery{Volume: Min(400000)}, want: []string{"1", "3"}},
		{name: "liquidity_min", criteria: &MarketQuery{Liquidity: Min(75000)}, want: []string{"1", "3"}},
		{name: "liquidity_max", criteria: &MarketQuery{Liquidity: Max(60000)}, want: []string{"2", "4"}},
		{name: "open_interest_min", criteria: &MarketQuery{OpenInterest: Min(70000)}, want: []string{"1", "3"}},
		{
			name:     "resolution_before",
			criteria: &MarketQuery{ResolutionDate: &DateRange{Before: date(2024, time.December, 1)}},
			want:     []string{"1", "2"},
		},
		{
			name:     "resolution_after",
			criteria: &MarketQuery{ResolutionDate: &DateRange{After: date(2024, time.July, 1)}},
			want:     []string{"1", "3", "4"},
		},
		{
			name:     "resolution_strict_bounds",
			criteria: &MarketQuery{ResolutionDate: &DateRange{After: date(2024, time.June, 1), Before: date(2024, time.December, 31)}},
			want:     []string{"1"},
		},
		{name: "category_exact", criteria: &MarketQuery{Category: "Crypto"}, want: []string{"3"}},
		{name: "category_case_sensitive", criteria: &MarketQuery{Category: "crypto"}, want: []string{}},
		{name: "tags_single", criteria: &MarketQuery{Tags: []string{"Election"}}, want: []string{"1", "2"}},
		{name: "tags_any", criteria: &MarketQuery{Tags: []string{"Bitcoin", "Fed"}}, want: []string{"3", "4"}},
		{name: "tags_case_insensitive", criteria: &MarketQuery{Tags: []string{"bitcoin"}}, want: []string{"3"}},
		{
			name:     "price_yes_max",
			criteria: &MarketQuery{Price: &OutcomeRange{Outcome: types.OutcomeYes, Range: *Max(0.3)}},
			want:     []string{"2", "4"},
		},
		{
			name:     "price_no_min",
			criteria: &MarketQuery{Price: &OutcomeRange{Outcome: types.OutcomeNo, Range: *Min(0.7)}},
			want:     []string{"2", "4"},
		},
		{
			name:     "price_missing_outcome_fails",
			criteria: &MarketQuery{Price: &OutcomeRange{Outcome: types.OutcomeUp, Range: *Max(1)}},
			want:     []string{},
		},
		{
			name:     "price_change_yes_max",
			criteria: &MarketQuery{PriceChange24h: &OutcomeRange{Outcome: types.OutcomeYes, Range: *Max(-0.08)}},
			want:     []string{"2", "4"},
		},
		{
			name:     "price_change_yes_min",
			criteria: &MarketQuery{PriceChange24h: &OutcomeRange{Outcome: types.OutcomeYes, Range: *Min(0.03)}},
			want:     []string{"1"},
		},
		{
			name:     "predicate_volume",
			criteria: MarketPredicate(func(m *types.UnifiedMarket) bool { return m.Volume24h > 40000 }),
			want:     []string{"1", "3"},
		},
		{
			name: "predicate_compound",
			criteria: MarketPredicate(func(m *types.UnifiedMarket) bool {
				if m.Category != "Politics" || m.Volume24h <= 10000 {
					return false
				}
				for _, o := range m.Outcomes {
					if o.Price < 0.3 {
						return true
					}
				}
				return false
			}),
			want: []string{"2"},
		},
		{
			name: "conjunction",
			criteria: &MarketQuery{
				Category:  "Politics",
				Tags:      []string{"election"},
				Volume24h: Min(40000),
			},
			want: []string{"1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Markets(testMarkets(), tt.criteria)
			assert.Equal(t, tt.want, marketIDs(got))
		})
	}
}

func TestMarkets_EmptyConvenienceOutcomes(t *testing.T) {
	m := types.UnifiedMarket{MarketID: "1", Title: "Multi"}
	got := Markets([]types.UnifiedMarket{m}, &MarketQuery{
		Price: &OutcomeRange{Outcome: types.OutcomeYes, Range: *Max(0.5)},
	})
	assert.Empty(t, got)
}

func TestMarkets_MissingOptionalFields(t *testing.T) {
	m := types.UnifiedMarket{MarketID: "1", Title: "Sparse"}

	// absent volume and open interest count as zero
	assert.Len(t, Markets([]types.UnifiedMarket{m}, &MarketQuery{Volume: Max(0)}), 1)
	assert.Len(t, Markets([]types.UnifiedMarket{m}, &MarketQuery{OpenInterest: Max(0)}), 1)
	assert.Empty(t, Markets([]types.UnifiedMarket{m}, &MarketQuery{Volume: Min(1)}))

	// absent resolution date fails any date bound
	assert.Empty(t, Markets([]types.UnifiedMarket{m}, &MarketQuery{
		ResolutionDate: &DateRange{Before: date(2100, time.January, 1)},
	}))

	// absent tags never satisfy a tag constraint
	assert.Empty(t, Markets([]types.UnifiedMarket{m}, &MarketQuery{Tags: []string{"x"}}))
}

func TestMarkets_PriceChangeMissing(t *testing.T) {
	m := binaryMarket("1", "No change data", 0.4, 0.6, nil, nil)
	got := Markets([]types.UnifiedMarket{m}, &MarketQuery{
		PriceChange24h: &OutcomeRange{Outcome: types.OutcomeYes, Range: *Min(-1)},
	})
	assert.Empty(t, got)
}

func TestMarkets_DoesNotMutateInput(t *testing.T) {
	markets := testMarkets()
	before := marketIDs(markets)

	_ = Markets(markets, Text("Trump"))
	_ = Markets(markets, &MarketQuery{Volume24h: Min(40000)})

	assert.Equal(t, before, marketIDs(markets))
	assert.Equal(t, "Will Trump win the 2024 election?", markets[0].Title)
}

func TestMarkets_TypedNilCriteria(t *testing.T) {
	var q *MarketQuery
	var p MarketPredicate
	assert.Len(t, Markets(testMarkets(), q), 4)
	assert.Len(t, Markets(testMarkets(), p), 4)
}

// A Text criterion must behave like a query with only Text and the
// default scope.
func TestMarkets_TextEquivalence(t *testing.T) {
	for _, q := range []string{"Trump", "will", "BITCOIN", "?", "zzz", "election", ""} {
		t.Run(q, func(t *testing.T) {
			a := Markets(testMarkets(), Text(q))
			b := Markets(testMarkets(), &MarketQuery{Text: Substring(q), SearchIn: []SearchField{FieldTitle}})
			c := Markets(testMarkets(), &MarketQuery{Text: Substring(q)})
			assert.Equal(t, marketIDs(a), marketIDs(b))
			assert.Equal(t, marketIDs(a), marketIDs(c))
		})
	}
}

func TestTextEquivalence_EmptyQuery(t *testing.T) {
	markets := []types.UnifiedMarket{
		{MarketID: "untitled"},
		{MarketID: "trump", Title: "Will Trump win?"},
	}
	events := []types.UnifiedEvent{
		{ID: "untitled"},
		{ID: "election", Title: "US Election"},
	}

	assert.Equal(t, []string{"trump"}, marketIDs(Markets(markets, Text(""))))
	assert.Equal(t, []string{"trump"}, marketIDs(Markets(markets, &MarketQuery{Text: Substring("")})))
	assert.Len(t, Markets(markets, &MarketQuery{}), 2, "unset text imposes no constraint")

	assert.Len(t, Events(events, Text("")), 1)
	assert.Len(t, Events(events, &EventQuery{Text: Substring("")}), 1)
	assert.Len(t, Events(events, &EventQuery{}), 2)
}

// Every record accepted by a conjunction must be accepted by each
// constraint alone.
func TestMarkets_Conjunction(t *testing.T) {
	parts := []*MarketQuery{
		{Category: "Politics"},
		{Volume24h: Min(20000)},
		{Tags: []string{"Election", "Fed"}},
		{Price: &OutcomeRange{Outcome: types.OutcomeYes, Range: *Max(0.5)}},
	}
	combined := &MarketQuery{
		Category:  "Politics",
		Volume24h: Min(20000),
		Tags:      []string{"Election", "Fed"},
		Price:     &OutcomeRange{Outcome: types.OutcomeYes, Range: *Max(0.5)},
	}

	got := Markets(testMarkets(), combined)
	require.Equal(t, []string{"2"}, marketIDs(got))

	for i, part := range parts {
		single := marketIDs(Markets(testMarkets(), part))
		for _, id := range marketIDs(got) {
			assert.Contains(t, single, id, "part %d", i)
		}
	}
}

func TestEvents(t *testing.T) {
	tests := []struct {
		name     string
		criteria EventCriteria
		want     []string
	}{
		{name: "nil_keeps_all", criteria: nil, want: []string{"1", "2", "3", "4"}},
		{name: "text_trump", criteria: Text("Trump"), want: []string{"2"}},
		{name: "text_election", criteria: Text("election"), want: []string{"1"}},
		{
			name:     "query_text_description",
			criteria: &EventQuery{Text: Substring("nominate"), SearchIn: []SearchField{FieldDescription}},
			want:     []string{"2"},
		},
		{
			name:     "query_text_outcomes_ignored",
			criteria: &EventQuery{Text: Substring("Yes"), SearchIn: []SearchField{FieldOutcomes}},
			want:     []string{},
		},
		{name: "market_count_min", criteria: &EventQuery{MarketCount: Min(4)}, want: []string{"2"}},
		{name: "market_count_max", criteria: &EventQuery{MarketCount: Max(2)}, want: []string{"3", "4"}},
		{name: "total_volume_min", criteria: &EventQuery{TotalVolume: Min(100000)}, want: []string{"1", "3"}},
		{name: "tags_any", criteria: &EventQuery{Tags: []string{"fed", "cabinet"}}, want: []string{"2", "4"}},
		{name: "category", criteria: &EventQuery{Category: "Politics"}, want: []string{"1", "2"}},
		{
			name:     "predicate",
			criteria: EventPredicate(func(e *types.UnifiedEvent) bool { return len(e.Markets) > 3 }),
			want:     []string{"2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Events(testEvents(), tt.criteria)
			assert.Equal(t, tt.want, eventIDs(got))
		})
	}
}

func TestEvents_EdgeCases(t *testing.T) {
	assert.Empty(t, Events(nil, Text("Trump")))

	e := types.UnifiedEvent{ID: "1", Title: "Test", Slug: "test", Category: "Politics"}
	assert.Len(t, Events([]types.UnifiedEvent{e}, &EventQuery{Category: "Politics"}), 1)
	assert.Empty(t, Events([]types.UnifiedEvent{e}, &EventQuery{Category: "politics"}))

	// an event without markets has zero total volume
	assert.Len(t, Events([]types.UnifiedEvent{e}, &EventQuery{TotalVolume: Max(1000)}), 1)
}

func TestRange(t *testing.T) {
	tests := []struct {
		name string
		r    *Range
		v    float64
		want bool
	}{
		{name: "min_equal", r: Min(1), v: 1, want: true},
		{name: "min_below", r: Min(1), v: 0.99, want: false},
		{name: "max_equal", r: Max(1), v: 1, want: true},
		{name: "max_above", r: Max(1), v: 1.01, want: false},
		{name: "between_inside", r: Between(1, 2), v: 1.5, want: true},
		{name: "between_outside", r: Between(1, 2), v: 3, want: false},
		{name: "open", r: &Range{}, v: -1e9, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Contains(tt.v), fmt.Sprintf("%+v contains %v", tt.r, tt.v))
		})
	}
}

// Constraints compose as intersection: applying a merged query equals
// applying its halves one after the other.
func TestMarkets_Composition(t *testing.T) {
	tests := []struct {
		name   string
		first  *MarketQuery
		second *MarketQuery
		merged *MarketQuery
	}{
		{
			name:   "category_then_volume",
			first:  &MarketQuery{Category: "Politics"},
			second: &MarketQuery{Volume24h: Min(20000)},
			merged: &MarketQuery{Category: "Politics", Volume24h: Min(20000)},
		},
		{
			name:   "text_then_price",
			first:  &MarketQuery{Text: Substring("will")},
			second: &MarketQuery{Price: &OutcomeRange{Outcome: types.OutcomeNo, Range: *Min(0.5)}},
			merged: &MarketQuery{Text: Substring("will"), Price: &OutcomeRange{Outcome: types.OutcomeNo, Range: *Min(0.5)}},
		},
		{
			name:   "tags_then_date",
			first:  &MarketQuery{Tags: []string{"election", "price"}},
			second: &MarketQuery{ResolutionDate: &DateRange{After: date(2024, time.July, 1)}},
			merged: &MarketQuery{
				Tags:           []string{"election", "price"},
				ResolutionDate: &DateRange{After: date(2024, time.July, 1)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sequential := Markets(Markets(testMarkets(), tt.first), tt.second)
			merged := Markets(testMarkets(), tt.merged)
			assert.Equal(t, marketIDs(sequential), marketIDs(merged))
		})
	}
}

func TestScenario_VolumeFilterAndMatch(t *testing.T) {
	markets := []types.UnifiedMarket{
		{MarketID: "trump", Title: "Will Trump win?", Volume24h: 50000},
		{MarketID: "btc", Title: "Bitcoin $100k?", Volume24h: 75000},
		{MarketID: "biden", Title: "Biden reelect?", Volume24h: 30000},
	}

	got := Markets(markets, &MarketQuery{Volume24h: Min(40000)})
	assert.Equal(t, []string{"trump", "btc"}, marketIDs(got))

	m, err := MatchMarket(markets, "Trump")
	require.NoError(t, err)
	assert.Equal(t, "trump", m.MarketID)

	_, err = MatchMarket(markets, "zzz")
	var nf *types.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
