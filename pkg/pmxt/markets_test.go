package pmxt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/pmxt-go/internal/testutil"
	"github.com/mselser95/pmxt-go/pkg/filter"
	"github.com/mselser95/pmxt-go/pkg/types"
)

func threeMarkets() []any {
	return []any{
		testutil.WireMarket("1", "Will Trump win?", 50000, 0.6),
		testutil.WireMarket("2", "Bitcoin $100k?", 75000, 0.3),
		testutil.WireMarket("3", "Biden reelect?", 30000, 0.1),
	}
}

func TestFetchMarkets_Params(t *testing.T) {
	tests := []struct {
		name     string
		params   *MarketParams
		wantArgs []map[string]any
	}{
		{name: "nil_params", params: nil, wantArgs: []map[string]any{}},
		{name: "empty_params", params: &MarketParams{}, wantArgs: []map[string]any{}},
		{
			name:   "query_and_paging",
			params: &MarketParams{Query: "Trump", Limit: 20, Sort: "volume", SearchIn: []filter.SearchField{filter.FieldTitle, filter.FieldTags}},
			wantArgs: []map[string]any{{
				"query":    "Trump",
				"limit":    float64(20),
				"sort":     "volume",
				"searchIn": []any{"title", "tags"},
			}},
		},
		{
			name:     "extra_does_not_override",
			params:   &MarketParams{Limit: 5, Extra: map[string]any{"limit": 99, "closed": true}},
			wantArgs: []map[string]any{{"limit": float64(5), "closed": true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockSidecar(t)
			mock.Respond("fetchMarkets", threeMarkets())
			ex := newTestExchange(t, mock)

			markets, err := ex.FetchMarkets(context.Background(), tt.params)
			require.NoError(t, err)
			assert.Len(t, markets, 3)

			call, _ := mock.LastCall("fetchMarkets")
			got := make([]map[string]any, len(call.Args))
			for i := range call.Args {
				require.NoError(t, call.Arg(i, &got[i]))
			}
			assert.Equal(t, tt.wantArgs, got)
		})
	}
}

func TestFetchMarkets_ThenFilterAndMatch(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("fetchMarkets", threeMarkets())
	ex := newTestExchange(t, mock)

	markets, err := ex.FetchMarkets(context.Background(), nil)
	require.NoError(t, err)

	busy := ex.FilterMarkets(markets, &filter.MarketQuery{Volume24h: filter.Min(40000)})
	require.Len(t, busy, 2)
	assert.Equal(t, "Will Trump win?", busy[0].Title)
	assert.Equal(t, "Bitcoin $100k?", busy[1].Title)

	m, err := ex.MatchMarket(markets, "Trump")
	require.NoError(t, err)
	assert.Equal(t, "1", m.MarketID)
	assert.Equal(t, "1-yes", m.Yes.OutcomeID)

	_, err = ex.MatchMarket(markets, "zzz")
	var nf *types.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestFetchMarketsPaginated(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Handle("fetchMarketsPaginated", func(call testutil.RecordedCall) (any, error) {
		var params map[string]any
		_ = call.Arg(0, &params)
		if params["cursor"] == "c2" {
			return map[string]any{"data": threeMarkets()[2:], "total": 3}, nil
		}
		return map[string]any{"data": threeMarkets()[:2], "total": 3, "nextCursor": "c2"}, nil
	})
	ex := newTestExchange(t, mock)

	page, err := ex.FetchMarketsPaginated(context.Background(), 2, "")
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, "c2", page.NextCursor)

	page, err = ex.FetchMarketsPaginated(context.Background(), 2, page.NextCursor)
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.Empty(t, page.NextCursor)
}

func TestFetchEventsAndMatch(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("fetchEvents", []any{
		testutil.WireEvent("e1", "US Election 2024",
			testutil.WireMarket("1", "Will Trump win?", 50000, 0.6),
			testutil.WireMarket("3", "Biden reelect?", 30000, 0.1)),
		testutil.WireEvent("e2", "Crypto", testutil.WireMarket("2", "Bitcoin $100k?", 75000, 0.3)),
	})
	ex := newTestExchange(t, mock)

	events, err := ex.FetchEvents(context.Background(), &EventParams{Query: "e", Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 2, events[0].MarketCount())

	big := ex.FilterEvents(events, &filter.EventQuery{TotalVolume: filter.Min(70000)})
	require.Len(t, big, 2)

	multi := ex.FilterEvents(events, &filter.EventQuery{MarketCount: filter.Min(2)})
	require.Len(t, multi, 1)
	assert.Equal(t, "e1", multi[0].ID)

	ev, err := ex.MatchEvent(events, "crypto")
	require.NoError(t, err)
	assert.Equal(t, "e2", ev.ID)
}

func TestFetchMarket_Lookup(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("fetchMarket", testutil.WireMarket("663583", "Will Trump win?", 1, 0.5))
	ex := newTestExchange(t, mock)

	m, err := ex.FetchMarket(context.Background(), &MarketLookup{
		Slug:                "will-trump-win",
		SearchIn:            []filter.SearchField{filter.FieldDescription},
		SimilarityThreshold: 0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, "663583", m.MarketID)

	call, _ := mock.LastCall("fetchMarket")
	var params map[string]any
	require.NoError(t, call.Arg(0, &params))
	assert.Equal(t, map[string]any{
		"slug":                "will-trump-win",
		"searchIn":            []any{"description"},
		"similarityThreshold": 0.8,
	}, params)
}

func TestFetchEvent_Lookup(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("fetchEvent", testutil.WireEvent("TRUMP25DEC", "Trump"))
	ex := newTestExchange(t, mock)

	ev, err := ex.FetchEvent(context.Background(), &EventLookup{EventID: "TRUMP25DEC"})
	require.NoError(t, err)
	assert.Equal(t, "TRUMP25DEC", ev.ID)
	assert.Zero(t, ev.MarketCount())
}

func TestFetchOHLCV(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("fetchOHLCV", []any{
		map[string]any{"timestamp": 1772366400000, "open": 0.5, "high": 0.6, "low": 0.4, "close": 0.55},
		map[string]any{"timestamp": 1772370000000, "open": 0.55, "high": 0.7, "low": 0.5, "close": 0.65, "volume": 1200},
	})
	ex := newTestExchange(t, mock)

	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	candles, err := ex.FetchOHLCV(context.Background(), "tok-yes", &OHLCVParams{
		Resolution: types.Interval1h,
		Limit:      100,
		Start:      start,
	})
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Nil(t, candles[0].Volume)
	require.NotNil(t, candles[1].Volume)
	assert.Equal(t, 1200.0, *candles[1].Volume)
	assert.Equal(t, int64(1772366400000), candles[0].Timestamp)

	call, _ := mock.LastCall("fetchOHLCV")
	require.Len(t, call.Args, 2)
	var id string
	var params map[string]any
	require.NoError(t, call.Arg(0, &id))
	require.NoError(t, call.Arg(1, &params))
	assert.Equal(t, "tok-yes", id)
	assert.Equal(t, map[string]any{
		"resolution": "1h",
		"limit":      float64(100),
		"start":      "2026-03-01T00:00:00Z",
	}, params)
}

func TestFetchOrderBookAndTrades(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("fetchOrderBook", testutil.WireOrderBook(0.5))
	mock.Respond("fetchTrades", []any{
		map[string]any{"id": "t1", "timestamp": 1, "price": 0.5, "amount": 3, "side": "sell"},
	})
	ex := newTestExchange(t, mock)

	book, err := ex.FetchOrderBook(context.Background(), "tok")
	require.NoError(t, err)
	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.InDelta(t, 0.49, bid.Price, 1e-9)
	ask, _ := book.BestAsk()
	assert.InDelta(t, 0.51, ask.Price, 1e-9)
	assert.Equal(t, int64(1772366400000), book.Timestamp)

	trades, err := ex.FetchTrades(context.Background(), "tok", &TradesParams{Limit: 10, Since: 1700000000000})
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "sell", trades[0].Side)

	call, _ := mock.LastCall("fetchTrades")
	var params map[string]any
	require.NoError(t, call.Arg(1, &params))
	assert.Equal(t, float64(10), params["limit"])
	assert.Equal(t, float64(1700000000000), params["since"])
}

func TestLoadMarkets(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("fetchMarkets", threeMarkets())
	ex := newTestExchange(t, mock)

	assert.Empty(t, ex.Markets())

	loaded, err := ex.LoadMarkets(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "Bitcoin $100k?", loaded["2"].Title)

	_, err = ex.LoadMarkets(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, mock.Calls(), 1, "second load is served from the handle")

	mock.Respond("fetchMarkets", threeMarkets()[:1])
	reloaded, err := ex.LoadMarkets(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, reloaded, 1)
	assert.Len(t, ex.Markets(), 1)
	assert.Len(t, mock.Calls(), 2)

	delete(reloaded, "1")
	assert.Len(t, ex.Markets(), 1, "returned map is a copy")
}

func TestLoadMarkets_ReturnsMarketCopies(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("fetchMarkets", threeMarkets())
	ex := newTestExchange(t, mock)

	loaded, err := ex.LoadMarkets(context.Background(), false)
	require.NoError(t, err)

	m := loaded["1"]
	m.Title = "changed"
	m.Outcomes[0].Price = 0.99
	m.Yes.Label = "changed"
	assert.Same(t, &m.Outcomes[0], m.Yes, "convenience reference follows the copy")

	kept := ex.Markets()["1"]
	assert.Equal(t, "Will Trump win?", kept.Title)
	assert.InDelta(t, 0.6, kept.Outcomes[0].Price, 1e-9)
	assert.NotEqual(t, "changed", kept.Yes.Label)
}

func TestLoadMarkets_ErrorKeepsPrevious(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("fetchMarkets", threeMarkets())
	ex := newTestExchange(t, mock)

	_, err := ex.LoadMarkets(context.Background(), false)
	require.NoError(t, err)

	mock.Respond("fetchMarkets", testutil.RawResponse{Status: 500, Body: "down"})
	_, err = ex.LoadMarkets(context.Background(), true)
	require.Error(t, err)
	assert.Len(t, ex.Markets(), 3)
}
