package pmxt

import (
	"context"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/pmxt-go/internal/testutil"
)

func TestWatchOrderBook(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("watchOrderBook", testutil.WireOrderBook(0.6))
	ex := newTestExchange(t, mock)

	book, err := ex.WatchOrderBook(context.Background(), "tok", 0)
	require.NoError(t, err)
	assert.Len(t, book.Bids, 2)
	call, _ := mock.LastCall("watchOrderBook")
	assert.Len(t, call.Args, 1, "zero limit is not sent")

	_, err = ex.WatchOrderBook(context.Background(), "tok", 5)
	require.NoError(t, err)
	call, _ = mock.LastCall("watchOrderBook")
	require.Len(t, call.Args, 2)
	var limit int
	require.NoError(t, call.Arg(1, &limit))
	assert.Equal(t, 5, limit)
}

func TestWatchTrades_PositionalArgs(t *testing.T) {
	tests := []struct {
		name  string
		since int64
		limit int
		want  string
	}{
		{name: "none", want: `["tok"]`},
		{name: "since", since: 100, want: `["tok",100]`},
		{name: "limit_only_keeps_since_slot", limit: 5, want: `["tok",null,5]`},
		{name: "both", since: 100, limit: 5, want: `["tok",100,5]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockSidecar(t)
			mock.Respond("watchTrades", []any{map[string]any{"id": "t", "price": 0.5, "amount": 1}})
			ex := newTestExchange(t, mock)

			trades, err := ex.WatchTrades(context.Background(), "tok", tt.since, tt.limit)
			require.NoError(t, err)
			assert.Len(t, trades, 1)

			call, _ := mock.LastCall("watchTrades")
			got, err := json.Marshal(call.Args)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestWatchRawPayloads(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("watchPrices", map[string]any{"yes": 0.61, "no": 0.39})
	mock.Respond("watchUserTransactions", []any{map[string]any{"hash": "0xabc"}})
	mock.Respond("watchUserPositions", []any{map[string]any{"marketId": "m", "size": 3}})
	ex := newTestExchange(t, mock)

	prices, err := ex.WatchPrices(context.Background(), "0xmarket")
	require.NoError(t, err)
	assert.JSONEq(t, `{"yes":0.61,"no":0.39}`, string(prices))

	txs, err := ex.WatchUserTransactions(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"hash":"0xabc"}]`, string(txs))

	positions, err := ex.WatchUserPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 3.0, positions[0].Size)
}

func TestWatch_ContextCancelled(t *testing.T) {
	mock := newMockSidecar(t)
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	mock.Handle("watchOrderBook", func(testutil.RecordedCall) (any, error) {
		<-block
		return nil, nil
	})
	ex := newTestExchange(t, mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ex.WatchOrderBook(ctx, "tok", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
