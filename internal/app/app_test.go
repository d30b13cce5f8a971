package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mselser95/pmxt-go/internal/orderbook"
	"github.com/mselser95/pmxt-go/internal/storage"
	"github.com/mselser95/pmxt-go/internal/testutil"
	"github.com/mselser95/pmxt-go/pkg/config"
	"github.com/mselser95/pmxt-go/pkg/pmxt"
	"github.com/mselser95/pmxt-go/pkg/types"
)

func newMockSidecar(t *testing.T) *testutil.MockSidecar {
	t.Helper()
	mock := testutil.NewMockSidecar()
	t.Cleanup(mock.Close)
	return mock
}

func testConfig(t *testing.T, mock *testutil.MockSidecar) *config.Config {
	t.Helper()
	return &config.Config{
		LogLevel:           "debug",
		Exchange:           "polymarket",
		BaseURL:            mock.URL,
		AutoStart:          false,
		LockPath:           testutil.LockFor(t, mock, "secret-token"),
		StartupTimeout:     time.Second,
		HealthPollInterval: 10 * time.Millisecond,
		RequestTimeout:     5 * time.Second,
		WalletPollInterval: 10 * time.Millisecond,
		StorageMode:        "console",
	}
}

func newTestApp(t *testing.T, mock *testutil.MockSidecar, opts *Options) *App {
	t.Helper()
	a, err := New(context.Background(), testConfig(t, mock), zaptest.NewLogger(t), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("fetchBalance", []any{})

	a := newTestApp(t, mock, &Options{Exchange: "Kalshi"})
	assert.Equal(t, "kalshi", a.Exchange().Name())
	assert.NotNil(t, a.Supervisor())
	assert.NotNil(t, a.Config())
	assert.NotNil(t, a.Logger())

	_, err := a.Exchange().FetchBalance(context.Background())
	require.NoError(t, err)

	call, ok := mock.LastCall("fetchBalance")
	require.True(t, ok)
	assert.Equal(t, "kalshi", call.Exchange)
	assert.Equal(t, "secret-token", call.Header.Get(pmxt.AccessTokenHeader))
}

func TestNew_RequireCredentials(t *testing.T) {
	mock := newMockSidecar(t)
	cfg := testConfig(t, mock)

	_, err := New(context.Background(), cfg, zaptest.NewLogger(t), &Options{RequireCredentials: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials configured")

	cfg.PrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	a, err := New(context.Background(), cfg, zaptest.NewLogger(t), &Options{RequireCredentials: true})
	require.NoError(t, err)
	defer a.Close()

	addr, err := a.Credentials().SignerAddress()
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", addr.Hex())
}

func TestNew_InvalidCredentials(t *testing.T) {
	mock := newMockSidecar(t)
	cfg := testConfig(t, mock)
	cfg.FunderAddress = "not-an-address"

	_, err := New(context.Background(), cfg, zaptest.NewLogger(t), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup exchange")
}

func TestNewStorage_Console(t *testing.T) {
	cfg := &config.Config{StorageMode: "console"}
	s, err := NewStorage(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &storage.ConsoleStorage{}, s)
	assert.NoError(t, s.Close())
}

func TestSnapshotMarkets(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("fetchMarkets", []any{
		testutil.WireMarket("1", "Will Trump win?", 50000, 0.6),
		testutil.WireMarket("2", "Bitcoin $100k?", 75000, 0.3),
	})
	a := newTestApp(t, mock, nil)
	store := testutil.NewMockStorage()

	var ids []string
	err := a.SnapshotMarkets(context.Background(), &SnapshotOptions{
		Params:  &pmxt.MarketParams{Limit: 10},
		Storage: store,
		OnNewMarket: func(m *types.UnifiedMarket) {
			ids = append(ids, m.MarketID)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids)
	require.Equal(t, 1, store.Count())
	assert.Equal(t, "polymarket", store.Snapshots[0].Exchange)
}

func TestSnapshotMarkets_FetchError(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("fetchMarkets", testutil.RawResponse{Status: 500, Body: "boom"})
	a := newTestApp(t, mock, nil)

	err := a.SnapshotMarkets(context.Background(), &SnapshotOptions{Storage: testutil.NewMockStorage()})
	require.Error(t, err)
	var te *types.TransportError
	assert.ErrorAs(t, err, &te)
}

func TestWatchOrderBooks(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("watchOrderBook", testutil.WireOrderBook(0.6))
	a := newTestApp(t, mock, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	seen := map[string]int{}
	err := a.WatchOrderBooks(ctx, &WatchOptions{
		OutcomeIDs:  []string{"1-yes", "1-no"},
		Depth:       10,
		MetricsPort: "0",
		OnUpdate: func(u *orderbook.Update) {
			mu.Lock()
			defer mu.Unlock()
			seen[u.OutcomeID]++
			if seen["1-yes"] > 0 && seen["1-no"] > 0 {
				cancel()
			}
		},
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Positive(t, seen["1-yes"])
	assert.Positive(t, seen["1-no"])

	call, ok := mock.LastCall("watchOrderBook")
	require.True(t, ok)
	var depth int
	require.NoError(t, call.Arg(1, &depth))
	assert.Equal(t, 10, depth)
}

func TestWatchOrderBooks_NoOutcomes(t *testing.T) {
	mock := newMockSidecar(t)
	a := newTestApp(t, mock, nil)

	err := a.WatchOrderBooks(context.Background(), &WatchOptions{})
	assert.Error(t, err)
}
