package pmxt

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/pmxt-go/internal/testutil"
	"github.com/mselser95/pmxt-go/pkg/types"
)

func TestCall_ErrorEnvelopes(t *testing.T) {
	tests := []struct {
		name       string
		response   testutil.RawResponse
		handlerErr error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "handler_error_object",
			handlerErr: errors.New("market not found"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "market not found",
		},
		{
			name:       "string_error_non_2xx",
			response:   testutil.RawResponse{Status: http.StatusBadRequest, Body: `{"success":false,"error":"bad outcome id"}`},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "bad outcome id",
		},
		{
			name:     "success_false_on_200",
			response: testutil.RawResponse{Status: http.StatusOK, Body: `{"success":false,"error":{"message":"rate limited"}}`},
			wantMsg:  "rate limited",
		},
		{
			name:     "success_false_without_error",
			response: testutil.RawResponse{Status: http.StatusOK, Body: `{"success":false}`},
			wantMsg:  "unknown error",
		},
		{
			name:       "plain_text_error",
			response:   testutil.RawResponse{Status: http.StatusBadGateway, Body: "upstream exploded\n"},
			wantStatus: http.StatusBadGateway,
			wantMsg:    "upstream exploded",
		},
		{
			name:       "empty_error_body",
			response:   testutil.RawResponse{Status: http.StatusServiceUnavailable},
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    "Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockSidecar(t)
			mock.Handle("fetchMarket", func(testutil.RecordedCall) (any, error) {
				if tt.handlerErr != nil {
					return nil, tt.handlerErr
				}
				return tt.response, nil
			})
			ex := newTestExchange(t, mock)

			_, err := ex.FetchMarket(context.Background(), &MarketLookup{MarketID: "1"})
			require.Error(t, err)

			var te *types.TransportError
			require.True(t, errors.As(err, &te), "got %T: %v", err, err)
			assert.Equal(t, "fetchMarket", te.Method)
			assert.Equal(t, tt.wantStatus, te.StatusCode)
			assert.Equal(t, tt.wantMsg, te.Message)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestCall_ConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	isolateHome(t)
	ex, err := New(context.Background(), ExchangePolymarket,
		WithAutoStart(false),
		WithBaseURL("http://"+addr))
	require.NoError(t, err)
	defer ex.Close()

	_, err = ex.FetchBalance(context.Background())
	require.Error(t, err)

	var te *types.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 0, te.StatusCode)
	assert.Empty(t, te.Message)
	assert.Error(t, te.Err)
	assert.Contains(t, err.Error(), "fetchBalance failed")
}

func TestCall_UndecodableData(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("fetchMarkets", map[string]any{"not": "a list"})
	ex := newTestExchange(t, mock)

	_, err := ex.FetchMarkets(context.Background(), nil)
	require.Error(t, err)

	var te *types.TransportError
	require.True(t, errors.As(err, &te))
	assert.Contains(t, te.Error(), "decode fetchMarkets data")
}

func TestCall_Headers(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("fetchBalance", []any{})
	ex := newTestExchange(t, mock)

	_, err := ex.FetchBalance(context.Background())
	require.NoError(t, err)

	call, ok := mock.LastCall("fetchBalance")
	require.True(t, ok)
	assert.Equal(t, "polymarket", call.Exchange)
	assert.Equal(t, "application/json", call.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", call.Header.Get("Accept"))
	_, err = uuid.Parse(call.Header.Get(RequestIDHeader))
	assert.NoError(t, err, "request id is a uuid")
	assert.Empty(t, call.Header.Get(AccessTokenHeader))
	assert.Empty(t, call.Args, "no params sends an empty args list")
}

func TestCall_Credentials(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		want  map[string]any
	}{
		{name: "none"},
		{
			name:  "funder_only_is_not_sent",
			creds: Credentials{FunderAddress: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"},
		},
		{
			name: "full",
			creds: Credentials{
				APIKey:        "key",
				PrivateKey:    hardhatKey,
				FunderAddress: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
				SignatureType: "2",
			},
			want: map[string]any{
				"apiKey":        "key",
				"privateKey":    hardhatKey,
				"funderAddress": "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
				"signatureType": float64(2),
			},
		},
		{
			name:  "named_signature_type",
			creds: Credentials{APIKey: "key", SignatureType: "gnosis-safe"},
			want:  map[string]any{"apiKey": "key", "signatureType": "gnosis-safe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockSidecar(t)
			mock.Respond("fetchPositions", []any{})
			ex := newTestExchange(t, mock, WithCredentials(tt.creds))

			_, err := ex.FetchPositions(context.Background())
			require.NoError(t, err)

			call, _ := mock.LastCall("fetchPositions")
			assert.Equal(t, tt.want, call.Credentials)
		})
	}
}

func TestCallAPI(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Respond("callApi", map[string]any{"condition_id": "0xabc", "active": true})
	ex := newTestExchange(t, mock)

	data, err := ex.CallAPI(context.Background(), "getMarket", map[string]any{"condition_id": "0xabc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"condition_id":"0xabc","active":true}`, string(data))

	call, _ := mock.LastCall("callApi")
	require.Len(t, call.Args, 2)

	var op string
	require.NoError(t, call.Arg(0, &op))
	assert.Equal(t, "getMarket", op)

	var params map[string]any
	require.NoError(t, call.Arg(1, &params))
	assert.Equal(t, "0xabc", params["condition_id"])
}

func TestCall_Generic(t *testing.T) {
	mock := newMockSidecar(t)
	mock.Handle("fetchSomething", func(call testutil.RecordedCall) (any, error) {
		return len(call.Args), nil
	})
	ex := newTestExchange(t, mock)

	data, err := ex.Call(context.Background(), "fetchSomething", "a", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, "3", string(data))
}

func TestHas(t *testing.T) {
	mock := newMockSidecar(t)
	mock.SetHas(map[string]any{
		"fetchMarkets":   true,
		"fetchOHLCV":     "emulated",
		"watchOrderBook": false,
	})
	ex := newTestExchange(t, mock)

	caps := ex.Has(context.Background())
	assert.Equal(t, SupportNative, caps["fetchMarkets"])
	assert.Equal(t, SupportEmulated, caps["fetchOHLCV"])
	assert.Equal(t, SupportNone, caps["watchOrderBook"])
	assert.True(t, caps.Supports("fetchOHLCV"))
	assert.False(t, caps.Supports("watchOrderBook"))
	assert.False(t, caps.Supports("missing"))

	again := ex.Has(context.Background())
	assert.Equal(t, caps, again)
	assert.Equal(t, 1, mock.HasCalls(), "second lookup is served from cache")
}

func TestHas_FailureNotCached(t *testing.T) {
	mock := newMockSidecar(t)
	mock.SetHas(testutil.RawResponse{Status: http.StatusInternalServerError, Body: "boom"})
	ex := newTestExchange(t, mock)

	caps := ex.Has(context.Background())
	assert.Empty(t, caps)
	assert.NotNil(t, caps)

	mock.SetHas(map[string]any{"fetchMarkets": true})
	caps = ex.Has(context.Background())
	assert.Equal(t, SupportNative, caps["fetchMarkets"])
	assert.Equal(t, 2, mock.HasCalls())
}

func TestEnvelopeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "absent", raw: ``, want: ""},
		{name: "string", raw: `"nope"`, want: "nope"},
		{name: "object", raw: `{"message":"nope","code":4}`, want: "nope"},
		{name: "number", raw: `42`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := envelope{Error: []byte(tt.raw)}
			assert.Equal(t, tt.want, env.errorMessage())
		})
	}
}
