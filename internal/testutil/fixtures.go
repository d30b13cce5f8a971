package testutil

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
)

// WireMarket returns a market as the server encodes it, with Yes/No
// outcomes priced yesPrice and 1-yesPrice.
func WireMarket(id, title string, volume24h, yesPrice float64) map[string]any {
	yes := map[string]any{
		"outcomeId": id + "-yes",
		"label":     "Yes",
		"price":     yesPrice,
		"marketId":  id,
	}
	no := map[string]any{
		"outcomeId": id + "-no",
		"label":     "No",
		"price":     1 - yesPrice,
		"marketId":  id,
	}
	return map[string]any{
		"marketId":       id,
		"title":          title,
		"description":    "Test market: " + title,
		"outcomes":       []any{yes, no},
		"volume24h":      volume24h,
		"liquidity":      1000.0,
		"url":            "https://example.com/market/" + id,
		"resolutionDate": "2026-12-31T00:00:00Z",
		"category":       "Test",
		"tags":           []string{"test"},
		"yes":            yes,
		"no":             no,
	}
}

// WireEvent returns an event holding markets.
func WireEvent(id, title string, markets ...map[string]any) map[string]any {
	ms := make([]any, len(markets))
	for i, m := range markets {
		ms[i] = m
	}
	return map[string]any{
		"id":       id,
		"title":    title,
		"slug":     id,
		"markets":  ms,
		"url":      "https://example.com/event/" + id,
		"category": "Test",
	}
}

// WireOrderBook returns a two-level book around mid.
func WireOrderBook(mid float64) map[string]any {
	return map[string]any{
		"bids": []any{
			map[string]any{"price": mid - 0.01, "size": 100.0},
			map[string]any{"price": mid - 0.02, "size": 50.0},
		},
		"asks": []any{
			map[string]any{"price": mid + 0.01, "size": 100.0},
			map[string]any{"price": mid + 0.02, "size": 50.0},
		},
		"timestamp": 1772366400000,
	}
}

// WriteLock writes a server lock file with the given fields into path,
// creating parent directories.
func WriteLock(t *testing.T, path string, fields map[string]any) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create lock dir: %v", err)
	}
	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("encode lock: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write lock: %v", err)
	}
}

// LockFor writes a lock naming the current process and m's port, so a
// Supervisor treats m as a running server.
func LockFor(t *testing.T, m *MockSidecar, token string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "server.lock")
	fields := map[string]any{
		"pid":  os.Getpid(),
		"port": m.Port(),
	}
	if token != "" {
		fields["accessToken"] = token
	}
	WriteLock(t, path, fields)
	return path
}
