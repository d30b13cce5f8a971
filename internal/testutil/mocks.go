package testutil

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/mselser95/pmxt-go/internal/storage"
	"github.com/mselser95/pmxt-go/pkg/healthprobe"
)

// RecordedCall is one POST /api/{exchange}/{method} seen by MockSidecar.
type RecordedCall struct {
	Exchange    string
	Method      string
	Args        []json.RawMessage
	Credentials map[string]any
	Header      http.Header
}

// Arg decodes positional argument i into v.
func (c RecordedCall) Arg(i int, v any) error {
	if i >= len(c.Args) {
		return fmt.Errorf("arg %d of %d", i, len(c.Args))
	}
	return json.Unmarshal(c.Args[i], v)
}

// RawResponse makes MockSidecar write Body with Status verbatim instead of
// wrapping data in an envelope.
type RawResponse struct {
	Status int
	Body   string
}

// MethodHandler produces the data of a successful envelope. A returned
// error becomes a 500 {success:false} envelope carrying its message.
type MethodHandler func(call RecordedCall) (any, error)

// MockSidecar is an httptest server speaking the pmxt server protocol.
type MockSidecar struct {
	*httptest.Server

	health *healthprobe.HealthChecker

	mu       sync.Mutex
	healthy  bool
	handlers map[string]MethodHandler
	has      any
	hasCalls int
	calls    []RecordedCall
}

// NewMockSidecar starts a healthy mock server with no methods registered.
func NewMockSidecar() *MockSidecar {
	m := &MockSidecar{
		health:   healthprobe.New(),
		healthy:  true,
		handlers: make(map[string]MethodHandler),
	}

	r := chi.NewRouter()
	r.Get("/health", m.handleHealth)
	r.Get("/api/{exchange}/has", m.handleHas)
	r.Post("/api/{exchange}/{method}", m.handleMethod)

	m.Server = httptest.NewServer(r)
	return m
}

// Port returns the port the server listens on.
func (m *MockSidecar) Port() int {
	_, port, _ := net.SplitHostPort(m.Listener.Addr().String())
	n, _ := strconv.Atoi(port)
	return n
}

// Handle registers h for method.
func (m *MockSidecar) Handle(method string, h MethodHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method] = h
}

// Respond registers a method that always returns data.
func (m *MockSidecar) Respond(method string, data any) {
	m.Handle(method, func(RecordedCall) (any, error) { return data, nil })
}

// SetHealthy switches /health between ok and 503.
func (m *MockSidecar) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = healthy
}

// SetHas sets the capability map data. A RawResponse is written verbatim.
func (m *MockSidecar) SetHas(v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.has = v
}

// HasCalls counts GET /has requests.
func (m *MockSidecar) HasCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasCalls
}

// Calls returns every recorded call in arrival order.
func (m *MockSidecar) Calls() []RecordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastCall returns the most recent call of method.
func (m *MockSidecar) LastCall(method string) (RecordedCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].Method == method {
			return m.calls[i], true
		}
	}
	return RecordedCall{}, false
}

func (m *MockSidecar) handleHealth(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	healthy := m.healthy
	m.mu.Unlock()

	if !healthy {
		http.Error(w, "starting", http.StatusServiceUnavailable)
		return
	}
	m.health.Health()(w, r)
}

func (m *MockSidecar) handleHas(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	m.hasCalls++
	has := m.has
	m.mu.Unlock()

	if raw, ok := has.(RawResponse); ok {
		writeRaw(w, raw)
		return
	}
	if has == nil {
		has = map[string]any{}
	}
	writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": has})
}

func (m *MockSidecar) handleMethod(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
		return
	}

	var req struct {
		Args        []json.RawMessage `json:"args"`
		Credentials map[string]any    `json:"credentials"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid body"})
		return
	}

	call := RecordedCall{
		Exchange:    chi.URLParam(r, "exchange"),
		Method:      chi.URLParam(r, "method"),
		Args:        req.Args,
		Credentials: req.Credentials,
		Header:      r.Header.Clone(),
	}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	h, ok := m.handlers[call.Method]
	m.mu.Unlock()

	if !ok {
		writeEnvelope(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   fmt.Sprintf("method %s not found", call.Method),
		})
		return
	}

	data, err := h(call)
	if err != nil {
		writeEnvelope(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   map[string]any{"message": err.Error()},
		})
		return
	}
	if raw, ok := data.(RawResponse); ok {
		writeRaw(w, raw)
		return
	}
	writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

func writeEnvelope(w http.ResponseWriter, status int, env map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeRaw(w http.ResponseWriter, raw RawResponse) {
	status := raw.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, raw.Body)
}

// MockStorage is an in-memory storage.Storage.
type MockStorage struct {
	Snapshots []*storage.Snapshot
	Err       error // returned by StoreSnapshot when set
	mu        sync.Mutex
}

// NewMockStorage creates an empty MockStorage.
func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

// StoreSnapshot records snap.
func (m *MockStorage) StoreSnapshot(_ context.Context, snap *storage.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Snapshots = append(m.Snapshots, snap)
	return nil
}

// Count returns the number of stored snapshots.
func (m *MockStorage) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Snapshots)
}

// Close is a no-op.
func (m *MockStorage) Close() error {
	return nil
}
