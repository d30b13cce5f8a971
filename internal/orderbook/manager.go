package orderbook

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/pkg/types"
)

// Source streams order books. *pmxt.Exchange satisfies it.
type Source interface {
	WatchOrderBook(ctx context.Context, outcomeID string, limit int) (*types.OrderBook, error)
}

// Update is one book received for an outcome.
type Update struct {
	OutcomeID  string
	Book       *types.OrderBook
	ReceivedAt time.Time
}

// Manager keeps the latest order book for each watched outcome. One watch
// loop runs per outcome; a failed watch backs off before the next call.
type Manager struct {
	source     Source
	outcomeIDs []string
	depth      int
	backoff    BackoffConfig
	logger     *zap.Logger

	books      map[string]*Update
	mu         sync.RWMutex
	updateChan chan *Update
	wg         sync.WaitGroup
}

// Config holds orderbook manager configuration.
type Config struct {
	Source     Source
	OutcomeIDs []string
	Depth      int // 0 leaves depth to the server
	Backoff    BackoffConfig
	BufferSize int
	Logger     *zap.Logger
}

// New creates a new orderbook manager.
func New(cfg *Config) (*Manager, error) {
	if cfg == nil || cfg.Source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if len(cfg.OutcomeIDs) == 0 {
		return nil, fmt.Errorf("at least one outcome id is required")
	}
	if cfg.Depth < 0 {
		return nil, fmt.Errorf("depth must be non-negative, got %d", cfg.Depth)
	}
	seen := make(map[string]struct{}, len(cfg.OutcomeIDs))
	for _, id := range cfg.OutcomeIDs {
		if id == "" {
			return nil, fmt.Errorf("outcome id cannot be empty")
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate outcome id %q", id)
		}
		seen[id] = struct{}{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	backoff := cfg.Backoff
	if backoff.InitialDelay <= 0 {
		backoff = DefaultBackoffConfig()
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1000
	}

	return &Manager{
		source:     cfg.Source,
		outcomeIDs: cfg.OutcomeIDs,
		depth:      cfg.Depth,
		backoff:    backoff,
		logger:     logger,
		books:      make(map[string]*Update, len(cfg.OutcomeIDs)),
		updateChan: make(chan *Update, buffer),
	}, nil
}

// Start launches the watch loops. They stop when ctx is cancelled.
func (m *Manager) Start(ctx context.Context) error {
	m.logger.Info("orderbook-manager-starting",
		zap.Int("outcomes", len(m.outcomeIDs)),
		zap.Int("depth", m.depth))

	for _, id := range m.outcomeIDs {
		m.wg.Add(1)
		go m.watch(ctx, id)
	}
	return nil
}

func (m *Manager) watch(ctx context.Context, outcomeID string) {
	defer m.wg.Done()
	bo := newBackoff(m.backoff)

	for {
		book, err := m.source.WatchOrderBook(ctx, outcomeID, m.depth)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			WatchErrorsTotal.Inc()
			delay := bo.next()
			m.logger.Warn("watch-orderbook-failed",
				zap.String("outcome-id", outcomeID),
				zap.Duration("backoff", delay),
				zap.Error(err))
			if errors.Is(bo.wait(ctx, delay), context.Canceled) {
				return
			}
			continue
		}

		bo.reset()
		m.store(outcomeID, book)
	}
}

func (m *Manager) store(outcomeID string, book *types.OrderBook) {
	update := &Update{OutcomeID: outcomeID, Book: book, ReceivedAt: time.Now()}
	UpdatesTotal.Inc()

	m.mu.Lock()
	m.books[outcomeID] = update
	SnapshotsTracked.Set(float64(len(m.books)))
	m.mu.Unlock()

	if bid, ok := book.BestBid(); ok {
		m.logger.Debug("orderbook-updated",
			zap.String("outcome-id", outcomeID),
			zap.Float64("best-bid", bid.Price))
	}

	select {
	case m.updateChan <- copyUpdate(update):
	default:
		m.logger.Warn("orderbook-update-channel-full",
			zap.String("outcome-id", outcomeID),
			zap.Int("buffer-size", cap(m.updateChan)))
		UpdatesDroppedTotal.Inc()
	}
}

// GetSnapshot returns a copy of the latest book for an outcome.
func (m *Manager) GetSnapshot(outcomeID string) (*types.OrderBook, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	update, ok := m.books[outcomeID]
	if !ok {
		return nil, false
	}
	return copyUpdate(update).Book, true
}

// GetAllSnapshots returns copies of every book received so far.
func (m *Manager) GetAllSnapshots() map[string]*Update {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*Update, len(m.books))
	for id, update := range m.books {
		out[id] = copyUpdate(update)
	}
	return out
}

// OutcomeIDs returns the watched outcomes.
func (m *Manager) OutcomeIDs() []string {
	return append([]string(nil), m.outcomeIDs...)
}

// UpdateChan returns the channel for receiving book updates.
func (m *Manager) UpdateChan() <-chan *Update {
	return m.updateChan
}

// Close waits for the watch loops to exit and closes the update channel.
// Cancel the Start context first.
func (m *Manager) Close() error {
	m.logger.Info("closing-orderbook-manager")
	m.wg.Wait()
	close(m.updateChan)
	m.logger.Info("orderbook-manager-closed")
	return nil
}

func copyUpdate(u *Update) *Update {
	book := &types.OrderBook{
		Bids:      append([]types.OrderLevel(nil), u.Book.Bids...),
		Asks:      append([]types.OrderLevel(nil), u.Book.Asks...),
		Timestamp: u.Book.Timestamp,
	}
	return &Update{OutcomeID: u.OutcomeID, Book: book, ReceivedAt: u.ReceivedAt}
}
