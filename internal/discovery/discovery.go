// Package discovery polls an exchange for markets, stores each poll as a
// snapshot and reports markets it has not seen before.
package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/internal/storage"
	"github.com/mselser95/pmxt-go/pkg/cache"
	"github.com/mselser95/pmxt-go/pkg/filter"
	"github.com/mselser95/pmxt-go/pkg/pmxt"
	"github.com/mselser95/pmxt-go/pkg/types"
)

const (
	marketCacheTTL    = 24 * time.Hour
	defaultBufferSize = 100
)

// MarketSource fetches markets. *pmxt.Exchange satisfies it.
type MarketSource interface {
	FetchMarkets(ctx context.Context, params *pmxt.MarketParams) ([]types.UnifiedMarket, error)
}

// Service discovers new markets by polling a MarketSource.
type Service struct {
	source       MarketSource
	exchange     string
	params       *pmxt.MarketParams
	criteria     filter.MarketCriteria
	storage      storage.Storage
	cache        cache.Cache
	pollInterval time.Duration
	seenTTL      time.Duration
	logger       *zap.Logger
	now          func() time.Time

	// seen maps market id to the time it was delivered.
	seen         map[string]time.Time
	mu           sync.RWMutex
	newMarketsCh chan *types.UnifiedMarket
}

// Config holds discovery service configuration.
type Config struct {
	Source   MarketSource
	Exchange string
	Params   *pmxt.MarketParams

	// Criteria, when set, narrows every poll locally.
	Criteria filter.MarketCriteria

	// Storage, when set, receives one snapshot per poll.
	Storage storage.Storage

	// Cache, when set, keeps each discovered market by id.
	Cache cache.Cache

	PollInterval time.Duration

	// SeenTTL is how long a delivered market is not reported again.
	// Defaults to 24h.
	SeenTTL time.Duration

	// BufferSize is the capacity of the new markets channel. Defaults to 100.
	BufferSize int

	Logger *zap.Logger
}

// New creates a new discovery service.
func New(cfg *Config) (*Service, error) {
	if cfg == nil || cfg.Source == nil {
		return nil, fmt.Errorf("market source cannot be nil")
	}
	if cfg.PollInterval < 0 {
		return nil, fmt.Errorf("poll interval must not be negative")
	}
	if cfg.SeenTTL < 0 {
		return nil, fmt.Errorf("seen ttl must not be negative")
	}
	if cfg.BufferSize < 0 {
		return nil, fmt.Errorf("buffer size must not be negative")
	}

	seenTTL := cfg.SeenTTL
	if seenTTL == 0 {
		seenTTL = marketCacheTTL
	}
	bufferSize := cfg.BufferSize
	if bufferSize == 0 {
		bufferSize = defaultBufferSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		source:       cfg.Source,
		exchange:     cfg.Exchange,
		params:       cfg.Params,
		criteria:     cfg.Criteria,
		storage:      cfg.Storage,
		cache:        cfg.Cache,
		pollInterval: cfg.PollInterval,
		seenTTL:      seenTTL,
		logger:       logger,
		now:          time.Now,
		seen:         make(map[string]time.Time),
		newMarketsCh: make(chan *types.UnifiedMarket, bufferSize),
	}, nil
}

// Run polls until ctx is cancelled. A zero poll interval polls once and
// returns. The new markets channel is closed when Run returns.
func (s *Service) Run(ctx context.Context) error {
	defer close(s.newMarketsCh)

	s.logger.Info("discovery-service-starting",
		zap.String("exchange", s.exchange),
		zap.Duration("poll-interval", s.pollInterval))

	if s.pollInterval == 0 {
		_, err := s.Poll(ctx)
		return err
	}

	if _, err := s.Poll(ctx); err != nil {
		s.logger.Error("initial-poll-failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("discovery-service-stopping")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Poll(ctx); err != nil {
				s.logger.Error("poll-failed", zap.Error(err))
			}
		}
	}
}

// Poll fetches markets once, stores the snapshot and returns the markets
// kept by the criteria.
func (s *Service) Poll(ctx context.Context) ([]types.UnifiedMarket, error) {
	start := time.Now()
	defer func() {
		PollDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	markets, err := s.source.FetchMarkets(ctx, s.params)
	if err != nil {
		PollErrorsTotal.Inc()
		return nil, fmt.Errorf("fetch markets: %w", err)
	}
	if s.criteria != nil {
		markets = filter.Markets(markets, s.criteria)
	}
	MarketsDiscoveredTotal.Add(float64(len(markets)))

	if s.storage != nil {
		if err := s.storage.StoreSnapshot(ctx, storage.NewSnapshot(s.exchange, markets)); err != nil {
			PollErrorsTotal.Inc()
			return markets, fmt.Errorf("store snapshot: %w", err)
		}
	}

	newMarkets := s.identifyNewMarkets(markets)
	delivered := 0
	for _, m := range newMarkets {
		s.cacheMarket(m)

		select {
		case s.newMarketsCh <- m:
			// Only delivered markets count as seen; dropped ones are
			// reported again by the next poll.
			s.markSeen(m.MarketID)
			delivered++
			NewMarketsTotal.Inc()
			s.logger.Info("new-market-discovered",
				zap.String("market-id", m.MarketID),
				zap.String("title", m.Title))
		default:
			s.logger.Warn("new-markets-channel-full",
				zap.String("market-id", m.MarketID))
		}
	}

	s.logger.Debug("poll-complete",
		zap.Int("total-markets", len(markets)),
		zap.Int("new-markets", len(newMarkets)),
		zap.Int("delivered", delivered),
		zap.Duration("duration", time.Since(start)))

	return markets, nil
}

// identifyNewMarkets returns markets not delivered within the seen TTL,
// once per id, and forgets expired entries.
func (s *Service) identifyNewMarkets(markets []types.UnifiedMarket) []*types.UnifiedMarket {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, at := range s.seen {
		if now.Sub(at) >= s.seenTTL {
			delete(s.seen, id)
		}
	}

	var out []*types.UnifiedMarket
	batch := make(map[string]struct{}, len(markets))
	for i := range markets {
		m := &markets[i]
		if m.MarketID == "" {
			continue
		}
		if _, ok := s.seen[m.MarketID]; ok {
			continue
		}
		if _, ok := batch[m.MarketID]; ok {
			continue
		}
		batch[m.MarketID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func (s *Service) markSeen(id string) {
	s.mu.Lock()
	s.seen[id] = s.now()
	s.mu.Unlock()
}

// NewMarketsChan returns the channel for receiving new markets.
func (s *Service) NewMarketsChan() <-chan *types.UnifiedMarket {
	return s.newMarketsCh
}

// SeenCount returns how many distinct markets have been discovered.
func (s *Service) SeenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

func (s *Service) cacheMarket(m *types.UnifiedMarket) {
	if s.cache == nil {
		return
	}
	if !s.cache.Set(m.MarketID, m, marketCacheTTL) {
		s.logger.Warn("failed-to-cache-market", zap.String("market-id", m.MarketID))
	}
}

// GetMarket returns a discovered market from the cache.
func (s *Service) GetMarket(marketID string) *types.UnifiedMarket {
	if s.cache == nil {
		return nil
	}

	value, found := s.cache.Get(marketID)
	if !found {
		return nil
	}

	m, ok := value.(*types.UnifiedMarket)
	if !ok {
		s.logger.Warn("invalid-market-type-in-cache", zap.String("market-id", marketID))
		return nil
	}
	return m
}
