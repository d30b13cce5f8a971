package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/pkg/types"
)

// AccountSource is the part of an exchange handle the tracker reads.
type AccountSource interface {
	FetchBalance(ctx context.Context) ([]types.Balance, error)
	FetchPositions(ctx context.Context) ([]types.Position, error)
}

// Snapshot is the account state from one poll.
type Snapshot struct {
	Balances   []types.Balance
	Positions  []types.Position
	Collateral *Collateral // nil without a chain client
	Address    common.Address
	At         time.Time
}

// PositionValue sums size times current price over all positions.
func (s *Snapshot) PositionValue() float64 {
	var total float64
	for i := range s.Positions {
		total += s.Positions[i].Size * s.Positions[i].CurrentPrice
	}
	return total
}

// UnrealizedPnL sums unrealized PnL over all positions.
func (s *Snapshot) UnrealizedPnL() float64 {
	var total float64
	for i := range s.Positions {
		total += s.Positions[i].UnrealizedPnL
	}
	return total
}

// Config holds tracker configuration.
type Config struct {
	Account AccountSource

	// Chain and Address enable on-chain collateral reads. Both are optional.
	Chain   *ChainClient
	Address common.Address

	PollInterval time.Duration
	Logger       *zap.Logger
}

// Tracker polls account state and publishes it as Prometheus gauges.
type Tracker struct {
	account      AccountSource
	chain        *ChainClient
	address      common.Address
	pollInterval time.Duration
	logger       *zap.Logger
}

// New creates a new wallet tracker.
func New(cfg *Config) (*Tracker, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Account == nil {
		return nil, errors.New("account source cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}

	return &Tracker{
		account:      cfg.Account,
		chain:        cfg.Chain,
		address:      cfg.Address,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
	}, nil
}

// Run polls until ctx is cancelled, handing each snapshot to onSnapshot.
// Failed polls are logged and counted.
func (t *Tracker) Run(ctx context.Context, onSnapshot func(*Snapshot)) error {
	t.logger.Info("wallet-tracker-starting",
		zap.Duration("poll-interval", t.pollInterval),
		zap.Bool("on-chain", t.chain != nil))

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		snap, err := t.Poll(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			t.logger.Info("wallet-tracker-stopping")
			return ctx.Err()
		case err != nil:
			t.logger.Error("wallet-poll-failed", zap.Error(err))
		case onSnapshot != nil:
			onSnapshot(snap)
		}

		select {
		case <-ctx.Done():
			t.logger.Info("wallet-tracker-stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll performs a single polling cycle and updates the gauges.
func (t *Tracker) Poll(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	defer func() {
		UpdateDuration.Observe(time.Since(start).Seconds())
	}()

	snap, err := t.fetch(ctx)
	if err != nil {
		UpdateErrorsTotal.Inc()
		return nil, err
	}

	updateMetrics(snap)
	LastUpdateTimestamp.Set(float64(snap.At.Unix()))

	t.logger.Debug("wallet-poll-complete",
		zap.Int("balance-count", len(snap.Balances)),
		zap.Int("position-count", len(snap.Positions)),
		zap.Duration("duration", time.Since(start)))

	return snap, nil
}

func (t *Tracker) fetch(ctx context.Context) (*Snapshot, error) {
	balances, err := t.account.FetchBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch balance: %w", err)
	}

	positions, err := t.account.FetchPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch positions: %w", err)
	}

	snap := &Snapshot{
		Balances:  balances,
		Positions: positions,
		Address:   t.address,
		At:        time.Now(),
	}

	if t.chain != nil && t.address != (common.Address{}) {
		collateral, err := t.chain.Collateral(ctx, t.address)
		if err != nil {
			return nil, fmt.Errorf("fetch collateral: %w", err)
		}
		snap.Collateral = collateral
	}

	return snap, nil
}

func updateMetrics(snap *Snapshot) {
	for _, b := range snap.Balances {
		BalanceTotal.WithLabelValues(b.Currency).Set(b.Total)
		BalanceAvailable.WithLabelValues(b.Currency).Set(b.Available)
		BalanceLocked.WithLabelValues(b.Currency).Set(b.Locked)
	}

	OpenPositions.Set(float64(len(snap.Positions)))
	PositionValue.Set(snap.PositionValue())
	UnrealizedPnL.Set(snap.UnrealizedPnL())

	if snap.Collateral != nil {
		NativeBalance.Set(NativeUnits(snap.Collateral.Native))
		CollateralBalance.Set(TokenUnits(snap.Collateral.Token))
		CollateralAllowance.Set(TokenUnits(snap.Collateral.Allowance))
	}
}
