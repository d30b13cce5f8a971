package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/pkg/wallet"
)

// TrackOptions configures TrackWallet.
type TrackOptions struct {
	MetricsPort string // empty disables the HTTP server
	Once        bool   // poll a single time and return

	OnSnapshot func(*wallet.Snapshot)
}

// WalletAddress is the address checked on chain: the funder when
// configured, otherwise the signer derived from the private key. ok is
// false when neither is available.
func (a *App) WalletAddress() (common.Address, bool) {
	if a.cfg.FunderAddress != "" {
		return common.HexToAddress(a.cfg.FunderAddress), true
	}
	if a.cfg.PrivateKey != "" {
		addr, err := a.Credentials().SignerAddress()
		if err == nil {
			return addr, true
		}
	}
	return common.Address{}, false
}

// NewWalletTracker builds a tracker over the exchange account. On-chain
// reads are enabled when POLYGON_RPC_URL is set and an address is known.
func (a *App) NewWalletTracker() (*wallet.Tracker, error) {
	cfg := &wallet.Config{
		Account:      a.exchange,
		PollInterval: a.cfg.WalletPollInterval,
		Logger:       a.logger,
	}

	if a.cfg.RPCURL != "" {
		if addr, ok := a.WalletAddress(); ok {
			chain, err := wallet.NewChainClient(&wallet.ChainConfig{RPCURL: a.cfg.RPCURL, Logger: a.logger})
			if err != nil {
				return nil, fmt.Errorf("create chain client: %w", err)
			}
			cfg.Chain = chain
			cfg.Address = addr
		} else {
			a.logger.Warn("wallet-address-unknown", zap.String("reason", "no funder address or private key"))
		}
	}

	tracker, err := wallet.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create wallet tracker: %w", err)
	}
	return tracker, nil
}

// TrackWallet polls balances and positions until interrupted, or once.
func (a *App) TrackWallet(ctx context.Context, opts *TrackOptions) error {
	tracker, err := a.NewWalletTracker()
	if err != nil {
		return err
	}

	if opts.Once {
		snap, err := tracker.Poll(ctx)
		if err != nil {
			return fmt.Errorf("poll wallet: %w", err)
		}
		if opts.OnSnapshot != nil {
			opts.OnSnapshot(snap)
		}
		return nil
	}

	ctx, stop := signalContext(ctx, a.logger)
	defer stop()

	if opts.MetricsPort != "" {
		stopServer := a.serveHTTP(opts.MetricsPort, nil)
		defer stopServer()
	}
	a.healthChecker.SetReady(true)
	defer a.healthChecker.SetReady(false)

	err = tracker.Run(ctx, opts.OnSnapshot)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
