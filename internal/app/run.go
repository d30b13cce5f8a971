package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/internal/discovery"
	"github.com/mselser95/pmxt-go/internal/orderbook"
	"github.com/mselser95/pmxt-go/internal/storage"
	"github.com/mselser95/pmxt-go/pkg/filter"
	"github.com/mselser95/pmxt-go/pkg/httpserver"
	"github.com/mselser95/pmxt-go/pkg/pmxt"
	"github.com/mselser95/pmxt-go/pkg/types"
)

// WatchOptions configures WatchOrderBooks.
type WatchOptions struct {
	OutcomeIDs  []string
	Depth       int
	MetricsPort string // empty disables the HTTP server

	// OnUpdate is called for every book received, from a single goroutine.
	OnUpdate func(*orderbook.Update)
}

// WatchOrderBooks streams books for the given outcomes until ctx is
// cancelled or SIGINT/SIGTERM arrives.
func (a *App) WatchOrderBooks(ctx context.Context, opts *WatchOptions) error {
	ctx, stop := signalContext(ctx, a.logger)
	defer stop()

	manager, err := orderbook.New(&orderbook.Config{
		Source:     a.exchange,
		OutcomeIDs: opts.OutcomeIDs,
		Depth:      opts.Depth,
		Logger:     a.logger,
	})
	if err != nil {
		return fmt.Errorf("create orderbook manager: %w", err)
	}

	if opts.MetricsPort != "" {
		stopServer := a.serveHTTP(opts.MetricsPort, manager)
		defer stopServer()
	}

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("start orderbook manager: %w", err)
	}
	a.healthChecker.SetReady(true)
	defer a.healthChecker.SetReady(false)

	a.logger.Info("watching-orderbooks",
		zap.String("exchange", a.exchange.Name()),
		zap.Strings("outcome-ids", opts.OutcomeIDs),
		zap.String("metrics-port", opts.MetricsPort))

	for {
		select {
		case <-ctx.Done():
			if err := manager.Close(); err != nil {
				a.logger.Error("orderbook-manager-close-error", zap.Error(err))
			}
			return nil
		case update := <-manager.UpdateChan():
			if opts.OnUpdate != nil && update != nil {
				opts.OnUpdate(update)
			}
		}
	}
}

// SnapshotOptions configures SnapshotMarkets.
type SnapshotOptions struct {
	Params   *pmxt.MarketParams
	Criteria filter.MarketCriteria
	Storage  storage.Storage

	// Interval repeats the snapshot until interrupted; 0 takes one.
	Interval time.Duration

	// OnNewMarket is called for each market not seen in an earlier poll.
	OnNewMarket func(*types.UnifiedMarket)
}

// SnapshotMarkets fetches markets and stores them as snapshots.
func (a *App) SnapshotMarkets(ctx context.Context, opts *SnapshotOptions) error {
	ctx, stop := signalContext(ctx, a.logger)
	defer stop()

	svc, err := discovery.New(&discovery.Config{
		Source:       a.exchange,
		Exchange:     a.exchange.Name(),
		Params:       opts.Params,
		Criteria:     opts.Criteria,
		Storage:      opts.Storage,
		Cache:        a.cache,
		PollInterval: opts.Interval,
		Logger:       a.logger,
	})
	if err != nil {
		return fmt.Errorf("create discovery service: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for m := range svc.NewMarketsChan() {
			if opts.OnNewMarket != nil {
				opts.OnNewMarket(m)
			}
		}
	}()

	err = svc.Run(ctx)
	<-done

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// serveHTTP runs the metrics server in the background. The returned func
// shuts it down and waits for it to exit.
func (a *App) serveHTTP(port string, books httpserver.BookSource) func() {
	server := a.setupHTTPServer(port, books)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(); err != nil {
			a.logger.Error("http-server-error", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http-server-shutdown-error", zap.Error(err))
		}
		wg.Wait()
	}
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
