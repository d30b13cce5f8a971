package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/internal/storage"
	"github.com/mselser95/pmxt-go/pkg/cache"
	"github.com/mselser95/pmxt-go/pkg/config"
	"github.com/mselser95/pmxt-go/pkg/healthprobe"
	"github.com/mselser95/pmxt-go/pkg/httpserver"
	"github.com/mselser95/pmxt-go/pkg/pmxt"
	"github.com/mselser95/pmxt-go/pkg/sidecar"
)

// New builds the supervisor and exchange handle. With auto-start the
// sidecar is launched when it is not already running.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	exchangeName := cfg.Exchange
	if opts.Exchange != "" {
		exchangeName = opts.Exchange
	}

	if opts.RequireCredentials && !cfg.HasCredentials() {
		return nil, fmt.Errorf("no credentials configured: set PMXT_PRIVATE_KEY or PMXT_API_KEY")
	}

	supervisor, err := NewSupervisor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup supervisor: %w", err)
	}

	c, err := setupCache(logger)
	if err != nil {
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	exchange, err := setupExchange(ctx, cfg, logger, exchangeName, supervisor, c)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("setup exchange: %w", err)
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		supervisor:    supervisor,
		exchange:      exchange,
		cache:         c,
		healthChecker: healthprobe.New(),
	}, nil
}

// NewSupervisor builds a sidecar supervisor from configuration.
func NewSupervisor(cfg *config.Config, logger *zap.Logger) (*sidecar.Supervisor, error) {
	return sidecar.New(&sidecar.Config{
		BaseURL:        cfg.BaseURL,
		LockPath:       cfg.LockPath,
		LauncherPath:   cfg.LauncherPath,
		StartupTimeout: cfg.StartupTimeout,
		PollInterval:   cfg.HealthPollInterval,
		Logger:         logger,
	})
}

func setupCache(logger *zap.Logger) (*cache.RistrettoCache, error) {
	return cache.NewRistrettoCache(cache.DefaultRistrettoConfig(logger))
}

func setupExchange(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	name string,
	supervisor *sidecar.Supervisor,
	c cache.Cache,
) (*pmxt.Exchange, error) {
	return pmxt.New(ctx, name,
		pmxt.WithBaseURL(cfg.BaseURL),
		pmxt.WithAutoStart(cfg.AutoStart),
		pmxt.WithSupervisor(supervisor),
		pmxt.WithTimeout(cfg.RequestTimeout),
		pmxt.WithCredentials(credentialsFrom(cfg)),
		pmxt.WithCache(c),
		pmxt.WithLogger(logger),
	)
}

func credentialsFrom(cfg *config.Config) pmxt.Credentials {
	return pmxt.Credentials{
		APIKey:        cfg.APIKey,
		PrivateKey:    cfg.PrivateKey,
		FunderAddress: cfg.FunderAddress,
		SignatureType: cfg.SignatureType,
	}
}

// NewStorage returns console or postgres snapshot storage per STORAGE_MODE.
func NewStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		return storage.NewPostgresStorage(ctx, &storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	}
	return storage.NewConsoleStorage(logger), nil
}

func (a *App) setupHTTPServer(port string, books httpserver.BookSource) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:           port,
		Logger:         a.logger,
		HealthChecker:  a.healthChecker,
		Books:          books,
		AllowedOrigins: a.cfg.CORSOrigins,
	})
}
