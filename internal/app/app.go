// Package app wires configuration into the components CLI commands use.
package app

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/pkg/cache"
	"github.com/mselser95/pmxt-go/pkg/config"
	"github.com/mselser95/pmxt-go/pkg/healthprobe"
	"github.com/mselser95/pmxt-go/pkg/pmxt"
	"github.com/mselser95/pmxt-go/pkg/sidecar"
)

// App holds one configured exchange handle and the sidecar it talks to.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	supervisor    *sidecar.Supervisor
	exchange      *pmxt.Exchange
	cache         *cache.RistrettoCache
	healthChecker *healthprobe.HealthChecker
	closeOnce     sync.Once
}

// Options holds per-command overrides of the environment configuration.
type Options struct {
	Exchange string // overrides PMXT_EXCHANGE when set

	// RequireCredentials fails construction when no credential is
	// configured. Trading and account commands set it.
	RequireCredentials bool
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Exchange returns the exchange handle.
func (a *App) Exchange() *pmxt.Exchange {
	return a.exchange
}

// Supervisor returns the sidecar supervisor.
func (a *App) Supervisor() *sidecar.Supervisor {
	return a.supervisor
}

// Credentials returns the configured exchange credentials.
func (a *App) Credentials() pmxt.Credentials {
	return credentialsFrom(a.cfg)
}
