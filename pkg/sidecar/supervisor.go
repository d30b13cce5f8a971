// Package sidecar keeps a single local pmxt server reachable. It reads the
// lock file the server writes, launches the server through its idempotent
// launcher when needed, and polls /health until the server answers.
//
// Coordination is best effort: several supervisors, even in different
// processes, may launch at once. The launcher is idempotent and health
// polling converges every caller onto whichever server won.
package sidecar

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/pkg/healthprobe"
)

// Supervisor manages the pmxt server lifecycle.
type Supervisor struct {
	baseURL        *url.URL
	configuredPort int
	lockPath       string
	launcherPath   string
	startupTimeout time.Duration
	pollInterval   time.Duration
	aliveTimeout   time.Duration
	probeTimeout   time.Duration
	prober         ProcessProber
	httpClient     *http.Client
	logger         *zap.Logger
}

// New creates a Supervisor. A nil cfg uses defaults.
func New(cfg *Config) (*Supervisor, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	full, err := cfg.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("apply sidecar defaults: %w", err)
	}
	if err := full.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sidecar config: %w", err)
	}

	u, port, err := parseBaseURL(full.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Supervisor{
		baseURL:        u,
		configuredPort: port,
		lockPath:       full.LockPath,
		launcherPath:   full.LauncherPath,
		startupTimeout: full.StartupTimeout,
		pollInterval:   full.PollInterval,
		aliveTimeout:   full.AliveTimeout,
		probeTimeout:   full.ProbeTimeout,
		prober:         full.Prober,
		httpClient:     full.HTTPClient,
		logger:         full.Logger,
	}, nil
}

// LockPath returns the lock file location.
func (s *Supervisor) LockPath() string {
	return s.lockPath
}

// EnsureRunning returns once a healthy server is reachable, launching one
// if necessary. It returns *LaunchError or *HealthTimeoutError on failure,
// or the context error when ctx ends first.
func (s *Supervisor) EnsureRunning(ctx context.Context) error {
	start := time.Now()
	defer func() {
		EnsureDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	if s.IsAlive(ctx) {
		s.logger.Debug("sidecar-alive", zap.String("lock-path", s.lockPath))
		return nil
	}

	launcher, err := s.findLauncher()
	if err != nil {
		LaunchFailuresTotal.Inc()
		s.logger.Error("sidecar-launcher-not-found", zap.Error(err))
		return err
	}

	LaunchAttemptsTotal.Inc()
	if err := s.runLauncher(ctx, launcher); err != nil {
		LaunchFailuresTotal.Inc()
		s.logger.Error("sidecar-launcher-failed",
			zap.String("launcher", launcher),
			zap.Error(err))
		return err
	}

	return s.waitForHealth(ctx)
}

// IsAlive reports whether the lock file names a running process whose
// /health answers ok. A lock whose pid is gone is removed.
func (s *Supervisor) IsAlive(ctx context.Context) bool {
	info, err := readLock(s.lockPath)
	if err != nil {
		return false
	}
	if info.PID <= 0 {
		return false
	}

	if !s.prober.Exists(info.PID) {
		s.removeStaleLock(info.PID)
		return false
	}

	return s.checkHealth(ctx, info.Port, s.aliveTimeout) == nil
}

// ServerInfo returns the current lock record.
func (s *Supervisor) ServerInfo() (*ServerInfo, bool) {
	info, err := readLock(s.lockPath)
	if err != nil {
		return nil, false
	}
	return info, true
}

// RunningPort returns the port recorded in the lock file.
func (s *Supervisor) RunningPort() (int, bool) {
	info, ok := s.ServerInfo()
	if !ok {
		return 0, false
	}
	return info.Port, true
}

// BaseURL returns the API URL for the discovered port, or the configured
// URL when there is no lock file.
func (s *Supervisor) BaseURL() string {
	port, ok := s.RunningPort()
	if !ok {
		return s.baseURL.String()
	}
	return s.urlForPort(port, "")
}

// Stop terminates the server recorded in the lock file and removes the
// lock. It is a no-op without a lock.
func (s *Supervisor) Stop(ctx context.Context) error {
	info, ok := s.ServerInfo()
	if !ok {
		return nil
	}

	if info.PID > 0 && s.prober.Exists(info.PID) {
		s.logger.Info("sidecar-stopping", zap.Int("pid", info.PID), zap.Int("port", info.Port))
		if err := s.prober.Terminate(info.PID); err != nil {
			return fmt.Errorf("terminate server: %w", err)
		}
		if err := s.waitForExit(ctx, info.PID); err != nil {
			return err
		}
	}

	if _, err := removeLock(s.lockPath); err != nil {
		return err
	}
	s.logger.Info("sidecar-stopped", zap.Int("pid", info.PID))
	return nil
}

// Restart stops the recorded server and ensures a fresh one is running.
func (s *Supervisor) Restart(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return fmt.Errorf("stop server: %w", err)
	}
	return s.EnsureRunning(ctx)
}

// waitForHealth polls /health until ok or the startup budget runs out. The
// port is re-read from the lock file on every tick since the server may
// bind something other than the configured port.
func (s *Supervisor) waitForHealth(ctx context.Context) error {
	pollCtx, cancel := context.WithTimeout(ctx, s.startupTimeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var lastErr error
	var port int
	for {
		port = s.pollPort()
		lastErr = s.checkHealth(pollCtx, port, s.probeTimeout)
		if lastErr == nil {
			s.logger.Info("sidecar-healthy", zap.Int("port", port))
			return nil
		}

		select {
		case <-pollCtx.Done():
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("wait for server health: %w", err)
			}
			s.logger.Error("sidecar-health-timeout",
				zap.Int("port", port),
				zap.Duration("timeout", s.startupTimeout),
				zap.Error(lastErr))
			return &HealthTimeoutError{Timeout: s.startupTimeout, Port: port, LastErr: lastErr}
		case <-ticker.C:
		}
	}
}

func (s *Supervisor) waitForExit(ctx context.Context, pid int) error {
	ctx, cancel := context.WithTimeout(ctx, s.startupTimeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for s.prober.Exists(pid) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for server pid %d to exit: %w", pid, ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}

func (s *Supervisor) pollPort() int {
	if port, ok := s.RunningPort(); ok {
		return port
	}
	return s.configuredPort
}

func (s *Supervisor) checkHealth(ctx context.Context, port int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := healthprobe.Probe(ctx, s.httpClient, s.urlForPort(port, "/health"))
	if err != nil {
		HealthProbesTotal.WithLabelValues("fail").Inc()
		s.logger.Debug("sidecar-health-probe-failed", zap.Int("port", port), zap.Error(err))
		return err
	}
	HealthProbesTotal.WithLabelValues("ok").Inc()
	return nil
}

func (s *Supervisor) removeStaleLock(pid int) {
	removed, err := removeLock(s.lockPath)
	if err != nil {
		s.logger.Warn("sidecar-stale-lock-remove-failed", zap.Int("pid", pid), zap.Error(err))
		return
	}
	if removed {
		StaleLocksRemovedTotal.Inc()
		s.logger.Info("sidecar-stale-lock-removed",
			zap.Int("pid", pid),
			zap.String("lock-path", s.lockPath))
	}
}

// urlForPort keeps the configured scheme and host and swaps in port.
func (s *Supervisor) urlForPort(port int, path string) string {
	u := *s.baseURL
	u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	u.Path = path
	u.RawQuery = ""
	return u.String()
}
