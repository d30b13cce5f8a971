package sidecar

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPort is the port the pmxt server binds when nothing else is
	// recorded in the lock file.
	DefaultPort = 3847

	// DefaultBaseURL is where the server is expected before a lock file
	// says otherwise.
	DefaultBaseURL = "http://localhost:3847"

	// LauncherName is the idempotent start script shipped with the server.
	LauncherName = "pmxt-ensure-server"

	DefaultStartupTimeout = 10 * time.Second
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultAliveTimeout   = 1 * time.Second
	DefaultProbeTimeout   = 2 * time.Second
)

// Config holds Supervisor configuration. Zero values take defaults.
type Config struct {
	BaseURL        string
	LockPath       string // defaults to ~/.pmxt/server.lock
	LauncherPath   string // explicit launcher; skips discovery when set
	StartupTimeout time.Duration
	PollInterval   time.Duration
	AliveTimeout   time.Duration
	ProbeTimeout   time.Duration
	Prober         ProcessProber
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// DefaultLockPath returns ~/.pmxt/server.lock.
func DefaultLockPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".pmxt", "server.lock"), nil
}

func (c *Config) withDefaults() (*Config, error) {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.LockPath == "" {
		p, err := DefaultLockPath()
		if err != nil {
			return nil, err
		}
		out.LockPath = p
	}
	if out.StartupTimeout == 0 {
		out.StartupTimeout = DefaultStartupTimeout
	}
	if out.PollInterval == 0 {
		out.PollInterval = DefaultPollInterval
	}
	if out.AliveTimeout == 0 {
		out.AliveTimeout = DefaultAliveTimeout
	}
	if out.ProbeTimeout == 0 {
		out.ProbeTimeout = DefaultProbeTimeout
	}
	if out.Prober == nil {
		out.Prober = NewProcessProber()
	}
	if out.HTTPClient == nil {
		out.HTTPClient = &http.Client{}
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return &out, nil
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if c.StartupTimeout < 0 {
		return fmt.Errorf("startup timeout must be positive, got %s", c.StartupTimeout)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.AliveTimeout < 0 || c.ProbeTimeout < 0 {
		return fmt.Errorf("health timeouts must be positive")
	}
	if _, _, err := parseBaseURL(c.BaseURL); err != nil {
		return err
	}
	return nil
}

// parseBaseURL returns the URL and its port, DefaultPort when the URL
// carries none.
func parseBaseURL(raw string) (*url.URL, int, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return nil, 0, fmt.Errorf("base url %q must include scheme and host", raw)
	}
	port := DefaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, 0, fmt.Errorf("parse base url port %q: %w", p, err)
		}
	}
	return u, port, nil
}
