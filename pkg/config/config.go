package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel    string
	LogFormat   string // "json" or "console"
	MetricsPort string
	CORSOrigins []string // origins allowed to read the metrics server; empty disables CORS

	// pmxt server
	Exchange           string
	BaseURL            string
	AutoStart          bool
	LockPath           string // empty means ~/.pmxt/server.lock
	LauncherPath       string // empty means discover
	StartupTimeout     time.Duration
	HealthPollInterval time.Duration
	RequestTimeout     time.Duration

	// Exchange credentials, forwarded to the server per request
	APIKey        string
	PrivateKey    string
	FunderAddress string
	SignatureType string

	// Wallet tracking
	RPCURL             string // EVM JSON-RPC endpoint; empty skips on-chain reads
	WalletPollInterval time.Duration

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads .env when present, then configuration from environment
// variables with defaults.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", LogFormatJSON),
		MetricsPort: getEnvOrDefault("METRICS_PORT", "9090"),
		CORSOrigins: getListOrDefault("CORS_ALLOWED_ORIGINS", nil),

		Exchange:           getEnvOrDefault("PMXT_EXCHANGE", "polymarket"),
		BaseURL:            getEnvOrDefault("PMXT_BASE_URL", "http://localhost:3847"),
		AutoStart:          getBoolOrDefault("PMXT_AUTO_START", true),
		LockPath:           os.Getenv("PMXT_LOCK_PATH"),
		LauncherPath:       os.Getenv("PMXT_LAUNCHER"),
		StartupTimeout:     getDurationOrDefault("PMXT_STARTUP_TIMEOUT", 10*time.Second),
		HealthPollInterval: getDurationOrDefault("PMXT_HEALTH_POLL_INTERVAL", 100*time.Millisecond),
		RequestTimeout:     getDurationOrDefault("PMXT_REQUEST_TIMEOUT", 30*time.Second),

		APIKey:        os.Getenv("PMXT_API_KEY"),
		PrivateKey:    os.Getenv("PMXT_PRIVATE_KEY"),
		FunderAddress: os.Getenv("PMXT_FUNDER_ADDRESS"),
		SignatureType: os.Getenv("PMXT_SIGNATURE_TYPE"),

		RPCURL:             os.Getenv("POLYGON_RPC_URL"),
		WalletPollInterval: getDurationOrDefault("WALLET_POLL_INTERVAL", 30*time.Second),

		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "pmxt"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "pmxt"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "pmxt"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL %q is invalid: %w", c.LogLevel, err)
	}

	if c.LogFormat != "" && c.LogFormat != LogFormatJSON && c.LogFormat != LogFormatConsole {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}

	if c.Exchange == "" {
		return fmt.Errorf("PMXT_EXCHANGE cannot be empty")
	}

	if c.BaseURL == "" {
		return fmt.Errorf("PMXT_BASE_URL cannot be empty")
	}

	if c.StartupTimeout <= 0 {
		return fmt.Errorf("PMXT_STARTUP_TIMEOUT must be positive, got %s", c.StartupTimeout)
	}

	if c.HealthPollInterval <= 0 {
		return fmt.Errorf("PMXT_HEALTH_POLL_INTERVAL must be positive, got %s", c.HealthPollInterval)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("PMXT_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}

	if c.WalletPollInterval <= 0 {
		return fmt.Errorf("WALLET_POLL_INTERVAL must be positive, got %s", c.WalletPollInterval)
	}

	if c.StorageMode != "console" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'console' or 'postgres', got %q", c.StorageMode)
	}

	return nil
}

// HasCredentials reports whether any exchange credential is configured.
func (c *Config) HasCredentials() bool {
	return c.APIKey != "" || c.PrivateKey != "" || c.FunderAddress != "" || c.SignatureType != ""
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
