package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/internal/app"
	"github.com/mselser95/pmxt-go/pkg/config"
)

// loadConfig loads configuration and the logger shared by every command.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

// newApp connects to the exchange named by --exchange or PMXT_EXCHANGE.
// The returned cleanup closes the handle and flushes the logger.
func newApp(cmd *cobra.Command, requireCredentials bool) (*app.App, func(), error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	exchange, _ := cmd.Flags().GetString("exchange")

	a, err := app.New(commandContext(cmd), cfg, logger, &app.Options{
		Exchange:           exchange,
		RequireCredentials: requireCredentials,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("create app: %w", err)
	}

	cleanup := func() {
		_ = a.Close()
		_ = logger.Sync()
	}
	return a, cleanup, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
