package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mselser95/pmxt-go/internal/app"
	"github.com/mselser95/pmxt-go/pkg/sidecar"
)

//nolint:gochecknoglobals // Cobra boilerplate
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage the local pmxt server",
	Long: `Inspect and control the pmxt server process shared by all clients on this
machine. The server records its pid, port and access token in a lock file
(~/.pmxt/server.lock by default, PMXT_LOCK_PATH to override).`,
}

//nolint:gochecknoglobals // Cobra boilerplate
var serverStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the server is running",
	Args:  cobra.NoArgs,
	RunE:  runServerStatus,
}

//nolint:gochecknoglobals // Cobra boilerplate
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the server unless it is already running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSupervisor(cmd, func(ctx context.Context, s *sidecar.Supervisor) error {
			if err := s.EnsureRunning(ctx); err != nil {
				return fmt.Errorf("start server: %w", err)
			}
			fmt.Printf("Server running at %s\n", s.BaseURL())
			return nil
		})
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var serverStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the server and remove its lock file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSupervisor(cmd, func(ctx context.Context, s *sidecar.Supervisor) error {
			if err := s.Stop(ctx); err != nil {
				return fmt.Errorf("stop server: %w", err)
			}
			fmt.Println("Server stopped")
			return nil
		})
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var serverRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Stop the server and start a new one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSupervisor(cmd, func(ctx context.Context, s *sidecar.Supervisor) error {
			if err := s.Restart(ctx); err != nil {
				return fmt.Errorf("restart server: %w", err)
			}
			fmt.Printf("Server restarted at %s\n", s.BaseURL())
			return nil
		})
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.AddCommand(serverStatusCmd, serverStartCmd, serverStopCmd, serverRestartCmd)
}

func withSupervisor(cmd *cobra.Command, fn func(context.Context, *sidecar.Supervisor) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	s, err := app.NewSupervisor(cfg, logger)
	if err != nil {
		return fmt.Errorf("create supervisor: %w", err)
	}
	return fn(commandContext(cmd), s)
}

func runServerStatus(cmd *cobra.Command, _ []string) error {
	return withSupervisor(cmd, func(ctx context.Context, s *sidecar.Supervisor) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintf(w, "Lock file:\t%s\n", s.LockPath())

		info, ok := s.ServerInfo()
		if !ok {
			fmt.Fprintf(w, "Status:\tnot running (no lock file)\n")
			return nil
		}

		status := "not responding"
		if s.IsAlive(ctx) {
			status = "running"
		}
		fmt.Fprintf(w, "Status:\t%s\n", status)
		fmt.Fprintf(w, "PID:\t%d\n", info.PID)
		fmt.Fprintf(w, "Port:\t%d\n", info.Port)
		fmt.Fprintf(w, "URL:\t%s\n", s.BaseURL())
		if !info.Timestamp.IsZero() {
			fmt.Fprintf(w, "Started:\t%s\n", info.Timestamp.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(w, "Access token:\t%v\n", info.AccessToken != "")
		return nil
	})
}
