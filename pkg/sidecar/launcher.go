package sidecar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

// launcherWaitDelay bounds how long Wait blocks on output pipes held open
// by grandchildren after the launcher itself has exited or been killed.
const launcherWaitDelay = 500 * time.Millisecond

// findLauncher resolves the launcher: explicit path, then the dev checkout
// next to this source tree, then PATH.
func (s *Supervisor) findLauncher() (string, error) {
	if s.launcherPath != "" {
		if _, err := os.Stat(s.launcherPath); err != nil {
			return "", &LaunchError{Err: fmt.Errorf("%w: %s", ErrLauncherNotFound, s.launcherPath)}
		}
		return s.launcherPath, nil
	}

	if dev := devLauncherPath(); dev != "" {
		if _, err := os.Stat(dev); err == nil {
			return dev, nil
		}
	}

	if p, err := exec.LookPath(LauncherName); err == nil {
		return p, nil
	}

	return "", &LaunchError{Err: ErrLauncherNotFound}
}

// devLauncherPath is ../../../bin/pmxt-ensure-server relative to this file.
func devLauncherPath() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "bin", LauncherName)
}

// launcherCommand returns the program and args used to run path. Script
// files and non-executable launchers go through node.
func launcherCommand(path string) (string, []string) {
	if strings.HasSuffix(path, ".js") {
		return "node", []string{path}
	}
	info, err := os.Stat(path)
	if err != nil || info.Mode()&0o111 == 0 {
		return "node", []string{path}
	}
	return path, nil
}

// runLauncher runs the launcher with no arguments under the startup budget.
func (s *Supervisor) runLauncher(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, s.startupTimeout)
	defer cancel()

	name, args := launcherCommand(path)
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = launcherWaitDelay

	s.logger.Info("sidecar-launching",
		zap.String("launcher", path),
		zap.String("command", name))

	err := cmd.Run()
	if err == nil {
		return nil
	}

	output := strings.TrimSpace(stderr.String())
	if output == "" {
		output = strings.TrimSpace(stdout.String())
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			ctxErr = fmt.Errorf("launcher timed out after %s: %w", s.startupTimeout, ctxErr)
		}
		return &LaunchError{Launcher: path, Output: output, Err: ctxErr}
	}

	return &LaunchError{Launcher: path, Output: output, Err: fmt.Errorf("run launcher: %w", err)}
}
