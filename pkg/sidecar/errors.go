package sidecar

import (
	"errors"
	"fmt"
	"time"
)

// ErrLauncherNotFound is wrapped by LaunchError when no launcher exists.
var ErrLauncherNotFound = errors.New(LauncherName + " not found")

const installHint = "install the server: npm install -g pmxtjs"

// LaunchError means the launcher could not be found, exited non-zero or
// timed out.
type LaunchError struct {
	Launcher string // empty when not found
	Output   string // stderr, or stdout when stderr is empty
	Err      error
}

func (e *LaunchError) Error() string {
	switch {
	case errors.Is(e.Err, ErrLauncherNotFound):
		return fmt.Sprintf("start pmxt server: %v (searched explicit path, dev checkout and PATH); %s", e.Err, installHint)
	case e.Output != "":
		return fmt.Sprintf("start pmxt server: %v: %s", e.Err, e.Output)
	default:
		return fmt.Sprintf("start pmxt server: %v", e.Err)
	}
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// HealthTimeoutError means the launcher succeeded but /health never
// reported ok within the startup budget.
type HealthTimeoutError struct {
	Timeout time.Duration
	Port    int   // last port polled
	LastErr error // last probe failure
}

func (e *HealthTimeoutError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("server failed to become healthy within %s on port %d: %v", e.Timeout, e.Port, e.LastErr)
	}
	return fmt.Sprintf("server failed to become healthy within %s on port %d", e.Timeout, e.Port)
}

func (e *HealthTimeoutError) Unwrap() error {
	return e.LastErr
}
