package sidecar

import (
	"fmt"
	"math"

	"github.com/shirou/gopsutil/process"
)

// ProcessProber checks and signals OS processes by pid.
type ProcessProber interface {
	Exists(pid int) bool
	Terminate(pid int) error
}

type psProber struct{}

// NewProcessProber returns a prober backed by gopsutil.
func NewProcessProber() ProcessProber {
	return psProber{}
}

func (psProber) Exists(pid int) bool {
	if pid <= 0 || pid > math.MaxInt32 {
		return false
	}
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}

// Terminate sends SIGTERM.
func (psProber) Terminate(pid int) error {
	if pid <= 0 || pid > math.MaxInt32 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := p.Terminate(); err != nil {
		return fmt.Errorf("terminate process %d: %w", pid, err)
	}
	return nil
}
