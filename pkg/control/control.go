//go:build linux

// Package control issues OS signals and priority changes against observed
// process ids. It keeps no state of its own: every action is fire-and-forget,
// and the only feedback channel is the target's state on the next scan cycle.
package control

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/life2harsh/unixpbl/pkg/system/proc"
)

const (
	// DefaultGrace is how long Terminate waits between SIGTERM and SIGKILL.
	DefaultGrace = 200 * time.Millisecond

	niceMin = -20
	niceMax = 19
)

// Controller sends signals and priority adjustments. The zero value is not
// usable; construct with New.
type Controller struct {
	grace time.Duration
}

func New() *Controller { return &Controller{grace: DefaultGrace} }

// NewWithGrace overrides the termination grace delay, used by tests.
func NewWithGrace(grace time.Duration) *Controller { return &Controller{grace: grace} }

// Terminate asks pid to exit with SIGTERM, then escalates to SIGKILL if the
// process still exists after the grace delay. Best-effort: permission
// failures are swallowed.
func (c *Controller) Terminate(pid int) {
	_ = unix.Kill(pid, unix.SIGTERM)
	time.Sleep(c.grace)
	if proc.Exists(pid) {
		_ = unix.Kill(pid, unix.SIGKILL)
	}
}

// Suspend stops pid with SIGSTOP. The error is returned so the governor can
// avoid marking a process it failed to stop; interactive callers may ignore it.
func (c *Controller) Suspend(pid int) error {
	return unix.Kill(pid, unix.SIGSTOP)
}

// Resume continues pid with SIGCONT.
func (c *Controller) Resume(pid int) error {
	return unix.Kill(pid, unix.SIGCONT)
}

// ToggleStopped suspends pid when currentlyRunning, resumes it otherwise.
// The caller owns keeping its cached running flag in sync; the engine does
// not re-verify until the next scan.
func (c *Controller) ToggleStopped(pid int, currentlyRunning bool) {
	if currentlyRunning {
		_ = c.Suspend(pid)
	} else {
		_ = c.Resume(pid)
	}
}

// Renice adds delta to pid's nice value, clamped to the valid range. When the
// current priority cannot be read (process gone, no permission) the call is a
// no-op.
func (c *Controller) Renice(pid int, delta int) {
	prio, err := unix.Getpriority(unix.PRIO_PROCESS, pid)
	if err != nil {
		return
	}
	// the raw syscall encodes priority as 20-nice to stay non-negative
	nice := 20 - prio + delta
	if nice < niceMin {
		nice = niceMin
	}
	if nice > niceMax {
		nice = niceMax
	}
	_ = unix.Setpriority(unix.PRIO_PROCESS, pid, nice)
}
