//go:build linux

// Package governor implements the automated suspend/resume policy loop. When
// enabled and a priority workload is running, it suspends non-critical,
// non-privileged processes that exceed a CPU or memory threshold, and it
// resumes exactly the processes it suspended itself.
package governor

import (
	"strings"

	"github.com/life2harsh/unixpbl/pkg/system/proc"
	"github.com/life2harsh/unixpbl/pkg/types"
)

const (
	// MaxPriorityEntries bounds the user-maintained priority list.
	MaxPriorityEntries = 10

	// DefaultCPUThreshold is the CPU percentage above which a candidate is
	// suspended.
	DefaultCPUThreshold = 10.0

	// DefaultRSSThreshold is the resident-memory size above which a
	// candidate is suspended (500 MB).
	DefaultRSSThreshold = types.Bytes(500 << 20)
)

// criticalNames are command-name substrings the governor must never suspend:
// init systems, kernel threads, display/session managers, audio/network/bus
// daemons, container/VM daemons, remote-access daemons. Matching is substring
// containment, same as the priority list.
var criticalNames = []string{
	"systemd", "init", "kernel", "kthread", "ksoftirq", "kworker",
	"Xorg", "X", "wayland", "sway", "gnome-shell", "kwin", "mutter",
	"plasmashell", "xfwm4", "openbox", "i3", "dwm", "awesome",
	"gdm", "sddm", "lightdm", "login", "getty",
	"pulseaudio", "pipewire", "wireplumber", "alsa",
	"NetworkManager", "wpa_supplicant", "dhclient", "dhcpcd",
	"dbus", "dbus-daemon", "systemd-", "udevd", "upowerd", "polkitd",
	"rtkit", "accounts-daemon", "udisksd", "bluetoothd", "cupsd", "avahi",
	"ssh", "sshd", "cron", "crond", "atd",
	"rsyslogd", "syslog", "journald",
	"dockerd", "containerd", "kubelet", "libvirtd", "virtlogd", "qemu",
	"xfce4-session", "mate-session", "cinnamon-session", "lxsession",
	"lxqt-session", "gnome-session", "kde-session",
}

// signaller is the slice of process control the governor needs.
type signaller interface {
	Suspend(pid int) error
	Resume(pid int) error
}

// marker records governor-owned suspension state so it survives scans.
type marker interface {
	MarkSuspended(pid int, suspended bool)
}

// Governor is the policy loop. Not safe for concurrent use; it is driven
// from the single sampling loop.
type Governor struct {
	sig   signaller
	store marker

	cpuThreshold float64
	rssThreshold types.Bytes

	priorities []string
	enabled    bool

	// pids this governor suspended and has not yet resumed; processes the
	// user stopped by hand are never in here.
	suspended map[int]struct{}
}

// Option configures a Governor.
type Option func(*Governor)

// WithThresholds overrides the suspension thresholds; zero values keep the
// defaults.
func WithThresholds(cpuPct float64, rss types.Bytes) Option {
	return func(g *Governor) {
		if cpuPct > 0 {
			g.cpuThreshold = cpuPct
		}
		if rss > 0 {
			g.rssThreshold = rss
		}
	}
}

// WithPriorities seeds the priority list (bounded, deduplicated).
func WithPriorities(names []string) Option {
	return func(g *Governor) {
		for _, n := range names {
			g.AddPriority(n)
		}
	}
}

func New(sig signaller, store marker, opts ...Option) *Governor {
	g := &Governor{
		sig:          sig,
		store:        store,
		cpuThreshold: DefaultCPUThreshold,
		rssThreshold: DefaultRSSThreshold,
		suspended:    make(map[int]struct{}),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// AddPriority appends a command-name substring to the priority list. It
// reports false when the list is full or the entry is already present.
func (g *Governor) AddPriority(name string) bool {
	if name == "" || len(g.priorities) >= MaxPriorityEntries {
		return false
	}
	for _, p := range g.priorities {
		if p == name {
			return false
		}
	}
	g.priorities = append(g.priorities, name)
	return true
}

// RemoveLastPriority drops the most recently added entry.
func (g *Governor) RemoveLastPriority() {
	if n := len(g.priorities); n > 0 {
		g.priorities = g.priorities[:n-1]
	}
}

// Priorities returns a copy of the current list.
func (g *Governor) Priorities() []string {
	out := make([]string, len(g.priorities))
	copy(out, g.priorities)
	return out
}

// Enabled reports whether automatic management is on.
func (g *Governor) Enabled() bool { return g.enabled }

// SuspendedCount reports how many processes the governor currently holds
// suspended.
func (g *Governor) SuspendedCount() int { return len(g.suspended) }

// SetEnabled flips automatic management. Disabling additionally resumes
// every process the governor itself suspended; processes the user stopped
// manually are left untouched.
func (g *Governor) SetEnabled(on bool) {
	if g.enabled && !on {
		g.ResumeAll()
	}
	g.enabled = on
}

// Manage runs one policy cycle over the current snapshot set. It is dormant
// until some running process matches the priority list; it then suspends any
// other running process that is not priority, not system-critical, not owned
// by the superuser, and exceeds a threshold.
func (g *Governor) Manage(snaps []proc.Snapshot) {
	if !g.enabled || len(g.priorities) == 0 {
		return
	}

	priorityRunning := false
	for _, s := range snaps {
		if s.Running && g.isPriority(s.Comm) {
			priorityRunning = true
			break
		}
	}
	if !priorityRunning {
		return
	}

	for _, s := range snaps {
		if g.isPriority(s.Comm) || isCritical(s.Comm) || s.UID == 0 {
			continue
		}
		if !s.Running || s.Suspended {
			continue
		}
		if s.CPUPercent <= g.cpuThreshold && s.RSS <= g.rssThreshold {
			continue
		}
		if g.sig.Suspend(s.PID) == nil {
			g.suspended[s.PID] = struct{}{}
			g.store.MarkSuspended(s.PID, true)
		}
	}
}

// ResumeAll resumes every governor-suspended process and clears their flags,
// regardless of current thresholds.
func (g *Governor) ResumeAll() {
	for pid := range g.suspended {
		_ = g.sig.Resume(pid)
		g.store.MarkSuspended(pid, false)
		delete(g.suspended, pid)
	}
}

func (g *Governor) isPriority(comm string) bool {
	for _, p := range g.priorities {
		if strings.Contains(comm, p) {
			return true
		}
	}
	return false
}

func isCritical(comm string) bool {
	for _, c := range criticalNames {
		if strings.Contains(comm, c) {
			return true
		}
	}
	return false
}
