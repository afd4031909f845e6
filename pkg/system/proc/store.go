//go:build linux

package proc

import (
	"github.com/life2harsh/unixpbl/pkg/system/util"
	"github.com/life2harsh/unixpbl/pkg/types"
)

// Convention selects the denominator used to turn per-process tick deltas
// into a CPU percentage. The two are not equivalent on multi-core hosts.
type Convention int

const (
	// WallClock divides consumed CPU milliseconds by real elapsed time, so a
	// process saturating one logical core reads 100% regardless of core count.
	WallClock Convention = iota

	// GlobalTicks divides the process tick delta by the whole-system tick
	// delta of the same window, so all processes together sum to at most 100%.
	GlobalTicks
)

// Snapshot is one process at one sampling instant. PID is the identity key
// across cycles; re-appearance of the same numeric id after a gap is
// indistinguishable from the original process.
type Snapshot struct {
	PID  int
	UID  int
	Comm string

	// Cumulative scheduling counters, jiffies.
	UTime uint64
	STime uint64

	// CPUPercent is derived from the tick delta since the previous snapshot
	// of the same PID; 0 when that PID has no baseline yet.
	CPUPercent float64

	RSS  types.Bytes
	Nice int

	// Running is false for stopped (T) and zombie (Z) processes.
	Running bool

	// Suspended is true while the resource governor has this process
	// stopped. It is controller-owned state, carried across scans, never
	// derived from the kernel.
	Suspended bool
}

// Store enumerates all processes each cycle and diffs against the previous
// cycle's snapshot set to estimate per-process CPU utilization. It owns the
// PID-keyed state between cycles; the previous set is replaced wholesale
// after every scan.
type Store struct {
	root       string
	now        func() int64
	ticks      int
	convention Convention

	prev       map[int]Snapshot
	prevTimeMs int64
	prevGlobal uint64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithProcRoot points the store at an alternate proc filesystem, used by
// tests with fixture trees.
func WithProcRoot(root string) StoreOption { return func(s *Store) { s.root = root } }

// WithClock injects the millisecond clock used for wall-clock deltas.
func WithClock(now func() int64) StoreOption { return func(s *Store) { s.now = now } }

// WithConvention selects the CPU-percentage denominator. WallClock is the
// default.
func WithConvention(c Convention) StoreOption { return func(s *Store) { s.convention = c } }

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		root:  "/proc",
		now:   util.NowMillis,
		ticks: ClockTicks(),
		prev:  make(map[int]Snapshot),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scan builds a fresh snapshot of every readable process. A PID that fails
// any required read (typically a process that exited mid-scan) is skipped
// entirely for this cycle; partial data is never emitted. Scan never fails:
// an unreadable proc root simply yields an empty set.
//
// Output ordering follows directory enumeration and is not guaranteed
// stable; use SortBy for display.
func (s *Store) Scan() []Snapshot {
	nowMs := s.now()
	wallMs := nowMs - s.prevTimeMs
	if wallMs < 1 {
		wallMs = 1
	}

	var dGlobal uint64
	if s.convention == GlobalTicks {
		if g, err := readGlobalTicks(s.root); err == nil {
			dGlobal = util.DeltaU64(g, s.prevGlobal)
			s.prevGlobal = g
		}
		if dGlobal < 1 {
			dGlobal = 1
		}
	}

	pids := listPIDs(s.root)
	next := make(map[int]Snapshot, len(pids))
	out := make([]Snapshot, 0, len(pids))

	for _, pid := range pids {
		comm, err := readComm(s.root, pid)
		if err != nil {
			continue
		}
		st, err := readStat(s.root, pid)
		if err != nil {
			continue
		}
		uid, rssKB, err := readStatus(s.root, pid)
		if err != nil {
			continue
		}

		snap := Snapshot{
			PID:     pid,
			UID:     uid,
			Comm:    comm,
			UTime:   st.utime,
			STime:   st.stime,
			RSS:     types.FromKB(rssKB),
			Nice:    st.nice,
			Running: st.state != 'T' && st.state != 'Z',
		}

		if p, ok := s.prev[pid]; ok {
			dTicks := util.DeltaU64(st.utime, p.UTime) + util.DeltaU64(st.stime, p.STime)
			switch s.convention {
			case GlobalTicks:
				snap.CPUPercent = float64(dTicks) * 100 / float64(dGlobal)
			default:
				cpuMs := float64(dTicks) * 1000 / float64(s.ticks)
				snap.CPUPercent = cpuMs * 100 / float64(wallMs)
			}
			snap.Suspended = p.Suspended
		}

		next[pid] = snap
		out = append(out, snap)
	}

	s.prev = next
	s.prevTimeMs = nowMs
	return out
}

// MarkSuspended records governor-owned suspension state for a PID so the
// flag survives the next scan. Unknown PIDs are ignored.
func (s *Store) MarkSuspended(pid int, suspended bool) {
	if snap, ok := s.prev[pid]; ok {
		snap.Suspended = suspended
		s.prev[pid] = snap
	}
}
