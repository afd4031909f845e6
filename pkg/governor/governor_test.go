//go:build linux

package governor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/life2harsh/unixpbl/pkg/system/proc"
	"github.com/life2harsh/unixpbl/pkg/types"
)

// fakeSignaller records signal calls instead of touching real processes.
type fakeSignaller struct {
	suspended []int
	resumed   []int
	failPID   int
}

func (f *fakeSignaller) Suspend(pid int) error {
	if pid == f.failPID {
		return fmt.Errorf("kill: operation not permitted")
	}
	f.suspended = append(f.suspended, pid)
	return nil
}

func (f *fakeSignaller) Resume(pid int) error {
	f.resumed = append(f.resumed, pid)
	return nil
}

// fakeMarker records MarkSuspended calls keyed by pid.
type fakeMarker struct{ flags map[int]bool }

func newFakeMarker() *fakeMarker { return &fakeMarker{flags: map[int]bool{}} }

func (m *fakeMarker) MarkSuspended(pid int, suspended bool) { m.flags[pid] = suspended }

func snap(pid int, comm string, uid int, cpu float64, rssMB uint64, running bool) proc.Snapshot {
	return proc.Snapshot{
		PID: pid, Comm: comm, UID: uid,
		CPUPercent: cpu, RSS: types.Bytes(rssMB << 20),
		Running: running,
	}
}

func TestGovernor_SuspendsHeavyBackgroundProcess(t *testing.T) {
	sig := &fakeSignaller{}
	mk := newFakeMarker()
	g := New(sig, mk, WithPriorities([]string{"build"}))
	g.SetEnabled(true)

	snaps := []proc.Snapshot{
		snap(100, "build-worker", 1000, 50, 100, true), // priority (substring match)
		snap(200, "leakytab", 1000, 1, 600, true),      // 600 MB > 500 MB
		snap(300, "tinytool", 1000, 2, 10, true),       // under both thresholds
	}
	g.Manage(snaps)

	assert.Equal(t, []int{200}, sig.suspended)
	assert.True(t, mk.flags[200])
	assert.Equal(t, 1, g.SuspendedCount())
}

func TestGovernor_CPUThreshold(t *testing.T) {
	sig := &fakeSignaller{}
	g := New(sig, newFakeMarker(), WithPriorities([]string{"build"}))
	g.SetEnabled(true)

	g.Manage([]proc.Snapshot{
		snap(1, "build", 1000, 0, 1, true),
		snap(2, "spinner", 1000, 11, 1, true), // 11% > 10%
		snap(3, "idler", 1000, 10, 1, true),   // exactly at threshold: spared
	})
	assert.Equal(t, []int{2}, sig.suspended)
}

func TestGovernor_DormantWithoutRunningPriorityProcess(t *testing.T) {
	sig := &fakeSignaller{}
	g := New(sig, newFakeMarker(), WithPriorities([]string{"build"}))
	g.SetEnabled(true)

	// priority process exists but is stopped: governor stays dormant
	g.Manage([]proc.Snapshot{
		snap(1, "build", 1000, 0, 1, false),
		snap(2, "hog", 1000, 99, 900, true),
	})
	assert.Empty(t, sig.suspended)

	// no priority list at all: also dormant
	g2 := New(sig, newFakeMarker())
	g2.SetEnabled(true)
	g2.Manage([]proc.Snapshot{snap(2, "hog", 1000, 99, 900, true)})
	assert.Empty(t, sig.suspended)
}

func TestGovernor_NeverTouchesProtectedProcesses(t *testing.T) {
	sig := &fakeSignaller{}
	g := New(sig, newFakeMarker(), WithPriorities([]string{"build"}))
	g.SetEnabled(true)

	g.Manage([]proc.Snapshot{
		snap(1, "build", 1000, 0, 1, true),
		snap(2, "rootdaemon", 0, 90, 900, true),        // superuser-owned
		snap(3, "NetworkManager", 1000, 90, 900, true), // critical
		snap(4, "gnome-shell", 1000, 90, 900, true),    // critical
		snap(5, "build-helper", 1000, 90, 900, true),   // priority itself
	})
	assert.Empty(t, sig.suspended)
}

func TestGovernor_DisabledDoesNothing(t *testing.T) {
	sig := &fakeSignaller{}
	g := New(sig, newFakeMarker(), WithPriorities([]string{"build"}))

	g.Manage([]proc.Snapshot{
		snap(1, "build", 1000, 0, 1, true),
		snap(2, "hog", 1000, 99, 900, true),
	})
	assert.Empty(t, sig.suspended, "disabled governor must not act")
}

func TestGovernor_NoDoubleSuspend(t *testing.T) {
	sig := &fakeSignaller{}
	mk := newFakeMarker()
	g := New(sig, mk, WithPriorities([]string{"build"}))
	g.SetEnabled(true)

	first := []proc.Snapshot{
		snap(1, "build", 1000, 0, 1, true),
		snap(2, "hog", 1000, 99, 900, true),
	}
	g.Manage(first)
	require.Equal(t, []int{2}, sig.suspended)

	// next cycle the store reports the carried flag; no second SIGSTOP
	second := []proc.Snapshot{
		snap(1, "build", 1000, 0, 1, true),
		{PID: 2, Comm: "hog", UID: 1000, CPUPercent: 0, RSS: types.Bytes(900 << 20), Running: false, Suspended: true},
	}
	g.Manage(second)
	assert.Equal(t, []int{2}, sig.suspended, "already-suspended process must not be signalled again")
}

func TestGovernor_DisableResumesOnlyItsOwnSuspensions(t *testing.T) {
	sig := &fakeSignaller{}
	mk := newFakeMarker()
	g := New(sig, mk, WithPriorities([]string{"build"}))
	g.SetEnabled(true)

	g.Manage([]proc.Snapshot{
		snap(1, "build", 1000, 0, 1, true),
		snap(2, "hog", 1000, 99, 900, true),
		// pid 3 was stopped by the user via the control surface, not by us
		{PID: 3, Comm: "byhand", UID: 1000, Running: false},
	})
	require.Equal(t, []int{2}, sig.suspended)

	g.SetEnabled(false)
	assert.Equal(t, []int{2}, sig.resumed, "only the governor's own suspensions are resumed")
	assert.False(t, mk.flags[2])
	assert.Equal(t, 0, g.SuspendedCount())
	assert.NotContains(t, sig.resumed, 3)
}

func TestGovernor_ResumeAllManualTrigger(t *testing.T) {
	sig := &fakeSignaller{}
	g := New(sig, newFakeMarker(), WithPriorities([]string{"build"}))
	g.SetEnabled(true)

	g.Manage([]proc.Snapshot{
		snap(1, "build", 1000, 0, 1, true),
		snap(2, "hog", 1000, 99, 900, true),
	})
	require.Equal(t, 1, g.SuspendedCount())

	g.ResumeAll()
	assert.Equal(t, []int{2}, sig.resumed)
	assert.Equal(t, 0, g.SuspendedCount())
	assert.True(t, g.Enabled(), "a manual resume does not disable the governor")
}

func TestGovernor_FailedSuspendIsNotLedgered(t *testing.T) {
	sig := &fakeSignaller{failPID: 2}
	mk := newFakeMarker()
	g := New(sig, mk, WithPriorities([]string{"build"}))
	g.SetEnabled(true)

	g.Manage([]proc.Snapshot{
		snap(1, "build", 1000, 0, 1, true),
		snap(2, "hog", 1000, 99, 900, true),
	})
	assert.Empty(t, sig.suspended)
	assert.Equal(t, 0, g.SuspendedCount())
	assert.False(t, mk.flags[2])
}

func TestGovernor_PriorityListBounds(t *testing.T) {
	g := New(&fakeSignaller{}, newFakeMarker())

	for i := 0; i < MaxPriorityEntries; i++ {
		require.True(t, g.AddPriority(fmt.Sprintf("proc-%d", i)))
	}
	assert.False(t, g.AddPriority("one-too-many"))
	assert.False(t, g.AddPriority("proc-0"), "duplicates are rejected")
	assert.False(t, g.AddPriority(""))
	assert.Len(t, g.Priorities(), MaxPriorityEntries)

	g.RemoveLastPriority()
	assert.Len(t, g.Priorities(), MaxPriorityEntries-1)
	assert.True(t, g.AddPriority("one-too-many"))
}

func TestGovernor_CustomThresholds(t *testing.T) {
	sig := &fakeSignaller{}
	g := New(sig, newFakeMarker(),
		WithPriorities([]string{"build"}),
		WithThresholds(50, types.Bytes(1<<30)))
	g.SetEnabled(true)

	g.Manage([]proc.Snapshot{
		snap(1, "build", 1000, 0, 1, true),
		snap(2, "midweight", 1000, 30, 700, true), // under raised thresholds
		snap(3, "heavy", 1000, 60, 100, true),
	})
	assert.Equal(t, []int{3}, sig.suspended)
}
