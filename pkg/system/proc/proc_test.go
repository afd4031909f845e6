//go:build linux

package proc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProc is a fixture proc tree rooted in a temp dir.
type fakeProc struct {
	t    *testing.T
	root string
}

func newFakeProc(t *testing.T) *fakeProc {
	t.Helper()
	return &fakeProc{t: t, root: t.TempDir()}
}

type fakePID struct {
	pid   int
	comm  string
	state byte
	utime uint64
	stime uint64
	nice  int
	uid   int
	rssKB uint64
}

// add writes comm, stat and status files for one process. Calling it again
// with the same pid overwrites the counters, emulating the next cycle.
func (fp *fakeProc) add(p fakePID) {
	fp.t.Helper()
	dir := filepath.Join(fp.root, strconv.Itoa(p.pid))
	require.NoError(fp.t, os.MkdirAll(dir, 0o755))

	require.NoError(fp.t, os.WriteFile(filepath.Join(dir, "comm"), []byte(p.comm+"\n"), 0o644))

	stat := fmt.Sprintf("%d (%s) %c 1 %d %d 0 -1 4194304 100 0 0 0 %d %d 0 0 20 %d 1 0 100 0 0",
		p.pid, p.comm, p.state, p.pid, p.pid, p.utime, p.stime, p.nice)
	require.NoError(fp.t, os.WriteFile(filepath.Join(dir, "stat"), []byte(stat+"\n"), 0o644))

	status := fmt.Sprintf("Name:\t%s\nState:\t%c\nUid:\t%d\t%d\t%d\t%d\nVmRSS:\t%d kB\n",
		p.comm, p.state, p.uid, p.uid, p.uid, p.uid, p.rssKB)
	require.NoError(fp.t, os.WriteFile(filepath.Join(dir, "status"), []byte(status), 0o644))
}

func (fp *fakeProc) remove(pid int) {
	fp.t.Helper()
	require.NoError(fp.t, os.RemoveAll(filepath.Join(fp.root, strconv.Itoa(pid))))
}

// setStat writes a synthetic aggregate cpu line for GlobalTicks conventions.
func (fp *fakeProc) setStat(busy, idle uint64) {
	fp.t.Helper()
	line := fmt.Sprintf("cpu  %d 0 0 %d 0 0 0 0\n", busy, idle)
	require.NoError(fp.t, os.WriteFile(filepath.Join(fp.root, "stat"), []byte(line), 0o644))
}

func TestClockTicks(t *testing.T) {
	t.Setenv("CLK_TCK", "")
	assert.Equal(t, 100, ClockTicks())
	t.Setenv("CLK_TCK", "250")
	assert.Equal(t, 250, ClockTicks())
}

func TestExists(t *testing.T) {
	assert.True(t, Exists(os.Getpid()), "current PID should exist")
	assert.False(t, Exists(999999999), "absurd PID should not exist")
}

func TestReadComm(t *testing.T) {
	fp := newFakeProc(t)
	fp.add(fakePID{pid: 42, comm: "leakytab", state: 'R'})

	comm, err := readComm(fp.root, 42)
	require.NoError(t, err)
	assert.Equal(t, "leakytab", comm)

	_, err = readComm(fp.root, 43)
	require.Error(t, err)
}

func TestReadStat(t *testing.T) {
	fp := newFakeProc(t)
	fp.add(fakePID{pid: 7, comm: "worker", state: 'S', utime: 120, stime: 45, nice: -5})

	st, err := readStat(fp.root, 7)
	require.NoError(t, err)
	assert.Equal(t, byte('S'), st.state)
	assert.Equal(t, uint64(120), st.utime)
	assert.Equal(t, uint64(45), st.stime)
	assert.Equal(t, -5, st.nice)
}

func TestReadStat_CommWithSpacesAndParens(t *testing.T) {
	fp := newFakeProc(t)
	dir := filepath.Join(fp.root, "9")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	// comm containing ") " is legal; only the last ") " terminates it
	line := "9 (weird) name) R 1 9 9 0 -1 4194304 100 0 0 0 11 22 0 0 20 3 1 0 100 0 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte(line), 0o644))

	st, err := readStat(fp.root, 9)
	require.NoError(t, err)
	assert.Equal(t, byte('R'), st.state)
	assert.Equal(t, uint64(11), st.utime)
	assert.Equal(t, uint64(22), st.stime)
	assert.Equal(t, 3, st.nice)
}

func TestReadStat_Malformed(t *testing.T) {
	fp := newFakeProc(t)
	dir := filepath.Join(fp.root, "5")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte("garbage with no paren\n"), 0o644))
	_, err := readStat(fp.root, 5)
	assert.ErrorIs(t, err, ErrNoStat)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte("5 (x) R 1 2 3\n"), 0o644))
	_, err = readStat(fp.root, 5)
	assert.ErrorIs(t, err, ErrShortStat)
}

func TestReadStatus(t *testing.T) {
	fp := newFakeProc(t)
	fp.add(fakePID{pid: 11, comm: "x", state: 'R', uid: 1000, rssKB: 2048})

	uid, rss, err := readStatus(fp.root, 11)
	require.NoError(t, err)
	assert.Equal(t, 1000, uid)
	assert.Equal(t, uint64(2048), rss)
}

func TestReadStatus_MissingVmRSS(t *testing.T) {
	// kernel threads have no VmRSS line; missing optional fields read zero
	fp := newFakeProc(t)
	dir := filepath.Join(fp.root, "2")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"),
		[]byte("Name:\tkthreadd\nUid:\t0\t0\t0\t0\n"), 0o644))

	uid, rss, err := readStatus(fp.root, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, uid)
	assert.Equal(t, uint64(0), rss)
}

func TestReadGlobalTicks(t *testing.T) {
	fp := newFakeProc(t)
	fp.setStat(300, 700)

	sum, err := readGlobalTicks(fp.root)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), sum)

	_, err = readGlobalTicks(t.TempDir())
	require.Error(t, err)
}

func TestListPIDs(t *testing.T) {
	fp := newFakeProc(t)
	fp.add(fakePID{pid: 10, comm: "a", state: 'R'})
	fp.add(fakePID{pid: 22, comm: "b", state: 'R'})
	require.NoError(t, os.MkdirAll(filepath.Join(fp.root, "sys"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(fp.root, "uptime"), []byte("1 1\n"), 0o644))

	pids := listPIDs(fp.root)
	assert.ElementsMatch(t, []int{10, 22}, pids)

	assert.Nil(t, listPIDs(filepath.Join(fp.root, "missing")))
}

func TestReadLiveSelf(t *testing.T) {
	// sanity check against the real /proc for our own PID
	me := os.Getpid()
	comm, err := readComm("/proc", me)
	require.NoError(t, err)
	assert.NotEmpty(t, comm)

	st, err := readStat("/proc", me)
	require.NoError(t, err)
	assert.NotEqual(t, byte('Z'), st.state)

	uid, rss, err := readStatus("/proc", me)
	require.NoError(t, err)
	assert.Equal(t, os.Getuid(), uid)
	assert.Greater(t, rss, uint64(0))
}
