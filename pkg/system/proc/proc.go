//go:build linux

package proc

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ClockTicks returns the number of jiffies (clock ticks) per second.
// It first checks the env var CLK_TCK (useful for testing), otherwise
// falls back to 100 (common default).
//
// Note: On real systems, the authoritative way is `sysconf(_SC_CLK_TCK)`,
// but calling that requires cgo. For portability in a pure-Go library,
// this simplified approach is acceptable.
func ClockTicks() int {
	v, _ := strconv.Atoi(os.Getenv("CLK_TCK"))
	if v > 0 {
		return v
	}
	return 100
}

// Exists reports whether a given PID currently exists in /proc.
// It simply checks if /proc/<pid> is a valid directory.
func Exists(pid int) bool {
	_, err := os.Stat(fmt.Sprintf("/proc/%d", pid))
	return err == nil
}

//
// Per-PID readers
//

// readComm returns the short command name from <root>/<pid>/comm, newline
// stripped.
func readComm(root string, pid int) (string, error) {
	b, err := os.ReadFile(filepath.Join(root, strconv.Itoa(pid), "comm"))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\n"), nil
}

// statFields is the set of scheduling statistics extracted from
// <root>/<pid>/stat.
type statFields struct {
	state byte   // run-state character (3rd overall field)
	utime uint64 // user CPU jiffies (14th)
	stime uint64 // system CPU jiffies (15th)
	nice  int    // nice value (19th)
}

// readStat parses <root>/<pid>/stat.
//
// Caveats:
//   - Field order is fixed, but comm (2nd field) is in parens and may contain
//     spaces. We strip everything before the closing ") " safely.
//   - utime/stime are uint64 counters (monotonic increasing).
func readStat(root string, pid int) (statFields, error) {
	f, e := os.Open(filepath.Join(root, strconv.Itoa(pid), "stat"))
	if e != nil {
		return statFields{}, e
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return statFields{}, ErrNoStat
	}
	line := sc.Text()

	// Everything before ") " is pid + comm; after that are numeric fields.
	i := strings.LastIndex(line, ") ")
	if i < 0 {
		return statFields{}, ErrNoStat
	}
	fields := strings.Fields(line[i+2:])

	// Indexes relative to fields slice (overall field number minus 3):
	// state (3rd overall) => fields[0]
	// utime (14th overall) => fields[11]
	// stime (15th overall) => fields[12]
	// nice  (19th overall) => fields[16]
	if len(fields) < 17 {
		return statFields{}, ErrShortStat
	}
	var out statFields
	out.state = fields[0][0]
	out.utime, _ = strconv.ParseUint(fields[11], 10, 64)
	out.stime, _ = strconv.ParseUint(fields[12], 10, 64)
	n, _ := strconv.ParseInt(fields[16], 10, 64)
	out.nice = int(n)
	return out, nil
}

// readStatus extracts the owning (real) user id and resident set size in kB
// from <root>/<pid>/status. Missing fields substitute zero; kernel threads
// have no VmRSS line, for example.
func readStatus(root string, pid int) (uid int, rssKB uint64, err error) {
	f, e := os.Open(filepath.Join(root, strconv.Itoa(pid), "status"))
	if e != nil {
		return 0, 0, e
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fs := strings.Fields(sc.Text())
		if len(fs) < 2 {
			continue
		}
		switch fs[0] {
		case "Uid:":
			uid, _ = strconv.Atoi(fs[1])
		case "VmRSS:":
			rssKB, _ = strconv.ParseUint(fs[1], 10, 64)
		}
	}
	return uid, rssKB, sc.Err()
}

//
// System-level readers
//

// readGlobalTicks sums the aggregate cpu line of <root>/stat. The result is a
// monotonic jiffy counter; only deltas between readings are meaningful.
func readGlobalTicks(root string) (uint64, error) {
	f, e := os.Open(filepath.Join(root, "stat"))
	if e != nil {
		return 0, e
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fs := strings.Fields(sc.Text())
		if len(fs) == 0 || fs[0] != "cpu" {
			continue
		}
		var sum uint64
		for _, s := range fs[1:] {
			v, _ := strconv.ParseUint(s, 10, 64)
			sum += v
		}
		return sum, nil
	}
	return 0, ErrNoCPU
}

// listPIDs enumerates the numeric directories of a proc root. Enumeration
// order is whatever the directory listing yields; callers needing a stable
// order must sort the resulting snapshots explicitly.
func listPIDs(root string) []int {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 {
			continue
		}
		out = append(out, pid)
	}
	return out
}
