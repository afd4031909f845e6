// Package proc provides lightweight, zero-dependency process sampling on
// Linux. It enumerates every process each cycle, reads the per-PID counters
// the kernel exposes, and diffs against the previous cycle to produce
// comparable per-process CPU estimates.
//
// Overview
//
//   - Store:
//     Scan() []Snapshot
//     MarkSuspended(pid int, suspended bool)
//
//     Scan builds a fresh Snapshot for every readable process and replaces
//     the PID-keyed previous set wholesale. You typically call Scan in a loop
//     on a timer. A PID that fails any required read (comm, stat, status) is
//     skipped for the cycle; partial snapshots are never emitted, and Scan
//     itself never returns an error.
//
//   - Snapshot fields:
//     PID, UID, Comm : identity and ownership
//     UTime, STime   : cumulative scheduling jiffies (monotonic)
//     CPUPercent     : derived for the window since this PID's last snapshot
//     RSS            : resident set size
//     Nice, Running  : scheduling niceness and liveness (not stopped/zombie)
//     Suspended      : governor-owned flag, carried across scans
//
//   - CPU% conventions (Convention):
//     WallClock (default) : tick delta in ms over real elapsed ms; one
//     saturated logical core reads 100% independent of core count.
//     GlobalTicks         : tick delta over the whole-system tick delta of
//     the same window (clamped to >= 1); all processes sum to <= 100%.
//
//   - Ordering:
//     SortBy(snaps, ByCPU|ByMemory) sorts descending with an ascending-PID
//     tie break, since Scan's enumeration order is not stable.
//
// A numeric PID that disappears between scans is simply absent from the next
// set; no tombstone is kept. Re-use of the same PID number after a gap cannot
// be distinguished from the original process, which is a kernel-level
// ambiguity this package does not try to solve.
package proc
