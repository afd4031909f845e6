//go:build linux

package proc

import (
	"cmp"
	"slices"
)

// SortMode selects the primary sort key for a snapshot set.
type SortMode int

const (
	ByCPU SortMode = iota
	ByMemory
)

// SortBy orders snapshots in place, descending by the selected metric. Equal
// keys break ties by ascending PID, which gives a total order and keeps
// selection indexes stable across re-sorts even when many processes tie at
// exactly the same value.
func SortBy(snaps []Snapshot, mode SortMode) {
	slices.SortFunc(snaps, func(a, b Snapshot) int {
		var c int
		switch mode {
		case ByMemory:
			c = cmp.Compare(b.RSS, a.RSS)
		default:
			c = cmp.Compare(b.CPUPercent, a.CPUPercent)
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.PID, b.PID)
	})
}
