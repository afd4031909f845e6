//go:build linux

package cpu

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/life2harsh/unixpbl/pkg/system/util"
)

const (
	// DefaultWindow is the circular-history length in samples.
	DefaultWindow = 120

	// DefaultAlpha is the EMA weight applied to new readings. Small values
	// dampen sampling-interval jitter at the cost of responsiveness.
	DefaultAlpha = 0.2

	statPath = "/proc/stat"
)

// Totals holds one cumulative tick-counter line from the kernel stat
// interface, in the fixed field order the kernel emits. Counters are
// monotonic; only deltas between consecutive readings are meaningful.
type Totals struct {
	User, Nice, System, Idle, IOWait, IRQ, SoftIRQ, Steal uint64
}

// Sum returns the total of all tick categories.
func (t Totals) Sum() uint64 {
	return t.User + t.Nice + t.System + t.Idle + t.IOWait + t.IRQ + t.SoftIRQ + t.Steal
}

// Sampler turns cumulative tick counters into smoothed utilization fractions
// and keeps a fixed-length circular history per core.
//
// The history ring has a single write cursor shared by every core: it advances
// exactly once per Sample call, so index i across all cores' buffers always
// refers to the same sampling cycle.
type Sampler struct {
	path   string
	window int

	alphaTotal float64
	alphaCore  float64

	emaTotal *util.EMA
	emaCore  []*util.EMA

	prev   []Totals // index 0 = aggregate line, 1.. = cores
	seeded bool

	total float64
	cores []float64

	hist   [][]float64 // [core][window]
	cursor int
	filled int
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithStatPath overrides the stat source, used by tests with fixture files.
func WithStatPath(p string) Option { return func(s *Sampler) { s.path = p } }

// WithWindow sets the history ring length.
func WithWindow(w int) Option {
	return func(s *Sampler) {
		if w > 0 {
			s.window = w
		}
	}
}

// WithAlpha sets the EMA weights for the aggregate line and the per-core
// lines. Values are clamped to [0,1]; 1 disables smoothing.
func WithAlpha(total, core float64) Option {
	return func(s *Sampler) {
		s.alphaTotal = clampAlpha(total)
		s.alphaCore = clampAlpha(core)
	}
}

func clampAlpha(a float64) float64 {
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}

// NewSampler builds a Sampler and seeds it with one throwaway reading so the
// first real Sample produces a delta against live counters instead of a
// misleading full-counter spike.
func NewSampler(opts ...Option) *Sampler {
	s := &Sampler{
		path:       statPath,
		window:     DefaultWindow,
		alphaTotal: DefaultAlpha,
		alphaCore:  DefaultAlpha,
	}
	for _, o := range opts {
		o(s)
	}
	s.emaTotal = util.NewEMA(s.alphaTotal)
	s.seed()
	return s
}

func (s *Sampler) seed() {
	lines, err := readTotals(s.path)
	if err != nil || len(lines) == 0 {
		return
	}
	s.prev = lines
	s.grow(len(lines) - 1)
	s.seeded = true
}

// grow extends the per-core state to n cores without disturbing existing
// history. Cores never shrink; a core line that disappears simply stops
// receiving fresh values.
func (s *Sampler) grow(n int) {
	for len(s.cores) < n {
		s.cores = append(s.cores, 0)
		s.emaCore = append(s.emaCore, util.NewEMA(s.alphaCore))
		s.hist = append(s.hist, make([]float64, s.window))
	}
}

// Sample reads the current counters, updates smoothed utilization for the
// aggregate and every core, and pushes one slot of history. An unreadable or
// malformed source leaves all prior values in place; utilization freezes
// rather than faulting.
func (s *Sampler) Sample() {
	lines, err := readTotals(s.path)
	if err != nil || len(lines) == 0 {
		return
	}
	if !s.seeded {
		s.prev = lines
		s.grow(len(lines) - 1)
		s.seeded = true
		return
	}

	s.grow(len(lines) - 1)
	for i, now := range lines {
		var u float64
		if i < len(s.prev) {
			dt := util.DeltaU64(now.Sum(), s.prev[i].Sum())
			di := util.DeltaU64(now.Idle, s.prev[i].Idle)
			if dt > 0 {
				u = util.Clamp01(1 - float64(di)/float64(dt))
			}
		}
		// a line with no prev baseline (new core) reads 0 this cycle
		if i == 0 {
			s.total = util.Clamp01(s.emaTotal.Next(u))
		} else {
			s.cores[i-1] = util.Clamp01(s.emaCore[i-1].Next(u))
		}
	}
	s.prev = lines

	for c := range s.hist {
		s.hist[c][s.cursor] = s.cores[c]
	}
	s.cursor = (s.cursor + 1) % s.window
	if s.filled < s.window {
		s.filled++
	}
}

// Total returns the smoothed aggregate utilization in [0,1].
func (s *Sampler) Total() float64 { return s.total }

// Cores returns the smoothed per-core utilizations in [0,1]. The returned
// slice is a copy.
func (s *Sampler) Cores() []float64 {
	out := make([]float64, len(s.cores))
	copy(out, s.cores)
	return out
}

// NumCores reports how many core lines have been observed.
func (s *Sampler) NumCores() int { return len(s.cores) }

// History returns core's recorded utilization values in chronological order,
// oldest first. At most the last window values are retained; before the ring
// fills only the samples taken so far are returned. Out-of-range cores yield
// nil.
func (s *Sampler) History(core int) []float64 {
	if core < 0 || core >= len(s.hist) || s.filled == 0 {
		return nil
	}
	ring := s.hist[core]
	out := make([]float64, 0, s.filled)
	start := (s.cursor - s.filled + s.window) % s.window
	for i := 0; i < s.filled; i++ {
		out = append(out, ring[(start+i)%s.window])
	}
	return out
}

// readTotals parses every cpu line of a kernel stat file. Index 0 is the
// aggregate "cpu" line, the rest are per-core "cpuN" lines. Lines with fewer
// than the eight standard fields substitute zero for the missing counters.
func readTotals(path string) ([]Totals, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Totals
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fs := strings.Fields(sc.Text())
		if len(fs) == 0 || !strings.HasPrefix(fs[0], "cpu") {
			continue
		}
		var t Totals
		dst := []*uint64{&t.User, &t.Nice, &t.System, &t.Idle, &t.IOWait, &t.IRQ, &t.SoftIRQ, &t.Steal}
		for i, p := range dst {
			if i+1 < len(fs) {
				*p, _ = strconv.ParseUint(fs[i+1], 10, 64)
			}
		}
		out = append(out, t)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
