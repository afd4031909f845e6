//go:build linux

package mem

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/life2harsh/unixpbl/pkg/types"
)

const meminfoPath = "/proc/meminfo"

// Info holds one reading of the system memory counters. A zero Total means
// the source could not be read; callers must treat it as "unknown", not as
// fully-used memory.
type Info struct {
	Total     types.Bytes
	Free      types.Bytes
	Available types.Bytes
}

// Used returns memory considered in use: total minus available. Available is
// the kernel's estimate of reclaimable headroom, which tracks perceived usage
// far better than free.
func (i Info) Used() types.Bytes {
	if i.Available > i.Total {
		return 0
	}
	return i.Total - i.Available
}

// UsedPercent returns Used as a fraction of Total in [0,1]; 0 when Total is
// unknown.
func (i Info) UsedPercent() float64 {
	if i.Total == 0 {
		return 0
	}
	return float64(i.Used()) / float64(i.Total)
}

// Reader reads system memory counters on demand. It is stateless; construct
// once and call Read every cycle.
type Reader struct {
	path string
}

func NewReader() *Reader { return &Reader{path: meminfoPath} }

// NewReaderAt reads from an alternate meminfo source, used by tests.
func NewReaderAt(path string) *Reader { return &Reader{path: path} }

// Read parses the key/value counter lines. Any open or parse failure yields a
// zero Info rather than an error.
func (r *Reader) Read() Info {
	f, err := os.Open(r.path)
	if err != nil {
		return Info{}
	}
	defer f.Close()

	var info Info
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fs := strings.Fields(sc.Text())
		if len(fs) < 2 {
			continue
		}
		kb, err := strconv.ParseUint(fs[1], 10, 64)
		if err != nil {
			continue
		}
		switch fs[0] {
		case "MemTotal:":
			info.Total = types.FromKB(kb)
		case "MemFree:":
			info.Free = types.FromKB(kb)
		case "MemAvailable:":
			info.Available = types.FromKB(kb)
		}
	}
	if sc.Err() != nil {
		return Info{}
	}
	return info
}

// History is a fixed-length ring of used-memory fractions, pushed once per
// sampling cycle and read back oldest-first. It mirrors the CPU history ring
// so both sparklines stay aligned cycle for cycle.
type History struct {
	ring   []float64
	cursor int
	filled int
}

func NewHistory(window int) *History {
	if window <= 0 {
		window = 1
	}
	return &History{ring: make([]float64, window)}
}

// Push records one used fraction, overwriting the oldest slot when full.
func (h *History) Push(usedPct float64) {
	h.ring[h.cursor] = usedPct
	h.cursor = (h.cursor + 1) % len(h.ring)
	if h.filled < len(h.ring) {
		h.filled++
	}
}

// Values returns the recorded fractions in chronological order, oldest first.
func (h *History) Values() []float64 {
	out := make([]float64, 0, h.filled)
	start := (h.cursor - h.filled + len(h.ring)) % len(h.ring)
	for i := 0; i < h.filled; i++ {
		out = append(out, h.ring[(start+i)%len(h.ring)])
	}
	return out
}
