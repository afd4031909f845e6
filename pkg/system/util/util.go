//go:build linux

package util

import (
	"math"
	"time"
)

// monotonic base for NowMillis; wall-clock adjustments never move it.
var start = time.Now()

// NowMillis returns milliseconds elapsed since program start, measured on the
// monotonic clock. All sampling-interval decisions key off this value so that
// system time changes cannot produce negative or huge deltas.
func NowMillis() int64 {
	return time.Since(start).Milliseconds()
}

type EMA struct {
	alpha, prev float64
	ok          bool
}

func NewEMA(alpha float64) *EMA { return &EMA{alpha: alpha} }
func (e *EMA) Next(v float64) float64 {
	if !e.ok {
		e.prev, e.ok = v, true
		return v
	}
	e.prev = e.alpha*v + (1-e.alpha)*e.prev
	return e.prev
}

func DeltaU64(now, prev uint64) uint64 {
	if now >= prev {
		return now - prev
	}
	// counter wrapped or prev unset
	return 0
}

func SafeDiv(n, d float64) float64 {
	const eps = 1e-12
	if d > eps || d < -eps {
		return n / d
	}
	return 0
}

func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	// guard against NaN
	if math.IsNaN(x) {
		return 0
	}
	return x
}
