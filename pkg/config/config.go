// Package config loads uxmon's optional YAML configuration. A missing file
// yields the defaults; command-line flags override whatever was loaded.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML can express intervals as "250ms" or
// "1.5s" rather than raw nanosecond integers.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config holds every user-tunable knob.
//
// Units:
//   - intervals: Go durations ("250ms", "1.5s")
//   - EMA weights: [0..1], 1 disables smoothing
//   - governor thresholds: CPU in percent, memory in megabytes
type Config struct {
	// Sampling cadence. The CPU counters and the process table run on
	// independent timers.
	CPUInterval  Duration `yaml:"cpu_interval"`
	ProcInterval Duration `yaml:"proc_interval"`

	// HistoryWindow is the per-core utilization ring length, in samples.
	HistoryWindow int `yaml:"history_window"`

	EMATotal float64 `yaml:"ema_total"`
	EMACore  float64 `yaml:"ema_core"`

	// CPUPercentMode selects the per-process CPU% convention:
	// "wall" (default) or "ticks".
	CPUPercentMode string `yaml:"cpu_percent_mode"`

	Governor GovernorConfig `yaml:"governor"`

	// LogFile receives slog output; empty discards logs (the TUI owns the
	// terminal).
	LogFile string `yaml:"log_file"`
}

// GovernorConfig tunes the resource-governance policy loop.
type GovernorConfig struct {
	CPUThresholdPct float64  `yaml:"cpu_threshold_pct"`
	MemThresholdMB  uint64   `yaml:"mem_threshold_mb"`
	Priorities      []string `yaml:"priorities"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		CPUInterval:    Duration(250 * time.Millisecond),
		ProcInterval:   Duration(1500 * time.Millisecond),
		HistoryWindow:  120,
		EMATotal:       0.2,
		EMACore:        0.2,
		CPUPercentMode: "wall",
		Governor: GovernorConfig{
			CPUThresholdPct: 10,
			MemThresholdMB:  500,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error; a
// present-but-invalid file is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.CPUInterval <= 0 || c.ProcInterval <= 0 {
		return fmt.Errorf("config: intervals must be positive")
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("config: history_window must be positive")
	}
	if c.EMATotal < 0 || c.EMATotal > 1 || c.EMACore < 0 || c.EMACore > 1 {
		return fmt.Errorf("config: ema weights must be in [0,1]")
	}
	switch c.CPUPercentMode {
	case "wall", "ticks":
	default:
		return fmt.Errorf("config: cpu_percent_mode must be %q or %q", "wall", "ticks")
	}
	return nil
}
