//go:build linux

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/life2harsh/unixpbl/pkg/config"
	"github.com/life2harsh/unixpbl/pkg/control"
	"github.com/life2harsh/unixpbl/pkg/governor"
	"github.com/life2harsh/unixpbl/pkg/system/cpu"
	"github.com/life2harsh/unixpbl/pkg/system/mem"
	"github.com/life2harsh/unixpbl/pkg/system/proc"
	"github.com/life2harsh/unixpbl/pkg/tui"
	"github.com/life2harsh/unixpbl/pkg/types"
)

type opts struct {
	configPath   string
	cpuInterval  time.Duration
	procInterval time.Duration
	history      int
	emaTotal     float64
	emaCore      float64
	cpuMode      string
	logPath      string
	priorities   []string
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "uxmon",
		Short: "Interactive host and process monitor",
		Long: `uxmon samples the kernel's CPU, memory and per-process counters on
independent timers, renders them as live gauges, sparklines and a sortable
process table, and exposes process control (terminate, suspend/resume,
renice) plus an automatic resource governor that protects a declared
priority workload by suspending heavy background processes.

Examples:
  uxmon
  uxmon --proc-interval 3s --priority build --priority cargo
  uxmon --config ~/.config/uxmon.yaml --log /tmp/uxmon.log`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, o)
		},
	}

	root.Flags().StringVar(&o.configPath, "config", "", "path to YAML config (missing file = defaults)")
	root.Flags().DurationVar(&o.cpuInterval, "cpu-interval", 250*time.Millisecond, "CPU sampling interval")
	root.Flags().DurationVar(&o.procInterval, "proc-interval", 1500*time.Millisecond, "process scan interval")
	root.Flags().IntVar(&o.history, "history", 120, "utilization history window, in samples")
	root.Flags().Float64Var(&o.emaTotal, "ema-total", 0.2, "EMA weight for aggregate CPU smoothing [0..1]")
	root.Flags().Float64Var(&o.emaCore, "ema-core", 0.2, "EMA weight for per-core CPU smoothing [0..1]")
	root.Flags().StringVar(&o.cpuMode, "cpu-percent-mode", "wall", `per-process CPU%: "wall" or "ticks"`)
	root.Flags().StringVar(&o.logPath, "log", "", "append logs to this file (default: discard)")
	root.Flags().StringArrayVar(&o.priorities, "priority", nil, "seed priority-process name (repeatable)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, o opts) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &cfg, o)

	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	convention := proc.WallClock
	if cfg.CPUPercentMode == "ticks" {
		convention = proc.GlobalTicks
	}

	sampler := cpu.NewSampler(
		cpu.WithWindow(cfg.HistoryWindow),
		cpu.WithAlpha(cfg.EMATotal, cfg.EMACore),
	)
	store := proc.NewStore(proc.WithConvention(convention))
	ctl := control.New()
	gov := governor.New(ctl, store,
		governor.WithThresholds(cfg.Governor.CPUThresholdPct, types.Bytes(cfg.Governor.MemThresholdMB<<20)),
		governor.WithPriorities(cfg.Governor.Priorities),
	)

	logger.Info("starting",
		"cpu_interval", time.Duration(cfg.CPUInterval),
		"proc_interval", time.Duration(cfg.ProcInterval),
		"cpu_percent_mode", cfg.CPUPercentMode,
	)

	app := tui.New(logger, cfg, sampler, mem.NewReader(), store, ctl, gov)
	if err := app.Run(); err != nil {
		return fmt.Errorf("uxmon: %w", err)
	}
	logger.Info("stopped")
	return nil
}

// applyFlagOverrides lets explicitly-set flags win over the config file.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config, o opts) {
	if cmd.Flags().Changed("cpu-interval") {
		cfg.CPUInterval = config.Duration(o.cpuInterval)
	}
	if cmd.Flags().Changed("proc-interval") {
		cfg.ProcInterval = config.Duration(o.procInterval)
	}
	if cmd.Flags().Changed("history") {
		cfg.HistoryWindow = o.history
	}
	if cmd.Flags().Changed("ema-total") {
		cfg.EMATotal = o.emaTotal
	}
	if cmd.Flags().Changed("ema-core") {
		cfg.EMACore = o.emaCore
	}
	if cmd.Flags().Changed("cpu-percent-mode") {
		cfg.CPUPercentMode = o.cpuMode
	}
	if cmd.Flags().Changed("log") {
		cfg.LogFile = o.logPath
	}
	cfg.Governor.Priorities = append(cfg.Governor.Priorities, o.priorities...)
}

// newLogger builds the slog logger. The TUI owns the terminal, so without a
// file the handler writes to io.Discard.
func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("uxmon: open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { _ = f.Close() }, nil
}
