//go:build linux

// Package tui renders the sampled state with termui and translates key
// presses into engine actions. It owns no metric logic: everything it shows
// comes from the samplers and the snapshot store, and everything it does
// goes through the control surface or the governor.
package tui

import (
	"log/slog"
	"time"

	ui "github.com/gizak/termui/v3"

	"github.com/life2harsh/unixpbl/pkg/config"
	"github.com/life2harsh/unixpbl/pkg/control"
	"github.com/life2harsh/unixpbl/pkg/governor"
	"github.com/life2harsh/unixpbl/pkg/system/cpu"
	"github.com/life2harsh/unixpbl/pkg/system/host"
	"github.com/life2harsh/unixpbl/pkg/system/mem"
	"github.com/life2harsh/unixpbl/pkg/system/proc"
)

// page identifies one of the top-level views.
type page int

const (
	pageProcs page = iota
	pageGovernor
	pageSystem
	pageCount
)

// App is the single-threaded frame loop: sample on timers, apply one pending
// input, render. All engine state is touched only from Run's goroutine.
type App struct {
	log *slog.Logger
	cfg config.Config

	sampler *cpu.Sampler
	memRd   *mem.Reader
	memHist *mem.History
	store   *proc.Store
	ctl     *control.Controller
	gov     *governor.Governor
	facts   host.Facts

	snaps    []proc.Snapshot
	sortMode proc.SortMode
	selected int
	page     page
}

// New wires an App from already-constructed engine components.
func New(log *slog.Logger, cfg config.Config, sampler *cpu.Sampler, memRd *mem.Reader,
	store *proc.Store, ctl *control.Controller, gov *governor.Governor) *App {
	return &App{
		log:     log,
		cfg:     cfg,
		sampler: sampler,
		memRd:   memRd,
		memHist: mem.NewHistory(cfg.HistoryWindow),
		store:   store,
		ctl:     ctl,
		gov:     gov,
		facts:   host.Read(),
	}
}

// Run drives the loop until quit. It blocks the calling goroutine.
func (a *App) Run() error {
	if err := ui.Init(); err != nil {
		return err
	}
	defer ui.Close()

	v := newView()
	v.resize(ui.TerminalDimensions())

	// first cycle before the timers fire so the screen is never empty
	a.sampleCPU()
	a.scanProcs()

	events := ui.PollEvents()
	cpuTick := time.NewTicker(time.Duration(a.cfg.CPUInterval))
	defer cpuTick.Stop()
	procTick := time.NewTicker(time.Duration(a.cfg.ProcInterval))
	defer procTick.Stop()

	for {
		select {
		case e := <-events:
			switch e.Type {
			case ui.ResizeEvent:
				payload := e.Payload.(ui.Resize)
				v.resize(payload.Width, payload.Height)
				ui.Clear()
			case ui.KeyboardEvent:
				if quit := a.handle(actionFor(e.ID)); quit {
					return nil
				}
			}
		case <-cpuTick.C:
			a.sampleCPU()
		case <-procTick.C:
			a.scanProcs()
		}
		v.render(a)
	}
}

func (a *App) sampleCPU() {
	a.sampler.Sample()
	info := a.memRd.Read()
	a.memHist.Push(info.UsedPercent())
}

// scanProcs refreshes the process table, runs one governor cycle over the
// fresh snapshots, and re-sorts for display.
func (a *App) scanProcs() {
	a.snaps = a.store.Scan()
	a.gov.Manage(a.snaps)
	proc.SortBy(a.snaps, a.sortMode)
	a.clampSelection()
}

func (a *App) clampSelection() {
	if a.selected >= len(a.snaps) {
		a.selected = len(a.snaps) - 1
	}
	if a.selected < 0 {
		a.selected = 0
	}
}

func (a *App) selectedSnap() (proc.Snapshot, bool) {
	if len(a.snaps) == 0 {
		return proc.Snapshot{}, false
	}
	a.clampSelection()
	return a.snaps[a.selected], true
}

// handle applies one abstract action; the returned bool requests quit.
func (a *App) handle(act action) bool {
	switch act {
	case actQuit:
		if a.page != pageProcs {
			a.page = pageProcs
			return false
		}
		a.log.Info("quit requested")
		return true

	case actCyclePage:
		a.page = (a.page + 1) % pageCount

	case actSelectPrev:
		a.selected--
	case actSelectNext:
		a.selected++
	case actSelectPageUp:
		a.selected -= pageJump
	case actSelectPageDown:
		a.selected += pageJump

	case actSortByCPU:
		a.sortMode = proc.ByCPU
		proc.SortBy(a.snaps, a.sortMode)
	case actSortByMemory:
		a.sortMode = proc.ByMemory
		proc.SortBy(a.snaps, a.sortMode)

	case actTerminate:
		if s, ok := a.selectedSnap(); ok {
			a.log.Info("terminate", "pid", s.PID, "comm", s.Comm)
			a.ctl.Terminate(s.PID)
		}
	case actToggleStop:
		if s, ok := a.selectedSnap(); ok {
			a.log.Info("toggle stop", "pid", s.PID, "running", s.Running)
			a.ctl.ToggleStopped(s.PID, s.Running)
			// keep the cached flag in sync; the next scan reconciles
			a.snaps[a.selected].Running = !s.Running
		}
	case actNiceUp:
		if s, ok := a.selectedSnap(); ok {
			a.ctl.Renice(s.PID, -1)
		}
	case actNiceDown:
		if s, ok := a.selectedSnap(); ok {
			a.ctl.Renice(s.PID, +1)
		}

	case actAddPriority:
		if s, ok := a.selectedSnap(); ok {
			if a.gov.AddPriority(s.Comm) {
				a.log.Info("priority added", "comm", s.Comm)
			}
		}
	case actRemovePriority:
		a.gov.RemoveLastPriority()
	case actToggleGovernor:
		a.gov.SetEnabled(!a.gov.Enabled())
		a.log.Info("governor toggled", "enabled", a.gov.Enabled())
	case actResumeAll:
		a.gov.ResumeAll()
	}

	a.clampSelection()
	return false
}
