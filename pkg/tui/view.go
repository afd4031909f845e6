//go:build linux

package tui

import (
	"fmt"
	"strings"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/life2harsh/unixpbl/pkg/system/proc"
)

// view owns the termui widgets. It is pure presentation: render reads the
// App's state and never mutates it.
type view struct {
	width, height int

	cpuGauge *widgets.Gauge
	memGauge *widgets.Gauge
	coreSl   []*widgets.Sparkline
	coreGrp  *widgets.SparklineGroup
	memSl    *widgets.Sparkline
	memGrp   *widgets.SparklineGroup

	procTable *widgets.Table
	govPane   *widgets.Paragraph
	sysPane   *widgets.Paragraph
	statusBar *widgets.Paragraph
}

func newView() *view {
	v := &view{}

	v.cpuGauge = widgets.NewGauge()
	v.cpuGauge.Title = " CPU "
	v.cpuGauge.BarColor = ui.ColorGreen

	v.memGauge = widgets.NewGauge()
	v.memGauge.Title = " Memory "
	v.memGauge.BarColor = ui.ColorCyan

	v.memSl = widgets.NewSparkline()
	v.memSl.LineColor = ui.ColorCyan
	v.memGrp = widgets.NewSparklineGroup(v.memSl)
	v.memGrp.Title = " Memory history "

	v.coreGrp = widgets.NewSparklineGroup()
	v.coreGrp.Title = " Per-core history "

	v.procTable = widgets.NewTable()
	v.procTable.Title = " Processes "
	v.procTable.RowSeparator = false
	v.procTable.FillRow = true
	v.procTable.TextStyle = ui.NewStyle(ui.ColorWhite)

	v.govPane = widgets.NewParagraph()
	v.govPane.Title = " Resource governor "

	v.sysPane = widgets.NewParagraph()
	v.sysPane.Title = " System "

	v.statusBar = widgets.NewParagraph()
	v.statusBar.Border = false

	return v
}

func (v *view) resize(w, h int) {
	v.width, v.height = w, h
}

// ensureCores grows the per-core sparkline group to n lines.
func (v *view) ensureCores(n int) {
	for len(v.coreSl) < n {
		sl := widgets.NewSparkline()
		sl.LineColor = ui.ColorGreen
		sl.Title = fmt.Sprintf("cpu%d", len(v.coreSl))
		v.coreSl = append(v.coreSl, sl)
	}
	v.coreGrp.Sparklines = v.coreSl[:n]
}

func (v *view) render(a *App) {
	switch a.page {
	case pageGovernor:
		v.renderGovernor(a)
	case pageSystem:
		v.renderSystem(a)
	default:
		v.renderProcs(a)
	}
}

func (v *view) renderProcs(a *App) {
	v.cpuGauge.Percent = int(a.sampler.Total() * 100)
	v.cpuGauge.SetRect(0, 0, v.width/2, 3)

	info := a.memRd.Read()
	v.memGauge.Percent = int(info.UsedPercent() * 100)
	v.memGauge.Label = fmt.Sprintf("%s / %s", info.Used().Humanized(), info.Total.Humanized())
	v.memGauge.SetRect(v.width/2, 0, v.width, 3)

	rows := [][]string{{"PID", "USER", "COMMAND", "CPU%", "MEM", "NICE", "STATE"}}
	v.procTable.RowStyles = map[int]ui.Style{0: ui.NewStyle(ui.ColorWhite, ui.ColorClear, ui.ModifierBold)}

	visible := v.height - 5
	if visible < 1 {
		visible = 1
	}
	first := 0
	if a.selected >= visible {
		first = a.selected - visible + 1
	}
	for i := first; i < len(a.snaps) && i < first+visible; i++ {
		s := a.snaps[i]
		state := "run"
		switch {
		case s.Suspended:
			state = "held"
		case !s.Running:
			state = "stop"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.PID),
			fmt.Sprintf("%d", s.UID),
			s.Comm,
			fmt.Sprintf("%.1f", s.CPUPercent),
			s.RSS.Humanized(),
			fmt.Sprintf("%d", s.Nice),
			state,
		})
		if i == a.selected {
			v.procTable.RowStyles[len(rows)-1] = ui.NewStyle(ui.ColorBlack, ui.ColorGreen)
		}
	}
	v.procTable.Rows = rows
	v.procTable.SetRect(0, 3, v.width, v.height-2)

	sortName := "cpu"
	if a.sortMode == proc.ByMemory {
		sortName = "mem"
	}
	v.statusBar.Text = fmt.Sprintf(
		"[sort:%s] j/k:move  c/m:sort  K:kill  S:stop/cont  +/-:nice  a/d:priority  t:governor  Tab:page  q:quit",
		sortName)
	v.statusBar.SetRect(0, v.height-2, v.width, v.height)

	ui.Render(v.cpuGauge, v.memGauge, v.procTable, v.statusBar)
}

func (v *view) renderGovernor(a *App) {
	var b strings.Builder
	state := "disabled"
	if a.gov.Enabled() {
		state = "enabled"
	}
	fmt.Fprintf(&b, "Auto-manage: %s\n", state)
	fmt.Fprintf(&b, "Currently suspended: %d processes\n\n", a.gov.SuspendedCount())
	b.WriteString("Priority processes:\n")
	prios := a.gov.Priorities()
	if len(prios) == 0 {
		b.WriteString("  (none; select a process and press 'a')\n")
	}
	for i, p := range prios {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, p)
	}
	b.WriteString("\nWhile a priority process runs, other non-critical,\n")
	b.WriteString("non-root processes above 10% CPU or 500MB RAM are suspended.\n")
	b.WriteString("\nt:toggle  r:resume all  d:remove last  Tab:page  q:back")

	v.govPane.Text = b.String()
	v.govPane.SetRect(0, 0, v.width, v.height)
	ui.Render(v.govPane)
}

func (v *view) renderSystem(a *App) {
	v.ensureCores(a.sampler.NumCores())
	for i := range v.coreGrp.Sparklines {
		v.coreGrp.Sparklines[i].Data = a.sampler.History(i)
	}
	v.coreGrp.SetRect(0, 0, v.width, v.height/2)

	v.memSl.Data = a.memHist.Values()
	v.memGrp.SetRect(0, v.height/2, v.width/2, v.height)

	f := a.facts
	v.sysPane.Text = fmt.Sprintf(
		"Host:    %s\nOS:      %s\nKernel:  %s\nCPU:     %s (%d cores)\nUptime:  %s\n\nTab:page  q:back",
		f.Hostname, f.OSPretty, f.Kernel, f.CPUModel, f.CPUCores, f.Uptime)
	v.sysPane.SetRect(v.width/2, v.height/2, v.width, v.height)

	ui.Render(v.coreGrp, v.memGrp, v.sysPane)
}
