//go:build linux

// Package host reads static host-identity facts for the system-info surface.
// Everything here is presentation data with no algorithmic contract; any
// failing probe leaves its field at the zero value instead of erroring.
package host

import (
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
)

// Facts is a one-shot capture of host identity.
type Facts struct {
	Hostname string
	OSPretty string // distro pretty name, e.g. "Ubuntu 24.04"
	Kernel   string
	Uptime   time.Duration
	CPUModel string
	CPUCores int
}

// Read gathers all facts. Call once at startup; nothing here changes fast
// enough to justify resampling (uptime is re-derived by callers from the
// capture time if needed).
func Read() Facts {
	f := Facts{CPUCores: runtime.NumCPU()}

	if info, err := host.Info(); err == nil {
		f.Hostname = info.Hostname
		f.Kernel = fmt.Sprintf("%s %s", info.OS, info.KernelVersion)
		f.OSPretty = info.Platform
		if info.PlatformVersion != "" {
			f.OSPretty = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
		}
		f.Uptime = time.Duration(info.Uptime) * time.Second
	}

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		f.CPUModel = infos[0].ModelName
	}

	return f
}
