// Package sysinfo provides a system monitor measure backed by gopsutil.
//
//	[MeasureCPU]
//	Measure=Plugin
//	Plugin=SysInfo
//	Type=CPU
//
// Type is one of CPU, Memory, Swap, Disk or Uptime. Disk reads the volume
// given by Path (default C:\). Percent types report MaxValue=100; Uptime is
// in seconds and its string value is formatted as "1d 02:03:04".
package sysinfo

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/corrreia/rainmeter-go/pkg/rainmeter"
)

// Kind selects what the measure samples
type Kind string

const (
	KindCPU    Kind = "cpu"
	KindMemory Kind = "memory"
	KindSwap   Kind = "swap"
	KindDisk   Kind = "disk"
	KindUptime Kind = "uptime"
)

// sampler returns the current value of one Kind
type sampler func(path string) (float64, error)

var samplers = map[Kind]sampler{
	KindCPU: func(string) (float64, error) {
		// interval 0 compares against the previous call
		p, err := cpu.Percent(0, false)
		if err != nil {
			return 0, err
		}
		if len(p) == 0 {
			return 0, fmt.Errorf("no cpu sample")
		}
		return p[0], nil
	},
	KindMemory: func(string) (float64, error) {
		v, err := mem.VirtualMemory()
		if err != nil {
			return 0, err
		}
		return v.UsedPercent, nil
	},
	KindSwap: func(string) (float64, error) {
		v, err := mem.SwapMemory()
		if err != nil {
			return 0, err
		}
		return v.UsedPercent, nil
	},
	KindDisk: func(path string) (float64, error) {
		u, err := disk.Usage(path)
		if err != nil {
			return 0, err
		}
		return u.UsedPercent, nil
	},
	KindUptime: func(string) (float64, error) {
		s, err := host.Uptime()
		if err != nil {
			return 0, err
		}
		return float64(s), nil
	},
}

// Monitor samples one system statistic per update
type Monitor struct {
	rainmeter.BasePlugin

	kind   Kind
	path   string
	sample sampler

	value   float64
	lastErr string
}

func (m *Monitor) log(rm rainmeter.Context) *slog.Logger {
	return rm.Logger(rainmeter.WithPrefix(rm.MeasureName()))
}

// Reload reads Type and Path
func (m *Monitor) Reload(rm rainmeter.Context, maxValue *float64) {
	kind := Kind(strings.ToLower(rm.ReadString("Type", string(KindCPU))))
	s, ok := samplers[kind]
	if !ok {
		m.log(rm).Warn("unknown Type, using CPU", "type", kind)
		kind, s = KindCPU, samplers[KindCPU]
	}
	m.kind = kind
	m.sample = s
	m.path = rm.ReadString("Path", `C:\`)

	if kind != KindUptime {
		*maxValue = 100
	}
}

// Update takes a sample. On failure the previous value is kept and the
// error is logged once until it changes.
func (m *Monitor) Update(rm rainmeter.Context) float64 {
	if m.sample == nil {
		return 0
	}
	v, err := m.sample(m.path)
	if err != nil {
		if msg := err.Error(); msg != m.lastErr {
			m.lastErr = msg
			m.log(rm).Warn("sample failed", "type", m.kind, "err", err)
		}
		return m.value
	}
	m.lastErr = ""
	m.value = v
	return v
}

// GetString formats the last sample
func (m *Monitor) GetString(rm rainmeter.Context) (string, bool) {
	if m.kind == KindUptime {
		return formatUptime(time.Duration(m.value) * time.Second), true
	}
	return fmt.Sprintf("%.1f%%", m.value), true
}

func formatUptime(d time.Duration) string {
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	h := d / time.Hour
	d -= h * time.Hour
	mins := d / time.Minute
	d -= mins * time.Minute
	return fmt.Sprintf("%dd %02d:%02d:%02d", days, h, mins, d/time.Second)
}

func init() {
	rainmeter.Register[Monitor]()
}
