package sysinfo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrreia/rainmeter-go/internal/adapter"
	"github.com/corrreia/rainmeter-go/pkg/rainmeter"
	"github.com/corrreia/rainmeter-go/pkg/rainmeter/rmtest"
)

func run(t *testing.T, options map[string]string) (*rmtest.Host, *adapter.Adapter, uintptr, float64) {
	t.Helper()
	host := rmtest.NewHost()
	rm := host.NewMeasure(&rmtest.Skin{Name: "System"}, "MeasureSys", options)
	a := adapter.New(host, rainmeter.Registered())
	h := a.Initialize(rm)
	require.NotZero(t, h)
	t.Cleanup(func() { a.Finalize(h) })

	mv := 1.0
	a.Reload(h, rm, &mv)
	return host, a, h, mv
}

func TestPercentKinds(t *testing.T) {
	for _, kind := range []string{"CPU", "Memory", "Disk"} {
		t.Run(kind, func(t *testing.T) {
			host, a, h, mv := run(t, map[string]string{"Type": kind, "Path": t.TempDir()})
			assert.Equal(t, 100.0, mv)

			v := a.Update(h)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
			assert.Contains(t, rainmeter.Decode((*uint16)(a.GetString(h))), "%")
			assert.Empty(t, host.LogsAt(rainmeter.LogError))
		})
	}
}

func TestUptime(t *testing.T) {
	_, a, h, mv := run(t, map[string]string{"Type": "uptime"})

	assert.Equal(t, 1.0, mv, "uptime has no fixed maximum")
	assert.Greater(t, a.Update(h), 0.0)
	assert.Regexp(t, `^\d+d \d{2}:\d{2}:\d{2}$`, rainmeter.Decode((*uint16)(a.GetString(h))))
}

func TestUnknownTypeFallsBackToCPU(t *testing.T) {
	host, _, _, mv := run(t, map[string]string{"Type": "GPU"})

	assert.Equal(t, 100.0, mv)
	warns := host.LogsAt(rainmeter.LogWarning)
	require.Len(t, warns, 1)
	assert.Equal(t, "MeasureSys: unknown Type, using CPU type=gpu", warns[0].Message)
}

func TestSampleErrorKeepsLastValueAndLogsOnce(t *testing.T) {
	m := &Monitor{}
	host := rmtest.NewHost()
	ctx := rainmeter.NewContext(host, host.NewMeasure(&rmtest.Skin{Name: "s"}, "M", nil))

	fail := false
	m.kind = KindMemory
	m.sample = func(string) (float64, error) {
		if fail {
			return 0, errors.New("access denied")
		}
		return 55, nil
	}

	assert.Equal(t, 55.0, m.Update(ctx))
	fail = true
	assert.Equal(t, 55.0, m.Update(ctx))
	assert.Equal(t, 55.0, m.Update(ctx))

	assert.Len(t, host.LogsAt(rainmeter.LogWarning), 1)
}

func TestSampleErrorLogsThroughCurrentContext(t *testing.T) {
	host := rmtest.NewHost()
	skin := &rmtest.Skin{Name: "s"}
	first := rainmeter.NewContext(host, host.NewMeasure(skin, "First", nil))
	second := rainmeter.NewContext(host, host.NewMeasure(skin, "Second", nil))

	m := &Monitor{kind: KindDisk}
	m.Initialize(first)
	m.sample = func(string) (float64, error) { return 0, errors.New("no such volume") }

	m.Update(second)

	warns := host.LogsAt(rainmeter.LogWarning)
	require.Len(t, warns, 1)
	assert.Equal(t, "Second", warns[0].Measure)
	assert.Equal(t, "Second: sample failed type=disk err=no such volume", warns[0].Message)
}

func TestFormatUptime(t *testing.T) {
	d := 26*time.Hour + 3*time.Minute + 4*time.Second
	assert.Equal(t, "1d 02:03:04", formatUptime(d))
	assert.Equal(t, "0d 00:00:00", formatUptime(0))
}
