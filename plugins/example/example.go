// Package example provides an example measure demonstrating every hook of
// the SDK: option reading, MaxValue, number and string values, bangs,
// executing actions and logging.
//
//	[MeasureCounter]
//	Measure=Plugin
//	Plugin=Counter
//	Start=0
//	Step=1
//	Limit=10
//	Format=Clicks: {count}
//	OnLimitAction=[!Log "Counter wrapped"]
//
// Bangs: [!CommandMeasure MeasureCounter "Reset"], "Add 5", "Set 3".
package example

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/corrreia/rainmeter-go/pkg/rainmeter"
)

// Counter counts up by Step on every update and wraps at Limit
type Counter struct {
	rainmeter.BasePlugin

	start         float64
	step          float64
	limit         float64
	format        string
	onLimitAction string

	count float64
}

// Initialize is called once when the measure is created
func (c *Counter) Initialize(rm rainmeter.Context) {
	c.start = rm.ReadDouble("Start", 0)
	c.count = c.start
	c.log(rm).Debug("initialized", "skin", rm.SkinName(), "start", c.start)
}

// log returns a logger bound to the context of the current hook. The
// context is only valid during that hook, so loggers are never kept.
func (c *Counter) log(rm rainmeter.Context) *slog.Logger {
	return rm.Logger(
		rainmeter.WithPrefix(rm.MeasureName()),
		rainmeter.WithLevel(slog.LevelDebug),
	)
}

// Reload reads the options. A positive Limit becomes the MaxValue.
func (c *Counter) Reload(rm rainmeter.Context, maxValue *float64) {
	c.start = rm.ReadDouble("Start", 0)
	c.step = rm.ReadDouble("Step", 1)
	c.limit = rm.ReadDouble("Limit", 0)
	c.format = rm.ReadString("Format", "{count}")
	c.onLimitAction = rm.ReadString("OnLimitAction", "")

	if c.limit > 0 {
		*maxValue = c.limit
	}
}

// Update advances the counter
func (c *Counter) Update(rm rainmeter.Context) float64 {
	c.count += c.step
	if c.limit > 0 && c.count > c.limit {
		c.count = c.start
		if c.onLimitAction != "" {
			rm.Execute(c.onLimitAction)
		}
	}
	return c.count
}

// GetString renders Format with {count} replaced
func (c *Counter) GetString(rm rainmeter.Context) (string, bool) {
	return strings.ReplaceAll(c.format, "{count}", strconv.FormatFloat(c.count, 'f', -1, 64)), true
}

// ExecuteBang handles Reset, Add n and Set n
func (c *Counter) ExecuteBang(rm rainmeter.Context, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		c.log(rm).Warn("empty command")
		return
	}

	switch strings.ToLower(fields[0]) {
	case "reset":
		c.count = c.start
	case "add", "set":
		if len(fields) != 2 {
			c.log(rm).Warn("usage: " + fields[0] + " <number>")
			return
		}
		n, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			c.log(rm).Warn("invalid number", "value", fields[1], "err", err)
			return
		}
		if strings.EqualFold(fields[0], "add") {
			c.count += n
		} else {
			c.count = n
		}
	default:
		c.log(rm).Warn("unknown command", "command", fields[0])
	}
}

// Finalize is called once when the measure is destroyed
func (c *Counter) Finalize(rm rainmeter.Context) {
	c.log(rm).Debug("finalized", "count", c.count)
}

func init() {
	rainmeter.Register[Counter]()
}
