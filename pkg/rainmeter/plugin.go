package rainmeter

// Plugin is the interface every measure plugin must implement.
//
// One value is created per measure. Rainmeter serializes calls for a given
// measure, so a Plugin needs no locking of its own state. Different measures
// may be driven from different threads.
type Plugin interface {
	// Initialize is called once, before any other hook
	Initialize(rm Context)

	// Reload is called when options should be (re)read. maxValue holds the
	// measure's MaxValue suggestion and may be changed.
	Reload(rm Context, maxValue *float64)

	// Update returns the measure's number value
	Update(rm Context) float64

	// Finalize is called once when the measure is destroyed
	Finalize(rm Context)
}

// StringProvider is implemented by plugins that return a string value.
// ok=false means the measure has no string value and the number is used.
type StringProvider interface {
	GetString(rm Context) (value string, ok bool)
}

// BangHandler is implemented by plugins that accept !CommandMeasure
type BangHandler interface {
	ExecuteBang(rm Context, args string)
}

// BasePlugin provides a default implementation of Plugin.
// Embed this in your plugin struct and override what you need.
type BasePlugin struct{}

// Initialize does nothing
func (BasePlugin) Initialize(rm Context) {}

// Reload does nothing
func (BasePlugin) Reload(rm Context, maxValue *float64) {}

// Update returns 0
func (BasePlugin) Update(rm Context) float64 { return 0 }

// Finalize does nothing
func (BasePlugin) Finalize(rm Context) {}
