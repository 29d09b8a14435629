package rainmeter

import (
	"fmt"
	"log/slog"
	"unsafe"
)

// Context wraps the rm pointer Rainmeter passes to a measure.
//
// A Context is only valid during the call it was handed to; do not keep it
// past the hook that received it. Copies are cheap and share nothing
// mutable.
type Context struct {
	api API
	rm  unsafe.Pointer
}

// NewContext creates a context over the raw rm pointer
func NewContext(api API, rm unsafe.Pointer) Context {
	return Context{api: api, rm: rm}
}

// Raw returns the rm pointer
func (c Context) Raw() unsafe.Pointer {
	return c.rm
}

// ============================================================
// Option Readers
// ============================================================

// ReadString reads an option of the measure's section, replacing variables
// and measures. def is returned verbatim when the option is missing.
func (c Context) ReadString(key, def string) string {
	k, d := Encode(key), Encode(def)
	return Decode(c.api.ReadString(c.rm, &k[0], &d[0], true))
}

// ReadStringSection reads an option from an explicit section
func (c Context) ReadStringSection(section, key, def string) string {
	s, k, d := Encode(section), Encode(key), Encode(def)
	return Decode(c.api.ReadStringFromSection(c.rm, &s[0], &k[0], &d[0], true))
}

// ReadFormula reads an option and evaluates it as a formula
func (c Context) ReadFormula(key string, def float64) float64 {
	k := Encode(key)
	return c.api.ReadFormula(c.rm, &k[0], def)
}

// ReadFormulaSection reads a formula option from an explicit section
func (c Context) ReadFormulaSection(section, key string, def float64) float64 {
	s, k := Encode(section), Encode(key)
	return c.api.ReadFormulaFromSection(c.rm, &s[0], &k[0], def)
}

// ReadInt reads a formula option truncated toward zero
func (c Context) ReadInt(key string, def int) int {
	return int(c.ReadFormula(key, float64(def)))
}

// ReadIntSection reads a formula option from a section, truncated toward zero
func (c Context) ReadIntSection(section, key string, def int) int {
	return int(c.ReadFormulaSection(section, key, float64(def)))
}

// ReadDouble reads a formula option
func (c Context) ReadDouble(key string, def float64) float64 {
	return c.ReadFormula(key, def)
}

// ReadDoubleSection reads a formula option from a section
func (c Context) ReadDoubleSection(section, key string, def float64) float64 {
	return c.ReadFormulaSection(section, key, def)
}

// ReadBool reads a formula option and reports whether it is non-zero
func (c Context) ReadBool(key string, def bool) bool {
	d := 0.0
	if def {
		d = 1
	}
	return c.ReadFormula(key, d) != 0
}

// ReplaceVariables expands #Variables# and [Measures] in text
func (c Context) ReplaceVariables(text string) string {
	t := Encode(text)
	return Decode(c.api.ReplaceVariables(c.rm, &t[0]))
}

// PathToAbsolute resolves a path relative to the skin's folder
func (c Context) PathToAbsolute(relative string) string {
	r := Encode(relative)
	return Decode(c.api.PathToAbsolute(c.rm, &r[0]))
}

// ReadPath reads an option and resolves it to an absolute path
func (c Context) ReadPath(key, def string) string {
	return c.PathToAbsolute(c.ReadString(key, def))
}

// ============================================================
// Actions
// ============================================================

// Execute runs a bang (e.g. "[!SetVariable X 1]") in the measure's skin
func (c Context) Execute(command string) {
	cmd := Encode(command)
	c.api.Execute(c.Skin(), &cmd[0])
}

// ============================================================
// Metadata
// ============================================================

// MeasureName returns the name of the measure's section
func (c Context) MeasureName() string {
	return Decode((*uint16)(c.api.Get(c.rm, GetMeasureName)))
}

// Skin returns the opaque skin pointer
func (c Context) Skin() unsafe.Pointer {
	return c.api.Get(c.rm, GetSkin)
}

// SkinName returns the config name of the skin, e.g. "illustro\Clock"
func (c Context) SkinName() string {
	return Decode((*uint16)(c.api.Get(c.rm, GetSkinName)))
}

// SettingsFile returns the path of Rainmeter.data.
// Rainmeter answers this query without a measure context.
func (c Context) SettingsFile() string {
	return Decode((*uint16)(c.api.Get(nil, GetSettingsFile)))
}

// SkinWindow returns the window handle of the skin
func (c Context) SkinWindow() HWND {
	return HWND(c.api.Get(c.rm, GetSkinWindowHandle))
}

// ============================================================
// Logging
// ============================================================

// Log writes message to the Rainmeter log.
// Logging never panics: it is the channel used to report panics, so any
// failure here is dropped.
func (c Context) Log(level LogLevel, message string) {
	defer func() { _ = recover() }()
	if c.api == nil {
		return
	}
	m := Encode(message)
	if c.rm == nil {
		c.api.LegacyLog(level, nil, &m[0])
		return
	}
	c.api.Log(c.rm, level, &m[0])
}

// Logf formats and writes a message to the Rainmeter log
func (c Context) Logf(level LogLevel, format string, args ...interface{}) {
	c.Log(level, fmt.Sprintf(format, args...))
}

// LegacyLog writes through the context-free LSLog entry point
func (c Context) LegacyLog(level LogLevel, message string) {
	defer func() { _ = recover() }()
	if c.api == nil {
		return
	}
	m := Encode(message)
	c.api.LegacyLog(level, nil, &m[0])
}

// Logger returns a slog logger writing to this measure's log
func (c Context) Logger(opts ...HandlerOption) *slog.Logger {
	return slog.New(NewLogHandler(c, opts...))
}
