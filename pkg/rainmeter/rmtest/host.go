// Package rmtest provides an in-memory Rainmeter host for plugin tests.
package rmtest

import (
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"github.com/corrreia/rainmeter-go/pkg/rainmeter"
)

// LogEntry is one line written to the host log
type LogEntry struct {
	Level   rainmeter.LogLevel
	Measure string
	Message string
	Legacy  bool
}

// Bang is one command passed to RmExecute
type Bang struct {
	Skin    string
	Command string
}

// Skin is a loaded skin of the fake host
type Skin struct {
	Name   string
	Path   string
	Window rainmeter.HWND
}

// Measure is the object an rm pointer refers to
type Measure struct {
	Name string
	Skin *Skin
}

// Host implements rainmeter.API over in-memory skin sections.
// Option and variable names are case-insensitive, as in Rainmeter.
// Formulas are limited to numeric literals after variable replacement.
type Host struct {
	SettingsPath string
	// FailLog makes every log call panic
	FailLog bool

	mu        sync.Mutex
	sections  map[string]map[string]string
	variables map[string]string
	measures  []*Measure
	logs      []LogEntry
	bangs     []Bang
	retained  [][]uint16
}

var _ rainmeter.API = (*Host)(nil)

// NewHost creates an empty host
func NewHost() *Host {
	return &Host{
		SettingsPath: `C:\Users\test\AppData\Roaming\Rainmeter\Rainmeter.data`,
		sections:     make(map[string]map[string]string),
		variables:    make(map[string]string),
	}
}

// NewMeasure creates a measure section with the given options and returns
// the rm pointer Rainmeter would pass for it.
func (h *Host) NewMeasure(skin *Skin, name string, options map[string]string) unsafe.Pointer {
	h.mu.Lock()
	defer h.mu.Unlock()

	m := &Measure{Name: name, Skin: skin}
	h.measures = append(h.measures, m)
	sec := h.sectionLocked(name)
	for k, v := range options {
		sec[strings.ToLower(k)] = v
	}
	return unsafe.Pointer(m)
}

// SetOption sets an option in any section
func (h *Host) SetOption(section, key, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sectionLocked(section)[strings.ToLower(key)] = value
}

// SetVariable sets a skin variable
func (h *Host) SetVariable(name, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.variables[strings.ToLower(name)] = value
}

// Logs returns a copy of everything logged so far
func (h *Host) Logs() []LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]LogEntry(nil), h.logs...)
}

// LogsAt returns the log entries of one severity
func (h *Host) LogsAt(level rainmeter.LogLevel) []LogEntry {
	var out []LogEntry
	for _, e := range h.Logs() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Bangs returns a copy of all executed commands
func (h *Host) Bangs() []Bang {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Bang(nil), h.bangs...)
}

func (h *Host) sectionLocked(name string) map[string]string {
	key := strings.ToLower(name)
	sec, ok := h.sections[key]
	if !ok {
		sec = make(map[string]string)
		h.sections[key] = sec
	}
	return sec
}

// keepLocked returns a host-owned copy of s that stays valid for the life
// of the Host.
func (h *Host) keepLocked(s string) *uint16 {
	buf := rainmeter.Encode(s)
	h.retained = append(h.retained, buf)
	return &buf[0]
}

func (h *Host) lookupLocked(section, option string) (string, bool) {
	sec, ok := h.sections[strings.ToLower(section)]
	if !ok {
		return "", false
	}
	v, ok := sec[strings.ToLower(option)]
	return v, ok
}

func (h *Host) replaceLocked(s string) string {
	var sb strings.Builder
	for {
		start := strings.IndexByte(s, '#')
		if start < 0 {
			break
		}
		end := strings.IndexByte(s[start+1:], '#')
		if end < 0 {
			break
		}
		end += start + 1
		name := s[start+1 : end]
		if v, ok := h.variables[strings.ToLower(name)]; ok {
			sb.WriteString(s[:start])
			sb.WriteString(v)
			s = s[end+1:]
			continue
		}
		sb.WriteString(s[:end])
		s = s[end:]
	}
	sb.WriteString(s)
	return sb.String()
}

func measureOf(rm unsafe.Pointer) *Measure {
	return (*Measure)(rm)
}

// ============================================================
// rainmeter.API
// ============================================================

func (h *Host) ReadString(rm unsafe.Pointer, option, defValue *uint16, replaceMeasures bool) *uint16 {
	return h.readString(measureOf(rm).Name, option, defValue, replaceMeasures)
}

func (h *Host) ReadStringFromSection(rm unsafe.Pointer, section, option, defValue *uint16, replaceMeasures bool) *uint16 {
	return h.readString(rainmeter.Decode(section), option, defValue, replaceMeasures)
}

func (h *Host) readString(section string, option, defValue *uint16, replace bool) *uint16 {
	h.mu.Lock()
	defer h.mu.Unlock()

	v, ok := h.lookupLocked(section, rainmeter.Decode(option))
	if !ok {
		return defValue
	}
	if replace {
		v = h.replaceLocked(v)
	}
	return h.keepLocked(v)
}

func (h *Host) ReadFormula(rm unsafe.Pointer, option *uint16, defValue float64) float64 {
	return h.readFormula(measureOf(rm).Name, option, defValue)
}

func (h *Host) ReadFormulaFromSection(rm unsafe.Pointer, section, option *uint16, defValue float64) float64 {
	return h.readFormula(rainmeter.Decode(section), option, defValue)
}

func (h *Host) readFormula(section string, option *uint16, defValue float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	v, ok := h.lookupLocked(section, rainmeter.Decode(option))
	if !ok {
		return defValue
	}
	expr := strings.TrimSpace(h.replaceLocked(v))
	expr = strings.TrimSuffix(strings.TrimPrefix(expr, "("), ")")
	f, err := strconv.ParseFloat(strings.TrimSpace(expr), 64)
	if err != nil {
		return defValue
	}
	return f
}

func (h *Host) ReplaceVariables(rm unsafe.Pointer, str *uint16) *uint16 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.keepLocked(h.replaceLocked(rainmeter.Decode(str)))
}

func (h *Host) PathToAbsolute(rm unsafe.Pointer, relativePath *uint16) *uint16 {
	rel := rainmeter.Decode(relativePath)
	h.mu.Lock()
	defer h.mu.Unlock()
	if filepath.IsAbs(rel) {
		return h.keepLocked(rel)
	}
	base := ""
	if m := measureOf(rm); m != nil && m.Skin != nil {
		base = m.Skin.Path
	}
	return h.keepLocked(filepath.Join(base, rel))
}

func (h *Host) Execute(skin unsafe.Pointer, command *uint16) {
	name := ""
	if s := (*Skin)(skin); s != nil {
		name = s.Name
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bangs = append(h.bangs, Bang{Skin: name, Command: rainmeter.Decode(command)})
}

func (h *Host) Get(rm unsafe.Pointer, what rainmeter.GetType) unsafe.Pointer {
	h.mu.Lock()
	defer h.mu.Unlock()

	if what == rainmeter.GetSettingsFile {
		return unsafe.Pointer(h.keepLocked(h.SettingsPath))
	}
	m := measureOf(rm)
	if m == nil {
		return nil
	}
	switch what {
	case rainmeter.GetMeasureName:
		return unsafe.Pointer(h.keepLocked(m.Name))
	case rainmeter.GetSkin:
		return unsafe.Pointer(m.Skin)
	case rainmeter.GetSkinName:
		if m.Skin == nil {
			return nil
		}
		return unsafe.Pointer(h.keepLocked(m.Skin.Name))
	case rainmeter.GetSkinWindowHandle:
		if m.Skin == nil {
			return nil
		}
		return unsafe.Pointer(uintptr(m.Skin.Window))
	}
	return nil
}

func (h *Host) Log(rm unsafe.Pointer, level rainmeter.LogLevel, message *uint16) {
	if h.FailLog {
		panic("rmtest: log sink failure")
	}
	name := ""
	if m := measureOf(rm); m != nil {
		name = m.Name
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logs = append(h.logs, LogEntry{Level: level, Measure: name, Message: rainmeter.Decode(message)})
}

func (h *Host) LegacyLog(level rainmeter.LogLevel, unused, message *uint16) bool {
	if h.FailLog {
		panic("rmtest: log sink failure")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logs = append(h.logs, LogEntry{Level: level, Message: rainmeter.Decode(message), Legacy: true})
	return true
}
