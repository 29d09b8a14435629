// Package rainmeter provides the public SDK for Rainmeter plugins written in Go.
// This file contains the host function table and the constants shared with it.
package rainmeter

import "unsafe"

// LogLevel matches Rainmeter's LOG_* constants
type LogLevel int32

const (
	LogError   LogLevel = 1
	LogWarning LogLevel = 2
	LogNotice  LogLevel = 3
	LogDebug   LogLevel = 4
)

// String returns the level name as Rainmeter prints it in the log window
func (l LogLevel) String() string {
	switch l {
	case LogError:
		return "ERROR"
	case LogWarning:
		return "WARNING"
	case LogNotice:
		return "NOTICE"
	case LogDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// GetType selects what RmGet returns
type GetType int32

const (
	GetMeasureName      GetType = 0
	GetSkin             GetType = 1
	GetSettingsFile     GetType = 2
	GetSkinName         GetType = 3
	GetSkinWindowHandle GetType = 4
)

// HWND is a native window handle
type HWND uintptr

// API is the table of functions Rainmeter exports to plugins.
//
// Strings cross the boundary as NUL-terminated UTF-16. Pointers returned by
// the host are owned by the host and only valid until the next call that
// uses the same context. Implementations are fixed for the life of the
// process: the cgo bridge resolves them from Rainmeter.dll, tests use
// rmtest.Host.
type API interface {
	ReadString(rm unsafe.Pointer, option, defValue *uint16, replaceMeasures bool) *uint16
	ReadStringFromSection(rm unsafe.Pointer, section, option, defValue *uint16, replaceMeasures bool) *uint16
	ReadFormula(rm unsafe.Pointer, option *uint16, defValue float64) float64
	ReadFormulaFromSection(rm unsafe.Pointer, section, option *uint16, defValue float64) float64
	ReplaceVariables(rm unsafe.Pointer, str *uint16) *uint16
	PathToAbsolute(rm unsafe.Pointer, relativePath *uint16) *uint16
	Execute(skin unsafe.Pointer, command *uint16)
	Get(rm unsafe.Pointer, what GetType) unsafe.Pointer
	Log(rm unsafe.Pointer, level LogLevel, message *uint16)
	// LegacyLog is the free-form LSLog entry point, usable without a context
	LegacyLog(level LogLevel, unused, message *uint16) bool
}
