//go:build windows && cgo

// Package bridge provides the CGO bridge between Rainmeter and the Go adapter.
// This file contains all functions exported to Rainmeter via CGO.
package bridge

/*
#include <stdint.h>
*/
import "C"
import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/corrreia/rainmeter-go/internal/adapter"
	"github.com/corrreia/rainmeter-go/internal/config"
	"github.com/corrreia/rainmeter-go/internal/recovery"
	"github.com/corrreia/rainmeter-go/pkg/rainmeter"
)

// ============================================================
// Global State
// ============================================================

var (
	initOnce sync.Once
	host     *hostAPI
	current  *adapter.Adapter
)

// get creates the adapter on the first call from Rainmeter. Plugins
// register from init(), which has run by then.
func get() *adapter.Adapter {
	initOnce.Do(func() {
		var hostErr error
		host, hostErr = loadHost()

		cfg, cfgErr := config.FromEnv()
		current = adapter.New(host, rainmeter.Registered(),
			adapter.WithConfig(cfg),
			adapter.WithAllocator(cAlloc),
		)

		if hostErr != nil {
			logLegacy(rainmeter.LogError, hostErr.Error())
		}
		if cfgErr != nil {
			logLegacy(rainmeter.LogWarning, cfgErr.Error())
		}
	})
	return current
}

// ============================================================
// Panic Recovery
// ============================================================

// lastResort recovers panics raised outside a plugin hook, which the
// adapter does not guard. Deferred at the top of every export.
func lastResort(entry string) {
	if r := recover(); r != nil {
		logLegacy(rainmeter.LogError, fmt.Sprintf("Panic in %s: %s", entry, recovery.Describe(r)))
	}
}

func logLegacy(level rainmeter.LogLevel, msg string) {
	if host == nil {
		return
	}
	rainmeter.NewContext(host, nil).LegacyLog(level, msg)
}

// ============================================================
// Exported Functions (called by Rainmeter)
// ============================================================

// Handles travel through Rainmeter's void* data slot as plain integers,
// never as Go pointers.

//export Initialize
func Initialize(data *C.uintptr_t, rm unsafe.Pointer) {
	if data == nil {
		return
	}
	*data = 0

	defer lastResort("Initialize")
	*data = C.uintptr_t(get().Initialize(rm))
}

//export Reload
func Reload(data C.uintptr_t, rm unsafe.Pointer, maxValue *C.double) {
	defer lastResort("Reload")
	get().Reload(uintptr(data), rm, (*float64)(unsafe.Pointer(maxValue)))
}

//export Update
func Update(data C.uintptr_t) (value C.double) {
	defer lastResort("Update")
	return C.double(get().Update(uintptr(data)))
}

//export GetString
func GetString(data C.uintptr_t) (value *C.uint16_t) {
	defer lastResort("GetString")
	return (*C.uint16_t)(get().GetString(uintptr(data)))
}

//export ExecuteBang
func ExecuteBang(data C.uintptr_t, args *C.uint16_t) {
	defer lastResort("ExecuteBang")
	get().ExecuteBang(uintptr(data), (*uint16)(unsafe.Pointer(args)))
}

//export Finalize
func Finalize(data C.uintptr_t) {
	defer lastResort("Finalize")
	get().Finalize(uintptr(data))
}
