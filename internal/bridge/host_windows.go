//go:build windows && cgo

// Package bridge provides the CGO bridge between Rainmeter and the Go adapter.
// This file contains the Rainmeter.dll function table and the Go functions
// that call through it.
package bridge

/*
#include <windows.h>
#include <stdint.h>
#include <stdlib.h>

typedef LPCWSTR (WINAPI *rm_read_string_fn)(void*, LPCWSTR, LPCWSTR, BOOL);
typedef LPCWSTR (WINAPI *rm_read_string_from_section_fn)(void*, LPCWSTR, LPCWSTR, LPCWSTR, BOOL);
typedef double  (WINAPI *rm_read_formula_fn)(void*, LPCWSTR, double);
typedef double  (WINAPI *rm_read_formula_from_section_fn)(void*, LPCWSTR, LPCWSTR, double);
typedef LPCWSTR (WINAPI *rm_string_fn)(void*, LPCWSTR);
typedef void    (WINAPI *rm_execute_fn)(void*, LPCWSTR);
typedef void*   (WINAPI *rm_get_fn)(void*, int);
typedef void    (WINAPI *rm_log_fn)(void*, int, LPCWSTR);
typedef BOOL    (__cdecl *ls_log_fn)(int, LPCWSTR, LPCWSTR);

// Helpers to call function pointers from Go. A zero pointer means the
// export was not found and the call falls back to a default.

static inline LPCWSTR call_read_string(uintptr_t fn, void* rm, LPCWSTR option, LPCWSTR def, BOOL replace) {
    if (!fn) return def;
    return ((rm_read_string_fn)fn)(rm, option, def, replace);
}

static inline LPCWSTR call_read_string_from_section(uintptr_t fn, void* rm, LPCWSTR section, LPCWSTR option, LPCWSTR def, BOOL replace) {
    if (!fn) return def;
    return ((rm_read_string_from_section_fn)fn)(rm, section, option, def, replace);
}

static inline double call_read_formula(uintptr_t fn, void* rm, LPCWSTR option, double def) {
    if (!fn) return def;
    return ((rm_read_formula_fn)fn)(rm, option, def);
}

static inline double call_read_formula_from_section(uintptr_t fn, void* rm, LPCWSTR section, LPCWSTR option, double def) {
    if (!fn) return def;
    return ((rm_read_formula_from_section_fn)fn)(rm, section, option, def);
}

static inline LPCWSTR call_string(uintptr_t fn, void* rm, LPCWSTR str) {
    if (!fn) return str;
    return ((rm_string_fn)fn)(rm, str);
}

static inline void call_execute(uintptr_t fn, void* skin, LPCWSTR command) {
    if (fn && skin) {
        ((rm_execute_fn)fn)(skin, command);
    }
}

static inline void* call_get(uintptr_t fn, void* rm, int what) {
    if (!fn) return NULL;
    return ((rm_get_fn)fn)(rm, what);
}

static inline void call_log(uintptr_t fn, void* rm, int level, LPCWSTR message) {
    if (fn) {
        ((rm_log_fn)fn)(rm, level, message);
    }
}

static inline BOOL call_ls_log(uintptr_t fn, int level, LPCWSTR unused, LPCWSTR message) {
    if (!fn) return FALSE;
    return ((ls_log_fn)fn)(level, unused, message);
}
*/
import "C"
import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/corrreia/rainmeter-go/pkg/rainmeter"
)

// rainmeterDLL is already loaded by the time Rainmeter loads a plugin;
// LoadLibrary only bumps its reference count.
var rainmeterDLL = windows.NewLazyDLL("Rainmeter.dll")

// hostAPI implements rainmeter.API over the Rainmeter.dll exports
type hostAPI struct {
	readString             uintptr
	readStringFromSection  uintptr
	readFormula            uintptr
	readFormulaFromSection uintptr
	replaceVariables       uintptr
	pathToAbsolute         uintptr
	execute                uintptr
	get                    uintptr
	log                    uintptr
	lsLog                  uintptr
}

var _ rainmeter.API = (*hostAPI)(nil)

// loadHost resolves the Rainmeter API.
// Every missing required export is reported; the returned table is always
// usable, with unresolved entries falling back to defaults.
func loadHost() (*hostAPI, error) {
	h := &hostAPI{}
	procs := []struct {
		name     string
		dst      *uintptr
		optional bool
	}{
		{"RmReadString", &h.readString, false},
		{"RmReadStringFromSection", &h.readStringFromSection, false},
		{"RmReadFormula", &h.readFormula, false},
		{"RmReadFormulaFromSection", &h.readFormulaFromSection, false},
		{"RmReplaceVariables", &h.replaceVariables, false},
		{"RmPathToAbsolute", &h.pathToAbsolute, false},
		{"RmExecute", &h.execute, false},
		{"RmGet", &h.get, false},
		{"RmLog", &h.log, false},
		{"LSLog", &h.lsLog, true},
	}

	var missing []string
	for _, p := range procs {
		proc := rainmeterDLL.NewProc(p.name)
		if err := proc.Find(); err != nil {
			if !p.optional {
				missing = append(missing, p.name)
			}
			continue
		}
		*p.dst = proc.Addr()
	}
	if len(missing) > 0 {
		return h, fmt.Errorf("failed to resolve Rainmeter.dll exports %v", missing)
	}
	return h, nil
}

func wstr(p *uint16) C.LPCWSTR {
	return C.LPCWSTR(unsafe.Pointer(p))
}

func gostr(p C.LPCWSTR) *uint16 {
	return (*uint16)(unsafe.Pointer(p))
}

func cbool(b bool) C.BOOL {
	if b {
		return C.TRUE
	}
	return C.FALSE
}

func (h *hostAPI) ReadString(rm unsafe.Pointer, option, defValue *uint16, replaceMeasures bool) *uint16 {
	return gostr(C.call_read_string(C.uintptr_t(h.readString), rm,
		wstr(option), wstr(defValue), cbool(replaceMeasures)))
}

func (h *hostAPI) ReadStringFromSection(rm unsafe.Pointer, section, option, defValue *uint16, replaceMeasures bool) *uint16 {
	return gostr(C.call_read_string_from_section(C.uintptr_t(h.readStringFromSection), rm,
		wstr(section), wstr(option), wstr(defValue), cbool(replaceMeasures)))
}

func (h *hostAPI) ReadFormula(rm unsafe.Pointer, option *uint16, defValue float64) float64 {
	return float64(C.call_read_formula(C.uintptr_t(h.readFormula), rm, wstr(option), C.double(defValue)))
}

func (h *hostAPI) ReadFormulaFromSection(rm unsafe.Pointer, section, option *uint16, defValue float64) float64 {
	return float64(C.call_read_formula_from_section(C.uintptr_t(h.readFormulaFromSection), rm,
		wstr(section), wstr(option), C.double(defValue)))
}

func (h *hostAPI) ReplaceVariables(rm unsafe.Pointer, str *uint16) *uint16 {
	return gostr(C.call_string(C.uintptr_t(h.replaceVariables), rm, wstr(str)))
}

func (h *hostAPI) PathToAbsolute(rm unsafe.Pointer, relativePath *uint16) *uint16 {
	return gostr(C.call_string(C.uintptr_t(h.pathToAbsolute), rm, wstr(relativePath)))
}

func (h *hostAPI) Execute(skin unsafe.Pointer, command *uint16) {
	C.call_execute(C.uintptr_t(h.execute), skin, wstr(command))
}

func (h *hostAPI) Get(rm unsafe.Pointer, what rainmeter.GetType) unsafe.Pointer {
	return C.call_get(C.uintptr_t(h.get), rm, C.int(what))
}

func (h *hostAPI) Log(rm unsafe.Pointer, level rainmeter.LogLevel, message *uint16) {
	C.call_log(C.uintptr_t(h.log), rm, C.int(level), wstr(message))
}

func (h *hostAPI) LegacyLog(level rainmeter.LogLevel, unused, message *uint16) bool {
	return C.call_ls_log(C.uintptr_t(h.lsLog), C.int(level), wstr(unused), wstr(message)) != C.FALSE
}

// cAlloc copies a GetString result into C memory that is never freed.
// C code may not keep Go pointers, and Rainmeter does not say when it is
// done with the string.
func cAlloc(units []uint16) unsafe.Pointer {
	size := C.size_t(len(units)) * C.size_t(unsafe.Sizeof(units[0]))
	p := C.malloc(size)
	if p == nil {
		return nil
	}
	copy(unsafe.Slice((*uint16)(p), len(units)), units)
	return p
}
