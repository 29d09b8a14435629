package rainmeter

import (
	"strings"
	"unicode/utf16"
	"unsafe"
)

// Encode converts s to a NUL-terminated UTF-16 buffer.
// Rainmeter strings end at the first NUL, so anything after an embedded NUL
// in s is dropped. Invalid UTF-8 is encoded as U+FFFD.
func Encode(s string) []uint16 {
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	buf := make([]uint16, 0, len(s)+1)
	for _, r := range s {
		buf = utf16.AppendRune(buf, r)
	}
	return append(buf, 0)
}

// EncodePtr returns a pointer to the first unit of Encode(s).
// The buffer stays alive as long as the caller holds the pointer.
func EncodePtr(s string) *uint16 {
	return &Encode(s)[0]
}

// Decode converts a NUL-terminated UTF-16 string owned by the host.
// A nil pointer decodes to "". Unpaired surrogates become U+FFFD.
func Decode(p *uint16) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*uint16)(unsafe.Add(unsafe.Pointer(p), uintptr(n)*2)) != 0 {
		n++
	}
	if n == 0 {
		return ""
	}
	return string(utf16.Decode(unsafe.Slice(p, n)))
}
