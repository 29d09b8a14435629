// Package bridge provides the CGO bridge between Rainmeter and the Go adapter.
//
// It exports the six measure entry points Rainmeter looks up in a plugin DLL
// and implements rainmeter.API over the functions exported by Rainmeter.dll.
// The bridge is only built for windows with cgo enabled; import it blank
// from the main package of a -buildmode=c-shared build:
//
//	package main
//
//	import (
//		_ "github.com/corrreia/rainmeter-go/internal/bridge"
//		_ "github.com/corrreia/rainmeter-go/plugins/example"
//	)
//
//	func main() {}
//
// Exports use the C calling convention, which Rainmeter only accepts on
// 64-bit builds.
package bridge
