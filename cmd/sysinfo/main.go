//go:build windows

// Package main builds the SysInfo system monitor measure as a Rainmeter plugin DLL:
//
//	go build -buildmode=c-shared -o SysInfo.dll ./cmd/sysinfo
package main

import "C"

import (
	// Bridge exports the measure entry points to Rainmeter
	_ "github.com/corrreia/rainmeter-go/internal/bridge"

	// Plugins register themselves via init()
	_ "github.com/corrreia/rainmeter-go/plugins/sysinfo"
)

// main is required for c-shared build mode but is never called
func main() {}
