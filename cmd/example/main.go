//go:build windows

// Package main builds the Counter example measure as a Rainmeter plugin DLL:
//
//	go build -buildmode=c-shared -o Counter.dll ./cmd/example
package main

import "C"

import (
	// Bridge exports the measure entry points to Rainmeter
	_ "github.com/corrreia/rainmeter-go/internal/bridge"

	// Plugins register themselves via init()
	_ "github.com/corrreia/rainmeter-go/plugins/example"
)

// main is required for c-shared build mode but is never called
func main() {}
