package rainmeter

import "sync"

// Factory creates a fresh, default-initialized plugin value
type Factory func() Plugin

var (
	registryMu sync.RWMutex
	registered Factory
)

// Register registers T as the plugin type of this DLL.
// Each measure gets its own new(T). Call it from the plugin's init().
func Register[T any, P interface {
	*T
	Plugin
}]() {
	RegisterFunc(func() Plugin { return P(new(T)) })
}

// RegisterFunc registers a factory for the plugin of this DLL.
// A DLL hosts exactly one plugin type; registering twice panics.
func RegisterFunc(factory Factory) {
	if factory == nil {
		panic("rainmeter: RegisterFunc called with nil factory")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if registered != nil {
		panic("rainmeter: a plugin is already registered")
	}
	registered = factory
}

// Registered returns the registered factory, or nil
func Registered() Factory {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registered
}

// resetRegistry clears the registration. Tests only.
func resetRegistry() {
	registryMu.Lock()
	registered = nil
	registryMu.Unlock()
}
