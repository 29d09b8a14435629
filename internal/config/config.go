// Package config loads the adapter settings shared by every measure of a DLL.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable holding the config file path
const EnvPath = "RAINMETER_GO_CONFIG"

// Config represents the adapter configuration
type Config struct {
	// Debug traces lifecycle transitions at debug severity
	Debug bool `yaml:"debug"`
	// StackTraces logs the goroutine stack of a recovered panic at debug severity
	StackTraces bool `yaml:"stack_traces"`
	// RetainedStringsWarn warns once when this many GetString buffers have
	// been retained. 0 disables the warning.
	RetainedStringsWarn int `yaml:"retained_strings_warn"`
	// LogPrefix is prepended to adapter diagnostics
	LogPrefix string `yaml:"log_prefix"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		RetainedStringsWarn: 10000,
	}
}

// Load reads a YAML config file on top of the defaults
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.RetainedStringsWarn < 0 {
		return Default(), fmt.Errorf("retained_strings_warn must be >= 0, got %d", cfg.RetainedStringsWarn)
	}
	return cfg, nil
}

// LoadOrDefault loads the file named by path, falling back to the defaults
// when path is empty or the file does not exist. Any other failure is
// returned along with the defaults.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// FromEnv loads the file named by RAINMETER_GO_CONFIG
func FromEnv() (Config, error) {
	return LoadOrDefault(os.Getenv(EnvPath))
}
