// Package sdkcfg holds process-wide SDK configuration. Config is installed
// once at init and read-only afterwards.
package sdkcfg

import (
	"sync"

	"mlbridge/internal/platform"
	"mlbridge/pkg/status"
)

// Config is what the host supplies at SDK init.
type Config struct {
	Environment string
	DeviceID    string
	Platform    string
	SDKVersion  string
	APIKey      string
	BaseURL     string
}

var (
	mu          sync.RWMutex
	current     *Config
	initialized bool
)

// Init installs the SDK configuration. A second call is rejected; use
// ResetForTest between tests.
func Init(cfg Config) error {
	if cfg.Environment == "" || cfg.DeviceID == "" {
		return status.InvalidArgument
	}
	mu.Lock()
	defer mu.Unlock()
	if initialized {
		return status.InvalidState
	}
	c := cfg
	current = &c
	initialized = true
	platform.Log(platform.LevelInfo, "SDK", "initialized for environment "+cfg.Environment)
	return nil
}

// Initialized reports whether Init has run.
func Initialized() bool {
	mu.RLock()
	defer mu.RUnlock()
	return initialized
}

// Get returns the installed config.
func Get() (Config, error) {
	mu.RLock()
	defer mu.RUnlock()
	if !initialized {
		return Config{}, status.NotInitialized
	}
	return *current, nil
}

// Shutdown clears the installed config so Init may run again, e.g. when
// the host tears the SDK down. Rejected when Init never ran.
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()
	if !initialized {
		return status.NotInitialized
	}
	env := current.Environment
	current = nil
	initialized = false
	platform.Log(platform.LevelInfo, "SDK", "shut down for environment "+env)
	return nil
}

// ResetForTest clears the installed config. Test hook.
func ResetForTest() {
	mu.Lock()
	current = nil
	initialized = false
	mu.Unlock()
}
