// Package platform routes host-provided capabilities (logging, files,
// secure storage, clock) to the rest of the bridge.
//
// A single Adapter is installed per process. Accessors are safe to call
// before installation: logging falls back to the process logger, the clock
// to the system clock, and storage operations report AdapterNotSet.
package platform

import (
	"sync"
	"time"

	"mlbridge/pkg/status"
)

// LogLevel mirrors the host-side severity scale.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Adapter is the host integration surface. Implementations may be called
// from any goroutine, including streaming workers.
type Adapter interface {
	Log(level LogLevel, tag, msg string)
	FileExists(path string) bool
	FileRead(path string) ([]byte, error)
	FileWrite(path string, data []byte) error
	FileDelete(path string) error
	SecureGet(key string) (string, error)
	SecureSet(key, value string) error
	SecureDelete(key string) error
	NowMS() int64
}

var (
	mu      sync.RWMutex
	current Adapter
)

// Set installs the process adapter. Installing nil is rejected; use Reset
// in tests to return to fallback behavior.
func Set(a Adapter) error {
	if a == nil {
		return status.InvalidArgument
	}
	mu.Lock()
	current = a
	mu.Unlock()
	Log(LevelInfo, "platform", "adapter installed")
	return nil
}

// Reset removes any installed adapter. Test hook.
func Reset() {
	mu.Lock()
	current = nil
	mu.Unlock()
}

// Installed reports whether an adapter is present.
func Installed() bool {
	mu.RLock()
	defer mu.RUnlock()
	return current != nil
}

func get() Adapter {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// guard converts an adapter panic into an error instead of unwinding
// through bridge entry points.
func guard(err *error) {
	if r := recover(); r != nil {
		Log(LevelError, "platform", "adapter panicked")
		*err = status.StorageError
	}
}

// Log writes through the adapter, or the process logger when none is set.
func Log(level LogLevel, tag, msg string) {
	a := get()
	if a == nil {
		fallbackLog(level, tag, msg)
		return
	}
	defer func() { recover() }()
	a.Log(level, tag, msg)
}

// NowMS returns the adapter clock, or wall time when none is set.
func NowMS() int64 {
	a := get()
	if a == nil {
		return time.Now().UnixMilli()
	}
	return a.NowMS()
}

func FileExists(path string) bool {
	a := get()
	if a == nil {
		return false
	}
	return a.FileExists(path)
}

func FileRead(path string) (data []byte, err error) {
	a := get()
	if a == nil {
		return nil, status.AdapterNotSet
	}
	defer guard(&err)
	return a.FileRead(path)
}

func FileWrite(path string, data []byte) (err error) {
	a := get()
	if a == nil {
		return status.AdapterNotSet
	}
	defer guard(&err)
	return a.FileWrite(path, data)
}

func FileDelete(path string) (err error) {
	a := get()
	if a == nil {
		return status.AdapterNotSet
	}
	defer guard(&err)
	return a.FileDelete(path)
}

func SecureGet(key string) (val string, err error) {
	a := get()
	if a == nil {
		return "", status.AdapterNotSet
	}
	defer guard(&err)
	return a.SecureGet(key)
}

func SecureSet(key, value string) (err error) {
	a := get()
	if a == nil {
		return status.AdapterNotSet
	}
	defer guard(&err)
	return a.SecureSet(key, value)
}

func SecureDelete(key string) (err error) {
	a := get()
	if a == nil {
		return status.AdapterNotSet
	}
	defer guard(&err)
	return a.SecureDelete(key)
}
