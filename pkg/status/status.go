// Package status defines the result codes shared by every mlbridge surface.
//
// Codes are a closed enumeration: call sites switch on them or use the Is*
// helpers rather than unwrapping. A Code is also an error so it can flow
// through ordinary Go plumbing.
package status

import "fmt"

// Code is an enumerated operation result.
type Code int32

const (
	OK Code = iota
	InvalidArgument
	InvalidHandle
	NotInitialized
	NotFound
	OutOfMemory
	StorageError
	AdapterNotSet
	FileNotFound
	FileWriteFailed
	NetworkError
	HTTPRequestFailed
	InvalidState
	NullPointer
)

var names = map[Code]string{
	OK:                "ok",
	InvalidArgument:   "invalid argument",
	InvalidHandle:     "invalid handle",
	NotInitialized:    "not initialized",
	NotFound:          "not found",
	OutOfMemory:       "out of memory",
	StorageError:      "storage error",
	AdapterNotSet:     "platform adapter not set",
	FileNotFound:      "file not found",
	FileWriteFailed:   "file write failed",
	NetworkError:      "network error",
	HTTPRequestFailed: "http request failed",
	InvalidState:      "invalid state",
	NullPointer:       "null pointer",
}

func (c Code) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return fmt.Sprintf("status(%d)", int32(c))
}

// Error makes a non-OK Code usable as an error value. OK should never be
// returned through an error; callers treat a nil error as success.
func (c Code) Error() string { return c.String() }

// Err returns c as an error, or nil when c is OK.
func (c Code) Err() error {
	if c == OK {
		return nil
	}
	return c
}

// Coder lets richer error types declare the Code they map to.
type Coder interface {
	StatusCode() Code
}

// From maps an arbitrary error back to a Code. A nil error is OK; an error
// that is not a Code and declares no Code of its own maps to StorageError,
// the catch-all for internal failures.
func From(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	if c, ok := err.(Coder); ok {
		return c.StatusCode()
	}
	return StorageError
}

func is(err error, c Code) bool {
	got, ok := err.(Code)
	return ok && got == c
}

func IsInvalidArgument(err error) bool { return is(err, InvalidArgument) }
func IsInvalidHandle(err error) bool   { return is(err, InvalidHandle) }
func IsNotInitialized(err error) bool  { return is(err, NotInitialized) }
func IsNotFound(err error) bool        { return is(err, NotFound) }
func IsOutOfMemory(err error) bool     { return is(err, OutOfMemory) }
func IsAdapterNotSet(err error) bool   { return is(err, AdapterNotSet) }
func IsInvalidState(err error) bool    { return is(err, InvalidState) }
func IsNetworkError(err error) bool    { return is(err, NetworkError) }
