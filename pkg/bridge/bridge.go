// Package bridge is the flat, handle-based surface host SDKs call into.
// Every live object (component, registry, manager) is addressed by an
// opaque Handle; entry points validate the handle first and fail with
// status.InvalidHandle before touching anything else.
package bridge

import (
	"sync"

	"mlbridge/pkg/status"
)

// Handle addresses one live bridge object. Zero is never valid.
type Handle uint64

// InvalidHandle is the zero handle; operations on it are rejected,
// destroys are no-ops.
const InvalidHandle Handle = 0

var (
	tableMu sync.Mutex
	table   = make(map[Handle]any)
	nextID  Handle = 1
)

func put(obj any) Handle {
	tableMu.Lock()
	defer tableMu.Unlock()
	h := nextID
	nextID++
	table[h] = obj
	return h
}

// lookup fetches the object for h with the expected concrete type. A
// missing handle and a handle of the wrong kind are the same error.
func lookup[T any](h Handle) (T, error) {
	var zero T
	if h == InvalidHandle {
		return zero, status.InvalidHandle
	}
	tableMu.Lock()
	obj, ok := table[h]
	tableMu.Unlock()
	if !ok {
		return zero, status.InvalidHandle
	}
	t, ok := obj.(T)
	if !ok {
		return zero, status.InvalidHandle
	}
	return t, nil
}

// drop removes h from the table, returning the object if it was present.
func drop[T any](h Handle) (T, bool) {
	var zero T
	if h == InvalidHandle {
		return zero, false
	}
	tableMu.Lock()
	defer tableMu.Unlock()
	obj, ok := table[h]
	if !ok {
		return zero, false
	}
	t, ok := obj.(T)
	if !ok {
		return zero, false
	}
	delete(table, h)
	return t, true
}

// liveHandles reports the table size. Test hook.
func liveHandles() int {
	tableMu.Lock()
	defer tableMu.Unlock()
	return len(table)
}
