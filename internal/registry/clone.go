// Package registry keeps in-memory model and LoRA adapter metadata.
//
// Both stores follow the same ownership discipline: entries are deep-copied
// on the way in and on the way out, so callers can mutate what they hold
// without reaching into the store. A clone that fails leaves the store
// exactly as it was.
package registry

import (
	"sync/atomic"

	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

// cloneFail simulates an allocation failure after N successful field
// clones. Zero means never fail. Test hook; see SetCloneFailPoint.
var cloneFail atomic.Int64

// SetCloneFailPoint makes the next n field clones succeed and every clone
// after that fail. Pass 0 to disable. Tests use this to exercise the
// rollback paths; production code never calls it.
func SetCloneFailPoint(n int) {
	if n <= 0 {
		cloneFail.Store(0)
		return
	}
	cloneFail.Store(int64(n))
}

// cloneBudget consumes one unit of the fail budget. Returns false when the
// budget is exhausted, signalling the caller to abort the whole clone.
func cloneBudget() bool {
	for {
		v := cloneFail.Load()
		if v == 0 {
			return true
		}
		if v == 1 {
			// Keep failing until the fail point is reset.
			return false
		}
		if cloneFail.CompareAndSwap(v, v-1) {
			return true
		}
	}
}

func cloneString(s *string) (*string, bool) {
	if s == nil {
		return nil, true
	}
	if !cloneBudget() {
		return nil, false
	}
	v := *s
	return &v, true
}

func cloneStrings(in []string) ([]string, bool) {
	if in == nil {
		return nil, true
	}
	out := make([]string, len(in))
	for i, s := range in {
		if !cloneBudget() {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

func cloneModel(e *types.ModelEntry) (*types.ModelEntry, error) {
	c := *e
	var ok bool
	if c.DownloadURL, ok = cloneString(e.DownloadURL); !ok {
		return nil, status.OutOfMemory
	}
	if c.LocalPath, ok = cloneString(e.LocalPath); !ok {
		return nil, status.OutOfMemory
	}
	if c.Description, ok = cloneString(e.Description); !ok {
		return nil, status.OutOfMemory
	}
	return &c, nil
}

func cloneLora(e *types.LoraEntry) (*types.LoraEntry, error) {
	c := *e
	var ok bool
	if c.Description, ok = cloneString(e.Description); !ok {
		return nil, status.OutOfMemory
	}
	if c.DownloadURL, ok = cloneString(e.DownloadURL); !ok {
		return nil, status.OutOfMemory
	}
	if c.CompatibleModelIDs, ok = cloneStrings(e.CompatibleModelIDs); !ok {
		return nil, status.OutOfMemory
	}
	return &c, nil
}
