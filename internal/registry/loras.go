package registry

import (
	"sync"

	"mlbridge/internal/platform"
	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

// Loras is a thread-safe LoRA adapter metadata store keyed by adapter ID.
type Loras struct {
	mu      sync.Mutex
	entries map[string]*types.LoraEntry
}

func NewLoras() *Loras {
	platform.Log(platform.LevelInfo, "LoraRegistry", "LoRA registry created")
	return &Loras{entries: make(map[string]*types.LoraEntry)}
}

// Register stores a deep copy of entry. The previous entry with the same
// ID is replaced only after the copy succeeds.
func (l *Loras) Register(entry *types.LoraEntry) error {
	if entry == nil || entry.ID == "" {
		return status.InvalidArgument
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cp, err := cloneLora(entry)
	if err != nil {
		return err
	}
	l.entries[entry.ID] = cp
	platform.Log(platform.LevelDebug, "LoraRegistry", "LoRA adapter registered: "+entry.ID)
	return nil
}

func (l *Loras) Remove(adapterID string) error {
	if adapterID == "" {
		return status.InvalidArgument
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[adapterID]; !ok {
		return status.NotFound
	}
	delete(l.entries, adapterID)
	platform.Log(platform.LevelDebug, "LoraRegistry", "LoRA adapter removed: "+adapterID)
	return nil
}

// Get returns a deep copy of the entry for adapterID.
func (l *Loras) Get(adapterID string) (*types.LoraEntry, error) {
	if adapterID == "" {
		return nil, status.InvalidArgument
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[adapterID]
	if !ok {
		return nil, status.NotFound
	}
	return cloneLora(e)
}

// GetAll returns deep copies of every entry; empty store yields (nil, nil).
func (l *Loras) GetAll() ([]*types.LoraEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.collect(func(*types.LoraEntry) bool { return true })
}

// GetForModel returns adapters whose compatibility list contains modelID
// exactly. Duplicate list entries contribute at most one match.
func (l *Loras) GetForModel(modelID string) ([]*types.LoraEntry, error) {
	if modelID == "" {
		return nil, status.InvalidArgument
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.collect(func(e *types.LoraEntry) bool {
		for _, id := range e.CompatibleModelIDs {
			if id == modelID {
				return true
			}
		}
		return false
	})
}

func (l *Loras) collect(keep func(*types.LoraEntry) bool) ([]*types.LoraEntry, error) {
	var out []*types.LoraEntry
	for _, e := range l.entries {
		if !keep(e) {
			continue
		}
		c, err := cloneLora(e)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Len reports the number of stored entries.
func (l *Loras) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
