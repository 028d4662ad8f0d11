package registry

import (
	"sync"

	"mlbridge/internal/platform"
	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

// Models is a thread-safe model metadata store keyed by model ID.
type Models struct {
	mu      sync.Mutex
	entries map[string]*types.ModelEntry
}

func NewModels() *Models {
	platform.Log(platform.LevelInfo, "ModelRegistry", "model registry created")
	return &Models{entries: make(map[string]*types.ModelEntry)}
}

// Register stores a deep copy of entry, replacing any previous entry with
// the same ID. The previous entry survives a failed copy.
func (m *Models) Register(entry *types.ModelEntry) error {
	if entry == nil || entry.ModelID == "" {
		return status.InvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, err := cloneModel(entry)
	if err != nil {
		return err
	}
	m.entries[entry.ModelID] = cp
	platform.Log(platform.LevelDebug, "ModelRegistry", "model registered: "+entry.ModelID)
	return nil
}

func (m *Models) Remove(modelID string) error {
	if modelID == "" {
		return status.InvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[modelID]; !ok {
		return status.NotFound
	}
	delete(m.entries, modelID)
	platform.Log(platform.LevelDebug, "ModelRegistry", "model removed: "+modelID)
	return nil
}

// Get returns a deep copy of the entry for modelID.
func (m *Models) Get(modelID string) (*types.ModelEntry, error) {
	if modelID == "" {
		return nil, status.InvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[modelID]
	if !ok {
		return nil, status.NotFound
	}
	return cloneModel(e)
}

// GetAll returns deep copies of every entry. An empty store yields
// (nil, nil). A copy failure part-way discards the partial result.
func (m *Models) GetAll() ([]*types.ModelEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collect(func(*types.ModelEntry) bool { return true })
}

// GetDownloaded returns entries that have a local path set.
func (m *Models) GetDownloaded() ([]*types.ModelEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collect(func(e *types.ModelEntry) bool {
		return e.LocalPath != nil && *e.LocalPath != ""
	})
}

func (m *Models) collect(keep func(*types.ModelEntry) bool) ([]*types.ModelEntry, error) {
	var out []*types.ModelEntry
	for _, e := range m.entries {
		if !keep(e) {
			continue
		}
		c, err := cloneModel(e)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// UpdateDownloadStatus records where a downloaded model landed. An empty
// localPath clears the download.
func (m *Models) UpdateDownloadStatus(modelID, localPath string) error {
	if modelID == "" {
		return status.InvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[modelID]
	if !ok {
		return status.NotFound
	}
	if localPath == "" {
		e.LocalPath = nil
		return nil
	}
	p := localPath
	e.LocalPath = &p
	return nil
}

// Len reports the number of stored entries.
func (m *Models) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
