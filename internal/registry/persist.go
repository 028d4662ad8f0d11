package registry

import (
	"encoding/json"
	"sort"

	"mlbridge/internal/platform"
	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

// SaveModels writes the store's entries through the platform adapter as a
// JSON array sorted by model ID. Where the bytes actually land is the
// host's business.
func SaveModels(store *Models, path string) error {
	if path == "" {
		return status.InvalidArgument
	}
	entries, err := store.GetAll()
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ModelID < entries[j].ModelID })
	b, err := json.Marshal(entries)
	if err != nil {
		return status.InvalidArgument
	}
	return platform.FileWrite(path, b)
}

// LoadModels reads a document written by SaveModels and registers every
// entry, replacing same-ID entries already in the store. Returns the
// number registered.
func LoadModels(store *Models, path string) (int, error) {
	if path == "" {
		return 0, status.InvalidArgument
	}
	b, err := platform.FileRead(path)
	if err != nil {
		return 0, err
	}
	var entries []*types.ModelEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return 0, status.InvalidArgument
	}
	n := 0
	for _, e := range entries {
		if e == nil || e.ModelID == "" {
			continue
		}
		if err := store.Register(e); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
