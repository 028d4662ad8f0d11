package bridge

import (
	"mlbridge/internal/registry"
	"mlbridge/pkg/types"
)

// NewModelRegistry creates an empty model registry and returns its handle.
func NewModelRegistry() Handle {
	return put(registry.NewModels())
}

// ModelRegistryDestroy releases the registry. No-op for InvalidHandle.
func ModelRegistryDestroy(h Handle) {
	drop[*registry.Models](h)
}

func ModelRegistryRegister(h Handle, entry *types.ModelEntry) error {
	r, err := lookup[*registry.Models](h)
	if err != nil {
		return err
	}
	return r.Register(entry)
}

func ModelRegistryRemove(h Handle, modelID string) error {
	r, err := lookup[*registry.Models](h)
	if err != nil {
		return err
	}
	return r.Remove(modelID)
}

func ModelRegistryGet(h Handle, modelID string) (*types.ModelEntry, error) {
	r, err := lookup[*registry.Models](h)
	if err != nil {
		return nil, err
	}
	return r.Get(modelID)
}

func ModelRegistryGetAll(h Handle) ([]*types.ModelEntry, error) {
	r, err := lookup[*registry.Models](h)
	if err != nil {
		return nil, err
	}
	return r.GetAll()
}

func ModelRegistryGetDownloaded(h Handle) ([]*types.ModelEntry, error) {
	r, err := lookup[*registry.Models](h)
	if err != nil {
		return nil, err
	}
	return r.GetDownloaded()
}

func ModelRegistryUpdateDownloadStatus(h Handle, modelID, localPath string) error {
	r, err := lookup[*registry.Models](h)
	if err != nil {
		return err
	}
	return r.UpdateDownloadStatus(modelID, localPath)
}

// ModelRegistryScanDir registers every *.gguf file found directly under
// dir. Returns the number of models registered.
func ModelRegistryScanDir(h Handle, dir string) (int, error) {
	r, err := lookup[*registry.Models](h)
	if err != nil {
		return 0, err
	}
	return registry.ScanDir(r, dir)
}

// ModelRegistrySave persists the registry through the platform adapter.
func ModelRegistrySave(h Handle, path string) error {
	r, err := lookup[*registry.Models](h)
	if err != nil {
		return err
	}
	return registry.SaveModels(r, path)
}

// ModelRegistryLoad restores entries saved by ModelRegistrySave,
// replacing same-ID entries already registered. Returns the number
// loaded.
func ModelRegistryLoad(h Handle, path string) (int, error) {
	r, err := lookup[*registry.Models](h)
	if err != nil {
		return 0, err
	}
	return registry.LoadModels(r, path)
}

// NewLoraRegistry creates an empty LoRA registry and returns its handle.
func NewLoraRegistry() Handle {
	return put(registry.NewLoras())
}

func LoraRegistryDestroy(h Handle) {
	drop[*registry.Loras](h)
}

func LoraRegistryRegister(h Handle, entry *types.LoraEntry) error {
	r, err := lookup[*registry.Loras](h)
	if err != nil {
		return err
	}
	return r.Register(entry)
}

func LoraRegistryRemove(h Handle, adapterID string) error {
	r, err := lookup[*registry.Loras](h)
	if err != nil {
		return err
	}
	return r.Remove(adapterID)
}

func LoraRegistryGet(h Handle, adapterID string) (*types.LoraEntry, error) {
	r, err := lookup[*registry.Loras](h)
	if err != nil {
		return nil, err
	}
	return r.Get(adapterID)
}

func LoraRegistryGetAll(h Handle) ([]*types.LoraEntry, error) {
	r, err := lookup[*registry.Loras](h)
	if err != nil {
		return nil, err
	}
	return r.GetAll()
}

func LoraRegistryGetForModel(h Handle, modelID string) ([]*types.LoraEntry, error) {
	r, err := lookup[*registry.Loras](h)
	if err != nil {
		return nil, err
	}
	return r.GetForModel(modelID)
}
