package registry

import (
	"os"
	"path/filepath"
	"testing"

	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

func strptr(s string) *string { return &s }

func sampleModel(id string) *types.ModelEntry {
	return &types.ModelEntry{
		ModelID:       id,
		Name:          "Test Model",
		Category:      "llm",
		Format:        "gguf",
		Framework:     "llamacpp",
		DownloadURL:   strptr("https://example.com/" + id),
		ContextLength: 8192,
		SupportsLora:  true,
		Description:   strptr("a test model"),
	}
}

func sampleLora(id string, compat ...string) *types.LoraEntry {
	return &types.LoraEntry{
		ID:                 id,
		Name:               "Adapter " + id,
		Filename:           id + ".safetensors",
		FileSize:           1024,
		DefaultScale:       0.8,
		CompatibleModelIDs: compat,
	}
}

func TestModelRegisterGetIsDeepCopy(t *testing.T) {
	m := NewModels()
	src := sampleModel("m1")
	if err := m.Register(src); err != nil {
		t.Fatalf("Register: %v", err)
	}
	// Mutating the source after registration must not affect the store.
	*src.DownloadURL = "mutated"
	src.Name = "mutated"

	got, err := m.Get("m1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Test Model" || *got.DownloadURL != "https://example.com/m1" {
		t.Fatalf("store leaked caller mutation: %+v", got)
	}
	// Mutating the returned copy must not affect the store either.
	*got.Description = "mutated"
	again, err := m.Get("m1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if *again.Description != "a test model" {
		t.Fatalf("returned copy aliased store: %q", *again.Description)
	}
}

func TestModelRegisterValidation(t *testing.T) {
	m := NewModels()
	if err := m.Register(nil); !status.IsInvalidArgument(err) {
		t.Fatalf("Register(nil) = %v", err)
	}
	if err := m.Register(&types.ModelEntry{}); !status.IsInvalidArgument(err) {
		t.Fatalf("Register(no id) = %v", err)
	}
}

func TestModelRemoveAndNotFound(t *testing.T) {
	m := NewModels()
	if err := m.Remove("ghost"); !status.IsNotFound(err) {
		t.Fatalf("Remove(ghost) = %v", err)
	}
	if err := m.Register(sampleModel("m1")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := m.Remove("m1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := m.Get("m1"); !status.IsNotFound(err) {
		t.Fatalf("Get after remove = %v", err)
	}
}

func TestModelCloneFailureLeavesOldEntry(t *testing.T) {
	m := NewModels()
	if err := m.Register(sampleModel("m1")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	SetCloneFailPoint(1)
	defer SetCloneFailPoint(0)
	replacement := sampleModel("m1")
	replacement.Name = "replacement"
	if err := m.Register(replacement); !status.IsOutOfMemory(err) {
		t.Fatalf("Register under clone failure = %v, want out of memory", err)
	}
	SetCloneFailPoint(0)
	got, err := m.Get("m1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Test Model" {
		t.Fatalf("old entry lost after failed replace: %+v", got)
	}
}

func TestModelGetAllFailureDiscardsPartial(t *testing.T) {
	m := NewModels()
	for _, id := range []string{"a", "b", "c"} {
		if err := m.Register(sampleModel(id)); err != nil {
			t.Fatalf("Register(%s): %v", id, err)
		}
	}
	// Each model clone consumes two budget units (download_url and
	// description; nil local_path is free). Fail inside the second entry.
	SetCloneFailPoint(3)
	defer SetCloneFailPoint(0)
	got, err := m.GetAll()
	if !status.IsOutOfMemory(err) {
		t.Fatalf("GetAll under clone failure = %v, want out of memory", err)
	}
	if got != nil {
		t.Fatalf("partial result returned: %v", got)
	}
}

func TestModelGetDownloadedAndUpdateStatus(t *testing.T) {
	m := NewModels()
	if err := m.Register(sampleModel("m1")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := m.Register(sampleModel("m2")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	dl, err := m.GetDownloaded()
	if err != nil || len(dl) != 0 {
		t.Fatalf("GetDownloaded = %v, %v; want empty", dl, err)
	}
	if err := m.UpdateDownloadStatus("ghost", "/tmp/x"); !status.IsNotFound(err) {
		t.Fatalf("UpdateDownloadStatus(ghost) = %v", err)
	}
	if err := m.UpdateDownloadStatus("m1", "/models/m1.gguf"); err != nil {
		t.Fatalf("UpdateDownloadStatus: %v", err)
	}
	dl, err = m.GetDownloaded()
	if err != nil || len(dl) != 1 || dl[0].ModelID != "m1" {
		t.Fatalf("GetDownloaded = %v, %v", dl, err)
	}
	if err := m.UpdateDownloadStatus("m1", ""); err != nil {
		t.Fatalf("clear download: %v", err)
	}
	dl, err = m.GetDownloaded()
	if err != nil || len(dl) != 0 {
		t.Fatalf("GetDownloaded after clear = %v, %v", dl, err)
	}
}

func TestLoraGetForModel(t *testing.T) {
	l := NewLoras()
	if err := l.Register(sampleLora("l1", "m1", "m2")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := l.Register(sampleLora("l2", "m2")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	// Duplicate compat IDs must not duplicate the match.
	if err := l.Register(sampleLora("l3", "m1", "m1", "m1")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := l.GetForModel("m1")
	if err != nil {
		t.Fatalf("GetForModel: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetForModel(m1) returned %d entries, want 2", len(got))
	}
	seen := map[string]int{}
	for _, e := range got {
		seen[e.ID]++
	}
	if seen["l1"] != 1 || seen["l3"] != 1 {
		t.Fatalf("unexpected matches: %v", seen)
	}

	// Prefix is not a match.
	got, err = l.GetForModel("m")
	if err != nil || len(got) != 0 {
		t.Fatalf("GetForModel(m) = %v, %v; want empty", got, err)
	}
}

func TestLoraEmptyResultIsNilSuccess(t *testing.T) {
	l := NewLoras()
	got, err := l.GetAll()
	if err != nil || got != nil {
		t.Fatalf("GetAll on empty = %v, %v", got, err)
	}
	got, err = l.GetForModel("m1")
	if err != nil || got != nil {
		t.Fatalf("GetForModel on empty = %v, %v", got, err)
	}
}

func TestLoraDeepCopyCompatList(t *testing.T) {
	l := NewLoras()
	src := sampleLora("l1", "m1")
	if err := l.Register(src); err != nil {
		t.Fatalf("Register: %v", err)
	}
	src.CompatibleModelIDs[0] = "mutated"
	got, err := l.Get("l1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CompatibleModelIDs[0] != "m1" {
		t.Fatalf("compat list aliased: %v", got.CompatibleModelIDs)
	}
}

func TestScanDirRegistersGGUFOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.gguf", "B.GGUF", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.gguf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	m := NewModels()
	n, err := ScanDir(m, dir)
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	if n != 2 || m.Len() != 2 {
		t.Fatalf("scanned %d, stored %d; want 2", n, m.Len())
	}
	e, err := m.Get("a.gguf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.LocalPath == nil || *e.LocalPath != filepath.Join(dir, "a.gguf") {
		t.Fatalf("local path = %v", e.LocalPath)
	}
	dl, err := m.GetDownloaded()
	if err != nil || len(dl) != 2 {
		t.Fatalf("scanned models not downloaded: %v, %v", dl, err)
	}
}
