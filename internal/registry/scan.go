package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mlbridge/pkg/types"
)

// ScanDir scans a directory for *.gguf files and registers each into the
// store. The filename (with extension) doubles as model ID and name; the
// absolute path is recorded as the local path so scanned models count as
// downloaded.
func ScanDir(store *Models, dir string) (int, error) {
	base, err := expandHome(dir)
	if err != nil {
		return 0, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return 0, fmt.Errorf("abs path: %w", err)
	}
	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		return 0, fmt.Errorf("read dir: %w", err)
	}
	n := 0
	for _, e := range dirEntries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		p := filepath.Join(abs, name)
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		entry := &types.ModelEntry{
			ModelID:      name,
			Name:         name,
			Category:     "llm",
			Format:       "gguf",
			Framework:    "llamacpp",
			LocalPath:    &p,
			DownloadSize: size,
		}
		if err := store.Register(entry); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
