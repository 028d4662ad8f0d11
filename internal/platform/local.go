package platform

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"mlbridge/pkg/status"
)

// LocalAdapter is a workstation implementation of Adapter: files go to the
// OS filesystem under Root, secure values live in memory, logs go to the
// structured logger. Used by the dev harness and tests.
type LocalAdapter struct {
	Root string

	mu     sync.RWMutex
	secure map[string]string
}

// NewLocalAdapter roots file operations at dir (created if missing).
func NewLocalAdapter(dir string) (*LocalAdapter, error) {
	if dir == "" {
		return nil, status.InvalidArgument
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalAdapter{Root: dir, secure: make(map[string]string)}, nil
}

func (l *LocalAdapter) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.Root, path)
}

func (l *LocalAdapter) Log(level LogLevel, tag, msg string) {
	fallbackLog(level, tag, msg)
}

func (l *LocalAdapter) FileExists(path string) bool {
	_, err := os.Stat(l.resolve(path))
	return err == nil
}

func (l *LocalAdapter) FileRead(path string) ([]byte, error) {
	data, err := os.ReadFile(l.resolve(path))
	if os.IsNotExist(err) {
		return nil, status.FileNotFound
	}
	return data, err
}

func (l *LocalAdapter) FileWrite(path string, data []byte) error {
	full := l.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return status.FileWriteFailed
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return status.FileWriteFailed
	}
	return nil
}

func (l *LocalAdapter) FileDelete(path string) error {
	err := os.Remove(l.resolve(path))
	if os.IsNotExist(err) {
		return status.FileNotFound
	}
	return err
}

func (l *LocalAdapter) SecureGet(key string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.secure[key]
	if !ok {
		return "", status.NotFound
	}
	return v, nil
}

func (l *LocalAdapter) SecureSet(key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.secure[key] = value
	return nil
}

func (l *LocalAdapter) SecureDelete(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.secure[key]; !ok {
		return status.NotFound
	}
	delete(l.secure, key)
	return nil
}

func (l *LocalAdapter) NowMS() int64 {
	return time.Now().UnixMilli()
}
