package mocks

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing/fstest"
	"time"
)

// MockFileSystem is an in-memory FileSystem rooted at Root.
// Paths outside Root do not exist.
type MockFileSystem struct {
	mu    sync.RWMutex
	Root  string
	files fstest.MapFS

	// ReadDirErr and ReadFileErr inject failures for specific OS paths
	ReadDirErr  map[string]error
	ReadFileErr map[string]error
}

// NewMockFileSystem creates an empty file system rooted at root
func NewMockFileSystem(root string) *MockFileSystem {
	return &MockFileSystem{
		Root:        filepath.Clean(root),
		files:       fstest.MapFS{},
		ReadDirErr:  make(map[string]error),
		ReadFileErr: make(map[string]error),
	}
}

// AddFile adds a file at a slash-separated path relative to Root
func (m *MockFileSystem) AddFile(rel, content string, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[rel] = &fstest.MapFile{Data: []byte(content), ModTime: modTime}
}

// Path returns the OS path of a slash-separated relative path
func (m *MockFileSystem) Path(rel string) string {
	return filepath.Join(m.Root, filepath.FromSlash(rel))
}

func (m *MockFileSystem) rel(name string) (string, error) {
	rel, err := filepath.Rel(m.Root, filepath.Clean(name))
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	return filepath.ToSlash(rel), nil
}

func (m *MockFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, ok := m.ReadDirErr[name]; ok {
		return nil, err
	}
	rel, err := m.rel(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadDir(m.files, rel)
}

func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, ok := m.ReadFileErr[name]; ok {
		return nil, err
	}
	rel, err := m.rel(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(m.files, rel)
}

func (m *MockFileSystem) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rel, err := m.rel(name)
	if err != nil {
		return nil, err
	}
	return fs.Stat(m.files, rel)
}
