package mocks

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

// MockIndexStore keeps serialised artifacts in memory so save/load round-trips like the real store
type MockIndexStore struct {
	mu        sync.RWMutex
	artifacts map[string][]byte
	saves     int

	SaveErr error
	SaveFn  func(index *domain.ProjectIndex) // called before a successful save
}

// NewMockIndexStore creates a new MockIndexStore
func NewMockIndexStore() *MockIndexStore {
	return &MockIndexStore{artifacts: make(map[string][]byte)}
}

func (m *MockIndexStore) Save(ctx context.Context, index *domain.ProjectIndex) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.SaveFn != nil {
		m.SaveFn(index)
	}
	data, err := json.Marshal(index)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifacts[index.Metadata.ProjectPath] = data
	m.saves++
	return nil
}

func (m *MockIndexStore) Load(ctx context.Context, projectPath string) (*domain.ProjectIndex, error) {
	m.mu.RLock()
	data, ok := m.artifacts[projectPath]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var index domain.ProjectIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, nil
	}
	return &index, nil
}

func (m *MockIndexStore) ArtifactPath(projectPath string) string {
	return filepath.Join(projectPath, ".sercha", "component-index.json")
}

// SetRaw stores raw artifact bytes (for corrupt-artifact tests)
func (m *MockIndexStore) SetRaw(projectPath string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifacts[projectPath] = data
}

// Saves returns how many times Save succeeded
func (m *MockIndexStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
