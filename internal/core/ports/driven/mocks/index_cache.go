package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

// MockIndexCache is a mock implementation of IndexCache for testing
type MockIndexCache struct {
	mu      sync.RWMutex
	entries map[string]*domain.ProjectIndex
	hits    int
}

// NewMockIndexCache creates a new MockIndexCache
func NewMockIndexCache() *MockIndexCache {
	return &MockIndexCache{entries: make(map[string]*domain.ProjectIndex)}
}

func (m *MockIndexCache) Get(ctx context.Context, projectPath string) (*domain.ProjectIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	index, ok := m.entries[projectPath]
	if !ok {
		return nil, domain.ErrNotFound
	}
	m.hits++
	return index, nil
}

func (m *MockIndexCache) Set(ctx context.Context, index *domain.ProjectIndex) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[index.Metadata.ProjectPath] = index
	return nil
}

func (m *MockIndexCache) Invalidate(ctx context.Context, projectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, projectPath)
	return nil
}

// Hits returns the number of cache hits
func (m *MockIndexCache) Hits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits
}

// Has reports whether a project is cached
func (m *MockIndexCache) Has(projectPath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[projectPath]
	return ok
}
