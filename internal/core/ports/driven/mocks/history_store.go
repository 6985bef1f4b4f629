package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

// MockIndexHistoryStore is a mock implementation of IndexHistoryStore for testing
type MockIndexHistoryStore struct {
	mu   sync.RWMutex
	runs []*domain.IndexRun

	RecordErr error
}

// NewMockIndexHistoryStore creates a new MockIndexHistoryStore
func NewMockIndexHistoryStore() *MockIndexHistoryStore {
	return &MockIndexHistoryStore{}
}

func (m *MockIndexHistoryStore) Record(ctx context.Context, run *domain.IndexRun, index *domain.ProjectIndex) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *MockIndexHistoryStore) List(ctx context.Context, projectPath string, limit int) ([]*domain.IndexRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.IndexRun, 0)
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].ProjectPath != projectPath {
			continue
		}
		result = append(result, m.runs[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
