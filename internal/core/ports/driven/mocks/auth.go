package mocks

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

// MockTokenAdapter encodes claims as JSON behind a fixed prefix
type MockTokenAdapter struct{}

// NewMockTokenAdapter creates a new MockTokenAdapter
func NewMockTokenAdapter() *MockTokenAdapter {
	return &MockTokenAdapter{}
}

func (m *MockTokenAdapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	data, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	return "mock." + string(data), nil
}

func (m *MockTokenAdapter) ParseToken(token string) (*domain.TokenClaims, error) {
	raw, ok := strings.CutPrefix(token, "mock.")
	if !ok {
		return nil, errors.New("malformed token")
	}
	var claims domain.TokenClaims
	if err := json.Unmarshal([]byte(raw), &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}
