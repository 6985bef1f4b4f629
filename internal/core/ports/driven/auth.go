package driven

import "github.com/custodia-labs/sercha-components/internal/core/domain"

// TokenAdapter handles API token cryptographic operations
type TokenAdapter interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
