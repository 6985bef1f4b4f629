package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// authService implements the AuthService interface.
// Tokens are self-contained; there is no session store.
type authService struct {
	tokens driven.TokenAdapter
	now    func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(tokens driven.TokenAdapter) driving.AuthService {
	return &authService{
		tokens: tokens,
		now:    time.Now,
	}
}

// ValidateToken validates a token and returns the auth context
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	if s.now().Unix() >= claims.ExpiresAt {
		return nil, domain.ErrTokenExpired
	}
	if !claims.Role.IsValid() {
		return nil, domain.ErrTokenInvalid
	}

	return &domain.AuthContext{
		Subject:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC(),
	}, nil
}

// IssueToken mints a token for a subject
func (s *authService) IssueToken(ctx context.Context, subject string, role domain.Role, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: subject is required", domain.ErrInvalidInput)
	}
	if !role.IsValid() {
		return "", fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("%w: ttl must be positive", domain.ErrInvalidInput)
	}

	now := s.now()
	return s.tokens.GenerateToken(&domain.TokenClaims{
		Subject:   subject,
		Role:      role,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	})
}
