package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

// AuthService handles API token authentication
type AuthService interface {
	// ValidateToken validates a bearer token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// IssueToken mints a signed token for a subject and role
	IssueToken(ctx context.Context, subject string, role domain.Role, ttl time.Duration) (string, error)
}
