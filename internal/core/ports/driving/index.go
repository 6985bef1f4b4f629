package driving

import (
	"context"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

// IndexService builds and serves project indexes
type IndexService interface {
	// Index walks the project root, replaces its artifact and returns the new index.
	// Returns domain.ErrIndexingInProgress if another run holds the project lock.
	Index(ctx context.Context, projectPath string) (*domain.ProjectIndex, error)

	// Get returns the loaded index for a project root, or domain.ErrNotIndexed
	Get(ctx context.Context, projectPath string) (*domain.ProjectIndex, error)

	// History lists recent indexing runs, newest first.
	// Returns an empty list when no history store is configured.
	History(ctx context.Context, projectPath string, limit int) ([]*domain.IndexRun, error)
}
