package driven

import (
	"context"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

// IndexStore persists one ProjectIndex artifact per project root.
// Save fully overwrites any prior artifact.
type IndexStore interface {
	// Save writes the index under its metadata.projectPath
	Save(ctx context.Context, index *domain.ProjectIndex) error

	// Load reads the artifact for a project root.
	// A missing or unparsable artifact returns (nil, nil).
	Load(ctx context.Context, projectPath string) (*domain.ProjectIndex, error)

	// ArtifactPath returns where the artifact for a project root lives
	ArtifactPath(projectPath string) string
}

// IndexCache holds loaded indexes so read paths skip deserialisation.
// Entries are invalidated whenever a project is re-indexed.
type IndexCache interface {
	// Get returns the cached index or domain.ErrNotFound
	Get(ctx context.Context, projectPath string) (*domain.ProjectIndex, error)

	// Set caches an index under its metadata.projectPath
	Set(ctx context.Context, index *domain.ProjectIndex) error

	// Invalidate drops the cached index for a project root
	Invalidate(ctx context.Context, projectPath string) error
}

// IndexHistoryStore records completed indexing runs
type IndexHistoryStore interface {
	// Record stores one run together with the index it produced
	Record(ctx context.Context, run *domain.IndexRun, index *domain.ProjectIndex) error

	// List returns the most recent runs for a project root, newest first
	List(ctx context.Context, projectPath string, limit int) ([]*domain.IndexRun, error)
}
