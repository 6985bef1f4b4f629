package driving

import (
	"context"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

// SearchService answers queries over a project's loaded index
type SearchService interface {
	// Search ranks components by relevance to the query
	Search(ctx context.Context, projectPath string, query domain.SearchQuery) ([]domain.SearchResult, error)

	// FindSimilar ranks components by similarity to the referenced component.
	// ref is a component id or name; an unknown ref returns *domain.ComponentNotFoundError.
	FindSimilar(ctx context.Context, projectPath string, ref string, mode domain.SimilarityMode, limit int) ([]domain.SimilarityResult, error)

	// UsageGraph maps component ids to the contexts that use them
	UsageGraph(ctx context.Context, projectPath string) (domain.UsageGraph, error)
}
