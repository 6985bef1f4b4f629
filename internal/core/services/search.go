package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driving"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

const (
	defaultSimilarLimit = 10
	maxSimilarLimit     = 100
)

// searchService implements the SearchService interface
type searchService struct {
	indexes driving.IndexService
}

// NewSearchService creates a new SearchService.
// Indexes are loaded through the IndexService so they share its cache.
func NewSearchService(indexes driving.IndexService) driving.SearchService {
	return &searchService{indexes: indexes}
}

// Search ranks components of the project's index
func (s *searchService) Search(ctx context.Context, projectPath string, query domain.SearchQuery) ([]domain.SearchResult, error) {
	if query.ComponentType != "" &&
		query.ComponentType != domain.ComponentTypeFunctional &&
		query.ComponentType != domain.ComponentTypeClass &&
		query.ComponentType != domain.ComponentTypeAny {
		return nil, fmt.Errorf("%w: unknown component type %q", domain.ErrInvalidInput, query.ComponentType)
	}
	if query.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}

	index, err := s.indexes.Get(ctx, projectPath)
	if err != nil {
		return nil, err
	}
	return NewEngine(index).Search(query), nil
}

// FindSimilar resolves ref by id, then by name, and ranks the other components
func (s *searchService) FindSimilar(ctx context.Context, projectPath string, ref string, mode domain.SimilarityMode, limit int) ([]domain.SimilarityResult, error) {
	if mode == "" {
		mode = domain.SimilaritySemantic
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown similarity mode %q", domain.ErrInvalidInput, mode)
	}
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	if limit > maxSimilarLimit {
		limit = maxSimilarLimit
	}

	index, err := s.indexes.Get(ctx, projectPath)
	if err != nil {
		return nil, err
	}

	component := index.Component(ref)
	if component == nil {
		component = index.ComponentByName(ref)
	}
	if component == nil {
		return nil, &domain.ComponentNotFoundError{Ref: ref, Available: index.ComponentNames()}
	}

	return NewEngine(index).FindSimilar(component.ID, mode, limit), nil
}

// UsageGraph builds the usage graph of the project's index
func (s *searchService) UsageGraph(ctx context.Context, projectPath string) (domain.UsageGraph, error) {
	index, err := s.indexes.Get(ctx, projectPath)
	if err != nil {
		return nil, err
	}
	return NewEngine(index).UsageGraph(), nil
}
