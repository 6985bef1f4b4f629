package driving

import (
	"context"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

// CorrelationService pairs live page elements with indexed components
type CorrelationService interface {
	// Correlate matches caller-supplied elements against the project's index.
	// A project without an index is not an error: every element is reported unmatched.
	Correlate(ctx context.Context, projectPath string, elements []domain.VisualElement, focus domain.FocusFilter) (*domain.CorrelationReport, error)

	// AnalyzePage renders a URL, extracts its elements and correlates them.
	// viewport may be nil to keep the automation default.
	AnalyzePage(ctx context.Context, projectPath string, url string, focus domain.FocusFilter, viewport *domain.Viewport) (*domain.CorrelationReport, error)

	// AnalyzeResponsive captures responsive issues at each breakpoint in turn.
	// A missing or invisible selector aborts only the affected breakpoint.
	AnalyzeResponsive(ctx context.Context, url string, breakpoints []domain.Breakpoint, selector string) (*domain.ResponsiveReport, error)
}
