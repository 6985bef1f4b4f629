package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-components/internal/runtime"
)

// Ensure correlationService implements CorrelationService
var _ driving.CorrelationService = (*correlationService)(nil)

// CorrelationServiceConfig holds dependencies for the correlation service.
type CorrelationServiceConfig struct {
	Indexes  driving.IndexService
	Services *runtime.Services // page automation is looked up per call
	Timeout  time.Duration     // per automation step
	Logger   *slog.Logger
	Now      func() time.Time
}

// correlationService implements the CorrelationService interface
type correlationService struct {
	indexes  driving.IndexService
	services *runtime.Services
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewCorrelationService creates a new CorrelationService
func NewCorrelationService(cfg CorrelationServiceConfig) driving.CorrelationService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &correlationService{
		indexes:  cfg.Indexes,
		services: cfg.Services,
		timeout:  timeout,
		logger:   logger,
		now:      now,
	}
}

// Correlate matches elements against the project index. A missing index
// produces unmatched correlations rather than an error.
func (s *correlationService) Correlate(ctx context.Context, projectPath string, elements []domain.VisualElement, focus domain.FocusFilter) (*domain.CorrelationReport, error) {
	index, err := s.loadIndex(ctx, projectPath)
	if err != nil {
		return nil, err
	}
	return s.report(index, elements, focus), nil
}

// AnalyzePage renders url in a session owned by this call and correlates its elements
func (s *correlationService) AnalyzePage(ctx context.Context, projectPath string, url string, focus domain.FocusFilter, viewport *domain.Viewport) (*domain.CorrelationReport, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}
	focus = focus.Normalize()

	index, err := s.loadIndex(ctx, projectPath)
	if err != nil {
		return nil, err
	}

	session, err := s.openSession(ctx)
	if err != nil {
		return nil, err
	}
	defer s.closeSession(session)

	if viewport != nil {
		if err := session.SetViewport(ctx, *viewport); err != nil {
			return nil, fmt.Errorf("set viewport: %w", err)
		}
	}
	if err := session.Navigate(ctx, url, s.timeout); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if err := session.WaitForNetworkIdle(ctx, s.timeout); err != nil {
		return nil, fmt.Errorf("wait for network idle: %w", err)
	}

	elements, err := s.extractElements(ctx, session, driven.Expression{Kind: driven.ExpressionExtractElements, Focus: focus})
	if err != nil {
		return nil, err
	}
	return s.report(index, elements, focus), nil
}

// AnalyzeResponsive visits url once per breakpoint on a single session.
// Breakpoints run one after another since a page has one viewport at a time.
func (s *correlationService) AnalyzeResponsive(ctx context.Context, url string, breakpoints []domain.Breakpoint, selector string) (*domain.ResponsiveReport, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}
	if len(breakpoints) == 0 {
		breakpoints = domain.DefaultBreakpoints()
	}
	for _, bp := range breakpoints {
		if bp.Viewport.Width <= 0 || bp.Viewport.Height <= 0 {
			return nil, fmt.Errorf("%w: breakpoint %q has an empty viewport", domain.ErrInvalidInput, bp.Name)
		}
	}

	session, err := s.openSession(ctx)
	if err != nil {
		return nil, err
	}
	defer s.closeSession(session)

	report := &domain.ResponsiveReport{
		RunID:       uuid.NewString(),
		URL:         url,
		GeneratedAt: s.now().UTC(),
		Breakpoints: make([]domain.BreakpointReport, 0, len(breakpoints)),
	}

	for _, bp := range breakpoints {
		step, err := s.captureBreakpoint(ctx, session, url, bp, selector)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Warn("breakpoint capture aborted", "breakpoint", bp.Name, "url", url, "error", err)
			step = domain.BreakpointReport{
				Breakpoint:       bp,
				ResponsiveIssues: []domain.ElementIssue{},
				Error:            err.Error(),
			}
		}
		report.Breakpoints = append(report.Breakpoints, step)
	}
	return report, nil
}

func (s *correlationService) captureBreakpoint(ctx context.Context, session driven.PageSession, url string, bp domain.Breakpoint, selector string) (domain.BreakpointReport, error) {
	if err := session.SetViewport(ctx, bp.Viewport); err != nil {
		return domain.BreakpointReport{}, fmt.Errorf("set viewport: %w", err)
	}
	if err := session.Navigate(ctx, url, s.timeout); err != nil {
		return domain.BreakpointReport{}, fmt.Errorf("navigate: %w", err)
	}
	if err := session.WaitForNetworkIdle(ctx, s.timeout); err != nil {
		return domain.BreakpointReport{}, fmt.Errorf("wait for network idle: %w", err)
	}
	if selector != "" {
		if err := session.WaitForSelector(ctx, selector, s.timeout); err != nil {
			return domain.BreakpointReport{}, fmt.Errorf("selector %s: %w", selector, err)
		}
	}

	elements, err := s.extractElements(ctx, session, driven.Expression{
		Kind:     driven.ExpressionExtractElements,
		Focus:    domain.FocusAll,
		Selector: selector,
	})
	if err != nil {
		return domain.BreakpointReport{}, err
	}
	elements = filterElements(elements, domain.FocusAll)

	issues := make([]domain.ElementIssue, 0)
	for i := range elements {
		found := DetectIssues(&elements[i])
		if len(found) == 0 {
			continue
		}
		issues = append(issues, domain.ElementIssue{Selector: elements[i].Selector, Issues: found})
	}

	return domain.BreakpointReport{
		Breakpoint:       bp,
		ElementCount:     len(elements),
		ResponsiveIssues: issues,
	}, nil
}

// extractElements runs the extraction query. Callers apply the focus filter.
func (s *correlationService) extractElements(ctx context.Context, query driven.PageQuery, expr driven.Expression) ([]domain.VisualElement, error) {
	resp, err := query.Query(ctx, driven.PageQueryRequest{Expression: expr, Timeout: s.timeout})
	if err != nil {
		return nil, fmt.Errorf("extract elements: %w", err)
	}

	var payload driven.ElementsPayload
	if err := json.Unmarshal(resp.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode elements: %w", err)
	}

	for _, href := range payload.InaccessibleStylesheets {
		s.logger.Warn("skipping inaccessible stylesheet", "href", href, "error", domain.ErrResourceInaccessible)
	}

	return payload.Elements, nil
}

func (s *correlationService) loadIndex(ctx context.Context, projectPath string) (*domain.ProjectIndex, error) {
	index, err := s.indexes.Get(ctx, projectPath)
	if errors.Is(err, domain.ErrNotIndexed) {
		s.logger.Info("correlating without index", "project", projectPath)
		return nil, nil
	}
	return index, err
}

func (s *correlationService) openSession(ctx context.Context) (driven.PageSession, error) {
	var automation driven.PageAutomation
	if s.services != nil {
		automation = s.services.PageAutomation()
	}
	if automation == nil {
		return nil, domain.ErrAutomationUnavailable
	}
	session, err := automation.NewSession(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAutomationUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrAutomationUnavailable, err)
	}
	return session, nil
}

func (s *correlationService) closeSession(session driven.PageSession) {
	if err := session.Close(); err != nil {
		s.logger.Warn("failed to close page session", "error", err)
	}
}

func (s *correlationService) report(index *domain.ProjectIndex, elements []domain.VisualElement, focus domain.FocusFilter) *domain.CorrelationReport {
	focus = focus.Normalize()
	kept := filterElements(elements, focus)
	correlations := NewCorrelator(index).Correlate(kept)

	summary := domain.Summarize(correlations)
	summary.FilteredElements = len(elements) - len(kept)
	if summary.FilteredElements > 0 {
		s.logger.Debug("elements filtered before correlation", "focus", focus, "filtered", summary.FilteredElements)
	}
	return &domain.CorrelationReport{
		RunID:        uuid.NewString(),
		GeneratedAt:  s.now().UTC(),
		Focus:        focus,
		Correlations: correlations,
		Summary:      summary,
	}
}

func filterElements(elements []domain.VisualElement, focus domain.FocusFilter) []domain.VisualElement {
	kept := make([]domain.VisualElement, 0, len(elements))
	for i := range elements {
		if focus.Allows(&elements[i]) {
			kept = append(kept, elements[i])
		}
	}
	return kept
}
