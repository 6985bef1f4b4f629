package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-components/internal/runtime"
)

func newCorrelationFixture(index *domain.ProjectIndex) (*mocks.MockPageAutomation, *correlationService) {
	indexes := new(mockIndexService)
	if index != nil {
		indexes.On("Get", mock.Anything, mock.Anything).Return(index, nil)
	} else {
		indexes.On("Get", mock.Anything, mock.Anything).Return(nil, domain.ErrNotIndexed)
	}

	automation := mocks.NewMockPageAutomation()
	services := runtime.NewServices(domain.NewRuntimeConfig("memory", "memory", false))
	services.SetPageAutomation(automation)

	svc := NewCorrelationService(CorrelationServiceConfig{
		Indexes:  indexes,
		Services: services,
		Now:      func() time.Time { return fixtureTime },
	}).(*correlationService)
	return automation, svc
}

func pageElements() []domain.VisualElement {
	return []domain.VisualElement{
		element("button", withText("OK")),
		element("input", withBounds(200, 30)),
		element("div", withClass("card"), withText("Card body")),
		element("span", withText("decoration")),
		element("button", withBounds(0, 0)),
	}
}

func TestCorrelationService_Correlate(t *testing.T) {
	_, svc := newCorrelationFixture(testIndex(submitButton()))

	report, err := svc.Correlate(context.Background(), "/project", pageElements(), domain.FocusButton)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, fixtureTime, report.GeneratedAt)
	assert.Equal(t, domain.FocusButton, report.Focus)
	require.Len(t, report.Correlations, 1, "hidden and non-button elements are filtered")
	assert.Equal(t, "src/components/SubmitButton", report.Correlations[0].SourceComponent.ID)
	assert.Equal(t, domain.CorrelationSummary{TotalElements: 1, MatchedElements: 1, FilteredElements: 4}, report.Summary)
}

func TestCorrelationService_CorrelateWithoutIndex(t *testing.T) {
	_, svc := newCorrelationFixture(nil)

	report, err := svc.Correlate(context.Background(), "/project", pageElements(), "")
	require.NoError(t, err)

	assert.Equal(t, domain.FocusAll, report.Focus)
	require.Len(t, report.Correlations, 3)
	for _, c := range report.Correlations {
		assert.Nil(t, c.SourceComponent)
		assert.Equal(t, ReasonNoIndex, c.MatchReason)
	}
	assert.Equal(t, 3, report.Summary.UnmatchedElements)
	assert.Equal(t, 2, report.Summary.FilteredElements, "span is not allow-listed and the empty button has no box")
	// input is 30px tall
	assert.Equal(t, 1, report.Summary.ResponsiveIssues)
}

func TestCorrelationService_AnalyzePage(t *testing.T) {
	automation, svc := newCorrelationFixture(testIndex(submitButton()))
	automation.Configure = func(s *mocks.MockPageSession) {
		s.Elements = pageElements()
		s.InaccessibleStylesheets = []string{"https://cdn.example.com/site.css"}
	}

	report, err := svc.AnalyzePage(context.Background(), "/project", "http://localhost:3000", domain.FocusAll, &domain.Viewport{Width: 375, Height: 667})
	require.NoError(t, err)
	assert.Len(t, report.Correlations, 3)
	assert.Equal(t, 2, report.Summary.FilteredElements)

	sessions := automation.Sessions()
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Closed())
	assert.Equal(t, []string{
		"viewport 375x667",
		"navigate http://localhost:3000",
		"network-idle",
		"query extract_elements",
	}, sessions[0].Calls())
}

func TestCorrelationService_AnalyzePageClosesSessionOnError(t *testing.T) {
	automation, svc := newCorrelationFixture(testIndex(submitButton()))
	automation.Configure = func(s *mocks.MockPageSession) {
		s.NavigateErr = domain.ErrTimeout
	}

	_, err := svc.AnalyzePage(context.Background(), "/project", "http://localhost:3000", domain.FocusAll, nil)
	assert.ErrorIs(t, err, domain.ErrTimeout)

	sessions := automation.Sessions()
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Closed())
	assert.Equal(t, []string{"navigate http://localhost:3000"}, sessions[0].Calls())
}

func TestCorrelationService_AnalyzePageQueryError(t *testing.T) {
	automation, svc := newCorrelationFixture(testIndex(submitButton()))
	automation.Configure = func(s *mocks.MockPageSession) {
		s.QueryErr = errors.New("evaluation failed")
	}

	_, err := svc.AnalyzePage(context.Background(), "/project", "http://localhost:3000", domain.FocusAll, nil)
	require.Error(t, err)
	assert.True(t, automation.Sessions()[0].Closed())
}

func TestCorrelationService_AnalyzePageValidation(t *testing.T) {
	automation, svc := newCorrelationFixture(testIndex(submitButton()))

	_, err := svc.AnalyzePage(context.Background(), "/project", "  ", domain.FocusAll, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, automation.Sessions())
}

func TestCorrelationService_AutomationUnavailable(t *testing.T) {
	automation, svc := newCorrelationFixture(testIndex(submitButton()))
	automation.NewSessionErr = errors.New("connection refused")

	_, err := svc.AnalyzePage(context.Background(), "/project", "http://localhost:3000", domain.FocusAll, nil)
	assert.ErrorIs(t, err, domain.ErrAutomationUnavailable)

	_, err = svc.AnalyzeResponsive(context.Background(), "http://localhost:3000", nil, "")
	assert.ErrorIs(t, err, domain.ErrAutomationUnavailable)
}

func TestCorrelationService_NoAutomationRegistered(t *testing.T) {
	svc := NewCorrelationService(CorrelationServiceConfig{Indexes: new(mockIndexService)})

	_, err := svc.AnalyzeResponsive(context.Background(), "http://localhost:3000", nil, "")
	assert.ErrorIs(t, err, domain.ErrAutomationUnavailable)
}

func TestCorrelationService_AnalyzeResponsive(t *testing.T) {
	automation, svc := newCorrelationFixture(nil)
	automation.Configure = func(s *mocks.MockPageSession) {
		s.ElementsByWidth[375] = []domain.VisualElement{
			element("button", withBounds(30, 30)),
			element("a", withStyle("fontSize", "12px")),
		}
		s.Elements = []domain.VisualElement{element("button")}
	}

	report, err := svc.AnalyzeResponsive(context.Background(), "http://localhost:3000", nil, "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", report.URL)
	require.Len(t, report.Breakpoints, 3)

	mobile := report.Breakpoints[0]
	assert.Equal(t, "mobile", mobile.Breakpoint.Name)
	assert.Equal(t, 2, mobile.ElementCount)
	require.Len(t, mobile.ResponsiveIssues, 2)
	assert.Equal(t, []string{"Touch target too small: 30x30px (minimum 44x44px)"}, mobile.ResponsiveIssues[0].Issues)
	assert.Equal(t, []string{"Font size too small: 12px (minimum 14px for mobile)"}, mobile.ResponsiveIssues[1].Issues)

	for _, bp := range report.Breakpoints[1:] {
		assert.Equal(t, 1, bp.ElementCount)
		assert.Empty(t, bp.ResponsiveIssues)
		assert.Empty(t, bp.Error)
	}

	sessions := automation.Sessions()
	require.Len(t, sessions, 1, "all breakpoints share one session")
	assert.True(t, sessions[0].Closed())
}

func TestCorrelationService_AnalyzeResponsiveSelectorErrorPerBreakpoint(t *testing.T) {
	automation, svc := newCorrelationFixture(nil)
	automation.Configure = func(s *mocks.MockPageSession) {
		s.Elements = []domain.VisualElement{element("button")}
		s.SelectorErr = func(viewport domain.Viewport, selector string) error {
			if viewport.Width == 768 {
				return domain.ErrElementNotVisible
			}
			return nil
		}
	}

	report, err := svc.AnalyzeResponsive(context.Background(), "http://localhost:3000", nil, "#hero")
	require.NoError(t, err)
	require.Len(t, report.Breakpoints, 3)

	assert.Empty(t, report.Breakpoints[0].Error)
	assert.Contains(t, report.Breakpoints[1].Error, domain.ErrElementNotVisible.Error())
	assert.Equal(t, 0, report.Breakpoints[1].ElementCount)
	assert.NotNil(t, report.Breakpoints[1].ResponsiveIssues)
	assert.Empty(t, report.Breakpoints[2].Error)
	assert.Equal(t, 1, report.Breakpoints[2].ElementCount)

	calls := automation.Sessions()[0].Calls()
	assert.Contains(t, calls, "selector #hero")
	assert.True(t, automation.Sessions()[0].Closed())
}

func TestCorrelationService_AnalyzeResponsiveCancelled(t *testing.T) {
	automation, svc := newCorrelationFixture(nil)
	ctx, cancel := context.WithCancel(context.Background())
	automation.Configure = func(s *mocks.MockPageSession) {
		s.SelectorErr = func(viewport domain.Viewport, selector string) error {
			cancel()
			return context.Canceled
		}
	}

	_, err := svc.AnalyzeResponsive(ctx, "http://localhost:3000", nil, "#hero")
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, automation.Sessions()[0].Closed())
}

func TestCorrelationService_AnalyzeResponsiveCustomBreakpoints(t *testing.T) {
	automation, svc := newCorrelationFixture(nil)

	breakpoints := []domain.Breakpoint{{Name: "watch", Viewport: domain.Viewport{Width: 200, Height: 200}}}
	report, err := svc.AnalyzeResponsive(context.Background(), "http://localhost:3000", breakpoints, "")
	require.NoError(t, err)
	require.Len(t, report.Breakpoints, 1)
	assert.Equal(t, "watch", report.Breakpoints[0].Breakpoint.Name)
	assert.Equal(t, []string{
		"viewport 200x200",
		"navigate http://localhost:3000",
		"network-idle",
		"query extract_elements",
	}, automation.Sessions()[0].Calls())

	_, err = svc.AnalyzeResponsive(context.Background(), "http://localhost:3000",
		[]domain.Breakpoint{{Name: "broken"}}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
