package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
)

// MockPageAutomation hands out MockPageSessions and remembers them for assertions
type MockPageAutomation struct {
	mu       sync.Mutex
	sessions []*MockPageSession

	// NewSessionErr makes NewSession fail
	NewSessionErr error
	PingErr       error

	// Configure is applied to every new session before it is returned
	Configure func(s *MockPageSession)
}

// NewMockPageAutomation creates a new MockPageAutomation
func NewMockPageAutomation() *MockPageAutomation {
	return &MockPageAutomation{}
}

func (m *MockPageAutomation) NewSession(ctx context.Context) (driven.PageSession, error) {
	if m.NewSessionErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAutomationUnavailable, m.NewSessionErr)
	}
	s := NewMockPageSession()
	if m.Configure != nil {
		m.Configure(s)
	}
	m.mu.Lock()
	m.sessions = append(m.sessions, s)
	m.mu.Unlock()
	return s, nil
}

func (m *MockPageAutomation) Ping(ctx context.Context) error {
	return m.PingErr
}

// Sessions returns every session handed out so far
func (m *MockPageAutomation) Sessions() []*MockPageSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockPageSession(nil), m.sessions...)
}

// MockPageSession is a scripted page. Elements are served per viewport width
// when ElementsByWidth has an entry, otherwise Elements is used.
type MockPageSession struct {
	mu       sync.Mutex
	viewport domain.Viewport
	closed   int
	calls    []string

	Elements                []domain.VisualElement
	ElementsByWidth         map[int][]domain.VisualElement
	InaccessibleStylesheets []string

	NavigateErr error
	QueryErr    error

	// SelectorErr returns the WaitForSelector outcome for the current viewport
	SelectorErr func(viewport domain.Viewport, selector string) error
}

// NewMockPageSession creates a new MockPageSession
func NewMockPageSession() *MockPageSession {
	return &MockPageSession{ElementsByWidth: make(map[int][]domain.VisualElement)}
}

func (s *MockPageSession) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *MockPageSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	s.record("navigate " + url)
	return s.NavigateErr
}

func (s *MockPageSession) SetViewport(ctx context.Context, viewport domain.Viewport) error {
	s.record(fmt.Sprintf("viewport %dx%d", viewport.Width, viewport.Height))
	s.mu.Lock()
	s.viewport = viewport
	s.mu.Unlock()
	return nil
}

func (s *MockPageSession) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	s.record("network-idle")
	return nil
}

func (s *MockPageSession) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	s.record("selector " + selector)
	if s.SelectorErr == nil {
		return nil
	}
	s.mu.Lock()
	vp := s.viewport
	s.mu.Unlock()
	return s.SelectorErr(vp, selector)
}

func (s *MockPageSession) Query(ctx context.Context, req driven.PageQueryRequest) (*driven.PageQueryResponse, error) {
	s.record("query " + string(req.Expression.Kind))
	if s.QueryErr != nil {
		return nil, s.QueryErr
	}

	s.mu.Lock()
	elements := s.Elements
	if byWidth, ok := s.ElementsByWidth[s.viewport.Width]; ok {
		elements = byWidth
	}
	s.mu.Unlock()

	var payload any
	switch req.Expression.Kind {
	case driven.ExpressionExtractElements:
		payload = driven.ElementsPayload{Elements: elements, InaccessibleStylesheets: s.InaccessibleStylesheets}
	case driven.ExpressionSelectorState:
		payload = driven.SelectorStatePayload{State: driven.SelectorVisible}
	default:
		return nil, fmt.Errorf("unsupported expression %q", req.Expression.Kind)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &driven.PageQueryResponse{Payload: data}, nil
}

func (s *MockPageSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// Closed reports whether Close was called at least once
func (s *MockPageSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed > 0
}

// Calls returns the recorded call log in order
func (s *MockPageSession) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
