package runtime

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
)

// Services holds references to dynamically configurable services.
// The page automation endpoint may come and go; health checks swap it here.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	// Dynamic services (can be nil, updated at runtime)
	automation driven.PageAutomation
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// PageAutomation returns the current page automation (may be nil)
func (s *Services) PageAutomation() driven.PageAutomation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.automation
}

// SetPageAutomation updates the page automation and the availability flag
func (s *Services) SetPageAutomation(automation driven.PageAutomation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.automation = automation
	s.config.SetAutomationAvailable(automation != nil)
}

// ValidateAndSetAutomation pings the endpoint before making it current
func (s *Services) ValidateAndSetAutomation(ctx context.Context, automation driven.PageAutomation) error {
	if automation == nil {
		s.SetPageAutomation(nil)
		return nil
	}

	if err := automation.Ping(ctx); err != nil {
		return err
	}

	s.SetPageAutomation(automation)
	return nil
}

// CheckAutomation re-pings the current endpoint and updates the availability flag.
// The automation stays registered so a later check can mark it available again.
func (s *Services) CheckAutomation(ctx context.Context) bool {
	automation := s.PageAutomation()
	if automation == nil {
		return false
	}
	available := automation.Ping(ctx) == nil
	s.config.SetAutomationAvailable(available)
	return available
}

// Close drops all dynamic services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.automation = nil
	s.config.SetAutomationAvailable(false)

	return nil
}
