package domain

import "sync"

// RuntimeConfig tracks which backends are wired at runtime.
// Backends are set at startup; automation availability is updated by health checks.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	LockBackend    string // "redis", "postgres" or "local"
	CacheBackend   string // "redis" or "memory"
	HistoryEnabled bool

	automationAvailable bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(lockBackend, cacheBackend string, historyEnabled bool) *RuntimeConfig {
	return &RuntimeConfig{
		LockBackend:    lockBackend,
		CacheBackend:   cacheBackend,
		HistoryEnabled: historyEnabled,
	}
}

// AutomationAvailable returns whether the page automation endpoint answered its last health check
func (c *RuntimeConfig) AutomationAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.automationAvailable
}

// SetAutomationAvailable updates the automation availability flag
func (c *RuntimeConfig) SetAutomationAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.automationAvailable = available
}
