// Package extractors holds the textual feature extractors used by the indexer.
// Extraction is a keyword and pattern heuristic over source text, not a parser.
package extractors

import (
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry implements ExtractorRegistry with priority-based selection.
// When multiple extractors match an extension, the highest priority one is used.
type Registry struct {
	mu         sync.RWMutex
	extractors []driven.FeatureExtractor
}

// NewRegistry creates a new extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make([]driven.FeatureExtractor, 0),
	}
}

// Register registers an extractor.
func (r *Registry) Register(extractor driven.FeatureExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extractors = append(r.extractors, extractor)
}

// Get retrieves the best-matching extractor for a file extension.
// Returns nil if no extractor is registered for the extension.
func (r *Registry) Get(ext string) driven.FeatureExtractor {
	matches := r.GetAll(ext)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// GetAll retrieves all extractors that match an extension, sorted by priority (highest first).
// Extractors of equal priority keep registration order.
func (r *Registry) GetAll(ext string) []driven.FeatureExtractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []driven.FeatureExtractor
	for _, e := range r.extractors {
		if matchesExtension(e.SupportedExtensions(), ext) {
			matches = append(matches, e)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority() > matches[j].Priority()
	})

	return matches
}

// List returns all registered extensions.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	extSet := make(map[string]struct{})
	for _, e := range r.extractors {
		for _, ext := range e.SupportedExtensions() {
			extSet[ext] = struct{}{}
		}
	}

	exts := make([]string, 0, len(extSet))
	for ext := range extSet {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// matchesExtension checks an extension against a supported list.
// Matching ignores case and a missing leading dot; "*" matches everything.
func matchesExtension(supported []string, ext string) bool {
	ext = normaliseExt(ext)
	for _, s := range supported {
		if s == "*" {
			return true
		}
		if normaliseExt(s) == ext {
			return true
		}
	}
	return false
}

func normaliseExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// DefaultRegistry creates a registry with the built-in extractors pre-registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(&FallbackExtractor{})
	r.Register(&JSXExtractor{})
	r.Register(&VueExtractor{})

	return r
}
