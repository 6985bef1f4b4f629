package driven

import "github.com/custodia-labs/sercha-components/internal/core/domain"

// Features is what a textual feature extractor reads from one source file
type Features struct {
	Imports     []string
	Props       []domain.Prop
	Tags        []string
	Description string
	Styles      map[string]string
}

// FeatureExtractor reads component features from source text.
// Implementations are best-effort textual heuristics, not parsers.
type FeatureExtractor interface {
	// Extract reads imports, props, tags, description and inline styles.
	// name is the component display name, used for the default description.
	// An error means the file cannot be treated as a component and is skipped.
	Extract(source string, name string) (*Features, error)

	// UsedComponents returns capitalized component names referenced in markup,
	// deduplicated, in first-occurrence order.
	UsedComponents(source string) []string

	// SupportedExtensions returns file extensions (with leading dot) this extractor handles.
	// "*" matches every extension.
	SupportedExtensions() []string

	// Priority returns the extractor priority (higher = more specific).
	// Priority ranges:
	//   50-89: Framework-specific (Vue single-file components, JSX/TSX)
	//   1-9:   Fallback (generic keyword scan)
	Priority() int
}

// ExtractorRegistry manages feature extractors.
// When multiple extractors match an extension, the highest priority one is used.
type ExtractorRegistry interface {
	// Get retrieves the best-matching extractor for a file extension.
	// Returns nil if no extractor is registered for the extension.
	Get(ext string) FeatureExtractor

	// GetAll retrieves all extractors that match an extension, sorted by priority (highest first).
	GetAll(ext string) []FeatureExtractor

	// Register registers an extractor.
	Register(extractor FeatureExtractor)

	// List returns all registered extensions.
	List() []string
}
