package domain

// ComponentType filters components by declaration style
type ComponentType string

const (
	ComponentTypeFunctional ComponentType = "functional"
	ComponentTypeClass      ComponentType = "class"
	ComponentTypeAny        ComponentType = "any"
)

// SearchQuery is a text/tag/type query over a project index.
// Nil pointer fields and empty slices mean "no filter".
type SearchQuery struct {
	Text           string        `json:"text,omitempty"`
	Tags           []string      `json:"tags,omitempty"`
	Framework      Framework     `json:"framework,omitempty"`
	ComponentType  ComponentType `json:"componentType,omitempty"`
	HasProps       *bool         `json:"hasProps,omitempty"`
	HasSideEffects *bool         `json:"hasSideEffects,omitempty"`
	UsedIn         []string      `json:"usedIn,omitempty"`
	Limit          int           `json:"limit,omitempty"` // 0 = unlimited
}

// Match locates the query text in one field of a component
type Match struct {
	Field          string `json:"field"`
	Snippet        string `json:"snippet"`
	HighlightStart int    `json:"highlightStart"` // offset into Snippet
	HighlightEnd   int    `json:"highlightEnd"`
}

// SearchResult is one ranked component
type SearchResult struct {
	Component      *ComponentRecord `json:"component"`
	RelevanceScore int              `json:"relevanceScore"`
	Matches        []Match          `json:"matches"`
}

// SimilarityMode selects how two components are compared
type SimilarityMode string

const (
	SimilaritySemantic SimilarityMode = "semantic"
	SimilarityVisual   SimilarityMode = "visual"
	SimilarityUsage    SimilarityMode = "usage"
)

// IsValid reports whether m is a known similarity mode
func (m SimilarityMode) IsValid() bool {
	switch m {
	case SimilaritySemantic, SimilarityVisual, SimilarityUsage:
		return true
	}
	return false
}

// SimilarityResult is one component ranked by similarity to a reference component
type SimilarityResult struct {
	Component       *ComponentRecord `json:"component"`
	SimilarityScore float64          `json:"similarityScore"`
	SimilarityType  SimilarityMode   `json:"similarityType"`
}

// UsageGraph maps component ids to the contexts they are used in
type UsageGraph map[string][]string
