package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

// highlightRadius is the number of bytes kept on each side of a match
const highlightRadius = 50

var classMarker = regexp.MustCompile(`class\s+\w+\s+extends`)

// Engine evaluates relevance and similarity over one loaded ProjectIndex.
// The index is read-only after load, so an Engine is safe for concurrent queries.
type Engine struct {
	index *domain.ProjectIndex
}

// NewEngine creates an engine over a loaded index
func NewEngine(index *domain.ProjectIndex) *Engine {
	return &Engine{index: index}
}

// Index returns the index the engine reads
func (e *Engine) Index() *domain.ProjectIndex {
	return e.index
}

// Search scores every component, drops zero scores and returns the rest
// sorted by descending score. Equal scores keep index order.
func (e *Engine) Search(query domain.SearchQuery) []domain.SearchResult {
	results := make([]domain.SearchResult, 0)
	if query.Framework != "" && query.Framework != e.index.Metadata.Framework {
		return results
	}

	for i := range e.index.Components {
		c := &e.index.Components[i]
		score := Score(c, query)
		if score <= 0 {
			continue
		}
		results = append(results, domain.SearchResult{
			Component:      c,
			RelevanceScore: score,
			Matches:        Highlight(c, query.Text),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results
}

// Score is the additive relevance of a component for a query, floored at 0
func Score(c *domain.ComponentRecord, query domain.SearchQuery) int {
	score := 0

	if text := query.Text; text != "" {
		if indexFold(c.Name, text) >= 0 {
			score += 10
		}
		if strings.Contains(c.Description, text) {
			score += 5
		}
		if strings.Contains(c.SourceText, text) {
			score += 2
		}
		for _, p := range c.Props {
			if strings.Contains(p.Name, text) || strings.Contains(p.Type, text) {
				score += 3
			}
		}
	}

	for _, tag := range query.Tags {
		if c.HasTag(tag) {
			score += 4
		}
	}

	switch query.ComponentType {
	case domain.ComponentTypeFunctional:
		score += filterDelta(isFunctional(c.SourceText), 2, -5)
	case domain.ComponentTypeClass:
		score += filterDelta(isClass(c.SourceText), 2, -5)
	}

	if query.HasProps != nil {
		score += filterDelta((len(c.Props) > 0) == *query.HasProps, 2, -3)
	}
	if query.HasSideEffects != nil {
		score += filterDelta(c.HasTag(domain.TagSideEffects) == *query.HasSideEffects, 2, -3)
	}

	for _, usage := range query.UsedIn {
		if containsString(c.UsedIn, usage) {
			score += 3
		}
	}

	if score < 0 {
		return 0
	}
	return score
}

func filterDelta(matched bool, hit, miss int) int {
	if matched {
		return hit
	}
	return miss
}

func isFunctional(source string) bool {
	return strings.Contains(source, "function ") ||
		strings.Contains(source, "=>") ||
		strings.Contains(source, "const ")
}

func isClass(source string) bool {
	return classMarker.MatchString(source) ||
		(strings.Contains(source, "class ") && strings.Contains(source, "extends "))
}

// Highlight returns one match per field (name, description, sourceText) containing text.
// Name matching ignores case like scoring does; the other fields are exact.
func Highlight(c *domain.ComponentRecord, text string) []domain.Match {
	matches := make([]domain.Match, 0)
	if text == "" {
		return matches
	}

	fields := []struct {
		name  string
		value string
		at    int
	}{
		{"name", c.Name, indexFold(c.Name, text)},
		{"description", c.Description, strings.Index(c.Description, text)},
		{"sourceText", c.SourceText, strings.Index(c.SourceText, text)},
	}

	for _, f := range fields {
		if f.at < 0 {
			continue
		}
		matches = append(matches, window(f.name, f.value, f.at, len(text)))
	}
	return matches
}

// window cuts a snippet of highlightRadius bytes around [at, at+n),
// widened to rune boundaries, with offsets relative to the snippet
func window(field, value string, at, n int) domain.Match {
	start := max(0, at-highlightRadius)
	end := min(len(value), at+n+highlightRadius)
	for start > 0 && !utf8.RuneStart(value[start]) {
		start--
	}
	for end < len(value) && !utf8.RuneStart(value[end]) {
		end++
	}
	return domain.Match{
		Field:          field,
		Snippet:        value[start:end],
		HighlightStart: at - start,
		HighlightEnd:   at - start + n,
	}
}

// indexFold is a case-insensitive strings.Index returning a byte offset into s
func indexFold(s, substr string) int {
	n := len(substr)
	if n == 0 {
		return 0
	}
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}

// FindSimilar ranks every other component by similarity to the component with the given id.
// Scores at or below 0.1 are dropped. An unknown id yields an empty result.
func (e *Engine) FindSimilar(id string, mode domain.SimilarityMode, limit int) []domain.SimilarityResult {
	results := make([]domain.SimilarityResult, 0)
	ref := e.index.Component(id)
	if ref == nil {
		return results
	}

	for i := range e.index.Components {
		c := &e.index.Components[i]
		if c.ID == ref.ID {
			continue
		}
		score := Similarity(ref, c, mode)
		if score <= 0.1 {
			continue
		}
		results = append(results, domain.SimilarityResult{
			Component:       c,
			SimilarityScore: score,
			SimilarityType:  mode,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// UsageGraph maps each component id to the contexts using it.
// It starts from every component's usedIn and adds each page that references
// the component by name. Contexts are never duplicated.
func (e *Engine) UsageGraph() domain.UsageGraph {
	graph := make(domain.UsageGraph, len(e.index.Components))
	for _, c := range e.index.Components {
		contexts := make([]string, 0, len(c.UsedIn))
		for _, usage := range c.UsedIn {
			if !containsString(contexts, usage) {
				contexts = append(contexts, usage)
			}
		}
		graph[c.ID] = contexts
	}

	for _, page := range e.index.Pages {
		for _, name := range page.Components {
			c := e.index.ComponentByName(name)
			if c == nil {
				continue
			}
			if !containsString(graph[c.ID], page.ID) {
				graph[c.ID] = append(graph[c.ID], page.ID)
			}
		}
	}
	return graph
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
