package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

// Match reasons
const (
	ReasonNoMatch = "No matching component found"
	ReasonNoIndex = "No project index available"
)

// Correlator pairs visual elements with indexed components.
// Strategies run in a fixed order and each overrides the current best match
// only under its own numeric condition.
type Correlator struct {
	engine *Engine
}

// NewCorrelator creates a correlator over an index. index may be nil.
func NewCorrelator(index *domain.ProjectIndex) *Correlator {
	if index == nil {
		return &Correlator{}
	}
	return &Correlator{engine: NewEngine(index)}
}

// Correlate produces one correlation per element, in input order
func (c *Correlator) Correlate(elements []domain.VisualElement) []domain.Correlation {
	correlations := make([]domain.Correlation, 0, len(elements))
	for i := range elements {
		correlations = append(correlations, c.CorrelateElement(elements[i]))
	}
	return correlations
}

// candidate is the running best match of one element
type candidate struct {
	component  *domain.ComponentRecord
	confidence float64
	reason     string
}

// CorrelateElement matches one element and attaches its diagnostics
func (c *Correlator) CorrelateElement(el domain.VisualElement) domain.Correlation {
	best := candidate{reason: ReasonNoIndex}
	if c.engine != nil {
		best = c.match(&el)
	}

	corr := domain.Correlation{
		VisualElement:    el,
		SourceComponent:  best.component,
		Confidence:       best.confidence,
		MatchReason:      best.reason,
		ResponsiveIssues: DetectIssues(&el),
		Recommendations:  Recommend(&el, best.component),
	}
	if best.component != nil {
		corr.CodeSnippet = CodeSnippet(best.component.SourceText)
	}
	return corr
}

func (c *Correlator) match(el *domain.VisualElement) candidate {
	var best candidate

	// Text content
	if text := strings.TrimSpace(el.Text); utf8.RuneCountInString(text) > 2 {
		if top, ok := c.top(domain.SearchQuery{Text: text}); ok {
			best = candidate{
				component:  top.Component,
				confidence: min(float64(top.RelevanceScore)/20, 0.8),
				reason:     fmt.Sprintf("Matched by text content: '%s'", text),
			}
		}
	}

	// Element type
	if best.component == nil || best.confidence < 0.5 {
		if query, ok := typeQuery(el); ok {
			if top, ok := c.top(query); ok {
				score := float64(top.RelevanceScore)
				if score > 5 && (best.component == nil || score > best.confidence*20) {
					best = candidate{
						component:  top.Component,
						confidence: min(score/15, 0.9),
						reason:     "Matched by element type and props: " + query.Text,
					}
				}
			}
		}
	}

	// CSS class tokens
	if (best.component == nil || best.confidence < 0.6) && strings.TrimSpace(el.ClassName) != "" {
		for _, token := range strings.Fields(el.ClassName) {
			if utf8.RuneCountInString(token) <= 2 {
				continue
			}
			top, ok := c.top(domain.SearchQuery{Text: token})
			if !ok {
				continue
			}
			score := float64(top.RelevanceScore)
			if score > 3 && (best.component == nil || score > best.confidence*15) {
				best = candidate{
					component:  top.Component,
					confidence: min(score/12, 0.7),
					reason:     fmt.Sprintf("Matched by CSS class: '%s'", token),
				}
			}
		}
	}

	if best.component == nil {
		return candidate{reason: ReasonNoMatch}
	}
	return best
}

func (c *Correlator) top(query domain.SearchQuery) (domain.SearchResult, bool) {
	results := c.engine.Search(query)
	if len(results) == 0 {
		return domain.SearchResult{}, false
	}
	return results[0], true
}

// typeQuery builds the element-type query. ok is false when the element has no known type.
func typeQuery(el *domain.VisualElement) (domain.SearchQuery, bool) {
	tag := el.Tag()
	switch {
	case tag == "button" || el.Role() == "button":
		return domain.SearchQuery{Text: "button", Tags: []string{domain.TagInteractive}}, true
	case tag == "input" || tag == "textarea" || tag == "select":
		return domain.SearchQuery{Text: "input", Tags: []string{domain.TagInteractive}}, true
	case strings.Contains(strings.ToLower(el.ClassName), "card"):
		return domain.SearchQuery{Text: "card", Tags: []string{domain.TagContainer}}, true
	case tag == "nav":
		return domain.SearchQuery{Text: "navigation"}, true
	}
	return domain.SearchQuery{}, false
}
