package domain

import (
	"strings"
	"time"
)

// Bounds is an element's bounding box in CSS pixels
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// VisualElement is an element observed on a rendered page
type VisualElement struct {
	Selector   string            `json:"selector"`
	Text       string            `json:"text"`
	Bounds     Bounds            `json:"bounds"`
	TagName    string            `json:"tagName"`
	ClassName  string            `json:"className"`
	ID         string            `json:"id"`
	Attributes map[string]string `json:"attributes"`
	Styles     map[string]string `json:"styles"`
}

// Tag returns the lowercased tag name
func (e *VisualElement) Tag() string {
	return strings.ToLower(e.TagName)
}

// Attr returns an attribute value, or "" if absent
func (e *VisualElement) Attr(name string) string {
	if e.Attributes == nil {
		return ""
	}
	return e.Attributes[name]
}

// Role returns the lowercased ARIA role attribute
func (e *VisualElement) Role() string {
	return strings.ToLower(strings.TrimSpace(e.Attr("role")))
}

// Style returns a computed style value by camelCase or kebab-case key
func (e *VisualElement) Style(camel, kebab string) string {
	if e.Styles == nil {
		return ""
	}
	if v, ok := e.Styles[camel]; ok {
		return v
	}
	return e.Styles[kebab]
}

// Hidden reports zero-area or display:none elements
func (e *VisualElement) Hidden() bool {
	if e.Bounds.Width <= 0 || e.Bounds.Height <= 0 {
		return true
	}
	return strings.TrimSpace(e.Style("display", "display")) == "none"
}

// Correlation pairs one visual element with at most one source component
type Correlation struct {
	VisualElement    VisualElement    `json:"visualElement"`
	SourceComponent  *ComponentRecord `json:"sourceComponent"`
	Confidence       float64          `json:"confidence"`
	MatchReason      string           `json:"matchReason"`
	CodeSnippet      string           `json:"codeSnippet,omitempty"`
	ResponsiveIssues []string         `json:"responsiveIssues"`
	Recommendations  []string         `json:"recommendations"`
}

// CorrelationSummary aggregates one correlation run.
// FilteredElements counts inputs dropped by the focus filter or for having no visible box;
// they appear in neither Correlations nor TotalElements.
type CorrelationSummary struct {
	TotalElements     int `json:"totalElements"`
	MatchedElements   int `json:"matchedElements"`
	UnmatchedElements int `json:"unmatchedElements"`
	ResponsiveIssues  int `json:"responsiveIssues"`
	FilteredElements  int `json:"filteredElements"`
}

// CorrelationReport is the result of one analysis call. It is never persisted.
type CorrelationReport struct {
	RunID        string             `json:"runId"`
	GeneratedAt  time.Time          `json:"generatedAt"`
	Focus        FocusFilter        `json:"focus"`
	Correlations []Correlation      `json:"correlations"`
	Summary      CorrelationSummary `json:"summary"`
}

// Summarize aggregates a set of correlations
func Summarize(correlations []Correlation) CorrelationSummary {
	s := CorrelationSummary{TotalElements: len(correlations)}
	for _, c := range correlations {
		if c.SourceComponent != nil {
			s.MatchedElements++
		}
		s.ResponsiveIssues += len(c.ResponsiveIssues)
	}
	s.UnmatchedElements = s.TotalElements - s.MatchedElements
	return s
}

// FocusFilter restricts which page elements take part in an analysis
type FocusFilter string

const (
	FocusAll    FocusFilter = "all"
	FocusButton FocusFilter = "button"
	FocusInput  FocusFilter = "input"
	FocusCard   FocusFilter = "card"
)

var (
	buttonTags   = []string{"button"}
	inputTags    = []string{"input", "textarea", "select"}
	landmarkTags = []string{"nav", "header", "footer", "main", "section", "article", "aside", "form", "a"}
)

// IsValid reports whether f is a known focus value
func (f FocusFilter) IsValid() bool {
	switch f {
	case FocusAll, FocusButton, FocusInput, FocusCard:
		return true
	}
	return false
}

// Normalize maps an empty or unknown focus to FocusAll
func (f FocusFilter) Normalize() FocusFilter {
	if f.IsValid() {
		return f
	}
	return FocusAll
}

// Tags returns the tag allow-list for the focus
func (f FocusFilter) Tags() []string {
	switch f.Normalize() {
	case FocusButton:
		return buttonTags
	case FocusInput:
		return inputTags
	case FocusCard:
		return nil
	}
	all := make([]string, 0, len(buttonTags)+len(inputTags)+len(landmarkTags))
	all = append(all, buttonTags...)
	all = append(all, inputTags...)
	return append(all, landmarkTags...)
}

// Allows reports whether the element passes the focus allow-list and is visible
func (f FocusFilter) Allows(e *VisualElement) bool {
	if e.Hidden() {
		return false
	}
	tag := e.Tag()
	role := e.Role()
	isCard := strings.Contains(strings.ToLower(e.ClassName), "card")

	switch f.Normalize() {
	case FocusButton:
		return tag == "button" || role == "button" ||
			(tag == "input" && (e.Attr("type") == "submit" || e.Attr("type") == "button"))
	case FocusInput:
		return contains(inputTags, tag) || role == "textbox"
	case FocusCard:
		return isCard
	}
	return contains(f.Tags(), tag) || role == "button" || isCard
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Viewport is a page viewport size
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Breakpoint is a named viewport used for responsive captures
type Breakpoint struct {
	Name     string   `json:"name"`
	Viewport Viewport `json:"viewport"`
}

// DefaultBreakpoints returns the mobile, tablet and desktop breakpoints
func DefaultBreakpoints() []Breakpoint {
	return []Breakpoint{
		{Name: "mobile", Viewport: Viewport{Width: 375, Height: 667}},
		{Name: "tablet", Viewport: Viewport{Width: 768, Height: 1024}},
		{Name: "desktop", Viewport: Viewport{Width: 1440, Height: 900}},
	}
}

// BreakpointReport is the outcome of one breakpoint capture step.
// Error is set when the step was aborted; other breakpoints are unaffected.
type BreakpointReport struct {
	Breakpoint       Breakpoint     `json:"breakpoint"`
	ElementCount     int            `json:"elementCount"`
	ResponsiveIssues []ElementIssue `json:"responsiveIssues"`
	Error            string         `json:"error,omitempty"`
}

// ElementIssue ties issues to the element they were found on
type ElementIssue struct {
	Selector string   `json:"selector"`
	Issues   []string `json:"issues"`
}

// ResponsiveReport is the result of a multi-breakpoint analysis
type ResponsiveReport struct {
	RunID       string             `json:"runId"`
	URL         string             `json:"url"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Breakpoints []BreakpointReport `json:"breakpoints"`
}
