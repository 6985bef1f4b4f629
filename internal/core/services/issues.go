package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

const (
	minTouchTarget = 44
	minFontSize    = 14
	maxProps       = 8
)

// Fixed issue and recommendation texts
const (
	RecommendTouchTarget    = "Increase padding or min-height/min-width to meet 44px touch target minimum"
	RecommendAriaLabel      = "Add aria-label for better accessibility"
	RecommendBreakDown      = "Consider breaking down this component - it has many props and might be too complex"
	RecommendSemanticButton = "Consider using a semantic button element instead of a role-annotated container"
	IssueContrast           = "Potential color contrast issue"
)

var pixelValue = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*(?:px)?\s*$`)

// DetectIssues reports responsive and accessibility issues for one element
func DetectIssues(el *domain.VisualElement) []string {
	issues := make([]string, 0)

	if touchTargetTooSmall(el) {
		issues = append(issues, fmt.Sprintf("Touch target too small: %sx%spx (minimum 44x44px)",
			formatNumber(el.Bounds.Width), formatNumber(el.Bounds.Height)))
	}

	if size, ok := fontSize(el); ok && size < minFontSize {
		issues = append(issues, fmt.Sprintf("Font size too small: %spx (minimum 14px for mobile)", formatNumber(size)))
	}

	fg := el.Style("color", "color")
	bg := el.Style("backgroundColor", "background-color")
	if fg != "" && bg != "" && fg == bg {
		issues = append(issues, IssueContrast)
	}

	return issues
}

// Recommend derives recommendations from the element and its matched component (may be nil)
func Recommend(el *domain.VisualElement, component *domain.ComponentRecord) []string {
	recs := make([]string, 0)

	if touchTargetTooSmall(el) {
		recs = append(recs, RecommendTouchTarget)
	}
	if strings.TrimSpace(el.Attr("aria-label")) == "" && strings.TrimSpace(el.Text) == "" {
		recs = append(recs, RecommendAriaLabel)
	}
	if component != nil && len(component.Props) > maxProps {
		recs = append(recs, RecommendBreakDown)
	}
	if tag := el.Tag(); (tag == "div" || tag == "span") && el.Role() == "button" {
		recs = append(recs, RecommendSemanticButton)
	}

	return recs
}

func touchTargetTooSmall(el *domain.VisualElement) bool {
	return el.Bounds.Width < minTouchTarget || el.Bounds.Height < minTouchTarget
}

// fontSize parses a pixel font size such as "12px" or "12"
func fontSize(el *domain.VisualElement) (float64, bool) {
	m := pixelValue.FindStringSubmatch(el.Style("fontSize", "font-size"))
	if m == nil {
		return 0, false
	}
	size, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return size, true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
