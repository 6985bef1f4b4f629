package extractors

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

// ErrNotText is returned for sources that are not valid UTF-8 text
var ErrNotText = errors.New("source is not text")

var (
	importPattern       = regexp.MustCompile(`import\s+[^;'"]*?\s*from\s+['"]([^'"]+)['"]`)
	propsBlockPattern   = regexp.MustCompile(`(?:interface|type)\s+\w+Props(?:\s+extends\s+[^{]+)?\s*=?\s*\{([^}]*)\}`)
	propLinePattern     = regexp.MustCompile(`^(\w+)(\?)?\s*:\s*(.+)$`)
	destructurePattern  = regexp.MustCompile(`\(\s*\{([^}]*)\}`)
	blockCommentPattern = regexp.MustCompile(`^\s*/\*([\s\S]*?)\*/`)
	usagePattern        = regexp.MustCompile(`<([A-Z][A-Za-z0-9]*)`)
	jsxStylePattern     = regexp.MustCompile(`style=\{\{([^}]*)\}\}`)
	styleEntryPattern   = regexp.MustCompile(`^['"]?([A-Za-z-]+)['"]?\s*:\s*(.+)$`)
)

func validateText(source string) error {
	if !utf8.ValidString(source) || strings.ContainsRune(source, 0) {
		return ErrNotText
	}
	return nil
}

// extractImports returns every imported module path in source order
func extractImports(source string) []string {
	imports := make([]string, 0)
	for _, m := range importPattern.FindAllStringSubmatch(source, -1) {
		imports = append(imports, m[1])
	}
	return imports
}

// extractProps parses the first <Identifier>Props shape.
// Each "name?: type" line becomes one prop; "?" marks it optional.
func extractProps(source string) []domain.Prop {
	props := make([]domain.Prop, 0)
	m := propsBlockPattern.FindStringSubmatch(source)
	if m == nil {
		return props
	}
	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimRight(line, ";,")
		pm := propLinePattern.FindStringSubmatch(line)
		if pm == nil {
			continue
		}
		props = append(props, domain.Prop{
			Name:     pm[1],
			Type:     strings.TrimSpace(pm[3]),
			Required: pm[2] == "",
		})
	}
	return props
}

// applyDefaults attaches "name = value" defaults from the first destructured
// parameter object to props of the same name
func applyDefaults(source string, props []domain.Prop) {
	if len(props) == 0 {
		return
	}
	m := destructurePattern.FindStringSubmatch(source)
	if m == nil {
		return
	}
	defaults := make(map[string]string)
	for _, part := range strings.Split(m[1], ",") {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		defaults[strings.TrimSpace(name)] = unquote(strings.TrimSpace(value))
	}
	for i := range props {
		if v, ok := defaults[props[i].Name]; ok {
			props[i].DefaultValue = &v
		}
	}
}

// leadingComment returns the first non-empty line of a leading block comment
func leadingComment(source string) string {
	m := blockCommentPattern.FindStringSubmatch(source)
	if m == nil {
		return ""
	}
	return firstContentLine(m[1])
}

func firstContentLine(comment string) string {
	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "*"))
		if line != "" {
			return line
		}
	}
	return ""
}

func describe(comment, name string) string {
	if comment != "" {
		return comment
	}
	return name + " component"
}

// usedComponents returns capitalized tag names in first-occurrence order
func usedComponents(source string) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, m := range usagePattern.FindAllStringSubmatch(source, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		names = append(names, m[1])
	}
	return names
}

// inlineStyles reads every style={{ ... }} object. Later objects override earlier keys.
// Returns nil when the source has no inline styles.
func inlineStyles(source string) map[string]string {
	var styles map[string]string
	for _, m := range jsxStylePattern.FindAllStringSubmatch(source, -1) {
		for _, entry := range strings.Split(m[1], ",") {
			em := styleEntryPattern.FindStringSubmatch(strings.TrimSpace(entry))
			if em == nil {
				continue
			}
			if styles == nil {
				styles = make(map[string]string)
			}
			styles[em[1]] = unquote(strings.TrimSpace(em[2]))
		}
	}
	return styles
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' || first == '"' || first == '`') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}
