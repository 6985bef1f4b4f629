package services

import (
	"regexp"
	"strings"
)

var returnStatement = regexp.MustCompile(`\breturn\b`)

// CodeSnippet returns the lines around the first return statement of a source,
// from two lines before it to fifteen after. Without a return it returns the first 20 lines.
func CodeSnippet(source string) string {
	lines := strings.Split(source, "\n")

	for i, line := range lines {
		if !returnStatement.MatchString(line) {
			continue
		}
		start := max(0, i-2)
		end := min(len(lines), i+16)
		return strings.Join(lines[start:end], "\n")
	}

	return strings.Join(lines[:min(len(lines), 20)], "\n")
}
