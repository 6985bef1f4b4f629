package extractors

import (
	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
)

// JSXExtractor handles React-style JavaScript and TypeScript sources.
type JSXExtractor struct{}

func (e *JSXExtractor) Extract(source, name string) (*driven.Features, error) {
	if err := validateText(source); err != nil {
		return nil, err
	}

	props := extractProps(source)
	applyDefaults(source, props)

	return &driven.Features{
		Imports:     extractImports(source),
		Props:       props,
		Tags:        domain.TagsFor(source),
		Description: describe(leadingComment(source), name),
		Styles:      inlineStyles(source),
	}, nil
}

func (e *JSXExtractor) UsedComponents(source string) []string {
	return usedComponents(source)
}

func (e *JSXExtractor) SupportedExtensions() []string {
	return []string{".js", ".jsx", ".ts", ".tsx"}
}

func (e *JSXExtractor) Priority() int {
	return 50
}
