package extractors

import (
	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
)

// FallbackExtractor handles any extension with the generic keyword scan.
// It reads imports, tags and the leading comment but no props.
type FallbackExtractor struct{}

func (e *FallbackExtractor) Extract(source, name string) (*driven.Features, error) {
	if err := validateText(source); err != nil {
		return nil, err
	}
	return &driven.Features{
		Imports:     extractImports(source),
		Props:       make([]domain.Prop, 0),
		Tags:        domain.TagsFor(source),
		Description: describe(leadingComment(source), name),
	}, nil
}

func (e *FallbackExtractor) UsedComponents(source string) []string {
	return usedComponents(source)
}

func (e *FallbackExtractor) SupportedExtensions() []string {
	return []string{"*"}
}

func (e *FallbackExtractor) Priority() int {
	return 1
}
