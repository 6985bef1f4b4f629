package services

import (
	"time"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

var fixtureTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func component(id, name string, mutate ...func(c *domain.ComponentRecord)) domain.ComponentRecord {
	c := domain.ComponentRecord{
		ID:           id,
		Name:         name,
		FilePath:     id + ".tsx",
		Props:        []domain.Prop{},
		Imports:      []string{},
		Tags:         []string{},
		UsedIn:       []string{},
		Description:  name + " component",
		LastModified: fixtureTime,
	}
	for _, m := range mutate {
		m(&c)
	}
	return c
}

func withSource(src string) func(c *domain.ComponentRecord) {
	return func(c *domain.ComponentRecord) { c.SourceText = src }
}

func withTags(tags ...string) func(c *domain.ComponentRecord) {
	return func(c *domain.ComponentRecord) { c.Tags = tags }
}

func withProps(props ...domain.Prop) func(c *domain.ComponentRecord) {
	return func(c *domain.ComponentRecord) { c.Props = props }
}

func withDescription(d string) func(c *domain.ComponentRecord) {
	return func(c *domain.ComponentRecord) { c.Description = d }
}

func withUsedIn(contexts ...string) func(c *domain.ComponentRecord) {
	return func(c *domain.ComponentRecord) { c.UsedIn = contexts }
}

func withStyles(styles map[string]string) func(c *domain.ComponentRecord) {
	return func(c *domain.ComponentRecord) { c.Styles = styles }
}

func withImports(imports ...string) func(c *domain.ComponentRecord) {
	return func(c *domain.ComponentRecord) { c.Imports = imports }
}

func testIndex(components ...domain.ComponentRecord) *domain.ProjectIndex {
	return domain.NewProjectIndex("/project", domain.FrameworkReact, components, nil, fixtureTime)
}

// submitButton scores exactly 10 for "button": name only, no lowercase "button" elsewhere
func submitButton() domain.ComponentRecord {
	return component("src/components/SubmitButton", "SubmitButton",
		withSource("export const SubmitButton = ({ onClick }) => <Btn onClick={onClick}>Submit</Btn>"),
		withTags(domain.TagInteractive),
	)
}

func boolPtr(b bool) *bool {
	return &b
}
