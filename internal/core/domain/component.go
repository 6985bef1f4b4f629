package domain

import (
	"path"
	"strings"
	"time"
)

// Framework is the UI framework detected from the project manifest
type Framework string

const (
	FrameworkReact   Framework = "react"
	FrameworkVue     Framework = "vue"
	FrameworkAngular Framework = "angular"
	FrameworkUnknown Framework = "unknown"
)

// IsValid reports whether f is one of the known framework values
func (f Framework) IsValid() bool {
	switch f {
	case FrameworkReact, FrameworkVue, FrameworkAngular, FrameworkUnknown:
		return true
	}
	return false
}

// Prop is a single declared component property
type Prop struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Required     bool    `json:"required"`
	DefaultValue *string `json:"defaultValue,omitempty"`
}

// ComponentRecord is the indexed representation of one component file
type ComponentRecord struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	FilePath     string            `json:"filePath"`
	SourceText   string            `json:"sourceText"`
	Props        []Prop            `json:"props"`
	Imports      []string          `json:"imports"`
	Tags         []string          `json:"tags"`
	UsedIn       []string          `json:"usedIn"`
	Description  string            `json:"description"`
	Styles       map[string]string `json:"styles,omitempty"`
	LastModified time.Time         `json:"lastModified"`
}

// HasTag reports whether the component carries the given tag
func (c *ComponentRecord) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// PageRecord is a route-level file
type PageRecord struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Route      string   `json:"route"`
	FilePath   string   `json:"filePath"`
	Components []string `json:"components"`
}

// IndexMetadata describes one indexing run
type IndexMetadata struct {
	ProjectPath     string    `json:"projectPath"`
	Framework       Framework `json:"framework"`
	LastIndexed     time.Time `json:"lastIndexed"`
	ComponentsCount int       `json:"componentsCount"`
	PagesCount      int       `json:"pagesCount"`
}

// ProjectIndex is the full persisted indexing result for one codebase
type ProjectIndex struct {
	Metadata   IndexMetadata     `json:"metadata"`
	Components []ComponentRecord `json:"components"`
	Pages      []PageRecord      `json:"pages"`
}

// NewProjectIndex builds an index whose counts match its contents
func NewProjectIndex(projectPath string, framework Framework, components []ComponentRecord, pages []PageRecord, indexedAt time.Time) *ProjectIndex {
	if components == nil {
		components = []ComponentRecord{}
	}
	if pages == nil {
		pages = []PageRecord{}
	}
	if !framework.IsValid() {
		framework = FrameworkUnknown
	}
	return &ProjectIndex{
		Metadata: IndexMetadata{
			ProjectPath:     projectPath,
			Framework:       framework,
			LastIndexed:     indexedAt,
			ComponentsCount: len(components),
			PagesCount:      len(pages),
		},
		Components: components,
		Pages:      pages,
	}
}

// Component returns the component with the given id, or nil
func (idx *ProjectIndex) Component(id string) *ComponentRecord {
	for i := range idx.Components {
		if idx.Components[i].ID == id {
			return &idx.Components[i]
		}
	}
	return nil
}

// ComponentByName returns the first component with the given name, or nil
func (idx *ProjectIndex) ComponentByName(name string) *ComponentRecord {
	for i := range idx.Components {
		if idx.Components[i].Name == name {
			return &idx.Components[i]
		}
	}
	return nil
}

// ComponentNames lists component names in index order
func (idx *ProjectIndex) ComponentNames() []string {
	names := make([]string, len(idx.Components))
	for i, c := range idx.Components {
		names[i] = c.Name
	}
	return names
}

// RecordID derives a stable identifier from a path relative to the project root.
// Separators are normalised to "/" and the extension is stripped.
func RecordID(relPath string) string {
	p := strings.ReplaceAll(relPath, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	return strings.TrimSuffix(p, path.Ext(p))
}

// FileStem returns the file name without directory and extension
func FileStem(relPath string) string {
	base := path.Base(strings.ReplaceAll(relPath, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// RouteFor derives the route of a page file name.
// "index" and "home" map to "/", anything else to "/" + lowercased name.
func RouteFor(name string) string {
	lower := strings.ToLower(name)
	if lower == "index" || lower == "home" {
		return "/"
	}
	return "/" + lower
}
