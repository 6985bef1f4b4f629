package domain

import (
	"testing"
	"time"
)

func TestRecordID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"src/components/Button.tsx", "src/components/Button"},
		{`src\components\Card.jsx`, "src/components/Card"},
		{"./src/App.vue", "src/App"},
		{"Header.js", "Header"},
	}

	for _, tt := range tests {
		if got := RecordID(tt.in); got != tt.want {
			t.Errorf("RecordID(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestFileStem(t *testing.T) {
	if got := FileStem("src/components/SubmitButton.tsx"); got != "SubmitButton" {
		t.Errorf("expected SubmitButton, got %s", got)
	}
	if got := FileStem(`src\pages\index.jsx`); got != "index" {
		t.Errorf("expected index, got %s", got)
	}
}

func TestRouteFor(t *testing.T) {
	tests := map[string]string{
		"index":    "/",
		"Index":    "/",
		"home":     "/",
		"HOME":     "/",
		"About":    "/about",
		"checkout": "/checkout",
	}
	for name, want := range tests {
		if got := RouteFor(name); got != want {
			t.Errorf("RouteFor(%q): expected %q, got %q", name, want, got)
		}
	}
}

func TestNewProjectIndex_Counts(t *testing.T) {
	now := time.Now()
	idx := NewProjectIndex("/tmp/p", FrameworkReact,
		[]ComponentRecord{{ID: "a"}, {ID: "b"}},
		[]PageRecord{{ID: "p"}},
		now,
	)

	if idx.Metadata.ComponentsCount != len(idx.Components) {
		t.Errorf("expected componentsCount %d, got %d", len(idx.Components), idx.Metadata.ComponentsCount)
	}
	if idx.Metadata.PagesCount != len(idx.Pages) {
		t.Errorf("expected pagesCount %d, got %d", len(idx.Pages), idx.Metadata.PagesCount)
	}
	if idx.Metadata.Framework != FrameworkReact {
		t.Errorf("expected react, got %s", idx.Metadata.Framework)
	}
}

func TestNewProjectIndex_InvalidFramework(t *testing.T) {
	idx := NewProjectIndex("/tmp/p", Framework("svelte"), nil, nil, time.Now())
	if idx.Metadata.Framework != FrameworkUnknown {
		t.Errorf("expected unknown, got %s", idx.Metadata.Framework)
	}
	if idx.Components == nil || idx.Pages == nil {
		t.Error("expected non-nil slices")
	}
}

func TestProjectIndex_Lookups(t *testing.T) {
	idx := NewProjectIndex("/tmp/p", FrameworkReact, []ComponentRecord{
		{ID: "src/Button", Name: "Button"},
		{ID: "src/Card", Name: "Card"},
	}, nil, time.Now())

	if c := idx.Component("src/Card"); c == nil || c.Name != "Card" {
		t.Errorf("expected Card by id, got %+v", c)
	}
	if c := idx.Component("missing"); c != nil {
		t.Errorf("expected nil, got %+v", c)
	}
	if c := idx.ComponentByName("Button"); c == nil || c.ID != "src/Button" {
		t.Errorf("expected Button by name, got %+v", c)
	}

	names := idx.ComponentNames()
	if len(names) != 2 || names[0] != "Button" || names[1] != "Card" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestComponentRecord_HasTag(t *testing.T) {
	c := &ComponentRecord{Tags: []string{TagInteractive}}
	if !c.HasTag(TagInteractive) {
		t.Error("expected interactive tag")
	}
	if c.HasTag(TagStateful) {
		t.Error("did not expect stateful tag")
	}
}
