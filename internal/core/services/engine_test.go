package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

func TestEngine_Search_SubmitButtonScenario(t *testing.T) {
	engine := NewEngine(testIndex(submitButton()))

	results := engine.Search(domain.SearchQuery{Text: "button"})

	require.Len(t, results, 1)
	assert.Equal(t, 10, results[0].RelevanceScore)
	require.Len(t, results[0].Matches, 1)
	assert.Equal(t, "name", results[0].Matches[0].Field)
	assert.Equal(t, "SubmitButton", results[0].Matches[0].Snippet)
	assert.Equal(t, 6, results[0].Matches[0].HighlightStart)
	assert.Equal(t, 12, results[0].Matches[0].HighlightEnd)
}

func TestScore_Signals(t *testing.T) {
	c := component("src/Card", "ProductCard",
		withDescription("Shows a Card"),
		withSource("const ProductCard = () => <div>{children}</div>"),
		withProps(
			domain.Prop{Name: "cardTitle", Type: "string"},
			domain.Prop{Name: "footer", Type: "CardFooter"},
			domain.Prop{Name: "size", Type: "number"},
		),
		withTags(domain.TagContainer, domain.TagStyled),
		withUsedIn("src/pages/index", "src/pages/shop"),
	)

	tests := []struct {
		name  string
		query domain.SearchQuery
		want  int
	}{
		{"name case-insensitive", domain.SearchQuery{Text: "productcard"}, 10},
		{"description exact", domain.SearchQuery{Text: "Shows"}, 5},
		{"props by name and type", domain.SearchQuery{Text: "Card"}, 10 + 5 + 2 + 3},
		{"prop name only", domain.SearchQuery{Text: "card"}, 10 + 3},
		{"tags", domain.SearchQuery{Tags: []string{domain.TagContainer, domain.TagStyled, domain.TagAsync}}, 8},
		{"functional matched", domain.SearchQuery{ComponentType: domain.ComponentTypeFunctional}, 2},
		{"class mismatched floors at zero", domain.SearchQuery{ComponentType: domain.ComponentTypeClass}, 0},
		{"any type ignored", domain.SearchQuery{ComponentType: domain.ComponentTypeAny, Tags: []string{domain.TagStyled}}, 4},
		{"hasProps matched", domain.SearchQuery{HasProps: boolPtr(true)}, 2},
		{"hasSideEffects mismatched", domain.SearchQuery{Tags: []string{domain.TagContainer}, HasSideEffects: boolPtr(true)}, 1},
		{"usedIn overlap", domain.SearchQuery{UsedIn: []string{"src/pages/shop", "src/pages/about", "src/pages/index"}}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(&c, tt.query); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestScore_NeverNegative(t *testing.T) {
	c := component("src/Plain", "Plain", withSource("plain text"))
	queries := []domain.SearchQuery{
		{ComponentType: domain.ComponentTypeClass},
		{ComponentType: domain.ComponentTypeFunctional, HasProps: boolPtr(true), HasSideEffects: boolPtr(true)},
		{Text: "zzz", HasProps: boolPtr(true)},
	}
	for _, q := range queries {
		if got := Score(&c, q); got < 0 {
			t.Errorf("expected non-negative score for %+v, got %d", q, got)
		}
	}
}

func TestScore_TagMonotonicity(t *testing.T) {
	c := component("src/Form", "LoginForm",
		withSource("const LoginForm = () => <form onSubmit={go} />"),
		withTags(domain.TagInteractive, domain.TagForm),
	)

	base := domain.SearchQuery{Text: "Login", ComponentType: domain.ComponentTypeClass}
	before := Score(&c, base)
	for _, tag := range c.Tags {
		base.Tags = append(base.Tags, tag)
		after := Score(&c, base)
		if after < before {
			t.Errorf("adding tag %s decreased score from %d to %d", tag, before, after)
		}
		before = after
	}
}

func TestScore_ClassComponent(t *testing.T) {
	c := component("src/Legacy", "Legacy", withSource("class Legacy extends React.Component {}"))

	if got := Score(&c, domain.SearchQuery{ComponentType: domain.ComponentTypeClass}); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := Score(&c, domain.SearchQuery{ComponentType: domain.ComponentTypeFunctional}); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestEngine_Search_StableOrder(t *testing.T) {
	engine := NewEngine(testIndex(
		component("a", "CardA"),
		component("b", "CardB"),
		component("top", "CardTop", withDescription("card deck")),
		component("c", "CardC"),
		component("none", "Other"),
	))

	results := engine.Search(domain.SearchQuery{Text: "card"})

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Component.ID
	}
	assert.Equal(t, []string{"top", "a", "b", "c"}, ids)

	for i := 1; i < len(results); i++ {
		if results[i].RelevanceScore > results[i-1].RelevanceScore {
			t.Errorf("results not sorted at %d", i)
		}
	}
}

func TestEngine_Search_FrameworkAndLimit(t *testing.T) {
	engine := NewEngine(testIndex(component("a", "CardA"), component("b", "CardB")))

	if got := engine.Search(domain.SearchQuery{Text: "card", Framework: domain.FrameworkVue}); len(got) != 0 {
		t.Errorf("expected no results for other framework, got %d", len(got))
	}
	if got := engine.Search(domain.SearchQuery{Text: "card", Framework: domain.FrameworkReact}); len(got) != 2 {
		t.Errorf("expected 2 results for matching framework, got %d", len(got))
	}
	if got := engine.Search(domain.SearchQuery{Text: "card", Limit: 1}); len(got) != 1 {
		t.Errorf("expected limit to cap results, got %d", len(got))
	}
}

func TestHighlight_Window(t *testing.T) {
	source := repeat("x", 200) + "needle" + repeat("y", 200)
	c := component("src/N", "N", withSource(source), withDescription("a needle here"))

	matches := Highlight(&c, "needle")
	require.Len(t, matches, 2)

	desc := matches[0]
	assert.Equal(t, "description", desc.Field)
	assert.Equal(t, "a needle here", desc.Snippet)
	assert.Equal(t, 2, desc.HighlightStart)
	assert.Equal(t, 8, desc.HighlightEnd)

	src := matches[1]
	assert.Equal(t, "sourceText", src.Field)
	assert.Len(t, src.Snippet, 50+6+50)
	assert.Equal(t, 50, src.HighlightStart)
	assert.Equal(t, 56, src.HighlightEnd)
	assert.Equal(t, "needle", src.Snippet[src.HighlightStart:src.HighlightEnd])
}

func TestHighlight_EmptyText(t *testing.T) {
	c := submitButton()
	if got := Highlight(&c, ""); len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}

func TestStringSimilarity(t *testing.T) {
	if got := StringSimilarity("kitten", "sitting"); math.Abs(got-4.0/7.0) > 1e-9 {
		t.Errorf("expected 4/7, got %f", got)
	}
	if got := StringSimilarity("", ""); got != 1 {
		t.Errorf("expected 1 for empty strings, got %f", got)
	}
	for _, s := range []string{"a", "Button", "日本語"} {
		if got := StringSimilarity(s, s); got != 1 {
			t.Errorf("expected 1 for %q, got %f", s, got)
		}
	}
	if got := StringSimilarity("abc", ""); got != 0 {
		t.Errorf("expected 0, got %f", got)
	}
}

func TestSimilarity_Modes(t *testing.T) {
	a := component("a", "PrimaryButton",
		withTags(domain.TagInteractive, domain.TagStyled),
		withProps(domain.Prop{Name: "label", Type: "string"}),
		withImports("react", "clsx"),
		withUsedIn("p1", "p2"),
		withStyles(map[string]string{"color": "red", "padding": "4"}),
	)
	b := component("b", "SecondaryButton",
		withTags(domain.TagInteractive),
		withProps(domain.Prop{Name: "text", Type: "string"}, domain.Prop{Name: "title", Type: "string"}),
		withImports("react", "react"),
		withUsedIn("p2", "p3"),
		withStyles(map[string]string{"color": "red", "margin": "2"}),
	)

	semantic := 0.2 + 0.15 + 0.1 + 0.3*StringSimilarity("PrimaryButton", "SecondaryButton")
	assert.InDelta(t, semantic, Similarity(&a, &b, domain.SimilaritySemantic), 1e-9)
	assert.InDelta(t, 1.0/3.0, Similarity(&a, &b, domain.SimilarityUsage), 1e-9)
	assert.InDelta(t, 1.0/3.0, Similarity(&a, &b, domain.SimilarityVisual), 1e-9)

	empty := component("e", "Empty")
	assert.Equal(t, 0.0, Similarity(&empty, &empty, domain.SimilarityUsage))
	assert.Equal(t, 0.0, Similarity(&empty, &empty, domain.SimilarityVisual))
}

func TestSimilarity_SemanticClamped(t *testing.T) {
	tags := []string{domain.TagStateful, domain.TagSideEffects, domain.TagContainer, domain.TagInteractive, domain.TagStyled}
	a := component("a", "Same", withTags(tags...))
	b := component("b", "Same", withTags(tags...))

	if got := Similarity(&a, &b, domain.SimilaritySemantic); got != 1 {
		t.Errorf("expected clamp to 1, got %f", got)
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	components := []domain.ComponentRecord{
		submitButton(),
		component("x", "X", withTags(domain.TagForm, domain.TagAsync, domain.TagRouting, domain.TagStyled, domain.TagStateful, domain.TagContainer)),
		component("y", "", withStyles(map[string]string{"a": "1"})),
		component("z", "Zed", withUsedIn("p"), withImports("a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k")),
	}
	modes := []domain.SimilarityMode{domain.SimilaritySemantic, domain.SimilarityUsage, domain.SimilarityVisual}

	for i := range components {
		for j := range components {
			for _, mode := range modes {
				got := Similarity(&components[i], &components[j], mode)
				if got < 0 || got > 1 {
					t.Errorf("similarity(%s,%s,%s) = %f out of range", components[i].ID, components[j].ID, mode, got)
				}
			}
		}
	}
}

func TestEngine_FindSimilar(t *testing.T) {
	engine := NewEngine(testIndex(
		component("a", "Card", withUsedIn("p1", "p2")),
		component("b", "Tile", withUsedIn("p1", "p2")),
		component("c", "Chip", withUsedIn("p1", "p9", "p8", "p7", "p6", "p5", "p4", "p3", "p0", "px")),
		component("d", "Dot", withUsedIn("p1")),
	))

	results := engine.FindSimilar("a", domain.SimilarityUsage, 10)

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Component.ID
		assert.Equal(t, domain.SimilarityUsage, r.SimilarityType)
		assert.Greater(t, r.SimilarityScore, 0.1)
	}
	// c scores 1/11 and is dropped
	assert.Equal(t, []string{"b", "d"}, ids)

	limited := engine.FindSimilar("a", domain.SimilarityUsage, 1)
	assert.Len(t, limited, 1)
}

func TestEngine_FindSimilar_UnknownID(t *testing.T) {
	engine := NewEngine(testIndex(submitButton()))

	results := engine.FindSimilar("missing", domain.SimilaritySemantic, 5)
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil result, got %v", results)
	}
}

func TestEngine_UsageGraph(t *testing.T) {
	index := domain.NewProjectIndex("/project", domain.FrameworkReact,
		[]domain.ComponentRecord{
			component("src/A", "A", withUsedIn("src/pages/index")),
			component("src/B", "B"),
			component("src/C", "C"),
		},
		[]domain.PageRecord{
			{ID: "src/pages/index", Name: "index", Route: "/", Components: []string{"A", "B", "Missing"}},
			{ID: "src/pages/about", Name: "about", Route: "/about", Components: []string{"A", "A"}},
		},
		fixtureTime,
	)

	graph := NewEngine(index).UsageGraph()

	assert.Equal(t, []string{"src/pages/index", "src/pages/about"}, graph["src/A"])
	assert.Equal(t, []string{"src/pages/index"}, graph["src/B"])
	assert.Equal(t, []string{}, graph["src/C"])
	assert.Len(t, graph, 3)
}

func repeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
