package domain

import (
	"reflect"
	"testing"
)

func TestTagsFor(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{"empty", "", []string{}},
		{"interactive", "<Btn onClick={go} />", []string{TagInteractive}},
		{
			"stateful with effects",
			"const [a, setA] = useState(0); useEffect(() => {}, [])",
			[]string{TagStateful, TagSideEffects},
		},
		{"container", "return <div>{children}</div>", []string{TagContainer}},
		{"styled", "const Box = styled.div``", []string{TagStyled}},
		{"vue click", `<button @click="go">`, []string{TagInteractive}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TagsFor(tt.source)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTagsFor_NoDuplicates(t *testing.T) {
	got := TagsFor("onClick onChange onSubmit")
	seen := map[string]bool{}
	for _, tag := range got {
		if seen[tag] {
			t.Errorf("duplicate tag %s", tag)
		}
		seen[tag] = true
	}
}
