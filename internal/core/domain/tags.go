package domain

import "strings"

// Semantic component tags
const (
	TagStateful    = "stateful"
	TagSideEffects = "side-effects"
	TagContainer   = "container"
	TagInteractive = "interactive"
	TagStyled      = "styled"
	TagRouting     = "routing"
	TagAsync       = "async"
	TagForm        = "form"
)

// TagKeyword maps a tag to the source keywords whose presence implies it
type TagKeyword struct {
	Tag      string
	Keywords []string
}

// TagKeywords is the fixed keyword table, in tag output order
var TagKeywords = []TagKeyword{
	{TagStateful, []string{"useState", "useReducer", "this.state", "setState", "ref(", "reactive("}},
	{TagSideEffects, []string{"useEffect", "useLayoutEffect", "componentDidMount", "componentDidUpdate", "onMounted", "watch(", "fetch("}},
	{TagContainer, []string{"children", "<slot", "ng-content"}},
	{TagInteractive, []string{"onClick", "onChange", "onSubmit", "onKeyDown", "@click", "v-on:", "(click)"}},
	{TagStyled, []string{"styled.", "styled(", "className", "css`", "<style", "styles."}},
	{TagRouting, []string{"useRouter", "useNavigate", "useParams", "<Link", "router-link", "routerLink"}},
	{TagAsync, []string{"async ", "await "}},
	{TagForm, []string{"<form", "useForm", "onSubmit"}},
}

// TagsFor scans source text for tag keywords. The result is ordered like TagKeywords.
func TagsFor(source string) []string {
	tags := []string{}
	for _, tk := range TagKeywords {
		for _, kw := range tk.Keywords {
			if strings.Contains(source, kw) {
				tags = append(tags, tk.Tag)
				break
			}
		}
	}
	return tags
}
