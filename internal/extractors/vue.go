package extractors

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
)

var (
	vueScriptPattern       = regexp.MustCompile(`(?s)<script[^>]*>(.*?)</script>`)
	vueTemplatePattern     = regexp.MustCompile(`(?s)<template[^>]*>(.*)</template>`)
	vueDefinePropsPattern  = regexp.MustCompile(`defineProps<\s*\{([^}]*)\}\s*>`)
	vueWithDefaultsPattern = regexp.MustCompile(`withDefaults\([^,]*,\s*\{([^}]*)\}`)
	vueHTMLCommentPattern  = regexp.MustCompile(`^\s*<!--([\s\S]*?)-->`)
	vueStaticStylePattern  = regexp.MustCompile(`\sstyle="([^"]*)"`)
)

// VueExtractor handles Vue single-file components.
// Imports and props come from the <script> block, usage and styles from <template>.
type VueExtractor struct{}

func (e *VueExtractor) Extract(source, name string) (*driven.Features, error) {
	if err := validateText(source); err != nil {
		return nil, err
	}

	script := vueSection(vueScriptPattern, source)
	template := vueSection(vueTemplatePattern, source)

	props := extractProps(script)
	if len(props) == 0 {
		props = vueDefineProps(script)
	}
	vueDefaults(script, props)

	var comment string
	if m := vueHTMLCommentPattern.FindStringSubmatch(source); m != nil {
		comment = firstContentLine(m[1])
	} else {
		comment = leadingComment(script)
	}

	return &driven.Features{
		Imports:     extractImports(script),
		Props:       props,
		Tags:        domain.TagsFor(source),
		Description: describe(comment, name),
		Styles:      vueStaticStyles(template),
	}, nil
}

func (e *VueExtractor) UsedComponents(source string) []string {
	template := vueSection(vueTemplatePattern, source)
	if template == "" {
		template = source
	}
	return usedComponents(template)
}

func (e *VueExtractor) SupportedExtensions() []string {
	return []string{".vue"}
}

func (e *VueExtractor) Priority() int {
	return 60
}

func vueSection(pattern *regexp.Regexp, source string) string {
	if m := pattern.FindStringSubmatch(source); m != nil {
		return m[1]
	}
	return ""
}

// vueDefineProps reads the type literal of defineProps<{ ... }>()
func vueDefineProps(script string) []domain.Prop {
	m := vueDefinePropsPattern.FindStringSubmatch(script)
	if m == nil {
		return make([]domain.Prop, 0)
	}
	return extractProps("type DefinedProps = {" + m[1] + "}")
}

// vueDefaults reads withDefaults(defineProps<...>(), { name: value })
func vueDefaults(script string, props []domain.Prop) {
	m := vueWithDefaultsPattern.FindStringSubmatch(script)
	if m == nil {
		return
	}
	for _, part := range strings.Split(m[1], ",") {
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		for i := range props {
			if props[i].Name == name {
				v := unquote(strings.TrimSpace(value))
				props[i].DefaultValue = &v
			}
		}
	}
}

// vueStaticStyles reads static style="k: v; ..." attributes from the template
func vueStaticStyles(template string) map[string]string {
	var styles map[string]string
	for _, m := range vueStaticStylePattern.FindAllStringSubmatch(template, -1) {
		for _, decl := range strings.Split(m[1], ";") {
			k, v, ok := strings.Cut(decl, ":")
			if !ok {
				continue
			}
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if k == "" {
				continue
			}
			if styles == nil {
				styles = make(map[string]string)
			}
			styles[k] = v
		}
	}
	return styles
}
