package services

import "github.com/custodia-labs/sercha-components/internal/core/domain"

// Similarity compares two components under one mode. The result is in [0, 1].
// An empty mode compares semantically.
func Similarity(a, b *domain.ComponentRecord, mode domain.SimilarityMode) float64 {
	switch mode {
	case domain.SimilarityUsage:
		return jaccard(a.UsedIn, b.UsedIn)
	case domain.SimilarityVisual:
		return styleAgreement(a.Styles, b.Styles)
	default:
		return semanticSimilarity(a, b)
	}
}

func semanticSimilarity(a, b *domain.ComponentRecord) float64 {
	score := 0.2*float64(overlap(a.Tags, b.Tags)) +
		0.15*float64(overlap(propTypes(a), propTypes(b))) +
		0.1*float64(overlap(a.Imports, b.Imports)) +
		0.3*StringSimilarity(a.Name, b.Name)
	return min(score, 1)
}

func propTypes(c *domain.ComponentRecord) []string {
	types := make([]string, len(c.Props))
	for i, p := range c.Props {
		types[i] = p.Type
	}
	return types
}

// overlap counts distinct values present in both lists
func overlap(a, b []string) int {
	inB := toSet(b)
	seen := make(map[string]bool)
	n := 0
	for _, v := range a {
		if inB[v] && !seen[v] {
			seen[v] = true
			n++
		}
	}
	return n
}

func jaccard(a, b []string) float64 {
	setA, setB := toSet(a), toSet(b)
	union := len(setA)
	inter := 0
	for v := range setB {
		if setA[v] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// styleAgreement is the share of style keys, over the union of both key sets,
// whose values are equal in both components
func styleAgreement(a, b map[string]string) float64 {
	keys := make(map[string]bool, len(a)+len(b))
	for k := range a {
		keys[k] = true
	}
	for k := range b {
		keys[k] = true
	}
	if len(keys) == 0 {
		return 0
	}
	equal := 0
	for k := range keys {
		va, okA := a[k]
		vb, okB := b[k]
		if okA && okB && va == vb {
			equal++
		}
	}
	return float64(equal) / float64(len(keys))
}

func toSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, v := range list {
		set[v] = true
	}
	return set
}

// StringSimilarity is the normalised Levenshtein similarity (maxLen - distance) / maxLen
// over runes. Two empty strings are identical.
func StringSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1
	}
	return float64(maxLen-levenshtein(ra, rb)) / float64(maxLen)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
