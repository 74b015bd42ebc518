package answer

import "strings"

// queryCategories are tested in order; the first category with any keyword
// present in the lowercased question wins. The broad definition keywords
// ("what is") come last so that "What is the punishment for theft?" lands
// on penalty and "What is Section 103?" on citation.
var queryCategories = []struct {
	name     string
	keywords []string
}{
	{"procedure", []string{"how to", "procedure", "process", "steps"}},
	{"penalty", []string{"penalty", "punishment", "fine", "imprisonment"}},
	{"citation", []string{"section", "article", "provision"}},
	{"comparison", []string{"compare", "difference", "versus", "vs"}},
	{"definition", []string{"what is", "define", "definition", "meaning"}},
}

// ClassifyQuery labels a question with a heuristic category for response
// metadata. The label never influences retrieval or generation.
func ClassifyQuery(query string) string {
	q := strings.ToLower(query)
	for _, cat := range queryCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(q, kw) {
				return cat.name
			}
		}
	}
	return "general"
}
