package segment

import (
	"regexp"
	"strings"
)

// sectionPatterns are the legal-reference forms recognized in chunk text,
// tried in priority order; the first match wins.
var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsection\s+(\d+[a-z]?)`),
	regexp.MustCompile(`(?i)\bsec\.\s*(\d+[a-z]?)`),
	regexp.MustCompile(`§\s*(\d+[A-Za-z]?)`),
	regexp.MustCompile(`(?i)\barticle\s+(\d+[a-z]?)`),
	regexp.MustCompile(`(?i)\bchapter\s+(\d+[a-z]?)`),
}

// citationPatterns additionally recognize bare BNS references, which show up
// in generated answers but are not used for chunk labeling.
var citationPatterns = append(sectionPatterns[:len(sectionPatterns):len(sectionPatterns)],
	regexp.MustCompile(`(?i)\bbns\s+(\d+[a-z]?)`))

// ExtractSection scans text for a legal reference and returns the full matched
// text of the highest-priority pattern ("Section 302", "§ 101", ...). Returns
// "" when no pattern matches.
func ExtractSection(text string) string {
	for _, p := range sectionPatterns {
		if m := p.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

// ExtractCitations collects every legal reference in text and normalizes each
// to "Section N" form, deduplicated in first-seen order. Returns nil when no
// reference is found. Extraction is idempotent: running it over an already
// normalized citation yields the same citation back.
func ExtractCitations(text string) []string {
	var citations []string
	seen := make(map[string]bool)
	for _, p := range citationPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			c := "Section " + strings.ToUpper(m[1])
			if !seen[c] {
				seen[c] = true
				citations = append(citations, c)
			}
		}
	}
	return citations
}
