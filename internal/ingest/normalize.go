package ingest

import (
	"regexp"
	"strings"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// NormalizeText prepares extracted text for segmentation: line endings are
// unified and runs of blank lines collapse to a single paragraph break.
// Paragraph boundaries are kept intact because the splitter keys on them.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
