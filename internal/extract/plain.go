package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain returns content as a string. Invalid UTF-8 sequences are
// replaced with the replacement character so downstream segmentation never
// sees broken runes.
func extractPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�"), nil
	}
	return string(content), nil
}
