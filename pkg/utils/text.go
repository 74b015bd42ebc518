// Package utils provides shared utilities for text, math, and logging.
package utils

import (
	"strings"
	"unicode"
)

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// Runes rather than bytes so that "§" and other multibyte marks in statute text
// are never cut mid-sequence. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Sanitize normalizes user-supplied question text: trims surrounding space,
// collapses runs of whitespace to a single space, drops control characters,
// and caps the result at maxLen runes (0 = no cap).
func Sanitize(s string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		// Tab and newline are control characters too; treat them as spaces.
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	out := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(out)
		if len(runes) > maxLen {
			out = string(runes[:maxLen])
		}
	}
	return out
}
