// Package segment splits raw document text into overlapping chunks with
// legal-aware metadata, and provides the legal-reference pattern scanning
// shared by chunk labeling and citation extraction.
package segment

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators orders split points from coarsest to finest: paragraph
// break, line break, sentence end, clause break, word boundary, character.
var DefaultSeparators = []string{"\n\n", "\n", ". ", ", ", " ", ""}

// Splitter divides text into chunks of bounded size with overlapping context.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewSplitter creates a splitter. Out-of-range values are normalized: chunkSize
// must be positive and chunkOverlap must be smaller than chunkSize.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}
}

// Split divides text into chunks of at most chunkSize runes. The coarsest
// separator present in a span is attempted first; finer separators are used
// only within spans that still exceed chunkSize. Adjacent chunks share up to
// chunkOverlap runes of trailing context. Separators stay attached to their
// preceding piece, so no characters of the original text are lost.
// Whitespace-only input returns nil.
func (s *Splitter) Split(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.merge(s.units(text, s.separators))
}

// units recursively splits text into separator-bounded pieces, each at most
// chunkSize runes long.
func (s *Splitter) units(text string, seps []string) []string {
	if utf8.RuneCountInString(text) <= s.chunkSize {
		return []string{text}
	}
	sep, rest := pickSeparator(text, seps)
	if sep == "" {
		// No separator left: fall back to per-rune units so merge can still
		// produce exact chunkSize windows with overlap.
		runes := []rune(text)
		units := make([]string, len(runes))
		for i, r := range runes {
			units[i] = string(r)
		}
		return units
	}
	var units []string
	for _, piece := range splitAfter(text, sep) {
		if utf8.RuneCountInString(piece) <= s.chunkSize {
			units = append(units, piece)
			continue
		}
		units = append(units, s.units(piece, rest)...)
	}
	return units
}

// merge greedily packs units into chunks up to chunkSize runes, retaining a
// tail of units up to chunkOverlap runes as the start of the next chunk.
func (s *Splitter) merge(units []string) []string {
	var chunks []string
	var current []string
	total := 0
	for _, u := range units {
		ul := utf8.RuneCountInString(u)
		if total > 0 && total+ul > s.chunkSize {
			if c := strings.TrimSpace(strings.Join(current, "")); c != "" {
				chunks = append(chunks, c)
			}
			for len(current) > 0 && (total > s.chunkOverlap || total+ul > s.chunkSize) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, u)
		total += ul
	}
	if c := strings.TrimSpace(strings.Join(current, "")); c != "" {
		chunks = append(chunks, c)
	}
	return chunks
}

// pickSeparator returns the first separator present in text and the finer
// separators after it. An empty separator means character-level splitting.
func pickSeparator(text string, seps []string) (string, []string) {
	for i, sep := range seps {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, seps[i+1:]
		}
	}
	return "", nil
}

// splitAfter splits text by sep keeping sep attached to the preceding piece,
// dropping any empty trailing piece.
func splitAfter(text, sep string) []string {
	pieces := strings.SplitAfter(text, sep)
	out := pieces[:0]
	for _, p := range pieces {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
