// Package extract provides text extraction from corpus document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lu4p/cat"
)

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
// Plain text and markdown come back as-is (UTF-8 validated); PDF, DOCX, and
// XLSX are parsed from the binary format; RTF and ODT go through the cat
// converter, which works on file paths.
func (e *Extractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".rtf", ".odt":
		text, err := cat.File(path)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", ext, err)
		}
		return text, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from in-memory content based on the given
// extension. ext includes the leading dot (e.g. ".pdf"). Unknown extensions
// are treated as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	default:
		return extractPlain(content)
	}
}
