package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// DOCX files are OOXML zips. The body usually lives at word/document.xml,
// but [Content_Types].xml can relocate it.
const (
	docxDefaultBodyPath = "word/document.xml"
	docxContentTypes    = "[Content_Types].xml"
	docxBodyContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

// wtTag matches <w:t> text runs, with or without attributes
// (e.g. <w:t xml:space="preserve">).
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// docxBodyOverrides locate the body part in [Content_Types].xml. Attribute
// order is not fixed, so both orders are tried.
var docxBodyOverrides = []*regexp.Regexp{
	regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxBodyContentType) + `"`),
	regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxBodyContentType) + `"[^>]+PartName="([^"]+)"`),
}

// extractDOCX extracts text from DOCX bytes by collecting every <w:t> text
// node of the body part, so content survives arbitrary paragraph and run
// attributes.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	bodyPath := docxBodyPath(zr)
	for _, f := range zr.File {
		if f.Name != bodyPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: open %s: %w", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: read %s: %w", f.Name, err)
		}
		return collectTextRuns(body), nil
	}
	return "", fmt.Errorf("extract DOCX: %s not found", bodyPath)
}

// docxBodyPath resolves the body part path from [Content_Types].xml, falling
// back to the default when the manifest is absent or silent.
func docxBodyPath(zr *zip.Reader) string {
	for _, f := range zr.File {
		if f.Name != docxContentTypes {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			break
		}
		manifest, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			break
		}
		for _, re := range docxBodyOverrides {
			if m := re.FindSubmatch(manifest); m != nil {
				return strings.TrimPrefix(string(m[1]), "/")
			}
		}
		break
	}
	return docxDefaultBodyPath
}

// collectTextRuns joins all non-empty <w:t> nodes with single spaces.
func collectTextRuns(body []byte) string {
	matches := wtTag.FindAllSubmatch(body, -1)
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := strings.TrimSpace(string(m[1])); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
