// Minimal file builders for the extensions the corpus loader supports.
package e2e

import (
	"archive/zip"
	"bytes"

	"github.com/xuri/excelize/v2"
)

// SupportedFileExtensions lists the extensions used by the file-based e2e
// tests. Covers plain text (.txt, .md) and OOXML (.docx, .xlsx). The
// extractor also supports .pdf, .rtf, and .odt; those are covered by
// internal/extract tests because a minimal PDF with extractable text is not
// generated here and .rtf/.odt go through an external converter.
var SupportedFileExtensions = []string{".txt", ".md", ".docx", ".xlsx"}

// WriteMinimalFile returns the bytes of a minimal file of the given extension
// carrying the given text. For plain types the content is the raw text; for
// binary types it is the full file.
func WriteMinimalFile(ext, text string) ([]byte, error) {
	switch ext {
	case ".docx":
		return minimalDocx(text), nil
	case ".xlsx":
		return minimalXlsx(text)
	default:
		return []byte(text), nil
	}
}

func minimalDocx(text string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func minimalXlsx(text string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetCellValue("Sheet1", "A1", text); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
