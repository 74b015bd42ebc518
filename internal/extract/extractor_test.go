package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	content := []byte("Section 302. Punishment for murder.\nWhoever commits murder shall be punished.")
	got, err := e.ExtractBytes(content, ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != string(content) {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("caf\xc3\xa9"), ".md")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "café" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("hello\x80world"), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "hello�world" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_unknownExtension(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("raw content"), ".xyz")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "raw content" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Section")
	f.SetCellValue("Sheet1", "B1", "Punishment")
	f.SetCellValue("Sheet1", "A2", "303")
	f.SetCellValue("Sheet1", "B2", "Imprisonment")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	e := NewExtractor()
	got, err := e.ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Section\tPunishment\n303\tImprisonment" {
		t.Errorf("got %q", got)
	}
}

// minimalDocx returns .docx zip bytes with word/document.xml containing the
// given text in <w:t> tags.
func minimalDocx(text string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func TestExtractBytes_docx(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes(minimalDocx("Whoever commits theft shall be punished."), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Whoever commits theft shall be punished." {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxRelocatedBody(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	ct, _ := w.Create("[Content_Types].xml")
	_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override PartName="/word/document2.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`))
	fw, _ := w.Create("word/document2.xml")
	_, _ = fw.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>Content from the relocated body</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()

	e := NewExtractor()
	got, err := e.ExtractBytes(buf.Bytes(), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Content from the relocated body" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxRelocatedBodyReversedAttrs(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	ct, _ := w.Create("[Content_Types].xml")
	_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/word/document3.xml"/>
</Types>`))
	fw, _ := w.Create("word/document3.xml")
	_, _ = fw.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>Reversed attribute order</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()

	e := NewExtractor()
	got, err := e.ExtractBytes(buf.Bytes(), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Reversed attribute order" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxMultipleRuns(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document><w:body><w:p w:rsidR="00A">` +
		`<w:r><w:t>Section 303.</w:t></w:r>` +
		`<w:r><w:t xml:space="preserve">Theft.</w:t></w:r>` +
		`</w:p></w:body></w:document>`))
	_ = w.Close()

	e := NewExtractor()
	got, err := e.ExtractBytes(buf.Bytes(), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Section 303. Theft." {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxNotZip(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for invalid docx")
	}
}

func TestExtract_plainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bns.txt")
	if err := os.WriteFile(path, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	got, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "File content" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_excelFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Fine schedule")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	e := NewExtractor()
	got, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Fine schedule" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_rtfFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notification.rtf")
	rtf := `{\rtf1\ansi{\fonttbl\f0\fswiss Helvetica;}\f0\pard Theft is punishable under this provision.\par}`
	if err := os.WriteFile(path, []byte(rtf), 0600); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	got, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(got, "Theft is punishable under this provision") {
		t.Errorf("got %q", got)
	}
}

func TestExtract_odtMissingFile(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract(filepath.Join(t.TempDir(), "missing.odt")); err == nil {
		t.Error("expected error for missing odt")
	}
}

func TestExtract_nonexistent(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract("/nonexistent/path/file.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}
