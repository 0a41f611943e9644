package ingest

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDOCX(t *testing.T) {
	raw := buildDOCX(t, `<w:document><w:body><w:p><w:r><w:t>Chapter 1</w:t></w:r></w:p><w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:tab/><w:t>world.</w:t></w:r></w:p></w:body></w:document>`)
	got, err := parseDOCX(raw)
	require.NoError(t, err)
	assert.Equal(t, "Chapter 1\n\nHello world.", normalizeWhitespace(got))
}

func TestParseDOCXMissingDocument(t *testing.T) {
	var b bytes.Buffer
	zw := zip.NewWriter(&b)
	_, err := zw.Create("word/other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Parse("broken.docx", b.Bytes())
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "parse docx", extErr.Op)
}

func TestParseFileUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.odt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := ParseFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.txt"))
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "read", extErr.Op)
}

func TestParseText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("\xef\xbb\xbfFirst   line.\r\n\r\n\r\n\r\nSecond paragraph."), 0o644))

	parsed, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatText, parsed.Format)
	assert.Equal(t, "note", parsed.Title)
	assert.Equal(t, path, parsed.SourcePath)
	assert.Equal(t, "First line.\n\nSecond paragraph.", parsed.Text)
}

func TestParseTextLatin1Fallback(t *testing.T) {
	parsed, err := Parse("legacy.txt", []byte("caf\xe9 cr\xe8me"))
	require.NoError(t, err)
	assert.Equal(t, "café crème", parsed.Text)
}

func TestParseEmptyTextIsExtractionError(t *testing.T) {
	_, err := Parse("blank.txt", []byte("  \n\n \t "))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoText))
}

func TestParseCorruptPDF(t *testing.T) {
	_, err := Parse("bad.pdf", []byte("not a pdf at all"))
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "parse pdf", extErr.Op)
}

func TestParsePDF(t *testing.T) {
	raw := buildPDF([]string{"Hello from page one.", "Second page text."})
	parsed, err := Parse("doc.pdf", raw)
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, parsed.Format)
	assert.Equal(t, 2, parsed.Pages)
	assert.Contains(t, parsed.Text, "Hello from page one.")
	assert.Contains(t, parsed.Text, "Second page text.")
}

func TestNormalizeWhitespaceKeepsParagraphs(t *testing.T) {
	got := normalizeWhitespace("\n\n  a   b \n c\n\n\n\n d  \n\n")
	assert.Equal(t, "a b\nc\n\nd", got)
}

func buildDOCX(t *testing.T, bodyXML string) []byte {
	t.Helper()
	var b bytes.Buffer
	zw := zip.NewWriter(&b)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	xml := `<?xml version="1.0" encoding="UTF-8"?>` + bodyXML
	if _, err := f.Write([]byte(xml)); err != nil {
		t.Fatalf("write xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return b.Bytes()
}

// buildPDF writes a minimal PDF 1.4 file with one Helvetica text line per
// page and a correct cross-reference table.
func buildPDF(pages []string) []byte {
	n := len(pages)
	// 1 catalog, 2 pages, 3 font, then a page and content object per page.
	objects := make([]string, 3+2*n)
	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects[0] = "<< /Type /Catalog /Pages 2 0 R >>"
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n)
	objects[2] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects[3+2*i] = fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i)
		objects[4+2*i] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream)
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}
