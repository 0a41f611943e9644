package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"

	"doc_detector/internal/metrics"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "txt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrNoText            = errors.New("no extractable text")
)

type Parsed struct {
	Title       string
	SourcePath  string
	SourceBytes []byte
	Text        string
	Format      Format
	Pages       int
}

// ExtractionError reports a document whose text could not be obtained.
type ExtractionError struct {
	Op   string
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".txt", ".text", ".md":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

func ParseFile(path string) (*Parsed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		metrics.ExtractionFailure("")
		return nil, &ExtractionError{Op: "read", Path: path, Err: err}
	}
	parsed, err := Parse(path, raw)
	if err != nil {
		return nil, err
	}
	parsed.SourcePath = path
	return parsed, nil
}

// Parse extracts text from an in-memory document; name selects the format.
func Parse(name string, raw []byte) (*Parsed, error) {
	format, err := DetectFormat(name)
	if err != nil {
		metrics.ExtractionFailure("")
		return nil, &ExtractionError{Op: "detect format", Path: name, Err: err}
	}

	var text string
	pages := 0
	switch format {
	case FormatDOCX:
		text, err = parseDOCX(raw)
	case FormatPDF:
		text, pages, err = parsePDF(raw)
	case FormatText:
		text = decodeText(raw)
	}
	if err != nil {
		metrics.ExtractionFailure(string(format))
		return nil, &ExtractionError{Op: "parse " + string(format), Path: name, Err: err}
	}

	text = normalizeWhitespace(text)
	if text == "" {
		metrics.ExtractionFailure(string(format))
		return nil, &ExtractionError{Op: "parse " + string(format), Path: name, Err: ErrNoText}
	}

	title := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return &Parsed{
		Title:       title,
		SourcePath:  name,
		SourceBytes: raw,
		Text:        text,
		Format:      format,
		Pages:       pages,
	}, nil
}

func parseDOCX(raw []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open docx zip: %w", err)
	}

	var xmlData []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, openErr := f.Open()
		if openErr != nil {
			return "", fmt.Errorf("open document.xml: %w", openErr)
		}
		xmlData, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}
		break
	}
	if len(xmlData) == 0 {
		return "", fmt.Errorf("word/document.xml not found")
	}

	decoder := xml.NewDecoder(bytes.NewReader(xmlData))
	var b strings.Builder
	inText := false
	for {
		tok, tokenErr := decoder.Token()
		if tokenErr == io.EOF {
			break
		}
		if tokenErr != nil {
			return "", fmt.Errorf("decode document.xml: %w", tokenErr)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteString(" ")
			case "br":
				b.WriteString("\n")
			case "p":
				// Paragraphs become blank-line separated blocks.
				if b.Len() > 0 {
					b.WriteString("\n\n")
				}
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

func parsePDF(raw []byte) (string, int, error) {
	pages, validateErr := pdfPageCount(raw)

	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		if validateErr != nil {
			return "", 0, fmt.Errorf("open pdf: %w (validation: %v)", err, validateErr)
		}
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	total := r.NumPage()
	if validateErr != nil || pages == 0 {
		pages = total
	}
	texts := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, pageErr := p.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		if content = strings.TrimSpace(content); content != "" {
			texts = append(texts, content)
		}
	}
	if len(texts) == 0 {
		return "", pages, fmt.Errorf("%w in pdf", ErrNoText)
	}
	return strings.Join(texts, "\n\n"), pages, nil
}

// pdfPageCount reads the cross-reference structure with pdfcpu in relaxed
// mode. It fails on documents too damaged to carry a page tree.
func pdfPageCount(raw []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(raw), conf)
	if err != nil {
		return 0, fmt.Errorf("read pdf structure: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("count pdf pages: %w", err)
	}
	return ctx.PageCount, nil
}

// decodeText accepts UTF-8 (with or without BOM) and falls back to Latin-1.
func decodeText(raw []byte) string {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "�")
	}
	return string(decoded)
}

// normalizeWhitespace collapses runs of spaces inside lines and keeps at most
// one blank line between paragraphs.
func normalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if len(out) > 0 {
				blank = true
			}
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
