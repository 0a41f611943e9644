package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"doc_detector/internal/report"
)

// DocumentInfo locates the workspace copy of one analyzed document.
type DocumentInfo struct {
	ID         string
	Root       string
	SourcePath string
	ReportPath string
}

// CreateDocument prepares reports/<id>/ for a document, keyed by a hash of
// its name, and stores a copy of the source bytes when given.
func CreateDocument(workspaceRoot, sourceName string, source []byte) (*DocumentInfo, error) {
	id := sourceHash(sourceName)
	docRoot := filepath.Join(workspaceRoot, "reports", id)
	if err := os.MkdirAll(docRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}

	sourcePath := filepath.Join(docRoot, sanitizeSourceName(sourceName))
	if len(source) > 0 {
		if err := os.WriteFile(sourcePath, source, 0o644); err != nil {
			return nil, fmt.Errorf("write source file: %w", err)
		}
	}

	return &DocumentInfo{
		ID:         id,
		Root:       docRoot,
		SourcePath: sourcePath,
		ReportPath: filepath.Join(docRoot, "report.json"),
	}, nil
}

// SaveReport writes the JSON rendering of a result into the document's
// report file.
func SaveReport(doc *DocumentInfo, result any) error {
	if doc == nil {
		return fmt.Errorf("save report: nil document")
	}
	return report.WriteJSON(doc.ReportPath, result)
}

func sourceHash(name string) string {
	trimmed := strings.TrimSpace(strings.ToLower(filepath.Base(name)))
	sum := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(sum[:])[:12]
}

func sanitizeSourceName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "source.txt"
	}
	return strings.ReplaceAll(base, "..", "")
}
