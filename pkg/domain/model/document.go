package model

import (
	"bytes"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/google/uuid"
)

// DocumentID is a UUID-based identifier for Document
type DocumentID string

// NewDocumentID generates a new UUID v4 DocumentID
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New().String())
}

// InlineContentLimit is the largest payload stored inline on a Document.
// Firestore caps documents at 1 MiB; anything larger goes to the archive
// and the Document keeps only a ContentRef.
const InlineContentLimit = 1 << 20

// Document represents an ingested document awaiting or holding triage results
type Document struct {
	ID     DocumentID
	Name   string // Original file name, or a synthetic name for raw submissions
	Format types.Format

	// Content holds the raw payload when it fits under InlineContentLimit.
	// ContentRef holds the archive key otherwise; exactly one of the two
	// is set for a stored document.
	Content    []byte
	ContentRef string
	Size       int64

	Classification *Classification
	CreatedAt      time.Time
}

// Snippet returns a bounded UTF-8 safe excerpt of the content, used to build
// classification prompts
func (x *Document) Snippet(limit int) string {
	if limit <= 0 || len(x.Content) == 0 {
		return ""
	}
	content := x.Content
	if len(content) > limit {
		content = content[:limit]
		for len(content) > 0 && !utf8.Valid(content) {
			content = content[:len(content)-1]
		}
	}
	return string(content)
}

var pdfMagic = []byte("%PDF-")

// DetectFormat sniffs the document format from the file name extension,
// falling back to content inspection when the extension is not conclusive
func DetectFormat(name string, content []byte) types.Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return types.FormatPDF
	case ".json":
		return types.FormatJSON
	case ".eml", ".txt":
		return types.FormatEmail
	}

	if bytes.HasPrefix(content, pdfMagic) {
		return types.FormatPDF
	}

	trimmed := bytes.TrimLeft(content, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return types.FormatJSON
	}

	if looksLikeEmail(content) {
		return types.FormatEmail
	}

	return types.FormatUnknown
}

// looksLikeEmail reports whether the leading lines carry RFC 5322 style
// headers such as "From:" or "Subject:"
func looksLikeEmail(content []byte) bool {
	lines := strings.Split(string(content), "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	for _, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(lower, "from:") || strings.HasPrefix(lower, "subject:") || strings.HasPrefix(lower, "to:") {
			return true
		}
	}
	return false
}
