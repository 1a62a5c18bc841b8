// Package pdftext extracts plain text from PDF payloads so the extraction
// pipeline can hand it to an LLM.
package pdftext

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// MaxPages limits how many pages a payload may carry
	MaxPages = 100

	// MaxTextSize caps the extracted text at 1 MiB
	MaxTextSize = 1 << 20
)

// Result holds the text and counters extracted from a PDF
type Result struct {
	PageCount int
	WordCount int
	Text      string
}

// Extract pulls plain text from the PDF bytes. Pages that fail text
// extraction are skipped; a PDF with no extractable text yields an empty
// Text, not an error.
func Extract(data []byte) (*Result, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open PDF")
	}

	totalPages := pdfReader.NumPage()
	if totalPages == 0 {
		return nil, goerr.New("PDF has no pages")
	}
	if totalPages > MaxPages {
		return nil, goerr.New("PDF has too many pages",
			goerr.V("pages", totalPages),
			goerr.V("max", MaxPages),
		)
	}

	var sb strings.Builder
	wordCount := 0

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail text extraction
			continue
		}

		cleaned := normalize(text)
		if cleaned == "" {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(cleaned)
		wordCount += len(strings.Fields(cleaned))

		if sb.Len() > MaxTextSize {
			break
		}
	}

	text := sb.String()
	if len(text) > MaxTextSize {
		text = text[:MaxTextSize]
	}

	return &Result{
		PageCount: totalPages,
		WordCount: wordCount,
		Text:      text,
	}, nil
}

// Preview returns the leading maxChars of text, cut back to a word boundary
// when one is close enough
func Preview(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}

	preview := text[:maxChars]
	if idx := strings.LastIndex(preview, " "); idx > maxChars/2 {
		preview = preview[:idx]
	}

	return preview + "..."
}

// normalize strips NUL bytes and collapses runs of whitespace while keeping
// line breaks
func normalize(text string) string {
	var sb strings.Builder
	space := false

	for _, r := range text {
		switch {
		case r == 0:
		case r == '\n':
			sb.WriteRune('\n')
			space = false
		case unicode.IsSpace(r):
			if !space {
				sb.WriteRune(' ')
				space = true
			}
		default:
			sb.WriteRune(r)
			space = false
		}
	}

	return strings.TrimSpace(sb.String())
}
