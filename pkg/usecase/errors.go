package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrDocumentNotFound = errors.New("document not found")

	// Intake validation errors
	ErrEmptyDocument     = errors.New("document content is empty")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrMalformedJSON     = errors.New("malformed JSON payload")

	// Processing state errors
	ErrNotClassified    = errors.New("document is not classified")
	ErrAlreadyProcessed = errors.New("document is already processed")
)

// Context keys for error values
const (
	DocumentIDKey = "document_id"
	RecordIDKey   = "record_id"
)
