package model

import "time"

// Record is one entry in the append-only triage log. Every record references
// exactly one Classification and zero or one ExtractionResult; the result is
// attached at most once when processing completes, and records are never
// updated otherwise or deleted.
type Record struct {
	ID             int64 // Auto-incrementing, assigned by the repository
	DocumentID     DocumentID
	Classification Classification
	Result         *ExtractionResult
	CreatedAt      time.Time
}

// Processed reports whether an extraction result has been attached
func (x *Record) Processed() bool {
	return x.Result != nil
}
