package model

import "time"

// Field represents a single extracted key/value pair associated with a
// Document. Fields are stored in a separate collection rather than being
// embedded in the parent Document, and re-extraction upserts by name.
type Field struct {
	DocumentID DocumentID
	Name       string
	Value      string
	UpdatedAt  time.Time
}
