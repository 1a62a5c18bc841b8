package interfaces

import (
	"context"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
)

// RecordRepository defines the interface for the append-only triage log
type RecordRepository interface {
	// Append stores a new record with an auto-incrementing ID
	Append(ctx context.Context, record *model.Record) (*model.Record, error)

	// AttachResult sets the extraction result on an existing record.
	// A record carries at most one result; attaching to a record that
	// already has one fails.
	AttachResult(ctx context.Context, id int64, result *model.ExtractionResult) (*model.Record, error)

	// Get retrieves a record by ID
	Get(ctx context.Context, id int64) (*model.Record, error)

	// GetByDocumentID retrieves the newest record referencing the given document
	GetByDocumentID(ctx context.Context, docID model.DocumentID) (*model.Record, error)

	// List retrieves up to limit records, newest first
	List(ctx context.Context, limit int) ([]*model.Record, error)
}
