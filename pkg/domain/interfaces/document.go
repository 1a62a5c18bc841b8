package interfaces

import (
	"context"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
)

// DocumentRepository defines the interface for Document data access
type DocumentRepository interface {
	// Put stores a document under its caller-assigned ID
	Put(ctx context.Context, doc *model.Document) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id model.DocumentID) (*model.Document, error)
}
