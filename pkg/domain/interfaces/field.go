package interfaces

import (
	"context"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
)

// FieldRepository defines the interface for extracted field access
type FieldRepository interface {
	// Upsert creates or replaces the field value for (DocumentID, Name)
	Upsert(ctx context.Context, field *model.Field) error

	// Get retrieves a single field by document ID and name
	Get(ctx context.Context, docID model.DocumentID, name string) (*model.Field, error)

	// List retrieves all fields for a document
	List(ctx context.Context, docID model.DocumentID) ([]*model.Field, error)
}
