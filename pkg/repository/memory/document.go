package memory

import (
	"context"
	"sync"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type documentRepository struct {
	mu   sync.RWMutex
	docs map[model.DocumentID]*model.Document
}

func newDocumentRepository() *documentRepository {
	return &documentRepository{
		docs: make(map[model.DocumentID]*model.Document),
	}
}

// copyDocument creates a deep copy of a document
func copyDocument(doc *model.Document) *model.Document {
	copied := &model.Document{
		ID:         doc.ID,
		Name:       doc.Name,
		Format:     doc.Format,
		ContentRef: doc.ContentRef,
		Size:       doc.Size,
		CreatedAt:  doc.CreatedAt,
	}
	if doc.Content != nil {
		copied.Content = make([]byte, len(doc.Content))
		copy(copied.Content, doc.Content)
	}
	if doc.Classification != nil {
		cls := *doc.Classification
		copied.Classification = &cls
	}
	return copied
}

func (r *documentRepository) Put(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		return goerr.New("document ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.docs[doc.ID] = copyDocument(doc)
	return nil
}

func (r *documentRepository) Get(ctx context.Context, id model.DocumentID) (*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, exists := r.docs[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "document not found", goerr.V("id", id))
	}

	return copyDocument(doc), nil
}
