package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type fieldRepository struct {
	mu     sync.RWMutex
	fields map[model.DocumentID]map[string]*model.Field
}

func newFieldRepository() *fieldRepository {
	return &fieldRepository{
		fields: make(map[model.DocumentID]map[string]*model.Field),
	}
}

func copyField(field *model.Field) *model.Field {
	copied := *field
	return &copied
}

func (r *fieldRepository) Upsert(ctx context.Context, field *model.Field) error {
	if field.DocumentID == "" {
		return goerr.New("document ID is required")
	}
	if field.Name == "" {
		return goerr.New("field name is required", goerr.V("documentID", field.DocumentID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.fields[field.DocumentID]; !exists {
		r.fields[field.DocumentID] = make(map[string]*model.Field)
	}

	stored := copyField(field)
	stored.UpdatedAt = time.Now().UTC()
	r.fields[field.DocumentID][field.Name] = stored

	return nil
}

func (r *fieldRepository) Get(ctx context.Context, docID model.DocumentID, name string) (*model.Field, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byName, exists := r.fields[docID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "field not found", goerr.V("documentID", docID), goerr.V("name", name))
	}

	field, exists := byName[name]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "field not found", goerr.V("documentID", docID), goerr.V("name", name))
	}

	return copyField(field), nil
}

func (r *fieldRepository) List(ctx context.Context, docID model.DocumentID) ([]*model.Field, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byName, exists := r.fields[docID]
	if !exists {
		return []*model.Field{}, nil
	}

	fields := make([]*model.Field, 0, len(byName))
	for _, field := range byName {
		fields = append(fields, copyField(field))
	}

	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Name < fields[j].Name
	})

	return fields, nil
}
