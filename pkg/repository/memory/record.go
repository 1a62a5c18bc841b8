package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type recordRepository struct {
	mu      sync.RWMutex
	records map[int64]*model.Record
	nextID  int64
}

func newRecordRepository() *recordRepository {
	return &recordRepository{
		records: make(map[int64]*model.Record),
		nextID:  1,
	}
}

// copyResult creates a deep copy of an extraction result
func copyResult(result *model.ExtractionResult) *model.ExtractionResult {
	if result == nil {
		return nil
	}

	copied := &model.ExtractionResult{
		Format:      result.Format,
		Intent:      result.Intent,
		Summary:     result.Summary,
		Method:      result.Method,
		CompletedAt: result.CompletedAt,
	}
	if result.Fields != nil {
		copied.Fields = make(map[string]string, len(result.Fields))
		for k, v := range result.Fields {
			copied.Fields[k] = v
		}
	}
	if result.Valid != nil {
		valid := *result.Valid
		copied.Valid = &valid
	}
	if result.MissingFields != nil {
		copied.MissingFields = make([]string, len(result.MissingFields))
		copy(copied.MissingFields, result.MissingFields)
	}
	if result.SchemaErrors != nil {
		copied.SchemaErrors = make([]string, len(result.SchemaErrors))
		copy(copied.SchemaErrors, result.SchemaErrors)
	}
	return copied
}

// copyRecord creates a deep copy of a record
func copyRecord(record *model.Record) *model.Record {
	return &model.Record{
		ID:             record.ID,
		DocumentID:     record.DocumentID,
		Classification: record.Classification,
		Result:         copyResult(record.Result),
		CreatedAt:      record.CreatedAt,
	}
}

func (r *recordRepository) Append(ctx context.Context, record *model.Record) (*model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyRecord(record)
	created.ID = r.nextID
	created.CreatedAt = time.Now().UTC()
	r.nextID++

	r.records[created.ID] = created
	return copyRecord(created), nil
}

func (r *recordRepository) AttachResult(ctx context.Context, id int64, result *model.ExtractionResult) (*model.Record, error) {
	if result == nil {
		return nil, goerr.New("extraction result is required", goerr.V("id", id))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.records[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "record not found", goerr.V("id", id))
	}
	if record.Result != nil {
		return nil, goerr.Wrap(ErrResultExists, "record already has a result", goerr.V("id", id))
	}

	record.Result = copyResult(result)
	return copyRecord(record), nil
}

func (r *recordRepository) Get(ctx context.Context, id int64) (*model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "record not found", goerr.V("id", id))
	}

	return copyRecord(record), nil
}

func (r *recordRepository) GetByDocumentID(ctx context.Context, docID model.DocumentID) (*model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Newest record wins when several reference the document
	var found *model.Record
	for _, record := range r.records {
		if record.DocumentID == docID && (found == nil || record.ID > found.ID) {
			found = record
		}
	}
	if found == nil {
		return nil, goerr.Wrap(ErrNotFound, "record not found", goerr.V("documentID", docID))
	}

	return copyRecord(found), nil
}

func (r *recordRepository) List(ctx context.Context, limit int) ([]*model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*model.Record, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, copyRecord(record))
	}

	// Newest first; IDs are monotonic so they order identically to CreatedAt
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID > records[j].ID
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}
