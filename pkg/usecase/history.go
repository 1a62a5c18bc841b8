package usecase

import (
	"context"

	"github.com/doctriage-lab/grammateus/pkg/domain/interfaces"
	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultHistoryLimit applies when the caller does not specify one
	DefaultHistoryLimit = 5
	// MaxHistoryLimit caps a single history page
	MaxHistoryLimit = 100
)

type HistoryUseCase struct {
	repo interfaces.Repository
}

func NewHistoryUseCase(repo interfaces.Repository) *HistoryUseCase {
	return &HistoryUseCase{
		repo: repo,
	}
}

// HistoryEntry is one row of the triage history, annotated with display
// metadata pulled from the document and its extracted fields
type HistoryEntry struct {
	Record *model.Record
	Name   string // Document name, empty if the document is gone
	Sender string // Extracted sender field, empty when absent
}

// DocumentDetail aggregates everything stored for one document
type DocumentDetail struct {
	Document *model.Document
	Record   *model.Record // Nil when intake never appended one
	Fields   []*model.Field
}

// Recent returns the newest triage records, most recent first. The limit is
// clamped to [1, MaxHistoryLimit]; zero or negative means the default.
func (uc *HistoryUseCase) Recent(ctx context.Context, limit int) ([]*HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	records, err := uc.repo.Record().List(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list triage records")
	}

	entries := make([]*HistoryEntry, 0, len(records))
	for _, record := range records {
		entry := &HistoryEntry{Record: record}

		if doc, err := uc.repo.Document().Get(ctx, record.DocumentID); err == nil {
			entry.Name = doc.Name
		}
		// A document without a sender field is still listed
		if field, err := uc.repo.Field().Get(ctx, record.DocumentID, "sender"); err == nil {
			entry.Sender = field.Value
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// Document returns the stored document with its triage record and extracted
// fields
func (uc *HistoryUseCase) Document(ctx context.Context, id model.DocumentID) (*DocumentDetail, error) {
	doc, err := uc.repo.Document().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(ErrDocumentNotFound, "document not found", goerr.V(DocumentIDKey, id))
	}

	detail := &DocumentDetail{Document: doc}

	if record, err := uc.repo.Record().GetByDocumentID(ctx, id); err == nil {
		detail.Record = record
	}

	fields, err := uc.repo.Field().List(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list extracted fields", goerr.V(DocumentIDKey, id))
	}
	detail.Fields = fields

	return detail, nil
}
