package notify

import (
	"context"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
)

// Service delivers triage outcome notifications to an external channel.
// The caller decides which documents warrant a notification; implementations
// only format and deliver.
type Service interface {
	// NotifyProcessed posts a summary of a processed document
	NotifyProcessed(ctx context.Context, doc *model.Document, record *model.Record) error
}
