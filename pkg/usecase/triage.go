package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/doctriage-lab/grammateus/pkg/domain/interfaces"
	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/domain/model/config"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/doctriage-lab/grammateus/pkg/service/archive"
	"github.com/doctriage-lab/grammateus/pkg/service/classifier"
	"github.com/doctriage-lab/grammateus/pkg/service/extract"
	"github.com/doctriage-lab/grammateus/pkg/service/notify"
	"github.com/doctriage-lab/grammateus/pkg/utils/async"
	"github.com/m-mizutani/goerr/v2"
)

// emailContentLimit caps stored plain-text payloads. Email triage never
// reads past this; JSON is exempt because truncation would corrupt it.
const emailContentLimit = 100_000

type TriageUseCase struct {
	repo       interfaces.Repository
	classifier classifier.Service
	dispatcher *extract.Dispatcher
	book       *config.IntentBook
	archive    archive.Archive
	notifier   notify.Service
}

func NewTriageUseCase(repo interfaces.Repository, classifierSvc classifier.Service, dispatcher *extract.Dispatcher, book *config.IntentBook, archiveSvc archive.Archive, notifier notify.Service) *TriageUseCase {
	return &TriageUseCase{
		repo:       repo,
		classifier: classifierSvc,
		dispatcher: dispatcher,
		book:       book,
		archive:    archiveSvc,
		notifier:   notifier,
	}
}

// IntakeInput carries one document submission
type IntakeInput struct {
	Name    string       // Original file name, may be empty for raw submissions
	Content []byte       // Raw payload
	Format  types.Format // Caller-declared format; sniffed from Name/Content when empty
}

// Intake validates and classifies a submission, stores the document, and
// appends its triage record. Extraction does not run here; call Process (or
// use Run) for that.
func (uc *TriageUseCase) Intake(ctx context.Context, input *IntakeInput) (*model.Document, *model.Record, error) {
	if uc.classifier == nil {
		return nil, nil, goerr.New("classifier is not configured")
	}
	if len(input.Content) == 0 {
		return nil, nil, goerr.Wrap(ErrEmptyDocument, "no content provided", goerr.V("name", input.Name))
	}

	format := input.Format.Normalize()
	if format == types.FormatUnknown {
		format = model.DetectFormat(input.Name, input.Content)
	}
	if format == types.FormatUnknown {
		return nil, nil, goerr.Wrap(ErrUnsupportedFormat, "cannot determine document format", goerr.V("name", input.Name))
	}

	content := input.Content
	switch format {
	case types.FormatJSON:
		if !json.Valid(content) {
			return nil, nil, goerr.Wrap(ErrMalformedJSON, "JSON payload does not parse", goerr.V("name", input.Name))
		}
	case types.FormatEmail:
		content = truncateText(content, emailContentLimit)
	}

	doc := &model.Document{
		ID:        model.NewDocumentID(),
		Name:      input.Name,
		Format:    format,
		Content:   content,
		Size:      int64(len(content)),
		CreatedAt: time.Now().UTC(),
	}
	if doc.Name == "" {
		doc.Name = syntheticName(format)
	}

	classification, err := uc.classifier.Classify(ctx, classifier.Input{
		Name:    doc.Name,
		Hint:    format,
		Snippet: doc.Snippet(classifier.SnippetLimit),
	})
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to classify document", goerr.V(DocumentIDKey, doc.ID))
	}
	doc.Classification = classification

	if len(doc.Content) > model.InlineContentLimit {
		if uc.archive == nil {
			return nil, nil, goerr.New("payload exceeds the inline limit and no archive is configured",
				goerr.V(DocumentIDKey, doc.ID), goerr.V("size", doc.Size))
		}
		key := archiveKey(doc.ID)
		if err := uc.archive.Put(ctx, key, doc.Content); err != nil {
			return nil, nil, goerr.Wrap(err, "failed to archive document content", goerr.V(DocumentIDKey, doc.ID))
		}
		doc.Content = nil
		doc.ContentRef = key
	}

	if err := uc.repo.Document().Put(ctx, doc); err != nil {
		return nil, nil, goerr.Wrap(err, "failed to store document", goerr.V(DocumentIDKey, doc.ID))
	}

	record, err := uc.repo.Record().Append(ctx, &model.Record{
		DocumentID:     doc.ID,
		Classification: *classification,
	})
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to append triage record", goerr.V(DocumentIDKey, doc.ID))
	}

	return doc, record, nil
}

// Process runs the extraction handler for a classified document, stores the
// extracted fields, and attaches the result to the triage record. A handler
// failure leaves the record without a result and surfaces the error.
func (uc *TriageUseCase) Process(ctx context.Context, id model.DocumentID) (*model.Record, error) {
	if uc.dispatcher == nil {
		return nil, goerr.New("extraction dispatcher is not configured")
	}

	doc, err := uc.repo.Document().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(ErrDocumentNotFound, "document not found", goerr.V(DocumentIDKey, id))
	}
	if doc.Classification == nil {
		return nil, goerr.Wrap(ErrNotClassified, "document has no classification", goerr.V(DocumentIDKey, id))
	}

	record, err := uc.repo.Record().GetByDocumentID(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(ErrDocumentNotFound, "triage record not found", goerr.V(DocumentIDKey, id))
	}
	if record.Processed() {
		return nil, goerr.Wrap(ErrAlreadyProcessed, "extraction result already attached",
			goerr.V(DocumentIDKey, id), goerr.V(RecordIDKey, record.ID))
	}

	content, err := uc.loadContent(ctx, doc)
	if err != nil {
		return nil, err
	}

	intent := doc.Classification.Intent
	result, err := uc.dispatcher.Dispatch(ctx, doc.Classification.Format, &extract.Input{
		Document: doc,
		Content:  content,
		Intent:   intent,
		Spec:     uc.intentSpec(intent),
	})
	if err != nil {
		if errors.Is(err, extract.ErrNoHandler) {
			return nil, goerr.Wrap(ErrUnsupportedFormat, "no handler for classified format",
				goerr.V(DocumentIDKey, id), goerr.V("format", doc.Classification.Format))
		}
		return nil, goerr.Wrap(err, "extraction failed", goerr.V(DocumentIDKey, id))
	}

	for name, value := range result.Fields {
		field := &model.Field{
			DocumentID: id,
			Name:       name,
			Value:      value,
		}
		if err := uc.repo.Field().Upsert(ctx, field); err != nil {
			return nil, goerr.Wrap(err, "failed to store extracted field",
				goerr.V(DocumentIDKey, id), goerr.V("field", name))
		}
	}

	updated, err := uc.repo.Record().AttachResult(ctx, record.ID, result)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to attach extraction result",
			goerr.V(DocumentIDKey, id), goerr.V(RecordIDKey, record.ID))
	}

	uc.notifyProcessed(ctx, doc, updated)

	return updated, nil
}

// Run performs intake and processing in one call
func (uc *TriageUseCase) Run(ctx context.Context, input *IntakeInput) (*model.Record, error) {
	doc, _, err := uc.Intake(ctx, input)
	if err != nil {
		return nil, err
	}
	return uc.Process(ctx, doc.ID)
}

// loadContent returns the raw payload, fetching from the archive when the
// document only holds a reference
func (uc *TriageUseCase) loadContent(ctx context.Context, doc *model.Document) ([]byte, error) {
	content := doc.Content
	if len(content) == 0 && doc.ContentRef != "" {
		if uc.archive == nil {
			return nil, goerr.New("document content is archived but no archive is configured",
				goerr.V(DocumentIDKey, doc.ID), goerr.V("contentRef", doc.ContentRef))
		}
		fetched, err := uc.archive.Fetch(ctx, doc.ContentRef)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to fetch archived content",
				goerr.V(DocumentIDKey, doc.ID), goerr.V("contentRef", doc.ContentRef))
		}
		content = fetched
	}
	if len(content) == 0 {
		return nil, goerr.Wrap(ErrEmptyDocument, "document has no stored content", goerr.V(DocumentIDKey, doc.ID))
	}
	return content, nil
}

// intentSpec returns the configured intent, or nil when the book does not
// cover it
func (uc *TriageUseCase) intentSpec(intent types.IntentID) *config.Intent {
	if uc.book == nil {
		return nil
	}
	return uc.book.Find(intent.String())
}

// notifyProcessed dispatches a background notification for high-urgency
// results
func (uc *TriageUseCase) notifyProcessed(ctx context.Context, doc *model.Document, record *model.Record) {
	if uc.notifier == nil {
		return
	}
	if record.Result.Urgency() != types.UrgencyHigh {
		return
	}

	async.Dispatch(ctx, "processed notification", func(ctx context.Context) error {
		if err := uc.notifier.NotifyProcessed(ctx, doc, record); err != nil {
			return goerr.Wrap(err, "failed to notify processed document", goerr.V(DocumentIDKey, doc.ID))
		}
		return nil
	})
}

// archiveKey builds the archive object key for a document payload
func archiveKey(id model.DocumentID) string {
	return "documents/" + string(id)
}

// syntheticName names raw submissions that arrive without a file name
func syntheticName(format types.Format) string {
	switch format {
	case types.FormatPDF:
		return "untitled.pdf"
	case types.FormatJSON:
		return "untitled.json"
	case types.FormatEmail:
		return "untitled.eml"
	default:
		return "untitled"
	}
}

// truncateText caps content at limit bytes without splitting a multi-byte
// rune
func truncateText(content []byte, limit int) []byte {
	if len(content) <= limit {
		return content
	}
	content = content[:limit]
	for len(content) > 0 && !utf8.Valid(content) {
		content = content[:len(content)-1]
	}
	return content
}
