package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/doctriage-lab/grammateus/pkg/domain/interfaces"
	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/domain/model/config"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/doctriage-lab/grammateus/pkg/repository/memory"
	"github.com/doctriage-lab/grammateus/pkg/service/archive"
	"github.com/doctriage-lab/grammateus/pkg/service/classifier"
	"github.com/doctriage-lab/grammateus/pkg/service/extract"
	"github.com/doctriage-lab/grammateus/pkg/usecase"
	"github.com/m-mizutani/gt"
)

const complaintMail = "From: Dana Wright <dana@example.com>\r\n" +
	"Subject: Broken pump in order 4411\r\n" +
	"Date: Mon, 12 May 2025 09:30:00 +0000\r\n" +
	"\r\n" +
	"I want to file a complaint about the pump from order 4411.\r\n" +
	"It stopped working after two days. Please send a replacement immediately.\r\n"

func testIntentBook() *config.IntentBook {
	return &config.IntentBook{
		Intents: []config.Intent{
			{ID: "invoice", Name: "Invoice", Description: "Bills requesting payment"},
			{ID: "rfq", Name: "Request for Quote", Description: "Requests for pricing"},
			{ID: "complaint", Name: "Complaint", Description: "Reports of problems",
				Fields: []config.FieldSpec{
					{Name: "issue", Description: "What went wrong", Required: true},
					{Name: "product_or_service", Description: "What the complaint concerns"},
				}},
			{ID: "regulation", Name: "Regulation", Description: "Legal or compliance text"},
		},
	}
}

// notifierCall records one NotifyProcessed invocation
type notifierCall struct {
	doc    *model.Document
	record *model.Record
}

type mockNotifier struct {
	calls chan notifierCall
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{calls: make(chan notifierCall, 4)}
}

func (x *mockNotifier) NotifyProcessed(ctx context.Context, doc *model.Document, record *model.Record) error {
	x.calls <- notifierCall{doc: doc, record: record}
	return nil
}

// newTestUseCases wires the keyword-only classifier and heuristic handlers
// over the given repository
func newTestUseCases(t *testing.T, repo interfaces.Repository, opts ...usecase.Option) *usecase.UseCases {
	book := testIntentBook()
	classifierSvc, err := classifier.New(nil, book)
	gt.NoError(t, err).Required()

	base := []usecase.Option{
		usecase.WithClassifier(classifierSvc),
		usecase.WithDispatcher(extract.NewDispatcher(
			extract.NewEmail(nil),
			extract.NewJSON(nil),
			extract.NewPDF(nil),
		)),
		usecase.WithIntentBook(book),
	}
	return usecase.New(repo, append(base, opts...)...)
}

func TestIntake(t *testing.T) {
	ctx := context.Background()

	t.Run("classifies and records an email", func(t *testing.T) {
		repo := memory.New()
		uc := newTestUseCases(t, repo)

		doc, record, err := uc.Triage.Intake(ctx, &usecase.IntakeInput{
			Name:    "complaint.eml",
			Content: []byte(complaintMail),
		})
		gt.NoError(t, err).Required()

		gt.Value(t, doc.Format).Equal(types.FormatEmail)
		gt.Value(t, doc.Classification).NotNil()
		gt.Value(t, doc.Classification.Intent).Equal(types.IntentComplaint)
		gt.Value(t, record.DocumentID).Equal(doc.ID)
		gt.Value(t, record.Classification.Intent).Equal(types.IntentComplaint)
		gt.Value(t, record.Result).Nil()

		stored, err := repo.Document().Get(ctx, doc.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Content).Equal([]byte(complaintMail))
		gt.Value(t, stored.Classification.Intent).Equal(types.IntentComplaint)

		_, err = repo.Record().GetByDocumentID(ctx, doc.ID)
		gt.NoError(t, err)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		uc := newTestUseCases(t, memory.New())

		_, _, err := uc.Triage.Intake(ctx, &usecase.IntakeInput{Name: "empty.eml"})
		gt.Value(t, errors.Is(err, usecase.ErrEmptyDocument)).Equal(true)
	})

	t.Run("rejects undetectable formats", func(t *testing.T) {
		uc := newTestUseCases(t, memory.New())

		_, _, err := uc.Triage.Intake(ctx, &usecase.IntakeInput{
			Name:    "data.bin",
			Content: []byte{0x00, 0x01, 0x02, 0x03},
		})
		gt.Value(t, errors.Is(err, usecase.ErrUnsupportedFormat)).Equal(true)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		uc := newTestUseCases(t, memory.New())

		_, _, err := uc.Triage.Intake(ctx, &usecase.IntakeInput{
			Name:    "broken.json",
			Content: []byte("{not json"),
		})
		gt.Value(t, errors.Is(err, usecase.ErrMalformedJSON)).Equal(true)
	})

	t.Run("honors a caller-declared format", func(t *testing.T) {
		repo := memory.New()
		uc := newTestUseCases(t, repo)

		doc, _, err := uc.Triage.Intake(ctx, &usecase.IntakeInput{
			Content: []byte("Please quote prices for 20 units. This is a request for quote."),
			Format:  types.FormatEmail,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, doc.Format).Equal(types.FormatEmail)
		gt.S(t, doc.Name).Equal("untitled.eml")
		gt.Value(t, doc.Classification.Intent).Equal(types.IntentRFQ)
	})

	t.Run("truncates oversized email text", func(t *testing.T) {
		repo := memory.New()
		uc := newTestUseCases(t, repo)

		mail := "From: a@example.com\nSubject: Big\n\n" + strings.Repeat("x", 150_000)
		doc, _, err := uc.Triage.Intake(ctx, &usecase.IntakeInput{
			Name:    "big.eml",
			Content: []byte(mail),
		})
		gt.NoError(t, err).Required()
		gt.Number(t, len(doc.Content)).Equal(100_000)
		gt.Number(t, doc.Size).Equal(100_000)
	})

	t.Run("archives payloads over the inline limit", func(t *testing.T) {
		repo := memory.New()
		store, err := archive.NewDir(t.TempDir())
		gt.NoError(t, err).Required()
		uc := newTestUseCases(t, repo, usecase.WithArchive(store))

		payload := []byte(`{"invoice_number":"INV-1","data":"` + strings.Repeat("x", model.InlineContentLimit) + `"}`)
		doc, _, err := uc.Triage.Intake(ctx, &usecase.IntakeInput{
			Name:    "huge.json",
			Content: payload,
		})
		gt.NoError(t, err).Required()

		gt.Value(t, doc.Content).Nil()
		gt.S(t, doc.ContentRef).Equal("documents/" + string(doc.ID))
		gt.Number(t, doc.Size).Equal(int64(len(payload)))

		archived, err := store.Fetch(ctx, doc.ContentRef)
		gt.NoError(t, err).Required()
		gt.Number(t, len(archived)).Equal(len(payload))
	})

	t.Run("oversized payload without an archive is an error", func(t *testing.T) {
		uc := newTestUseCases(t, memory.New())

		payload := []byte(`{"data":"` + strings.Repeat("x", model.InlineContentLimit) + `"}`)
		_, _, err := uc.Triage.Intake(ctx, &usecase.IntakeInput{
			Name:    "huge.json",
			Content: payload,
		})
		gt.Value(t, err).NotNil()
	})
}

func TestProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("attaches the extraction result", func(t *testing.T) {
		repo := memory.New()
		uc := newTestUseCases(t, repo)

		doc, _, err := uc.Triage.Intake(ctx, &usecase.IntakeInput{
			Name:    "complaint.eml",
			Content: []byte(complaintMail),
		})
		gt.NoError(t, err).Required()

		record, err := uc.Triage.Process(ctx, doc.ID)
		gt.NoError(t, err).Required()

		gt.B(t, record.Processed()).True()
		gt.Value(t, record.Result.Format).Equal(types.FormatEmail)
		gt.S(t, record.Result.Fields["urgency"]).Equal("high")
		gt.S(t, record.Result.Fields["sender"]).Equal("Dana Wright <dana@example.com>")

		field, err := repo.Field().Get(ctx, doc.ID, "sender")
		gt.NoError(t, err).Required()
		gt.S(t, field.Value).Equal("Dana Wright <dana@example.com>")

		stored, err := repo.Record().Get(ctx, record.ID)
		gt.NoError(t, err).Required()
		gt.B(t, stored.Processed()).True()
	})

	t.Run("validates JSON against the intent schema", func(t *testing.T) {
		repo := memory.New()
		uc := newTestUseCases(t, repo)

		payload := `{"invoice_number":"INV-2024-117","issue_date":"2024-05-01"}`
		doc, _, err := uc.Triage.Intake(ctx, &usecase.IntakeInput{
			Name:    "invoice.json",
			Content: []byte(payload),
		})
		gt.NoError(t, err).Required()
		gt.Value(t, doc.Classification.Intent).Equal(types.IntentInvoice)

		record, err := uc.Triage.Process(ctx, doc.ID)
		gt.NoError(t, err).Required()

		gt.Value(t, record.Result.Valid).NotNil()
		gt.Value(t, *record.Result.Valid).Equal(false)
		gt.Array(t, record.Result.MissingFields).Equal([]string{"due_date", "total_amount"})
		gt.S(t, record.Result.Fields["invoice_number"]).Equal("INV-2024-117")
	})

	t.Run("unknown document", func(t *testing.T) {
		uc := newTestUseCases(t, memory.New())

		_, err := uc.Triage.Process(ctx, model.NewDocumentID())
		gt.Value(t, errors.Is(err, usecase.ErrDocumentNotFound)).Equal(true)
	})

	t.Run("second run is rejected", func(t *testing.T) {
		repo := memory.New()
		uc := newTestUseCases(t, repo)

		doc, _, err := uc.Triage.Intake(ctx, &usecase.IntakeInput{
			Name:    "complaint.eml",
			Content: []byte(complaintMail),
		})
		gt.NoError(t, err).Required()

		_, err = uc.Triage.Process(ctx, doc.ID)
		gt.NoError(t, err).Required()

		_, err = uc.Triage.Process(ctx, doc.ID)
		gt.Value(t, errors.Is(err, usecase.ErrAlreadyProcessed)).Equal(true)
	})

	t.Run("format without a handler", func(t *testing.T) {
		repo := memory.New()
		book := testIntentBook()
		classifierSvc, err := classifier.New(nil, book)
		gt.NoError(t, err).Required()

		// Dispatcher with no PDF handler
		uc := usecase.New(repo,
			usecase.WithClassifier(classifierSvc),
			usecase.WithDispatcher(extract.NewDispatcher(extract.NewEmail(nil), extract.NewJSON(nil))),
			usecase.WithIntentBook(book),
		)

		doc, _, err := uc.Triage.Intake(ctx, &usecase.IntakeInput{
			Name:    "scan.pdf",
			Content: []byte("%PDF-1.4 stub"),
		})
		gt.NoError(t, err).Required()

		_, err = uc.Triage.Process(ctx, doc.ID)
		gt.Value(t, errors.Is(err, usecase.ErrUnsupportedFormat)).Equal(true)
	})

	t.Run("extracts archived content", func(t *testing.T) {
		repo := memory.New()
		store, err := archive.NewDir(t.TempDir())
		gt.NoError(t, err).Required()
		uc := newTestUseCases(t, repo, usecase.WithArchive(store))

		payload := []byte(`{"invoice_number":"INV-9","data":"` + strings.Repeat("x", model.InlineContentLimit) + `"}`)
		doc, _, err := uc.Triage.Intake(ctx, &usecase.IntakeInput{
			Name:    "huge.json",
			Content: payload,
		})
		gt.NoError(t, err).Required()

		record, err := uc.Triage.Process(ctx, doc.ID)
		gt.NoError(t, err).Required()
		gt.S(t, record.Result.Fields["invoice_number"]).Equal("INV-9")
	})
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("intake and process in one call", func(t *testing.T) {
		repo := memory.New()
		uc := newTestUseCases(t, repo)

		record, err := uc.Triage.Run(ctx, &usecase.IntakeInput{
			Name:    "complaint.eml",
			Content: []byte(complaintMail),
		})
		gt.NoError(t, err).Required()

		gt.B(t, record.Processed()).True()
		gt.Value(t, record.Classification.Intent).Equal(types.IntentComplaint)
	})
}

func TestNotification(t *testing.T) {
	ctx := context.Background()

	t.Run("high urgency posts a notification", func(t *testing.T) {
		repo := memory.New()
		notifier := newMockNotifier()
		uc := newTestUseCases(t, repo, usecase.WithNotifier(notifier))

		record, err := uc.Triage.Run(ctx, &usecase.IntakeInput{
			Name:    "complaint.eml",
			Content: []byte(complaintMail),
		})
		gt.NoError(t, err).Required()

		select {
		case call := <-notifier.calls:
			gt.Value(t, call.record.ID).Equal(record.ID)
			gt.S(t, call.doc.Name).Equal("complaint.eml")
		case <-time.After(time.Second):
			t.Fatal("notification was not dispatched")
		}
	})

	t.Run("low urgency stays quiet", func(t *testing.T) {
		repo := memory.New()
		notifier := newMockNotifier()
		uc := newTestUseCases(t, repo, usecase.WithNotifier(notifier))

		calmMail := "From: a@example.com\r\nSubject: Weekly report\r\n\r\nAll fine this week.\r\n"
		_, err := uc.Triage.Run(ctx, &usecase.IntakeInput{
			Name:    "report.eml",
			Content: []byte(calmMail),
		})
		gt.NoError(t, err).Required()

		select {
		case <-notifier.calls:
			t.Fatal("unexpected notification")
		case <-time.After(100 * time.Millisecond):
		}
	})
}
