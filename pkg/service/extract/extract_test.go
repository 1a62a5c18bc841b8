package extract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/doctriage-lab/grammateus/pkg/service/extract"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
)

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{"{}"}}, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

// promptText pulls the text prompt out of a GenerateContent call
func promptText(t *testing.T, input []gollem.Input) string {
	t.Helper()
	gt.Array(t, input).Length(1)
	text, ok := input[0].(gollem.Text)
	gt.Value(t, ok).Equal(true)
	return string(text)
}

func testDocument(name string) *model.Document {
	return &model.Document{
		ID:   model.NewDocumentID(),
		Name: name,
	}
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("routes by format", func(t *testing.T) {
		dispatcher := extract.NewDispatcher(extract.NewEmail(nil), extract.NewJSON(nil), extract.NewPDF(nil))

		result, err := dispatcher.Dispatch(ctx, types.FormatEmail, &extract.Input{
			Document: testDocument("note.eml"),
			Content:  []byte("From: a@example.com\nSubject: hello\n\nhi"),
			Intent:   types.IntentGeneral,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, result.Format).Equal(types.FormatEmail)
	})

	t.Run("unknown format has no handler", func(t *testing.T) {
		dispatcher := extract.NewDispatcher(extract.NewEmail(nil))

		_, err := dispatcher.Dispatch(ctx, types.FormatPDF, &extract.Input{
			Document: testDocument("scan.pdf"),
			Content:  []byte("%PDF-"),
			Intent:   types.IntentGeneral,
		})
		gt.Value(t, errors.Is(err, extract.ErrNoHandler)).Equal(true)
	})

	t.Run("unroutable format has no handler", func(t *testing.T) {
		dispatcher := extract.NewDispatcher(extract.NewEmail(nil), extract.NewJSON(nil), extract.NewPDF(nil))

		_, err := dispatcher.Dispatch(ctx, types.FormatUnknown, &extract.Input{
			Document: testDocument("mystery.bin"),
			Content:  []byte{0x00, 0x01},
			Intent:   types.IntentGeneral,
		})
		gt.Value(t, errors.Is(err, extract.ErrNoHandler)).Equal(true)
	})
}
