package extract

import (
	"context"
	"strconv"
	"time"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/doctriage-lab/grammateus/pkg/service/pdftext"
	"github.com/doctriage-lab/grammateus/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

const (
	// pdfFieldLimit caps the text excerpt sent for LLM field extraction
	pdfFieldLimit = 4000

	// pdfPreviewLimit caps the summary preview
	pdfPreviewLimit = 200
)

type pdfHandler struct {
	llmClient gollem.LLMClient
}

// NewPDF creates the handler for PDF documents. Text extraction always runs
// locally; the LLM client is optional and only adds field extraction over
// the extracted text.
func NewPDF(llmClient gollem.LLMClient) Handler {
	return &pdfHandler{llmClient: llmClient}
}

func (h *pdfHandler) Format() types.Format {
	return types.FormatPDF
}

func (h *pdfHandler) Extract(ctx context.Context, input *Input) (*model.ExtractionResult, error) {
	text, err := pdftext.Extract(input.Content)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract PDF text", goerr.V("documentID", input.Document.ID))
	}

	fields := map[string]string{
		"page_count": strconv.Itoa(text.PageCount),
		"word_count": strconv.Itoa(text.WordCount),
	}
	method := model.MethodHeuristic

	if h.llmClient != nil && text.Text != "" {
		extracted, err := extractFieldsByLLM(ctx, h.llmClient, input.Intent, input.Spec, text.Text, pdfFieldLimit)
		if err != nil {
			logging.From(ctx).Warn("LLM extraction degraded to text preview",
				"error", err.Error(),
				"documentID", input.Document.ID,
			)
		} else {
			for name, value := range extracted {
				fields[name] = value
			}
			method = model.MethodLLM
		}
	}

	summary := pdftext.Preview(text.Text, pdfPreviewLimit)
	if summary == "" {
		summary = "No text content could be extracted"
	}

	return &model.ExtractionResult{
		Format:      types.FormatPDF,
		Intent:      input.Intent,
		Fields:      fields,
		Summary:     summary,
		Method:      method,
		CompletedAt: time.Now().UTC(),
	}, nil
}
