package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/usecase"
	"github.com/doctriage-lab/grammateus/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

type classificationResponse struct {
	Format     string    `json:"format"`
	Intent     string    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
}

type resultResponse struct {
	Fields        map[string]string `json:"fields"`
	Valid         *bool             `json:"valid,omitempty"`
	MissingFields []string          `json:"missing_fields,omitempty"`
	SchemaErrors  []string          `json:"schema_errors,omitempty"`
	Summary       string            `json:"summary,omitempty"`
	Method        string            `json:"method"`
	CompletedAt   time.Time         `json:"completed_at"`
}

type recordResponse struct {
	RecordID       int64                  `json:"record_id"`
	DocumentID     string                 `json:"document_id"`
	Classification classificationResponse `json:"classification"`
	Result         *resultResponse        `json:"result,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

type intakeResponse struct {
	DocumentID     string                 `json:"document_id"`
	RecordID       int64                  `json:"record_id"`
	Classification classificationResponse `json:"classification"`
}

// documentResponse describes a stored document without its raw payload
type documentResponse struct {
	DocumentID     string                  `json:"document_id"`
	Name           string                  `json:"name"`
	Format         string                  `json:"format"`
	Size           int64                   `json:"size"`
	Classification *classificationResponse `json:"classification,omitempty"`
	Record         *recordResponse         `json:"record,omitempty"`
	Fields         map[string]string       `json:"fields,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}

type historyEntryResponse struct {
	RecordID   int64     `json:"record_id"`
	DocumentID string    `json:"document_id"`
	Name       string    `json:"name,omitempty"`
	Sender     string    `json:"sender,omitempty"`
	Format     string    `json:"format"`
	Intent     string    `json:"intent"`
	Processed  bool      `json:"processed"`
	CreatedAt  time.Time `json:"created_at"`
}

type historyResponse struct {
	History []historyEntryResponse `json:"history"`
}

func newClassificationResponse(c *model.Classification) classificationResponse {
	return classificationResponse{
		Format:     c.Format.String(),
		Intent:     c.Intent.String(),
		Confidence: c.Confidence,
		Model:      c.Model,
		CreatedAt:  c.CreatedAt,
	}
}

func newResultResponse(result *model.ExtractionResult) *resultResponse {
	if result == nil {
		return nil
	}
	return &resultResponse{
		Fields:        result.Fields,
		Valid:         result.Valid,
		MissingFields: result.MissingFields,
		SchemaErrors:  result.SchemaErrors,
		Summary:       result.Summary,
		Method:        string(result.Method),
		CompletedAt:   result.CompletedAt,
	}
}

func newRecordResponse(record *model.Record) *recordResponse {
	return &recordResponse{
		RecordID:       record.ID,
		DocumentID:     string(record.DocumentID),
		Classification: newClassificationResponse(&record.Classification),
		Result:         newResultResponse(record.Result),
		CreatedAt:      record.CreatedAt,
	}
}

func newDocumentResponse(detail *usecase.DocumentDetail) documentResponse {
	doc := detail.Document
	resp := documentResponse{
		DocumentID: string(doc.ID),
		Name:       doc.Name,
		Format:     doc.Format.String(),
		Size:       doc.Size,
		CreatedAt:  doc.CreatedAt,
	}
	if doc.Classification != nil {
		c := newClassificationResponse(doc.Classification)
		resp.Classification = &c
	}
	if detail.Record != nil {
		resp.Record = newRecordResponse(detail.Record)
	}
	if len(detail.Fields) > 0 {
		resp.Fields = make(map[string]string, len(detail.Fields))
		for _, field := range detail.Fields {
			resp.Fields[field.Name] = field.Value
		}
	}
	return resp
}

func newHistoryResponse(entries []*usecase.HistoryEntry) historyResponse {
	resp := historyResponse{
		History: make([]historyEntryResponse, 0, len(entries)),
	}
	for _, entry := range entries {
		resp.History = append(resp.History, historyEntryResponse{
			RecordID:   entry.Record.ID,
			DocumentID: string(entry.Record.DocumentID),
			Name:       entry.Name,
			Sender:     entry.Sender,
			Format:     entry.Record.Classification.Format.String(),
			Intent:     entry.Record.Classification.Intent.String(),
			Processed:  entry.Record.Processed(),
			CreatedAt:  entry.Record.CreatedAt,
		})
	}
	return resp
}

// respondJSON marshals body and writes it with the given status code
func respondJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

// statusFor maps use case sentinel errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrAlreadyProcessed),
		errors.Is(err, usecase.ErrNotClassified):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrEmptyDocument),
		errors.Is(err, usecase.ErrUnsupportedFormat),
		errors.Is(err, usecase.ErrMalformedJSON):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
