package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	httpctrl "github.com/doctriage-lab/grammateus/pkg/controller/http"
	"github.com/doctriage-lab/grammateus/pkg/domain/model/config"
	"github.com/doctriage-lab/grammateus/pkg/repository/memory"
	"github.com/doctriage-lab/grammateus/pkg/service/classifier"
	"github.com/doctriage-lab/grammateus/pkg/service/extract"
	"github.com/doctriage-lab/grammateus/pkg/usecase"
	"github.com/m-mizutani/gt"
)

const complaintMail = "From: Dana Wright <dana@example.com>\r\n" +
	"Subject: Broken pump in order 4411\r\n" +
	"\r\n" +
	"I want to file a complaint about the pump from order 4411.\r\n" +
	"Please send a replacement immediately.\r\n"

// setupServer wires a full triage server over a fresh in-memory repository
func setupServer(t *testing.T) http.Handler {
	t.Helper()

	book := &config.IntentBook{
		Intents: []config.Intent{
			{ID: "invoice", Name: "Invoice"},
			{ID: "rfq", Name: "Request for Quote"},
			{ID: "complaint", Name: "Complaint"},
			{ID: "regulation", Name: "Regulation"},
		},
	}
	classifierSvc, err := classifier.New(nil, book)
	gt.NoError(t, err).Required()

	uc := usecase.New(memory.New(),
		usecase.WithClassifier(classifierSvc),
		usecase.WithDispatcher(extract.NewDispatcher(
			extract.NewEmail(nil),
			extract.NewJSON(nil),
			extract.NewPDF(nil),
		)),
		usecase.WithIntentBook(book),
	)

	server, err := httpctrl.New(uc, httpctrl.WithVersion("test"))
	gt.NoError(t, err).Required()
	return server
}

// Response structures mirrored from the API
type classificationBody struct {
	Format     string  `json:"format"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Model      string  `json:"model"`
}

type intakeBody struct {
	DocumentID     string             `json:"document_id"`
	RecordID       int64              `json:"record_id"`
	Classification classificationBody `json:"classification"`
}

type resultBody struct {
	Fields        map[string]string `json:"fields"`
	Valid         *bool             `json:"valid"`
	MissingFields []string          `json:"missing_fields"`
	Summary       string            `json:"summary"`
	Method        string            `json:"method"`
}

type recordBody struct {
	RecordID       int64              `json:"record_id"`
	DocumentID     string             `json:"document_id"`
	Classification classificationBody `json:"classification"`
	Result         *resultBody        `json:"result"`
}

type documentBody struct {
	DocumentID string            `json:"document_id"`
	Name       string            `json:"name"`
	Format     string            `json:"format"`
	Size       int64             `json:"size"`
	Record     *recordBody       `json:"record"`
	Fields     map[string]string `json:"fields"`
}

type historyBody struct {
	History []struct {
		RecordID   int64  `json:"record_id"`
		DocumentID string `json:"document_id"`
		Name       string `json:"name"`
		Sender     string `json:"sender"`
		Format     string `json:"format"`
		Intent     string `json:"intent"`
		Processed  bool   `json:"processed"`
	} `json:"history"`
}

// postJSON sends a JSON request through the handler
func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	gt.NoError(t, err).Required()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// postUpload sends a multipart file upload through the handler
func postUpload(t *testing.T, handler http.Handler, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	gt.NoError(t, err).Required()
	_, err = fw.Write(content)
	gt.NoError(t, err).Required()
	gt.NoError(t, mw.Close()).Required()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), out)).Required()
}

func TestHealth(t *testing.T) {
	handler := setupServer(t)

	rec := get(t, handler, "/health")
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var body map[string]string
	decodeBody(t, rec, &body)
	gt.S(t, body["status"]).Equal("ok")
	gt.S(t, body["version"]).Equal("test")
}

func TestIntakeEndpoint(t *testing.T) {
	t.Run("multipart file upload", func(t *testing.T) {
		handler := setupServer(t)

		rec := postUpload(t, handler, "/api/documents", "complaint.eml", []byte(complaintMail))
		gt.Value(t, rec.Code).Equal(http.StatusCreated)

		var body intakeBody
		decodeBody(t, rec, &body)
		gt.B(t, body.DocumentID != "").True()
		gt.Number(t, body.RecordID).Equal(1)
		gt.S(t, body.Classification.Format).Equal("email")
		gt.S(t, body.Classification.Intent).Equal("complaint")
		gt.S(t, body.Classification.Model).Equal(classifier.FallbackModelName)
	})

	t.Run("raw email content", func(t *testing.T) {
		handler := setupServer(t)

		rec := postJSON(t, handler, "/api/documents", map[string]string{
			"email_content": complaintMail,
		})
		gt.Value(t, rec.Code).Equal(http.StatusCreated)

		var body intakeBody
		decodeBody(t, rec, &body)
		gt.S(t, body.Classification.Format).Equal("email")
	})

	t.Run("raw json content", func(t *testing.T) {
		handler := setupServer(t)

		rec := postJSON(t, handler, "/api/documents", map[string]string{
			"json_content": `{"invoice_number":"INV-1"}`,
		})
		gt.Value(t, rec.Code).Equal(http.StatusCreated)

		var body intakeBody
		decodeBody(t, rec, &body)
		gt.S(t, body.Classification.Format).Equal("json")
		gt.S(t, body.Classification.Intent).Equal("invoice")
	})

	t.Run("malformed json content", func(t *testing.T) {
		handler := setupServer(t)

		rec := postJSON(t, handler, "/api/documents", map[string]string{
			"json_content": `{broken`,
		})
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("empty request", func(t *testing.T) {
		handler := setupServer(t)

		rec := postJSON(t, handler, "/api/documents", map[string]string{})
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("undetectable upload", func(t *testing.T) {
		handler := setupServer(t)

		rec := postUpload(t, handler, "/api/documents", "data.bin", []byte{0x00, 0x01, 0x02})
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestProcessEndpoint(t *testing.T) {
	t.Run("processes a submitted document", func(t *testing.T) {
		handler := setupServer(t)

		rec := postUpload(t, handler, "/api/documents", "complaint.eml", []byte(complaintMail))
		gt.Value(t, rec.Code).Equal(http.StatusCreated)
		var intake intakeBody
		decodeBody(t, rec, &intake)

		rec = postJSON(t, handler, fmt.Sprintf("/api/documents/%s/process", intake.DocumentID), nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var record recordBody
		decodeBody(t, rec, &record)
		gt.Value(t, record.Result).NotNil().Required()
		gt.S(t, record.Result.Method).Equal("heuristic")
		gt.S(t, record.Result.Fields["urgency"]).Equal("high")
		gt.S(t, record.Result.Fields["sender"]).Equal("Dana Wright <dana@example.com>")
	})

	t.Run("unknown document", func(t *testing.T) {
		handler := setupServer(t)

		rec := postJSON(t, handler, "/api/documents/ffffffff-0000-0000-0000-000000000000/process", nil)
		gt.Value(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("double processing conflicts", func(t *testing.T) {
		handler := setupServer(t)

		rec := postUpload(t, handler, "/api/documents", "complaint.eml", []byte(complaintMail))
		var intake intakeBody
		decodeBody(t, rec, &intake)

		path := fmt.Sprintf("/api/documents/%s/process", intake.DocumentID)
		rec = postJSON(t, handler, path, nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		rec = postJSON(t, handler, path, nil)
		gt.Value(t, rec.Code).Equal(http.StatusConflict)
	})
}

func TestTriageEndpoint(t *testing.T) {
	t.Run("one-shot triage of a JSON invoice", func(t *testing.T) {
		handler := setupServer(t)

		rec := postJSON(t, handler, "/api/triage", map[string]string{
			"json_content": `{"invoice_number":"INV-2024-117","issue_date":"2024-05-01","due_date":"2024-06-01","total_amount":1250.5}`,
		})
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var record recordBody
		decodeBody(t, rec, &record)
		gt.S(t, record.Classification.Intent).Equal("invoice")
		gt.Value(t, record.Result).NotNil().Required()
		gt.Value(t, record.Result.Valid).NotNil().Required()
		gt.Value(t, *record.Result.Valid).Equal(true)
		gt.S(t, record.Result.Fields["invoice_number"]).Equal("INV-2024-117")
		gt.S(t, record.Result.Method).Equal("schema")
	})
}

func TestGetDocumentEndpoint(t *testing.T) {
	t.Run("returns document with fields", func(t *testing.T) {
		handler := setupServer(t)

		rec := postUpload(t, handler, "/api/documents", "complaint.eml", []byte(complaintMail))
		var intake intakeBody
		decodeBody(t, rec, &intake)

		rec = postJSON(t, handler, fmt.Sprintf("/api/documents/%s/process", intake.DocumentID), nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		rec = get(t, handler, "/api/documents/"+intake.DocumentID)
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var doc documentBody
		decodeBody(t, rec, &doc)
		gt.S(t, doc.Name).Equal("complaint.eml")
		gt.S(t, doc.Format).Equal("email")
		gt.Value(t, doc.Record).NotNil().Required()
		gt.S(t, doc.Fields["sender"]).Equal("Dana Wright <dana@example.com>")
	})

	t.Run("unknown document", func(t *testing.T) {
		handler := setupServer(t)

		rec := get(t, handler, "/api/documents/ffffffff-0000-0000-0000-000000000000")
		gt.Value(t, rec.Code).Equal(http.StatusNotFound)
	})
}

func TestHistoryEndpoint(t *testing.T) {
	t.Run("newest first", func(t *testing.T) {
		handler := setupServer(t)

		rec := postUpload(t, handler, "/api/documents", "complaint.eml", []byte(complaintMail))
		gt.Value(t, rec.Code).Equal(http.StatusCreated)
		rec = postJSON(t, handler, "/api/documents", map[string]string{
			"json_content": `{"invoice_number":"INV-1"}`,
		})
		gt.Value(t, rec.Code).Equal(http.StatusCreated)

		rec = get(t, handler, "/api/history?limit=10")
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var body historyBody
		decodeBody(t, rec, &body)
		gt.Array(t, body.History).Length(2)
		gt.S(t, body.History[0].Intent).Equal("invoice")
		gt.S(t, body.History[1].Intent).Equal("complaint")
		gt.S(t, body.History[1].Name).Equal("complaint.eml")
	})

	t.Run("empty history", func(t *testing.T) {
		handler := setupServer(t)

		rec := get(t, handler, "/api/history")
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var body historyBody
		decodeBody(t, rec, &body)
		gt.Array(t, body.History).Length(0)
	})
}
