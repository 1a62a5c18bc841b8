package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/domain/types"
	"github.com/doctriage-lab/grammateus/pkg/usecase"
	"github.com/doctriage-lab/grammateus/pkg/utils/errutil"
	"github.com/doctriage-lab/grammateus/pkg/utils/safe"
	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
)

// maxUploadBytes caps a single submission body
const maxUploadBytes = 32 << 20

// handleIntake accepts a document submission and returns its classification.
// Extraction is a separate step; see handleProcess and handleRun.
func (s *Server) handleIntake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	input, err := parseSubmission(w, r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	doc, record, err := s.uc.Triage.Intake(ctx, input)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, statusFor(err))
		return
	}

	respondJSON(ctx, w, http.StatusCreated, intakeResponse{
		DocumentID:     string(doc.ID),
		RecordID:       record.ID,
		Classification: newClassificationResponse(doc.Classification),
	})
}

// handleProcess runs extraction for a previously submitted document
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := model.DocumentID(chi.URLParam(r, "documentID"))

	record, err := s.uc.Triage.Process(ctx, id)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, statusFor(err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, newRecordResponse(record))
}

// handleRun performs intake and extraction in one request
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	input, err := parseSubmission(w, r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	record, err := s.uc.Triage.Run(ctx, input)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, statusFor(err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, newRecordResponse(record))
}

// parseSubmission extracts a document payload from a multipart upload or a
// JSON body carrying email_content/json_content
func parseSubmission(w http.ResponseWriter, r *http.Request) (*usecase.IntakeInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return parseMultipartSubmission(r)
	}

	var body struct {
		EmailContent string `json:"email_content"`
		JSONContent  string `json:"json_content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, goerr.Wrap(err, "failed to decode request body")
	}

	switch {
	case body.EmailContent != "":
		return &usecase.IntakeInput{Content: []byte(body.EmailContent), Format: types.FormatEmail}, nil
	case body.JSONContent != "":
		return &usecase.IntakeInput{Content: []byte(body.JSONContent), Format: types.FormatJSON}, nil
	default:
		return nil, goerr.New("no content provided")
	}
}

func parseMultipartSubmission(r *http.Request) (*usecase.IntakeInput, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, goerr.Wrap(err, "failed to parse multipart form")
	}

	if file, header, err := r.FormFile("file"); err == nil {
		defer safe.Close(r.Context(), file)

		content, err := io.ReadAll(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read uploaded file", goerr.V("filename", header.Filename))
		}
		return &usecase.IntakeInput{Name: header.Filename, Content: content}, nil
	}

	if v := r.FormValue("email_content"); v != "" {
		return &usecase.IntakeInput{Content: []byte(v), Format: types.FormatEmail}, nil
	}
	if v := r.FormValue("json_content"); v != "" {
		return &usecase.IntakeInput{Content: []byte(v), Format: types.FormatJSON}, nil
	}

	return nil, goerr.New("no content provided")
}
