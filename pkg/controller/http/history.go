package http

import (
	"net/http"
	"strconv"

	"github.com/doctriage-lab/grammateus/pkg/domain/model"
	"github.com/doctriage-lab/grammateus/pkg/utils/errutil"
	"github.com/go-chi/chi/v5"
)

// handleGetDocument returns a stored document with its triage record and
// extracted fields. The raw payload is never included in the response.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := model.DocumentID(chi.URLParam(r, "documentID"))

	detail, err := s.uc.History.Document(ctx, id)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, statusFor(err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, newDocumentResponse(detail))
}

// handleHistory returns the most recent triage records
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// A missing or malformed limit falls back to the default
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.uc.History.Recent(ctx, limit)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, statusFor(err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, newHistoryResponse(entries))
}
