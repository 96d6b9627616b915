package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/okian/bncc/internal/domain/model"
)

// RecordDependencies defines the interface for record operations.
type RecordDependencies interface {
	Records(ctx context.Context, sessionID string) ([]model.Record, error)
	AddRecord(ctx context.Context, sessionID string, r model.Record) error
	DeleteRecord(ctx context.Context, sessionID string, id model.RecordID) error
}

// RecordsHandler handles record requests.
type RecordsHandler struct {
	deps RecordDependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// HandleRecords handles GET and POST /records requests.
func (h *RecordsHandler) HandleRecords(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.records"
	switch r.Method {
	case http.MethodGet:
		recs, err := h.deps.Records(r.Context(), sessionID)
		if err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, recs)
	case http.MethodPost:
		var rec model.Record
		if err := decodeBody(w, r, &rec); err != nil {
			writeFailure(w, WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := h.deps.AddRecord(r.Context(), sessionID, rec); err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusCreated, ackResponse{Status: "created"})
	default:
		http.NotFound(w, r)
	}
}

// HandleDeleteRecord handles DELETE /records/{id} requests.
func (h *RecordsHandler) HandleDeleteRecord(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.delete_record"
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	id, err := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), "/records/"))
	if err != nil || id == "" || strings.Contains(id, "/") {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.DeleteRecord(r.Context(), sessionID, model.RecordID(id)); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "deleted"})
}
