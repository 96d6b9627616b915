package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/bncc/internal/app"
	"github.com/okian/bncc/internal/domain/model"
)

// PendingDependencies defines the interface for the pending-entry buffer.
type PendingDependencies interface {
	AddPending(ctx context.Context, sessionID string, r model.Record) (int, error)
	Pending(ctx context.Context, sessionID string) []model.Record
	ClearPending(ctx context.Context, sessionID string)
	SubmitPending(ctx context.Context, sessionID string) (service.BatchResult, error)
}

// PendingHandler handles pending-entry requests.
type PendingHandler struct {
	deps PendingDependencies
}

// NewPendingHandler creates a new pending handler.
func NewPendingHandler(deps PendingDependencies) *PendingHandler {
	return &PendingHandler{deps: deps}
}

// HandlePending handles GET, POST and DELETE /pending requests.
func (h *PendingHandler) HandlePending(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.pending"
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.Pending(r.Context(), sessionID))
	case http.MethodPost:
		var rec model.Record
		if err := decodeBody(w, r, &rec); err != nil {
			writeFailure(w, WrapKind(op, ErrBadRequest, err))
			return
		}
		n, err := h.deps.AddPending(r.Context(), sessionID, rec)
		if err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusCreated, ackResponse{Status: "queued", Count: &n})
	case http.MethodDelete:
		h.deps.ClearPending(r.Context(), sessionID)
		writeJSON(w, http.StatusOK, ackResponse{Status: "cleared"})
	default:
		http.NotFound(w, r)
	}
}

// HandleSubmit handles POST /pending/submit requests. A submission where
// some entries failed answers 207 with the per-entry results.
func (h *PendingHandler) HandleSubmit(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.submit_pending"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	res, err := h.deps.SubmitPending(r.Context(), sessionID)
	var partial *service.PartialBatchError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.As(err, &partial):
		writeJSON(w, http.StatusMultiStatus, res)
	default:
		writeFailure(w, Wrap(op, err))
	}
}
