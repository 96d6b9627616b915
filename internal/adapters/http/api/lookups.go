package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/okian/bncc/internal/domain/model"
)

// LookupDependencies defines the interface for lookup list operations.
type LookupDependencies interface {
	Lookups(ctx context.Context, sessionID string, kind model.LookupKind) ([]string, error)
	AddLookup(ctx context.Context, sessionID string, kind model.LookupKind, name string) error
	RemoveLookup(ctx context.Context, sessionID string, kind model.LookupKind, name string) error
}

// LookupsHandler handles lookup list requests.
type LookupsHandler struct {
	deps LookupDependencies
}

// NewLookupsHandler creates a new lookups handler.
func NewLookupsHandler(deps LookupDependencies) *LookupsHandler {
	return &LookupsHandler{deps: deps}
}

// lookupRequest is the POST body; "nome" matches the table column.
type lookupRequest struct {
	Nome string `json:"nome"`
	Name string `json:"name"`
}

// HandleLookups handles GET|POST /lookups/{kind} and
// DELETE /lookups/{kind}/{name} requests.
func (h *LookupsHandler) HandleLookups(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.lookups"
	segments := strings.Split(strings.TrimPrefix(r.URL.EscapedPath(), "/lookups/"), "/")
	kind, err := model.ParseLookupKind(segments[0])
	if err != nil {
		writeFailure(w, WrapKind(op, ErrNotFound, err))
		return
	}

	switch {
	case len(segments) == 1 && r.Method == http.MethodGet:
		names, err := h.deps.Lookups(r.Context(), sessionID, kind)
		if err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, names)
	case len(segments) == 1 && r.Method == http.MethodPost:
		var req lookupRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeFailure(w, WrapKind(op, ErrBadRequest, err))
			return
		}
		name := req.Nome
		if name == "" {
			name = req.Name
		}
		if err := h.deps.AddLookup(r.Context(), sessionID, kind, name); err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusCreated, ackResponse{Status: "created"})
	case len(segments) == 2 && r.Method == http.MethodDelete:
		name, err := url.PathUnescape(segments[1])
		if err != nil {
			writeFailure(w, WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := h.deps.RemoveLookup(r.Context(), sessionID, kind, name); err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, ackResponse{Status: "deleted"})
	default:
		http.NotFound(w, r)
	}
}
