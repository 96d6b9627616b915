// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/bncc/internal/adapters/repository"
	service "github.com/okian/bncc/internal/app"
	"github.com/okian/bncc/internal/domain/model"
	"github.com/okian/bncc/internal/domain/session"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Every call is scoped to the session
// id resolved from the request.
type Dependencies interface {
	// Session returns the session for id, creating it when unknown.
	Session(id string) (*session.Session, bool)

	Records(ctx context.Context, sessionID string) ([]model.Record, error)
	AddRecord(ctx context.Context, sessionID string, r model.Record) error
	DeleteRecord(ctx context.Context, sessionID string, id model.RecordID) error

	Lookups(ctx context.Context, sessionID string, kind model.LookupKind) ([]string, error)
	AddLookup(ctx context.Context, sessionID string, kind model.LookupKind, name string) error
	RemoveLookup(ctx context.Context, sessionID string, kind model.LookupKind, name string) error

	Report(ctx context.Context, sessionID string, q service.ReportQuery) (*service.Report, error)
	Reload(ctx context.Context, sessionID string)

	AddPending(ctx context.Context, sessionID string, r model.Record) (int, error)
	Pending(ctx context.Context, sessionID string) []model.Record
	ClearPending(ctx context.Context, sessionID string)
	SubmitPending(ctx context.Context, sessionID string) (service.BatchResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	recordsHandler *RecordsHandler
	lookupsHandler *LookupsHandler
	reportHandler  *ReportHandler
	pendingHandler *PendingHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		recordsHandler: NewRecordsHandler(deps),
		lookupsHandler: NewLookupsHandler(deps),
		reportHandler:  NewReportHandler(deps),
		pendingHandler: NewPendingHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux, deps Dependencies) {
	sess := func(h sessionHandlerFunc) http.HandlerFunc { return withSession(deps, h) }

	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/records", MetricsMiddleware(sess(s.recordsHandler.HandleRecords), "records"))
	mux.HandleFunc("/records/", MetricsMiddleware(sess(s.recordsHandler.HandleDeleteRecord), "records_delete"))
	mux.HandleFunc("/lookups/", MetricsMiddleware(sess(s.lookupsHandler.HandleLookups), "lookups"))
	mux.HandleFunc("/report", MetricsMiddleware(sess(s.reportHandler.HandleGetReport), "report"))
	mux.HandleFunc("/reload", MetricsMiddleware(sess(s.reportHandler.HandleReload), "reload"))
	mux.HandleFunc("/pending", MetricsMiddleware(sess(s.pendingHandler.HandlePending), "pending"))
	mux.HandleFunc("/pending/submit", MetricsMiddleware(sess(s.pendingHandler.HandleSubmit), "pending_submit"))
}

type ackResponse struct {
	Status string `json:"status"`
	Count  *int   `json:"count,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err onto a status and error code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrDuplicateName):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, service.ErrEmptyBatch):
		return http.StatusBadRequest, "empty_batch"
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrUnknownLookup):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrTransport):
		return http.StatusBadGateway, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeBody decodes a bounded JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
