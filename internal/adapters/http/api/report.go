package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	service "github.com/okian/bncc/internal/app"
	"github.com/okian/bncc/internal/domain/aggregate"
	"github.com/okian/bncc/internal/domain/model"
)

// ReportDependencies defines the interface for report operations.
type ReportDependencies interface {
	Report(ctx context.Context, sessionID string, q service.ReportQuery) (*service.Report, error)
	Reload(ctx context.Context, sessionID string)
}

// ReportHandler handles report requests.
type ReportHandler struct {
	deps ReportDependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleGetReport handles GET /report requests.
func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.get_report"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseReportQuery(r.URL.Query())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	rep, err := h.deps.Report(r.Context(), sessionID, q)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleReload handles POST /reload requests.
func (h *ReportHandler) HandleReload(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.deps.Reload(r.Context(), sessionID)
	writeJSON(w, http.StatusOK, ackResponse{Status: "reloaded"})
}

func parseReportQuery(v url.Values) (service.ReportQuery, error) {
	var q service.ReportQuery
	var err error

	if q.Range.Start, err = parseDateParam(v, "start"); err != nil {
		return q, err
	}
	if q.Range.End, err = parseDateParam(v, "end"); err != nil {
		return q, err
	}
	q.Criteria = aggregate.Criteria{
		School:      v.Get("school"),
		GradeLevel:  v.Get("grade"),
		Subject:     model.Subject(v.Get("subject")),
		Skill:       v.Get("skill"),
		Constructor: v.Get("constructor"),
	}
	if s := v.Get("rows"); s != "" {
		if q.RowDim, err = model.ParseDimension(s); err != nil {
			return q, err
		}
	}
	if s := v.Get("cols"); s != "" {
		if q.ColDim, err = model.ParseDimension(s); err != nil {
			return q, err
		}
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, model.NewValidationError("limit", "must be a positive integer")
		}
		q.Limit = n
	}
	return q, nil
}

func parseDateParam(v url.Values, key string) (model.Date, error) {
	s := v.Get(key)
	if s == "" {
		return model.Date{}, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return model.Date{}, model.NewValidationError(key, "must be a date in YYYY-MM-DD form")
	}
	return d, nil
}
