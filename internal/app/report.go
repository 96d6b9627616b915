package service

import (
	"context"
	"errors"
	"time"

	"github.com/okian/bncc/internal/domain/aggregate"
	"github.com/okian/bncc/internal/domain/model"
	"github.com/okian/bncc/pkg/logger"
	"github.com/okian/bncc/pkg/metrics"
)

// ReportQuery holds the filter parameters of one render cycle.
type ReportQuery struct {
	// Range bounds the records by date. Zero bounds default to the data range.
	Range aggregate.DateRange
	// Criteria narrows the records after the date filter.
	Criteria aggregate.Criteria
	// RowDim and ColDim are the cross-tab axes. They default to the variant
	// key by grade level.
	RowDim model.Dimension
	ColDim model.Dimension
	// Limit caps the ranking views. Zero or values above the maximum use the
	// maximum.
	Limit int
}

// FilterOptions lists the selectable values within the date range.
type FilterOptions struct {
	Schools     []string `json:"schools"`
	GradeLevels []string `json:"grade_levels"`
	Subjects    []string `json:"subjects"`
	Keys        []string `json:"keys"`
}

// Report is every derived view of one render cycle.
type Report struct {
	Empty     bool                `json:"empty"`
	Variant   model.Variant       `json:"variant"`
	DataRange aggregate.DateRange `json:"data_range"`
	Range     aggregate.DateRange `json:"range"`
	Criteria  aggregate.Criteria  `json:"criteria"`
	Options   FilterOptions       `json:"options"`

	Summary aggregate.Summary    `json:"summary"`
	Trend   []aggregate.TrendRow `json:"trend"`

	SchoolMeans      []aggregate.GroupMean `json:"school_means"`
	KeyMeans         []aggregate.GroupMean `json:"key_means"`
	SubjectDateMeans []aggregate.GroupMean `json:"subject_date_means"`
	KeyGradeMeans    []aggregate.GroupMean `json:"key_grade_means"`
	TopGroups        []aggregate.GroupMean `json:"top_groups"`
	BottomGroups     []aggregate.GroupMean `json:"bottom_groups"`

	SchoolSeries    []aggregate.Series       `json:"school_series"`
	Variation       []aggregate.VariationRow `json:"variation"`
	TopVariation    []aggregate.VariationRow `json:"top_variation"`
	BottomVariation []aggregate.VariationRow `json:"bottom_variation"`

	CrossTab aggregate.CrossTab `json:"cross_tab"`

	// EvolutionCriteria is the school and key the evolution series is drawn
	// for; it defaults to the first of each in date order.
	EvolutionCriteria aggregate.Criteria `json:"evolution_criteria"`
	Evolution         []aggregate.Point  `json:"evolution"`
}

// Report runs one render cycle for the session: load (cached), filter by
// date, filter by criteria, aggregate. Any error halts the cycle and no
// partial report is returned.
func (s *Service) Report(ctx context.Context, sessionID string, q ReportQuery) (*Report, error) {
	start := time.Now()
	key := s.variant.KeyDimension()

	recs, err := s.Records(ctx, sessionID)
	if err != nil {
		metrics.RecordReportError("load")
		return nil, err
	}
	if len(recs) == 0 {
		return &Report{Empty: true, Variant: s.variant}, nil
	}

	dataRange, _ := aggregate.DataRange(recs)
	r := q.Range
	if r.Start.IsZero() {
		r.Start = dataRange.Start
	}
	if r.End.IsZero() {
		r.End = dataRange.End
	}
	inRange, err := aggregate.FilterByDate(recs, r)
	if err != nil {
		s.rejectQuery(ctx, err)
		return nil, err
	}

	rowDim, colDim := q.RowDim, q.ColDim
	if rowDim == "" {
		rowDim = key
	}
	if colDim == "" {
		colDim = model.DimGrade
	}
	if rowDim == colDim {
		err := model.NewValidationError("cols", "must differ from rows")
		s.rejectQuery(ctx, err)
		return nil, err
	}

	selected := aggregate.Where(inRange, q.Criteria)
	rankOpts := []aggregate.RankOption{
		aggregate.WithThreshold(s.rankThreshold),
		aggregate.WithLimit(s.rankLimit),
	}
	if q.Limit > 0 {
		rankOpts = append(rankOpts, aggregate.WithLimit(q.Limit))
	}

	rep := &Report{
		Variant:   s.variant,
		DataRange: dataRange,
		Range:     r,
		Criteria:  q.Criteria,
		Options: FilterOptions{
			Schools:     aggregate.Distinct(inRange, model.DimSchool),
			GradeLevels: aggregate.Distinct(inRange, model.DimGrade),
			Subjects:    aggregate.Distinct(inRange, model.DimSubject),
			Keys:        aggregate.Distinct(inRange, key),
		},
	}

	rep.Trend = aggregate.Trend(selected, key)
	rep.Summary = aggregate.Summarize(selected, rep.Trend)

	rep.SchoolMeans = aggregate.GroupedMeans(selected, model.DimSchool)
	rep.KeyMeans = aggregate.GroupedMeans(selected, key)
	rep.SubjectDateMeans = aggregate.GroupedMeans(selected, model.DimSubject, model.DimDate)
	rep.KeyGradeMeans = aggregate.GroupedMeans(selected, key, model.DimGrade)
	rep.TopGroups = aggregate.Rank(rep.KeyMeans, aggregate.Top, rankOpts...)
	rep.BottomGroups = aggregate.Rank(rep.KeyMeans, aggregate.Bottom, rankOpts...)

	rep.SchoolSeries = aggregate.SchoolSeries(selected)
	rep.Variation = aggregate.Variation(rep.SchoolSeries)
	rep.TopVariation = aggregate.RankVariation(rep.Variation, aggregate.Top, rankOpts...)
	rep.BottomVariation = aggregate.RankVariation(rep.Variation, aggregate.Bottom, rankOpts...)

	rep.CrossTab = aggregate.CrossTabulate(selected, rowDim, colDim)

	rep.EvolutionCriteria = evolutionCriteria(selected, q.Criteria, key)
	rep.Evolution = aggregate.Evolution(selected, rep.EvolutionCriteria)

	metrics.RecordReport(float64(time.Since(start).Microseconds()) / 1000)
	s.log().Debug(ctx, "report generated",
		logger.Session(sessionID),
		logger.Count("records", len(selected)),
		logger.Count("groups", len(rep.Trend)),
		logger.Duration("took", time.Since(start)),
	)
	return rep, nil
}

func (s *Service) rejectQuery(ctx context.Context, err error) {
	metrics.RecordReportError("validation")
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		metrics.RecordValidationError(ve.Field)
	}
	s.log().Debug(ctx, "report query rejected", logger.Error(err))
}

// evolutionCriteria fills the school and key selectors from the first
// record in date order when the caller left them empty.
func evolutionCriteria(records []model.Record, c aggregate.Criteria, key model.Dimension) aggregate.Criteria {
	keyValue := c.Skill
	if key == model.DimConstructor {
		keyValue = c.Constructor
	}
	for _, r := range records {
		if c.School == "" && r.School != "" {
			c.School = r.School
		}
		if keyValue == "" && r.Field(key) != "" {
			keyValue = r.Field(key)
		}
		if c.School != "" && keyValue != "" {
			break
		}
	}
	if key == model.DimConstructor {
		c.Constructor = keyValue
	} else {
		c.Skill = keyValue
	}
	return c
}
