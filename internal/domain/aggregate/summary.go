package aggregate

import (
	"github.com/okian/bncc/internal/domain/model"
)

// Summary holds the KPI scalars of a report.
type Summary struct {
	Records           int       `json:"records"`
	Schools           int       `json:"schools"`
	Groups            int       `json:"groups"`
	Mean              NullFloat `json:"mean"`
	MeanPercentChange NullFloat `json:"mean_percent_change"`
	Improved          int       `json:"improved"`
	Declined          int       `json:"declined"`
	Unchanged         int       `json:"unchanged"`
	Undefined         int       `json:"undefined"`
	Range             DateRange `json:"range"`
}

// Summarize computes the KPI scalars of records and their trend rows.
func Summarize(records []model.Record, trend []TrendRow) Summary {
	s := Summary{
		Records:           len(records),
		Schools:           len(Distinct(records, model.DimSchool)),
		Groups:            len(trend),
		Mean:              OverallMean(records),
		MeanPercentChange: MeanPercentChange(trend),
	}
	if r, ok := DataRange(records); ok {
		s.Range = r
	}
	for _, t := range trend {
		switch {
		case !t.PercentChange.Valid:
			s.Undefined++
		case t.LastResult > t.FirstResult:
			s.Improved++
		case t.LastResult < t.FirstResult:
			s.Declined++
		default:
			s.Unchanged++
		}
	}
	return s
}
