package aggregate

import (
	"maps"
	"slices"

	"github.com/okian/bncc/internal/domain/model"
)

// TrendRow compares the earliest and latest result of one
// (school, grade, subject, key) group.
type TrendRow struct {
	School        string        `json:"school"`
	GradeLevel    string        `json:"grade_level"`
	Subject       model.Subject `json:"subject"`
	Key           string        `json:"key"`
	FirstDate     model.Date    `json:"first_date"`
	LastDate      model.Date    `json:"last_date"`
	FirstResult   int           `json:"first_result"`
	LastResult    int           `json:"last_result"`
	PercentChange NullFloat     `json:"percent_change"`
	Records       int           `json:"records"`
}

func (t TrendRow) keys() []string {
	return []string{t.School, t.GradeLevel, string(t.Subject), t.Key}
}

// Trend groups records by school, grade level, subject and the key dimension
// (skill or constructor) and reports the first and last result per group.
//
// First is the earliest-dated record and last the latest-dated one. Records
// sharing a date resolve by input order: the first occurrence wins for
// "first", the last occurrence for "last". Groups whose first result is zero
// get an undefined PercentChange. Rows are ordered by group key.
func Trend(records []model.Record, key model.Dimension) []TrendRow {
	dims := []model.Dimension{model.DimSchool, model.DimGrade, model.DimSubject, key}
	groups := make(map[string]*TrendRow)
	for _, r := range records {
		keys, ok := groupKey(r, dims)
		if !ok || r.Date.IsZero() {
			continue
		}
		k := joinKey(keys)
		row, exists := groups[k]
		if !exists {
			groups[k] = &TrendRow{
				School:      r.School,
				GradeLevel:  r.GradeLevel,
				Subject:     r.Subject,
				Key:         keys[3],
				FirstDate:   r.Date,
				LastDate:    r.Date,
				FirstResult: r.Result,
				LastResult:  r.Result,
				Records:     1,
			}
			continue
		}
		row.Records++
		if r.Date.Before(row.FirstDate) {
			row.FirstDate, row.FirstResult = r.Date, r.Result
		}
		if !r.Date.Before(row.LastDate) {
			row.LastDate, row.LastResult = r.Date, r.Result
		}
	}

	rows := make([]TrendRow, 0, len(groups))
	for _, row := range groups {
		row.PercentChange = percentChange(float64(row.FirstResult), float64(row.LastResult))
		rows = append(rows, *row)
	}
	slices.SortFunc(rows, func(a, b TrendRow) int {
		return compareKeys(a.keys(), b.keys())
	})
	return rows
}

// MeanPercentChange averages the defined percent changes of rows. Rows with an
// undefined change are skipped; the result is undefined when none remain.
func MeanPercentChange(rows []TrendRow) NullFloat {
	values := make([]NullFloat, len(rows))
	for i, r := range rows {
		values[i] = r.PercentChange
	}
	return meanOf(values)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
