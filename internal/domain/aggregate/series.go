package aggregate

import (
	"slices"

	"github.com/okian/bncc/internal/domain/model"
)

// Point is the mean result of one day.
type Point struct {
	Date  model.Date `json:"date"`
	Mean  float64    `json:"mean"`
	Count int        `json:"count"`
}

// Series is a time series of daily means for one label.
type Series struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

type cell struct {
	sum   float64
	count int
}

func (c *cell) add(v int) {
	c.sum += float64(v)
	c.count++
}

func (c cell) mean() float64 {
	return c.sum / float64(c.count)
}

// TimeSeries averages results per (dim, date) cell. Series are ordered by
// label and points by date.
func TimeSeries(records []model.Record, dim model.Dimension) []Series {
	byLabel := make(map[string]map[model.Date]*cell)
	for _, r := range records {
		label := r.Field(dim)
		if label == "" || r.Date.IsZero() {
			continue
		}
		days, ok := byLabel[label]
		if !ok {
			days = make(map[model.Date]*cell)
			byLabel[label] = days
		}
		c, ok := days[r.Date]
		if !ok {
			c = &cell{}
			days[r.Date] = c
		}
		c.add(r.Result)
	}

	out := make([]Series, 0, len(byLabel))
	for _, label := range sortedKeys(byLabel) {
		out = append(out, Series{Label: label, Points: points(byLabel[label])})
	}
	return out
}

// SchoolSeries is TimeSeries keyed by school.
func SchoolSeries(records []model.Record) []Series {
	return TimeSeries(records, model.DimSchool)
}

// Evolution is the daily mean result of the records matching c, for the
// single-selection line chart.
func Evolution(records []model.Record, c Criteria) []Point {
	days := make(map[model.Date]*cell)
	for _, r := range records {
		if r.Date.IsZero() || !c.Matches(r) {
			continue
		}
		cl, ok := days[r.Date]
		if !ok {
			cl = &cell{}
			days[r.Date] = cl
		}
		cl.add(r.Result)
	}
	return points(days)
}

func points(days map[model.Date]*cell) []Point {
	out := make([]Point, 0, len(days))
	for d, c := range days {
		out = append(out, Point{Date: d, Mean: c.mean(), Count: c.count})
	}
	slices.SortFunc(out, func(a, b Point) int { return a.Date.Compare(b.Date) })
	return out
}

// VariationRow compares the first and last daily mean of a series.
type VariationRow struct {
	Label         string     `json:"label"`
	FirstDate     model.Date `json:"first_date"`
	LastDate      model.Date `json:"last_date"`
	First         float64    `json:"first"`
	Last          float64    `json:"last"`
	Delta         float64    `json:"delta"`
	PercentChange NullFloat  `json:"percent_change"`
	Points        int        `json:"points"`
}

// Variation reports the change between the first and last point of every
// series with at least two distinct dates. Shorter series are skipped: they
// do not carry enough data for a variation.
func Variation(series []Series) []VariationRow {
	out := make([]VariationRow, 0, len(series))
	for _, s := range series {
		if len(s.Points) < 2 {
			continue
		}
		first, last := s.Points[0], s.Points[len(s.Points)-1]
		out = append(out, VariationRow{
			Label:         s.Label,
			FirstDate:     first.Date,
			LastDate:      last.Date,
			First:         first.Mean,
			Last:          last.Mean,
			Delta:         round2(last.Mean - first.Mean),
			PercentChange: percentChange(first.Mean, last.Mean),
			Points:        len(s.Points),
		})
	}
	return out
}
