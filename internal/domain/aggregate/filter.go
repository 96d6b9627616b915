package aggregate

import (
	"github.com/okian/bncc/internal/domain/model"
)

// DateRange is an inclusive range of calendar days. A zero bound is open.
type DateRange struct {
	Start model.Date `json:"start"`
	End   model.Date `json:"end"`
}

// Validate fails when both bounds are set and Start is after End.
func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return model.NewValidationError("date_range", "start date must be on or before end date")
	}
	return nil
}

// ValidateRange is r.Validate.
func ValidateRange(r DateRange) error { return r.Validate() }

// Contains reports whether d lies within the range.
func (r DateRange) Contains(d model.Date) bool {
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End) {
		return false
	}
	return true
}

// DataRange returns the earliest and latest record date. ok is false when no
// record carries a date.
func DataRange(records []model.Record) (r DateRange, ok bool) {
	for _, rec := range records {
		if rec.Date.IsZero() {
			continue
		}
		if !ok {
			r = DateRange{Start: rec.Date, End: rec.Date}
			ok = true
			continue
		}
		if rec.Date.Before(r.Start) {
			r.Start = rec.Date
		}
		if rec.Date.After(r.End) {
			r.End = rec.Date
		}
	}
	return r, ok
}

// FilterByDate keeps records with Start <= date <= End, preserving order.
// An inverted range yields a *model.ValidationError and no records.
func FilterByDate(records []model.Record, r DateRange) ([]model.Record, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	out := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Criteria are equality filters; an empty field matches everything.
type Criteria struct {
	School      string        `json:"school,omitempty"`
	GradeLevel  string        `json:"grade_level,omitempty"`
	Subject     model.Subject `json:"subject,omitempty"`
	Skill       string        `json:"skill,omitempty"`
	Constructor string        `json:"constructor,omitempty"`
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// Matches reports whether r satisfies every set criterion.
func (c Criteria) Matches(r model.Record) bool {
	switch {
	case c.School != "" && r.School != c.School:
		return false
	case c.GradeLevel != "" && r.GradeLevel != c.GradeLevel:
		return false
	case c.Subject != "" && r.Subject != c.Subject:
		return false
	case c.Skill != "" && r.Skill != c.Skill:
		return false
	case c.Constructor != "" && r.Constructor != c.Constructor:
		return false
	}
	return true
}

// Where keeps the records matching c, preserving order.
func Where(records []model.Record, c Criteria) []model.Record {
	if c.IsZero() {
		out := make([]model.Record, len(records))
		copy(out, records)
		return out
	}
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Distinct returns the sorted distinct non-empty values of d.
func Distinct(records []model.Record, d model.Dimension) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		if v := r.Field(d); v != "" {
			seen[v] = struct{}{}
		}
	}
	return sortedKeys(seen)
}
