// Package aggregate computes the derived report views over an in-memory
// snapshot of performance records: date filtering, first-vs-last trends,
// grouped means, rankings, time series and cross-tabulations.
//
// Every function is pure. Undefined arithmetic (division by zero, empty
// groups) is reported as an invalid NullFloat and never coerced to zero.
package aggregate

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/okian/bncc/internal/domain/model"
	"github.com/shopspring/decimal"
)

// percentScale converts a ratio to a percentage.
const percentScale = 100

// keySeparator joins multi-field group keys; it cannot occur in user text.
const keySeparator = "\x1f"

// NullFloat is a float that may be undefined.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Some returns a defined NullFloat.
func Some(v float64) NullFloat { return NullFloat{Float64: v, Valid: true} }

// MarshalJSON encodes an undefined value as null.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// UnmarshalJSON accepts a number or null.
func (n *NullFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Some(v)
	return nil
}

// round2 rounds v to two decimals half to even on the float product v*100,
// as numpy's around does: 3.125 becomes 3.12.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v * 100).RoundBank(0).Shift(-2).InexactFloat64()
}

// percentChange returns ((last-first)/first)*100 rounded to two decimals,
// undefined when first is zero.
func percentChange(first, last float64) NullFloat {
	if first == 0 {
		return NullFloat{}
	}
	return Some(round2((last - first) / first * percentScale))
}

// meanOf averages the defined values; undefined when none is.
func meanOf(values []NullFloat) NullFloat {
	var (
		sum float64
		n   int
	)
	for _, v := range values {
		if !v.Valid {
			continue
		}
		sum += v.Float64
		n++
	}
	if n == 0 {
		return NullFloat{}
	}
	return Some(sum / float64(n))
}

// groupKey extracts the values of dims from r. ok is false when any value is
// empty; such records are left out of the grouping.
func groupKey(r model.Record, dims []model.Dimension) (keys []string, ok bool) {
	keys = make([]string, len(dims))
	for i, d := range dims {
		v := r.Field(d)
		if v == "" {
			return nil, false
		}
		keys[i] = v
	}
	return keys, true
}

func joinKey(keys []string) string {
	return strings.Join(keys, keySeparator)
}

func compareKeys(a, b []string) int {
	return slices.Compare(a, b)
}

// HasData reports whether any record has at least one non-empty value among
// dims. With no dims every record counts.
func HasData(records []model.Record, dims ...model.Dimension) bool {
	if len(dims) == 0 {
		return len(records) > 0
	}
	for _, r := range records {
		for _, d := range dims {
			if r.Field(d) != "" {
				return true
			}
		}
	}
	return false
}
