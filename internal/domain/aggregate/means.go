package aggregate

import (
	"slices"
	"strings"

	"github.com/okian/bncc/internal/domain/model"
)

// labelSeparator joins group keys for display.
const labelSeparator = " / "

// GroupMean is the mean result of one group. Groups only exist when they
// have members, so Count is always positive.
type GroupMean struct {
	Keys  []string `json:"keys"`
	Label string   `json:"label"`
	Mean  float64  `json:"mean"`
	Count int      `json:"count"`
}

// GroupedMeans averages results over the groups formed by dims. Records with
// an empty value in any of dims are left out. Groups are ordered by key.
func GroupedMeans(records []model.Record, dims ...model.Dimension) []GroupMean {
	cells := make(map[string]*cell)
	keysOf := make(map[string][]string)
	for _, r := range records {
		keys, ok := groupKey(r, dims)
		if !ok {
			continue
		}
		k := joinKey(keys)
		c, exists := cells[k]
		if !exists {
			c = &cell{}
			cells[k] = c
			keysOf[k] = keys
		}
		c.add(r.Result)
	}

	out := make([]GroupMean, 0, len(cells))
	for k, c := range cells {
		keys := keysOf[k]
		out = append(out, GroupMean{
			Keys:  keys,
			Label: strings.Join(keys, labelSeparator),
			Mean:  c.mean(),
			Count: c.count,
		})
	}
	slices.SortFunc(out, func(a, b GroupMean) int { return compareKeys(a.Keys, b.Keys) })
	return out
}

// OverallMean is the mean result of all records, undefined when empty.
func OverallMean(records []model.Record) NullFloat {
	if len(records) == 0 {
		return NullFloat{}
	}
	var c cell
	for _, r := range records {
		c.add(r.Result)
	}
	return Some(c.mean())
}
