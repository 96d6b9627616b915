package aggregate

import (
	"cmp"
	"slices"
)

// Ranking defaults.
const (
	// RankThreshold separates the top view (mean >= threshold) from the
	// needs-improvement view (mean < threshold).
	RankThreshold = 50.0
	// MaxRanked caps the length of every ranking.
	MaxRanked = 10
)

// Direction selects the ranking view.
type Direction int

const (
	// Top keeps groups at or above the threshold, best first.
	Top Direction = iota
	// Bottom keeps groups below the threshold, worst first.
	Bottom
)

func (d Direction) String() string {
	if d == Bottom {
		return "bottom"
	}
	return "top"
}

type rankConfig struct {
	threshold float64
	limit     int
}

// RankOption tunes Rank.
type RankOption func(*rankConfig)

// WithThreshold moves the split between the two views.
func WithThreshold(threshold float64) RankOption {
	return func(c *rankConfig) {
		c.threshold = threshold
	}
}

// WithLimit shortens the ranking. Limits outside 1..MaxRanked are ignored.
func WithLimit(limit int) RankOption {
	return func(c *rankConfig) {
		if limit > 0 && limit <= MaxRanked {
			c.limit = limit
		}
	}
}

// Rank selects and orders groups for the given view. Ties keep their input
// order. The result never holds more than MaxRanked groups.
func Rank(groups []GroupMean, dir Direction, opts ...RankOption) []GroupMean {
	cfg := rankConfig{threshold: RankThreshold, limit: MaxRanked}
	for _, opt := range opts {
		opt(&cfg)
	}

	out := make([]GroupMean, 0, len(groups))
	for _, g := range groups {
		if (dir == Top) == (g.Mean >= cfg.threshold) {
			out = append(out, g)
		}
	}
	slices.SortStableFunc(out, func(a, b GroupMean) int {
		if dir == Top {
			return cmp.Compare(b.Mean, a.Mean)
		}
		return cmp.Compare(a.Mean, b.Mean)
	})
	if len(out) > cfg.limit {
		out = out[:cfg.limit]
	}
	return out
}

// RankVariation orders variations by delta (largest gain first for Top,
// largest loss first for Bottom) and truncates to the limit. No threshold
// applies.
func RankVariation(rows []VariationRow, dir Direction, opts ...RankOption) []VariationRow {
	cfg := rankConfig{limit: MaxRanked}
	for _, opt := range opts {
		opt(&cfg)
	}

	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b VariationRow) int {
		if dir == Top {
			return cmp.Compare(b.Delta, a.Delta)
		}
		return cmp.Compare(a.Delta, b.Delta)
	})
	if len(out) > cfg.limit {
		out = out[:cfg.limit]
	}
	return out
}
