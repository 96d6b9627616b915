package seed

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/okian/bncc/internal/domain/aggregate"
	"github.com/okian/bncc/internal/domain/model"
	"github.com/okian/bncc/pkg/logger"
)

// Mismatch describes one trend group whose served values differ from the
// local computation.
type Mismatch struct {
	Group  string
	Reason string
}

func (m Mismatch) String() string { return m.Group + ": " + m.Reason }

func trendKey(r aggregate.TrendRow) string {
	return strings.Join([]string{r.School, r.GradeLevel, string(r.Subject), r.Key}, " | ")
}

// CompareTrend checks every locally computed trend row against the served
// rows. Served rows for other schools are ignored, so a store that already
// held data does not fail the run.
func CompareTrend(local, served []aggregate.TrendRow) []Mismatch {
	byKey := make(map[string]aggregate.TrendRow, len(served))
	for _, r := range served {
		byKey[trendKey(r)] = r
	}

	var out []Mismatch
	for _, want := range local {
		key := trendKey(want)
		got, ok := byKey[key]
		switch {
		case !ok:
			out = append(out, Mismatch{Group: key, Reason: "missing from report"})
		case got.Records != want.Records:
			out = append(out, Mismatch{Group: key, Reason: fmt.Sprintf("records %d, want %d", got.Records, want.Records)})
		case got.FirstResult != want.FirstResult || got.LastResult != want.LastResult:
			out = append(out, Mismatch{Group: key, Reason: fmt.Sprintf("first/last %d/%d, want %d/%d",
				got.FirstResult, got.LastResult, want.FirstResult, want.LastResult)})
		case got.PercentChange.Valid != want.PercentChange.Valid:
			out = append(out, Mismatch{Group: key, Reason: "percent change definedness differs"})
		case want.PercentChange.Valid && math.Abs(got.PercentChange.Float64-want.PercentChange.Float64) > epsilon:
			out = append(out, Mismatch{Group: key, Reason: fmt.Sprintf("percent change %.2f, want %.2f",
				got.PercentChange.Float64, want.PercentChange.Float64)})
		}
	}
	return out
}

// verifyReport recomputes the trend of the stored records and compares it with
// the served report.
func verifyReport(ctx context.Context, cfg Config, stored []model.Record, rep Report, stats *Stats) error {
	log := logger.Get().Named("seed")
	if rep.Empty {
		return fmt.Errorf("report is empty after submitting %d records", len(stored))
	}
	if rep.Variant != "" && rep.Variant != cfg.Variant {
		return fmt.Errorf("service runs the %s variant, records were generated for %s", rep.Variant, cfg.Variant)
	}

	local := aggregate.Trend(stored, cfg.Variant.KeyDimension())
	mismatches := CompareTrend(local, rep.Trend)
	stats.Verified = len(local) - len(mismatches)
	stats.Mismatch = len(mismatches)

	for _, m := range mismatches {
		log.Warn(ctx, "trend mismatch", logger.String("group", m.Group), logger.String("reason", m.Reason))
	}
	if cfg.Verbose {
		log.Info(ctx, "served summary",
			logger.Int("records", rep.Summary.Records),
			logger.Int("groups", rep.Summary.Groups),
			logger.Any("mean", rep.Summary.Mean),
			logger.Any("meanPercentChange", rep.Summary.MeanPercentChange))
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("%d of %d trend groups differ", len(mismatches), len(local))
	}
	log.Info(ctx, "trend verified", logger.Count("groups", len(local)))
	return nil
}

// storedRecords keeps the entries the service reported as stored, or drops the
// failed ones when the response has no success positions. queued must be the
// pending buffer in submission order.
func storedRecords(queued []model.Record, res BatchResult) []model.Record {
	if res.SucceededIdx != nil {
		out := make([]model.Record, 0, len(res.SucceededIdx))
		for _, i := range res.SucceededIdx {
			if i >= 0 && i < len(queued) {
				out = append(out, queued[i])
			}
		}
		return out
	}
	if len(res.Failed) == 0 {
		return queued
	}
	failed := make(map[int]struct{}, len(res.Failed))
	for _, f := range res.Failed {
		failed[f.Index] = struct{}{}
	}
	out := make([]model.Record, 0, len(queued))
	for i, r := range queued {
		if _, ok := failed[i]; !ok {
			out = append(out, r)
		}
	}
	return out
}
