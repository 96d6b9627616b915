package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/okian/bncc/internal/domain/model"
	"github.com/okian/bncc/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	runIDLength         = 8
)

// Run executes a complete seed run: health check, generation, queueing,
// submission and report verification.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	if cfg.Variant == "" {
		cfg.Variant = model.VariantSkill
	}
	stats := &Stats{
		RunID:     uuid.NewString()[:runIDLength],
		StartTime: time.Now(),
	}
	log := logger.Get().Named("seed")
	log.Info(ctx, "starting seed run",
		logger.String("runID", stats.RunID),
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("records", cfg.Records),
		logger.String("variant", string(cfg.Variant)),
		logger.Int("workers", cfg.Workers))

	client := NewClient(cfg)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	if err := client.Open(ctx); err != nil {
		return stats, fmt.Errorf("open session: %w", err)
	}
	log.Info(ctx, "session opened", logger.Session(client.Session()))

	gen := NewGenerator(cfg, stats.RunID)
	records := gen.Records(cfg.Records)
	stats.Generated = len(records)
	if cfg.OutputFile != "" {
		if err := saveRecords(cfg.OutputFile, records); err != nil {
			log.Warn(ctx, "failed to save records", logger.Error(err))
		}
	}

	queueRecords(ctx, cfg, client, records, stats)
	if stats.Queued == 0 {
		return stats, fmt.Errorf("no record was accepted into the pending buffer")
	}

	pending, err := client.Pending(ctx)
	if err != nil {
		return stats, fmt.Errorf("list pending: %w", err)
	}
	res, err := client.Submit(ctx)
	if err != nil {
		return stats, fmt.Errorf("submit pending: %w", err)
	}
	stats.Stored = res.Succeeded
	stats.Failed = len(res.Failed)
	if stats.Failed > 0 {
		log.Warn(ctx, "some entries failed", logger.Int("failed", stats.Failed), logger.Int("remaining", res.Remaining))
	}

	rep, err := client.Report(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch report: %w", err)
	}
	if err := verifyReport(ctx, cfg, storedRecords(pending, res), rep, stats); err != nil {
		return stats, fmt.Errorf("verify report: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

func saveRecords(filename string, records []model.Record) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	return os.WriteFile(filename, data, filePermission)
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate float64
	if stats.Generated > 0 {
		acceptRate = float64(stats.Stored) / float64(stats.Generated) * percentScale
	}
	logger.Get().Named("seed").Info(ctx, "final statistics",
		logger.String("runID", stats.RunID),
		logger.Int("generated", stats.Generated),
		logger.Int("queued", stats.Queued),
		logger.Int("rejected", stats.Rejected),
		logger.Int("stored", stats.Stored),
		logger.Int("failed", stats.Failed),
		logger.Int("verifiedGroups", stats.Verified),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate))
}
