// Package seed generates synthetic performance records, queues them against
// a running report service and checks the served report against a local
// computation.
package seed

import (
	"time"

	"github.com/okian/bncc/internal/domain/aggregate"
	"github.com/okian/bncc/internal/domain/model"
)

// Config holds the settings of one seed run.
type Config struct {
	BaseURL    string        // service base URL
	Schools    int           // schools to generate
	Keys       int           // skills or constructors per school
	Days       int           // distinct assessment days
	Records    int           // records to generate
	Workers    int           // concurrent queueing workers
	Seed       uint64        // generator seed, zero picks one from the clock
	Variant    model.Variant // which key field the records carry
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // optional JSON dump of the generated records
	Verbose    bool
}

// Stats holds run statistics.
type Stats struct {
	RunID     string
	Generated int
	Queued    int
	Rejected  int
	Stored    int
	Failed    int
	Verified  int
	Mismatch  int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// BatchResult mirrors the submit response.
type BatchResult struct {
	Succeeded    int           `json:"succeeded"`
	SucceededIdx []int         `json:"succeeded_idx"`
	Remaining    int           `json:"remaining"`
	Failed       []FailedEntry `json:"failed"`
}

// FailedEntry is one pending entry the service could not store.
type FailedEntry struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// Report is the subset of the report response the run checks.
type Report struct {
	Empty   bool                 `json:"empty"`
	Variant model.Variant        `json:"variant"`
	Summary aggregate.Summary    `json:"summary"`
	Trend   []aggregate.TrendRow `json:"trend"`
}
