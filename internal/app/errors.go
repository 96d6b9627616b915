package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/bncc/internal/domain/model"
)

// Sentinel kinds for service errors.
var (
	ErrPartialBatch  = errors.New("some pending entries failed")
	ErrEmptyBatch    = errors.New("no pending entries")
	ErrUnknownLookup = errors.New("name is not in the lookup list")
)

// EntryResult is the outcome of one pending entry in a batch submission.
type EntryResult struct {
	// Index is the entry's position in the submitted buffer.
	Index  int          `json:"index"`
	Record model.Record `json:"record"`
	Err    error        `json:"-"`
	Error  string       `json:"error,omitempty"`
}

// PartialBatchError reports the entries that failed during a submission.
// Entries that succeeded are not rolled back.
type PartialBatchError struct {
	Failed    []EntryResult
	Succeeded int
}

func (e *PartialBatchError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		parts = append(parts, fmt.Sprintf("#%d (%s): %v", f.Index+1, f.Record.School, f.Err))
	}
	return fmt.Sprintf("%d of %d entries failed: %s",
		len(e.Failed), len(e.Failed)+e.Succeeded, strings.Join(parts, "; "))
}

// Is reports whether target is ErrPartialBatch.
func (e *PartialBatchError) Is(target error) bool { return target == ErrPartialBatch }

// Unwrap exposes the per-entry errors to errors.Is and errors.As.
func (e *PartialBatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}
