package service

import (
	"context"
	"fmt"

	"github.com/okian/bncc/internal/domain/model"
	"github.com/okian/bncc/pkg/logger"
	"github.com/okian/bncc/pkg/metrics"
)

// Batch submission results.
const (
	batchOK      = "ok"
	batchPartial = "partial"
	batchFailed  = "failed"
)

// BatchResult summarizes a pending-buffer submission.
type BatchResult struct {
	Succeeded int `json:"succeeded"`
	// SucceededIdx lists the zero-based positions of the stored entries.
	SucceededIdx []int         `json:"succeeded_idx"`
	Failed       []EntryResult `json:"failed"`
	// Remaining is the buffer length after the submission.
	Remaining int `json:"remaining"`
}

// AddPending validates r and appends it to the session's buffer. It returns
// the buffer length.
func (s *Service) AddPending(ctx context.Context, sessionID string, r model.Record) (int, error) {
	store, sess := s.storeFor(sessionID)
	r, err := s.prepare(ctx, store, r)
	if err != nil {
		return sess.PendingLen(), err
	}
	return sess.AddPending(r), nil
}

// Pending returns the session's buffer in insertion order.
func (s *Service) Pending(_ context.Context, sessionID string) []model.Record {
	_, sess := s.storeFor(sessionID)
	return sess.Pending()
}

// ClearPending empties the session's buffer.
func (s *Service) ClearPending(_ context.Context, sessionID string) {
	_, sess := s.storeFor(sessionID)
	sess.ClearPending()
}

// SubmitPending inserts the buffered entries one at a time, in order. Each
// entry's outcome is collected; successful inserts are never rolled back.
// Failed entries go back to the buffer unless the service discards them.
// When any entry fails the returned error is a *PartialBatchError.
func (s *Service) SubmitPending(ctx context.Context, sessionID string) (BatchResult, error) {
	store, sess := s.storeFor(sessionID)
	entries := sess.Drain()
	if len(entries) == 0 {
		return BatchResult{SucceededIdx: []int{}, Failed: []EntryResult{}}, ErrEmptyBatch
	}

	res := BatchResult{SucceededIdx: make([]int, 0, len(entries)), Failed: []EntryResult{}}
	var retry []model.Record
	for i, r := range entries {
		if err := store.InsertRecord(ctx, r); err != nil {
			res.Failed = append(res.Failed, EntryResult{Index: i, Record: r, Err: err, Error: err.Error()})
			retry = append(retry, r)
			metrics.RecordBatchEntry(metrics.OutcomeError)
			s.log().Warn(ctx, "pending entry failed",
				logger.Session(sessionID), logger.Int("entry", i+1), logger.Error(err))
			continue
		}
		res.Succeeded++
		res.SucceededIdx = append(res.SucceededIdx, i)
		metrics.RecordBatchEntry(metrics.OutcomeOK)
	}

	if !s.discardFailed {
		sess.Requeue(retry)
	}
	res.Remaining = sess.PendingLen()

	switch {
	case len(res.Failed) == 0:
		metrics.RecordBatchSubmission(batchOK)
		s.log().Info(ctx, "pending entries submitted", logger.Session(sessionID), logger.Count("entries", res.Succeeded))
		return res, nil
	case res.Succeeded == 0:
		metrics.RecordBatchSubmission(batchFailed)
	default:
		metrics.RecordBatchSubmission(batchPartial)
	}
	return res, fmt.Errorf("service.submit_pending: %w", &PartialBatchError{Failed: res.Failed, Succeeded: res.Succeeded})
}
