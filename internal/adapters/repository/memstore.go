package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bncc/internal/domain/model"
)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.Record
	lookups map[model.LookupKind][]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lookups: make(map[model.LookupKind][]string)}
}

func checkKind(kind model.LookupKind) error {
	_, err := DefaultTables().Lookup(kind)
	return err
}

// ListRecords returns a copy of every record ordered by date. Equal dates
// keep insertion order.
func (s *MemoryStore) ListRecords(ctx context.Context) (recs []model.Record, err error) {
	defer func(start time.Time) { observe(OpListRecords, start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: OpListRecords, Timeout: isTimeout(err), Err: err}
	}

	s.mu.RLock()
	recs = slices.Clone(s.records)
	s.mu.RUnlock()
	if recs == nil {
		recs = []model.Record{}
	}
	slices.SortStableFunc(recs, func(a, b model.Record) int { return a.Date.Compare(b.Date) })
	return recs, nil
}

// InsertRecord appends r under a fresh id.
func (s *MemoryStore) InsertRecord(ctx context.Context, r model.Record) (err error) {
	defer func(start time.Time) { observe(OpInsertRecord, start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return &TransportError{Op: OpInsertRecord, Timeout: isTimeout(err), Err: err}
	}

	r.ID = model.RecordID(uuid.NewString())
	s.mu.Lock()
	s.records = append(s.records, r)
	s.mu.Unlock()
	return nil
}

// DeleteRecord removes the record with id. Unknown ids are a no-op.
func (s *MemoryStore) DeleteRecord(ctx context.Context, id model.RecordID) (err error) {
	defer func(start time.Time) { observe(OpDeleteRecord, start, err) }(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = slices.DeleteFunc(s.records, func(r model.Record) bool { return r.ID == id })
	return nil
}

// ListLookup returns the sorted names of a list.
func (s *MemoryStore) ListLookup(ctx context.Context, kind model.LookupKind) (names []string, err error) {
	defer func(start time.Time) { observe(OpListLookup, start, err) }(time.Now())
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	s.mu.RLock()
	names = slices.Clone(s.lookups[kind])
	s.mu.RUnlock()
	if names == nil {
		names = []string{}
	}
	slices.Sort(names)
	return names, nil
}

// InsertLookup adds name. Returns ErrDuplicateName if present.
func (s *MemoryStore) InsertLookup(ctx context.Context, kind model.LookupKind, name string) (err error) {
	defer func(start time.Time) { observe(OpInsertLookup, start, err) }(time.Now())
	if err := checkKind(kind); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.lookups[kind], name) {
		return fmt.Errorf("%s %q: %w", kind, name, ErrDuplicateName)
	}
	s.lookups[kind] = append(s.lookups[kind], name)
	return nil
}

// DeleteLookup removes name. Unknown names are a no-op.
func (s *MemoryStore) DeleteLookup(ctx context.Context, kind model.LookupKind, name string) (err error) {
	defer func(start time.Time) { observe(OpDeleteLookup, start, err) }(time.Now())
	if err := checkKind(kind); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups[kind] = slices.DeleteFunc(s.lookups[kind], func(n string) bool { return n == name })
	return nil
}
