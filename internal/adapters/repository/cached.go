package repository

import (
	"context"
	"slices"

	"github.com/okian/bncc/internal/domain/model"
	"github.com/okian/bncc/pkg/memo"
)

const recordsKey = "records"

// CachedStore memoizes reads of the wrapped Store in an explicit cache. Any
// successful write invalidates the whole cache before returning; a failed
// write leaves it untouched.
type CachedStore struct {
	next   Store
	cache  *memo.Cache
	tables Tables
}

var _ Store = (*CachedStore)(nil)

// NewCachedStore binds next to cache. Tables only name cache keys.
func NewCachedStore(next Store, cache *memo.Cache, opts ...Option) *CachedStore {
	s := newSettings(opts)
	return &CachedStore{next: next, cache: cache, tables: s.tables}
}

// Cache returns the bound cache.
func (s *CachedStore) Cache() *memo.Cache { return s.cache }

func (s *CachedStore) lookupKey(kind model.LookupKind) string {
	table, err := s.tables.Lookup(kind)
	if err != nil {
		table = string(kind)
	}
	return "lookup:" + table + ":" + s.tables.LookupColumn
}

func (s *CachedStore) ListRecords(ctx context.Context) ([]model.Record, error) {
	recs, err := memo.Load(s.cache, recordsKey, func() ([]model.Record, error) {
		return s.next.ListRecords(ctx)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(recs), nil
}

func (s *CachedStore) InsertRecord(ctx context.Context, r model.Record) error {
	return s.write(s.next.InsertRecord(ctx, r))
}

func (s *CachedStore) DeleteRecord(ctx context.Context, id model.RecordID) error {
	return s.write(s.next.DeleteRecord(ctx, id))
}

func (s *CachedStore) ListLookup(ctx context.Context, kind model.LookupKind) ([]string, error) {
	names, err := memo.Load(s.cache, s.lookupKey(kind), func() ([]string, error) {
		return s.next.ListLookup(ctx, kind)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(names), nil
}

func (s *CachedStore) InsertLookup(ctx context.Context, kind model.LookupKind, name string) error {
	return s.write(s.next.InsertLookup(ctx, kind, name))
}

func (s *CachedStore) DeleteLookup(ctx context.Context, kind model.LookupKind, name string) error {
	return s.write(s.next.DeleteLookup(ctx, kind, name))
}

func (s *CachedStore) write(err error) error {
	if err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}
