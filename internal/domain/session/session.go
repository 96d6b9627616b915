// Package session holds per-client state: the memo cache bound to the
// client's store view and the ordered buffer of entries awaiting submission.
package session

import (
	"slices"
	"sync"
	"time"

	"github.com/okian/bncc/internal/domain/model"
	"github.com/okian/bncc/pkg/memo"
)

// Session is one client's state. It is safe for concurrent use.
type Session struct {
	id      string
	created time.Time
	cache   *memo.Cache

	mu      sync.Mutex
	pending []model.Record
}

// New returns an empty session.
func New(id string) *Session {
	return &Session{id: id, created: time.Now(), cache: memo.New()}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Created returns the creation time.
func (s *Session) Created() time.Time { return s.created }

// Cache returns the session's memo cache.
func (s *Session) Cache() *memo.Cache { return s.cache }

// AddPending appends r to the buffer and returns the new length.
func (s *Session) AddPending(r model.Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, r)
	return len(s.pending)
}

// Pending returns a copy of the buffer in insertion order.
func (s *Session) Pending() []model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.pending)
	if out == nil {
		out = []model.Record{}
	}
	return out
}

// PendingLen returns the buffer length.
func (s *Session) PendingLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// ClearPending empties the buffer.
func (s *Session) ClearPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// Drain empties the buffer and returns what it held.
func (s *Session) Drain() []model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// Requeue puts entries back at the front of the buffer, ahead of anything
// added since the last Drain.
func (s *Session) Requeue(entries []model.Record) {
	if len(entries) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(slices.Clone(entries), s.pending...)
}
