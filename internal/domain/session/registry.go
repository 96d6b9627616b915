package session

import (
	"container/list"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/bncc/pkg/metrics"
)

// Registry tracks live sessions and evicts the least recently used one once
// it is full.
type Registry struct {
	mu      sync.Mutex
	items   map[string]*list.Element // id -> element holding *Session
	order   *list.List               // front = most recently used
	maxSize int
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: DefaultMaxSessions,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns a live session and marks it used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	el, ok := r.items[id]
	if !ok {
		return nil, false
	}
	r.order.MoveToFront(el)
	return el.Value.(*Session), true
}

// Acquire returns the session for id, creating it when it is unknown. An id
// that is empty or not a UUID gets a fresh one. The second result reports
// whether a session was created.
func (r *Registry) Acquire(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.items[id]; ok {
		r.order.MoveToFront(el)
		return el.Value.(*Session), false
	}

	for len(r.items) >= r.maxSize {
		r.evictOldest()
	}
	s := New(id)
	r.items[id] = r.order.PushFront(s)
	metrics.UpdateActiveSessions(len(r.items))
	return s, true
}

// Remove drops a session. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.items[id]; ok {
		r.order.Remove(el)
		delete(r.items, id)
		metrics.UpdateActiveSessions(len(r.items))
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// evictOldest removes the least recently used session.
// Must be called with r.mu held.
func (r *Registry) evictOldest() {
	el := r.order.Back()
	if el == nil {
		return
	}
	s := r.order.Remove(el).(*Session)
	delete(r.items, s.ID())
	metrics.RecordSessionEvicted()
	metrics.UpdateActiveSessions(len(r.items))
}
