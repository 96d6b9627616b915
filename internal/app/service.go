// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/bncc/internal/adapters/repository"
	"github.com/okian/bncc/internal/domain/model"
	"github.com/okian/bncc/internal/domain/session"
	"github.com/okian/bncc/pkg/logger"
	"github.com/okian/bncc/pkg/metrics"
)

// Service implements the API dependencies for the report system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	sessions *session.Registry

	// Configuration
	variant       model.Variant
	tables        repository.Tables
	maxSessions   int
	discardFailed bool
	requireKnown  bool
	rankLimit     int
	rankThreshold float64
	storeName     string

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing record store.
func WithStore(store repository.Store, name string) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
			s.storeName = name
		}
	}
}

// WithVariant selects which field keys trends and rankings.
func WithVariant(v model.Variant) Option {
	return func(s *Service) {
		if v != "" {
			s.variant = v
		}
	}
}

// WithTables sets the table layout used for cache keys.
func WithTables(t repository.Tables) Option {
	return func(s *Service) {
		s.tables = t
	}
}

// WithMaxSessions bounds the session registry.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithDiscardFailedEntries clears the whole pending buffer after a
// submission, including entries that failed.
func WithDiscardFailedEntries(discard bool) Option {
	return func(s *Service) {
		s.discardFailed = discard
	}
}

// WithRequireKnownLookups rejects entries whose school or constructor is not
// listed, when the list is not empty.
func WithRequireKnownLookups(require bool) Option {
	return func(s *Service) {
		s.requireKnown = require
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		variant:       model.VariantSkill,
		tables:        repository.DefaultTables(),
		maxSessions:   session.DefaultMaxSessions,
		rankLimit:     10,
		rankThreshold: 50,
		logger:        nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.storeName = "memory"
	}
	s.sessions = session.NewRegistry(session.WithMaxSessions(s.maxSessions))
	return s
}

// Start marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "report service started",
		logger.String("store", s.storeName),
		logger.String("variant", string(s.variant)),
		logger.Int("maxSessions", s.maxSessions),
		logger.Bool("discardFailedEntries", s.discardFailed),
	)
	return nil
}

// Stop releases the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping report service...")

	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "report service stopped")
}

// log returns the service logger, falling back to a discarding one before
// Start.
func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Nop()
	}
	return s.logger
}

// Variant returns the configured variant.
func (s *Service) Variant() model.Variant { return s.variant }

// Session returns the session for id, creating it when id is empty or
// unknown. Callers should hand the returned id back to the client.
func (s *Service) Session(id string) (*session.Session, bool) {
	return s.sessions.Acquire(id)
}

// storeFor binds the backing store to the session's cache.
func (s *Service) storeFor(sessionID string) (repository.Store, *session.Session) {
	sess, _ := s.sessions.Acquire(sessionID)
	return repository.NewCachedStore(s.store, sess.Cache(), repository.WithTables(s.tables)), sess
}

// Records returns the session's record snapshot ordered by date.
func (s *Service) Records(ctx context.Context, sessionID string) ([]model.Record, error) {
	store, _ := s.storeFor(sessionID)
	recs, err := store.ListRecords(ctx)
	if err != nil {
		s.log().Error(ctx, "failed to load records", logger.Session(sessionID), logger.Error(err))
		return nil, err
	}
	metrics.UpdateRecordsLoaded(len(recs))
	return recs, nil
}

// AddRecord validates and inserts one record.
func (s *Service) AddRecord(ctx context.Context, sessionID string, r model.Record) error {
	const op = "service.add_record"
	store, _ := s.storeFor(sessionID)
	r, err := s.prepare(ctx, store, r)
	if err != nil {
		return err
	}
	if err := store.InsertRecord(ctx, r); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log().Info(ctx, "record inserted", logger.Session(sessionID), logger.String("school", r.School))
	return nil
}

// DeleteRecord removes the record with id.
func (s *Service) DeleteRecord(ctx context.Context, sessionID string, id model.RecordID) error {
	const op = "service.delete_record"
	if id == "" {
		return model.NewValidationError("id", "is required")
	}
	store, _ := s.storeFor(sessionID)
	if err := store.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Lookups returns the names of a lookup list.
func (s *Service) Lookups(ctx context.Context, sessionID string, kind model.LookupKind) ([]string, error) {
	store, _ := s.storeFor(sessionID)
	return store.ListLookup(ctx, kind)
}

// AddLookup adds a trimmed name to a lookup list.
func (s *Service) AddLookup(ctx context.Context, sessionID string, kind model.LookupKind, name string) error {
	const op = "service.add_lookup"
	name = model.Trimmed(name)
	if name == "" {
		metrics.RecordValidationError("nome")
		return model.NewValidationError("nome", "is required")
	}
	store, _ := s.storeFor(sessionID)
	if err := store.InsertLookup(ctx, kind, name); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordLookupMutation(string(kind), "insert")
	s.log().Info(ctx, "lookup name added", logger.String("kind", string(kind)), logger.String("name", name))
	return nil
}

// RemoveLookup deletes a trimmed name from a lookup list.
func (s *Service) RemoveLookup(ctx context.Context, sessionID string, kind model.LookupKind, name string) error {
	const op = "service.remove_lookup"
	name = model.Trimmed(name)
	if name == "" {
		metrics.RecordValidationError("nome")
		return model.NewValidationError("nome", "is required")
	}
	store, _ := s.storeFor(sessionID)
	if err := store.DeleteLookup(ctx, kind, name); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordLookupMutation(string(kind), "delete")
	return nil
}

// Reload drops the session's cached reads.
func (s *Service) Reload(_ context.Context, sessionID string) {
	_, sess := s.storeFor(sessionID)
	sess.Cache().Invalidate()
}

// prepare normalizes and validates r against the variant and, when enabled,
// the lookup lists.
func (s *Service) prepare(ctx context.Context, store repository.Store, r model.Record) (model.Record, error) {
	r = r.Normalized()
	if err := r.Validate(s.variant); err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			metrics.RecordValidationError(ve.Field)
		}
		return r, err
	}
	if !s.requireKnown {
		return r, nil
	}
	if err := s.checkKnown(ctx, store, model.LookupSchools, "escola", r.School); err != nil {
		return r, err
	}
	if s.variant == model.VariantConstructor {
		if err := s.checkKnown(ctx, store, model.LookupConstructors, "construtor", r.Constructor); err != nil {
			return r, err
		}
	}
	return r, nil
}

func (s *Service) checkKnown(ctx context.Context, store repository.Store, kind model.LookupKind, field, name string) error {
	names, err := store.ListLookup(ctx, kind)
	if err != nil {
		return err
	}
	if len(names) == 0 || slices.Contains(names, name) {
		return nil
	}
	metrics.RecordValidationError(field)
	return fmt.Errorf("%w: %w", ErrUnknownLookup, model.NewValidationError(field, fmt.Sprintf("%q is not a registered name", name)))
}

// Stats reports service statistics for monitoring.
type Stats struct {
	Started              bool   `json:"started"`
	Store                string `json:"store"`
	Variant              string `json:"variant"`
	Sessions             int    `json:"sessions"`
	MaxSessions          int    `json:"max_sessions"`
	DiscardFailedEntries bool   `json:"discard_failed_entries"`
	RequireKnownLookups  bool   `json:"require_known_lookups"`
	Uptime               string `json:"uptime,omitempty"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.Len()
	metrics.UpdateActiveSessions(sessions)
	stats := Stats{
		Started:              s.started,
		Store:                s.storeName,
		Variant:              string(s.variant),
		Sessions:             sessions,
		MaxSessions:          s.maxSessions,
		DiscardFailedEntries: s.discardFailed,
		RequireKnownLookups:  s.requireKnown,
	}
	if s.started {
		stats.Uptime = time.Since(s.startedAt).Round(time.Second).String()
	}
	return stats
}
