// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file, a .env file and the environment on top.
// - Errors wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/bncc/internal/adapters/repository"
	"github.com/okian/bncc/internal/domain/model"
	"github.com/okian/bncc/internal/domain/session"
)

// Store drivers.
const (
	DriverREST     = "rest"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Variant selects the record key: skill (habilidade) or constructor.
	Variant string `koanf:"variant"`

	// StoreDriver picks the record store: rest, postgres or memory.
	StoreDriver string `koanf:"store_driver"`

	// StoreURL and StoreKey reach the hosted REST endpoint.
	StoreURL string `koanf:"store_url"`
	StoreKey string `koanf:"store_key"`

	// StoreDSN is the Postgres connection string for the postgres driver.
	StoreDSN string `koanf:"store_dsn"`

	// StoreTimeoutMS bounds each store call.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	RecordsTable      string `koanf:"records_table"`
	SchoolsTable      string `koanf:"schools_table"`
	ConstructorsTable string `koanf:"constructors_table"`
	LookupColumn      string `koanf:"lookup_column"`

	// MaxSessions bounds the number of live client sessions.
	MaxSessions int `koanf:"max_sessions"`

	// DiscardFailedEntries clears the whole pending buffer after a batch
	// submission, failed entries included.
	DiscardFailedEntries bool `koanf:"discard_failed_entries"`

	// RequireKnownLookups rejects entries whose school or constructor is not
	// in a non-empty lookup list.
	RequireKnownLookups bool `koanf:"require_known_lookups"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	t := repository.DefaultTables()
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		Variant:           string(model.VariantSkill),
		StoreDriver:       DriverMemory,
		StoreTimeoutMS:    int(repository.DefaultTimeout / time.Millisecond),
		RecordsTable:      t.Records,
		SchoolsTable:      t.Schools,
		ConstructorsTable: t.Constructors,
		LookupColumn:      t.LookupColumn,
		MaxSessions:       session.DefaultMaxSessions,
	}
}

// StoreTimeout returns StoreTimeoutMS as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// Tables returns the configured table layout.
func (c *Config) Tables() repository.Tables {
	return repository.Tables{
		Records:      c.RecordsTable,
		Schools:      c.SchoolsTable,
		Constructors: c.ConstructorsTable,
		LookupColumn: c.LookupColumn,
	}
}

// RecordVariant returns the parsed Variant.
func (c *Config) RecordVariant() model.Variant {
	v, err := model.ParseVariant(c.Variant)
	if err != nil {
		return model.VariantSkill
	}
	return v
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if _, err := model.ParseVariant(c.Variant); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.StoreTimeoutMS <= 0 {
		return fmt.Errorf("%w: store_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	}
	if c.RecordsTable == "" || c.SchoolsTable == "" || c.ConstructorsTable == "" || c.LookupColumn == "" {
		return fmt.Errorf("%w: table and column names must not be empty", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverREST:
		if c.StoreURL == "" || c.StoreKey == "" {
			return fmt.Errorf("%w: %w: store_url and store_key are required for the rest driver", ErrInvalidConfig, ErrStoreSettings)
		}
	case DriverPostgres:
		if c.StoreDSN == "" {
			return fmt.Errorf("%w: %w: store_dsn is required for the postgres driver", ErrInvalidConfig, ErrStoreSettings)
		}
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownDriver, c.StoreDriver)
	}
	return nil
}
