package repository

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds a single store call.
const DefaultTimeout = 10 * time.Second

type settings struct {
	tables  Tables
	timeout time.Duration
	client  *http.Client
}

func newSettings(opts []Option) settings {
	s := settings{tables: DefaultTables(), timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&s)
	}
	s.tables = s.tables.withDefaults()
	return s
}

// Option configures a store.
type Option func(*settings)

// WithTables overrides table names. Empty fields keep their defaults.
func WithTables(t Tables) Option {
	return func(s *settings) {
		s.tables = t
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHTTPClient sets the client used by the REST store. The client's own
// Timeout is replaced by WithTimeout's value.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		if c != nil {
			s.client = c
		}
	}
}
