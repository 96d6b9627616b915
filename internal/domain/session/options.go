package session

// DefaultMaxSessions bounds the registry when no option is given.
const DefaultMaxSessions = 1000

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithMaxSessions sets how many sessions are kept. Values <= 0 keep the
// default.
func WithMaxSessions(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxSize = n
		}
	}
}
