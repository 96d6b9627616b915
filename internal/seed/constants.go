package seed

import "time"

// Defaults for a run.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultSchools = 5
	DefaultKeys    = 4
	DefaultDays    = 6
	DefaultRecords = 500
	DefaultTimeout = 30 * time.Second

	sessionHeader = "X-Session-ID"
	percentScale  = 100
	// epsilon absorbs float formatting differences in percent changes.
	epsilon = 1e-6
)
