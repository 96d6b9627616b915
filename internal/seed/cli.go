package seed

import (
	"os"
)

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`BNCC Seed Tool
==============

Generates synthetic assessment results, queues them through the pending
buffer of a running report service, submits the batch and checks the trend
returned by /report against a local computation.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -records int
        Number of records to generate (default 500)
  -schools int
        Number of schools (default 5)
  -keys int
        Skills or constructors per school (default 4)
  -days int
        Distinct assessment days (default 6)
  -variant string
        skill or constructor (default "skill")
  -workers int
        Concurrent queueing workers (default CPU cores * 2)
  -seed uint
        Generator seed, 0 picks one (default 0)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write generated records to this JSON file
  -verbose
        Enable debug logging
  -help
        Show this help message

Examples:
  go run ./cmd/seed -records 2000 -schools 12
  go run ./cmd/seed -variant constructor -seed 42
`)
}
