package config

import (
	"errors"
)

// Sentinel error kinds for this package. Validation errors wrap
// ErrInvalidConfig and, where it applies, one of the narrower kinds.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")

	// ErrUnknownDriver names a store_driver other than rest, postgres or memory.
	ErrUnknownDriver = errors.New("unknown store driver")
	// ErrStoreSettings reports connection settings missing for the driver.
	ErrStoreSettings = errors.New("store settings missing")
)
