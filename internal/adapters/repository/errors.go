package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for store errors.
var (
	ErrTransport     = errors.New("store unavailable")
	ErrDuplicateName = errors.New("name already exists")
	ErrUnknownLookup = errors.New("unknown lookup list")
)

// TransportError reports a failed or timed out store call. It matches
// ErrTransport with errors.Is.
type TransportError struct {
	Op         string
	Timeout    bool
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s: store timed out: %v", e.Op, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: store returned %d: %v", e.Op, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("%s: store request failed: %v", e.Op, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }
