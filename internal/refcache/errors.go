package refcache

import (
	"errors"
	"fmt"
)

// ErrUnresolved is matched by every *ResolutionError.
var ErrUnresolved = errors.New("assembly reference unresolved")

// ResolutionError reports an identifier or path with no matching assembly.
type ResolutionError struct {
	ID string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve assembly reference %q", e.ID)
}

// Unwrap returns ErrUnresolved.
func (e *ResolutionError) Unwrap() error {
	return ErrUnresolved
}
