package assembly

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAssembly indicates the file is not a PE image.
	ErrNotAssembly = errors.New("not a PE image")
	// ErrNoMetadata indicates a PE image without a CLI header or Assembly row,
	// such as a native DLL or a netmodule.
	ErrNoMetadata = errors.New("no assembly metadata")
	// ErrMalformedMetadata indicates truncated or inconsistent metadata.
	ErrMalformedMetadata = errors.New("malformed assembly metadata")
)

// DecodeError reports a file whose assembly metadata could not be read.
type DecodeError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("read assembly info from %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
