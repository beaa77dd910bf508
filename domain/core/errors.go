package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrRunNotFound    = fmt.Errorf("%w: run", ErrNotFound)
	ErrColumnNotFound = fmt.Errorf("%w: column", ErrNotFound)

	// Analysis errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrDegenerateSample = errors.New("degenerate sample")
	ErrColumnKind       = errors.New("column has the wrong kind")
)

// NewColumnNotFoundError reports a missing column by name
func NewColumnNotFoundError(column string) error {
	return fmt.Errorf("%w: %s", ErrColumnNotFound, column)
}

// NewColumnKindError reports a column that exists but has the wrong kind
func NewColumnKindError(column, want string) error {
	return fmt.Errorf("%w: %s is not %s", ErrColumnKind, column, want)
}

// IsNotFoundError reports whether err wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
