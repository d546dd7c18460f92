package engine

import (
	"errors"
	"fmt"
)

// Engine-layer sentinels. The vecmem package translates them into its public
// error contract.
var (
	// ErrNotFound is returned when no record exists for an id.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned when an operation is invoked after Close.
	ErrClosed = errors.New("engine closed")

	// ErrInvalidArgument is returned for malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrDimensionMismatch indicates two vectors of unequal length were compared,
// or a vector violated the configured fixed dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}
