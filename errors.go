package vecmem

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecmem/engine"
)

var (
	// ErrNotFound is returned when a record with the requested id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreClosed is returned when an operation is invoked after Close.
	ErrStoreClosed = errors.New("store closed")

	// ErrInvalidArgument is returned for malformed input, e.g. mismatched
	// batch list lengths, an empty query vector or a non-positive limit.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// translateError maps engine-layer sentinels onto the public error contract.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, engine.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, engine.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrStoreClosed, err)
	}
	if errors.Is(err, engine.ErrInvalidArgument) {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	var dm *engine.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	return err
}
