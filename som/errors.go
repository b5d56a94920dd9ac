package som

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned when a parameter or strategy is
	// rejected at assignment time.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidState is returned when a state vector does not match the map.
	ErrInvalidState = errors.New("invalid state vector")

	// ErrNilInput is returned when a map that requires an input receives nil.
	ErrNilInput = errors.New("input is required")
)

// ErrDimensionMismatch indicates an input or weight vector of the wrong length.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

func invalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}
