package plsom

import (
	"errors"
	"fmt"

	"github.com/hupe1980/plsom/blobstore"
	"github.com/hupe1980/plsom/persistence"
	"github.com/hupe1980/plsom/recursive"
	"github.com/hupe1980/plsom/som"
	"github.com/hupe1980/plsom/tensor"
)

var (
	// ErrNotFound is returned when a snapshot or checkpoint does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfiguration is returned when a parameter or strategy is
	// rejected.
	ErrInvalidConfiguration = som.ErrInvalidConfiguration

	// ErrUnknownKind is returned for a variant discriminator no factory is
	// registered for.
	ErrUnknownKind = persistence.ErrUnknownKind

	// ErrCorruptSnapshot is returned when a snapshot fails validation.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")

	// ErrAlreadyCoupled is returned when a layer is coupled twice.
	ErrAlreadyCoupled = recursive.ErrAlreadyCoupled
)

// ErrDimensionMismatch indicates an input or weight vector of the wrong length.
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

// ErrInvalidCoordinate indicates a lattice coordinate that does not address
// a node: a component out of bounds or the wrong number of components.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidCoordinate struct {
	cause error
}

func (e *ErrInvalidCoordinate) Error() string {
	return fmt.Sprintf("invalid coordinate: %v", e.cause)
}

func (e *ErrInvalidCoordinate) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Snapshot validation.
	if persistence.IsChecksumMismatch(err) ||
		errors.Is(err, persistence.ErrInvalidMagic) ||
		errors.Is(err, persistence.ErrUnsupportedVersion) ||
		errors.Is(err, persistence.ErrTruncated) ||
		errors.Is(err, persistence.ErrUnknownCompression) ||
		errors.Is(err, persistence.ErrUnknownCodec) {
		return fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	// Dimension and coordinate normalization.
	var dm *som.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var oob *tensor.ErrOutOfBounds
	if errors.As(err, &oob) {
		return &ErrInvalidCoordinate{cause: err}
	}
	var rm *tensor.ErrRankMismatch
	if errors.As(err, &rm) {
		return &ErrInvalidCoordinate{cause: err}
	}

	return err
}
