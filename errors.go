package kdgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/kdgo/blobstore"
	"github.com/hupe1980/kdgo/kdtree"
)

var (
	// ErrEmptyInput is returned when building from zero entries.
	ErrEmptyInput = kdtree.ErrEmptyInput

	// ErrEmptyTree is returned when querying a tree without nodes.
	ErrEmptyTree = kdtree.ErrEmptyTree

	// ErrNotFound is returned when a snapshot or CURRENT does not exist.
	ErrNotFound = blobstore.ErrNotFound

	// ErrClosed is returned by operations on a closed Index.
	ErrClosed = errors.New("kdgo: index closed")
)

// ErrDimensionMismatch indicates a point/query dimensionality mismatch.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates a dimension below one.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *kdtree.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var id *kdtree.ErrInvalidDimension
	if errors.As(err, &id) {
		return &ErrInvalidDimension{Dimension: id.Dimension, cause: err}
	}
	return err
}
