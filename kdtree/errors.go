package kdtree

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when Build is called without entries.
	ErrEmptyInput = errors.New("kdtree: empty input")

	// ErrEmptyTree is returned when a tree without nodes is queried or created.
	ErrEmptyTree = errors.New("kdtree: empty tree")
)

// ErrDimensionMismatch is returned when a point does not have the tree's dimensionality.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("kdtree: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension is returned for a dimensionality below one.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("kdtree: invalid dimension: %d", e.Dimension)
}

// ErrDepthBound is returned by NewTree when the supplied depth bound is
// outside [Required, Required+MaxDepthSlack].
type ErrDepthBound struct {
	Required int
	Bound    int
}

func (e *ErrDepthBound) Error() string {
	if e.Bound < e.Required {
		return fmt.Sprintf("kdtree: depth bound %d too small, need at least %d", e.Bound, e.Required)
	}
	return fmt.Sprintf("kdtree: depth bound %d too large, at most %d", e.Bound, e.Required+MaxDepthSlack)
}
