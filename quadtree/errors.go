package quadtree

import "errors"

var (
	// ErrOutOfBounds is returned when a point lies outside the node it
	// was offered to.
	ErrOutOfBounds = errors.New("quadtree: point out of bounds")

	// ErrNoMatchingChild means an internal node accepted a point that none
	// of its children contain. The quadrants no longer partition their
	// parent, which points at a rounding or construction defect.
	ErrNoMatchingChild = errors.New("quadtree: no child contains point")
)
