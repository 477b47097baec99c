package kdtree

import (
	"iter"
	"sync"
)

// MaxDepthSlack is how far a depth bound passed to NewTree may exceed the
// depth of the deepest node.
const MaxDepthSlack = 2

// Tree is an immutable k-d tree in implicit heap layout.
// A Tree must not be copied after creation.
type Tree[T Number, V any] struct {
	nodes    []Node[T, V]
	dim      int
	maxDepth int
	states   sync.Pool // *[]levelState of length maxDepth+1
}

// NewTree wraps nodes that are already in heap order, for example a layout
// produced by Layout and loaded from a snapshot. The tree takes ownership of
// nodes.
//
// maxDepth is the size of the per-query traversal state minus one. It must
// be at least MaxDepth(len(nodes)) and at most MaxDepth(len(nodes)) +
// MaxDepthSlack, since every query allocates state for the whole bound.
func NewTree[T Number, V any](nodes []Node[T, V], dim, maxDepth int) (*Tree[T, V], error) {
	if len(nodes) == 0 {
		return nil, ErrEmptyTree
	}
	if dim < 1 {
		return nil, &ErrInvalidDimension{Dimension: dim}
	}
	for i := range nodes {
		if len(nodes[i].point) != dim {
			return nil, &ErrDimensionMismatch{Expected: dim, Actual: len(nodes[i].point)}
		}
	}
	if required := MaxDepth(len(nodes)); maxDepth < required || maxDepth > required+MaxDepthSlack {
		return nil, &ErrDepthBound{Required: required, Bound: maxDepth}
	}
	return newTree(nodes, dim, maxDepth), nil
}

func newTree[T Number, V any](nodes []Node[T, V], dim, maxDepth int) *Tree[T, V] {
	t := &Tree[T, V]{
		nodes:    nodes,
		dim:      dim,
		maxDepth: maxDepth,
	}
	t.states.New = func() any {
		s := make([]levelState, t.maxDepth+1)
		return &s
	}
	return t
}

// Len returns the number of nodes.
func (t *Tree[T, V]) Len() int { return len(t.nodes) }

// Dimension returns the number of coordinates per point.
func (t *Tree[T, V]) Dimension() int { return t.dim }

// MaxDepth returns the depth bound used to size the traversal state.
func (t *Tree[T, V]) MaxDepth() int { return t.maxDepth }

// Height returns the number of levels actually occupied by nodes.
func (t *Tree[T, V]) Height() int { return MaxDepth(len(t.nodes)) + 1 }

// Node returns the node stored at heap index i.
func (t *Tree[T, V]) Node(i int) *Node[T, V] { return &t.nodes[i] }

// All iterates over the nodes in heap order.
func (t *Tree[T, V]) All() iter.Seq2[int, *Node[T, V]] {
	return func(yield func(int, *Node[T, V]) bool) {
		for i := range t.nodes {
			if !yield(i, &t.nodes[i]) {
				return
			}
		}
	}
}
