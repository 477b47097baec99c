package kdtree

// Number is the set of coordinate types a tree can be built over.
//
// Only fixed-size types are allowed so that coordinates have a stable binary
// encoding. Squared distances are computed in T itself; callers using small
// integer types must make sure the squared extents of their data fit.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Entry is an input pair for Build.
type Entry[T Number, V any] struct {
	Point   []T
	Payload V
}

// Node is one placed point of a tree together with its payload.
type Node[T Number, V any] struct {
	point   []T
	payload V
}

// NewNode creates a node. It is used to assemble trees from prebuilt layouts.
func NewNode[T Number, V any](point []T, payload V) Node[T, V] {
	return Node[T, V]{point: point, payload: payload}
}

// Point returns the coordinates of the node.
// The returned slice is shared with the tree and must not be modified.
func (n *Node[T, V]) Point() []T { return n.point }

// Payload returns the value attached to the node.
func (n *Node[T, V]) Payload() V { return n.payload }
