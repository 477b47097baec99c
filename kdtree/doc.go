// Package kdtree provides a balanced, pointer-free k-d tree for exact
// nearest-neighbour queries over an immutable point set.
//
// The tree is stored as a flat slice in implicit heap order: the children of
// the node at index i live at 2i+1 and 2i+2. Build assigns every input point
// its final slot so that each subtree root is the (near-)median of its range
// on the axis of its depth, which keeps the height at ⌊log₂N⌋+1.
//
// # Usage
//
//	tree, err := kdtree.Build([]kdtree.Entry[float64, string]{
//	    {Point: []float64{5, 4}, Payload: "a"},
//	    {Point: []float64{2, 3}, Payload: "b"},
//	}, 2)
//	node, err := tree.Nearest([]float64{5, 3})
//	fmt.Println(node.Point(), node.Payload())
//
// # Search
//
// Nearest is iterative. It descends to a leaf, then backtracks level by level
// and re-descends into a sibling subtree only when the splitting plane is
// closer than the best candidate found so far. The only auxiliary memory is
// a per-depth state buffer of MaxDepth()+1 entries, pooled per tree.
//
// # Concurrency
//
// A built Tree is read-only. Any number of goroutines may call Nearest
// concurrently without synchronization.
package kdtree
