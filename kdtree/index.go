package kdtree

import "math/bits"

// Parent returns the heap index of the parent of i. Parent(0) is -1.
func Parent(i int) int { return (i+1)/2 - 1 }

// Left returns the heap index of the left child of i.
func Left(i int) int { return (i+1)*2 - 1 }

// Right returns the heap index of the right child of i.
func Right(i int) int { return (i + 1) * 2 }

// MaxDepth returns the depth of the deepest node of an n-node tree in heap
// layout (the root has depth 0). It returns -1 for n < 1.
func MaxDepth(n int) int {
	if n < 1 {
		return -1
	}
	return bits.Len(uint(n)) - 1
}

// Depth returns the depth of the node stored at heap index i.
func Depth(i int) int { return bits.Len(uint(i+1)) - 1 }

// midOffset returns the position inside an axis-sorted range of n >= 2
// elements whose element becomes the subtree root. Every row except the last
// is full and the last row is filled from the left.
func midOffset(n int) int {
	level := bits.Len(uint(n)) - 1
	half := 1 << (level - 1)
	lastRow := n - (1 << level) + 1
	return half - 1 + min(lastRow, half)
}
