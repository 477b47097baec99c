package kdtree

// SquaredDistance returns the squared Euclidean distance between a and b.
// Both slices must have the same length.
func SquaredDistance[T Number](a, b []T) T {
	var sum T
	for i := range a {
		d := absDiff(a[i], b[i])
		sum += d * d
	}
	return sum
}

// axisDistance returns the squared distance between two coordinates on one axis.
func axisDistance[T Number](a, b T) T {
	d := absDiff(a, b)
	return d * d
}

// absDiff avoids wrap-around for unsigned coordinate types.
func absDiff[T Number](a, b T) T {
	if a > b {
		return a - b
	}
	return b - a
}
