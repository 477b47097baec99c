package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformPoints generates points with coordinates in [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformPoints(num, dim int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dim)
	points := make([][]float64, num)

	for i := range num {
		p := data[i*dim : (i+1)*dim : (i+1)*dim]
		for j := range p {
			p[j] = r.rand.Float64()
		}
		points[i] = p
	}

	return points
}

// UniformRangePoints generates points with coordinates in [minVal, maxVal).
func (r *RNG) UniformRangePoints(num, dim int, minVal, maxVal float64) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	span := maxVal - minVal
	points := make([][]float64, num)
	for i := range num {
		p := make([]float64, dim)
		for j := range p {
			p[j] = minVal + r.rand.Float64()*span
		}
		points[i] = p
	}

	return points
}

// ClusteredPoints generates points around random centroids in the unit cube.
// spread is the standard deviation of the gaussian noise per coordinate.
func (r *RNG) ClusteredPoints(num, dim, clusters int, spread float64) [][]float64 {
	centroids := r.UniformPoints(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	points := make([][]float64, num)
	for i := range num {
		c := centroids[i%clusters]
		p := make([]float64, dim)
		for j := range dim {
			p[j] = c[j] + r.rand.NormFloat64()*spread
		}
		points[i] = p
	}

	return points
}

// AxisAlignedPoints generates points that vary along a single axis only;
// every other coordinate is zero. Duplicated split values are common.
func (r *RNG) AxisAlignedPoints(num, dim, axis, levels int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	points := make([][]float64, num)
	for i := range num {
		p := make([]float64, dim)
		p[axis] = float64(r.rand.Intn(levels))
		points[i] = p
	}

	return points
}

// GridPoints generates points whose coordinates are integers in [0, levels).
// With few levels this produces many exact duplicates.
func (r *RNG) GridPoints(num, dim, levels int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	points := make([][]float64, num)
	for i := range num {
		p := make([]float64, dim)
		for j := range p {
			p[j] = float64(r.rand.Intn(levels))
		}
		points[i] = p
	}

	return points
}

// SquaredL2 returns the squared Euclidean distance between a and b.
func SquaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// LinearNearest returns the index of the point closest to q and its squared
// distance. The first of several equidistant points wins. It returns -1 for
// an empty set.
func LinearNearest(points [][]float64, q []float64) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, p := range points {
		if d := SquaredL2(p, q); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}
