package kdtree

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/hupe1980/kdgo/testutil"
)

// maxFuzzPoints keeps a single fuzz input below a depth of 16 levels.
const maxFuzzPoints = (1<<16 - 1) * 2

// FuzzNearest decodes the input into 3-D points, builds a tree from the first
// half and checks every point of the second half against a linear scan.
func FuzzNearest(f *testing.F) {
	f.Add([]byte{})
	f.Add(encodePoints([][]float64{{5, 4, 0}, {2, 3, 1}, {8, 1, 2}, {9, 6, 3}, {7, 2, 4}, {4, 7, 5}, {5, 3, 0}, {3, 0, 1}}))
	f.Add(encodePoints([][]float64{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}, {0, 0, 0}}))

	f.Fuzz(func(t *testing.T, data []byte) {
		points := decodePoints(data)
		if len(points) < 2 {
			return
		}

		queries := points[len(points)/2:]
		points = points[:len(points)/2]

		tree, err := Build(entriesOf(points), 3)
		if err != nil {
			t.Fatal(err)
		}

		for _, q := range queries {
			node, err := tree.Nearest(q)
			if err != nil {
				t.Fatal(err)
			}
			_, want := testutil.LinearNearest(points, q)
			if got := SquaredDistance(node.Point(), q); got != want {
				t.Fatalf("query %v: got distance %v, want %v", q, got, want)
			}
		}
	})
}

func decodePoints(data []byte) [][]float64 {
	const size = 3 * 8
	var points [][]float64
	for len(data) >= size && len(points) < maxFuzzPoints {
		p := make([]float64, 3)
		finite := true
		for i := range p {
			p[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
			if math.IsNaN(p[i]) || math.IsInf(p[i], 0) {
				finite = false
			}
		}
		data = data[size:]
		if finite {
			points = append(points, p)
		}
	}
	return points
}

func encodePoints(points [][]float64) []byte {
	buf := make([]byte, 0, len(points)*24)
	for _, p := range points {
		for _, c := range p {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(c))
		}
	}
	return buf
}
