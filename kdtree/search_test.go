package kdtree

import (
	"fmt"
	"sync"
	"testing"

	"github.com/hupe1980/kdgo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearest(t *testing.T) {
	t.Run("Regression", func(t *testing.T) {
		tree, err := Build(regressionEntries(), 2)
		require.NoError(t, err)

		tests := []struct {
			query, want []int32
		}{
			{[]int32{5, 3}, []int32{5, 4}},
			{[]int32{9, 7}, []int32{9, 6}},
			{[]int32{3, 9}, []int32{4, 7}},
			{[]int32{3, 0}, []int32{2, 3}},
		}
		for _, tt := range tests {
			node, err := tree.Nearest(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, node.Point(), "query %v", tt.query)
		}
	})

	t.Run("Single", func(t *testing.T) {
		tree, err := Build([]Entry[float64, string]{{Point: []float64{1, 1}, Payload: "only"}}, 2)
		require.NoError(t, err)

		for _, q := range [][]float64{{1, 1}, {-100, 5}, {1e9, -1e9}} {
			p, err := tree.NearestPayload(q)
			require.NoError(t, err)
			assert.Equal(t, "only", p)
		}
	})

	t.Run("TwoElements", func(t *testing.T) {
		a := Entry[float64, string]{Point: []float64{0, 0}, Payload: "a"}
		b := Entry[float64, string]{Point: []float64{4, 1}, Payload: "b"}

		for _, in := range [][]Entry[float64, string]{{a, b}, {b, a}} {
			tree, err := Build(in, 2)
			require.NoError(t, err)

			p, err := tree.NearestPayload([]float64{-1, 3})
			require.NoError(t, err)
			assert.Equal(t, "a", p)

			p, err = tree.NearestPayload([]float64{3, 0})
			require.NoError(t, err)
			assert.Equal(t, "b", p)

			p, err = tree.NearestPayload([]float64{10, 10})
			require.NoError(t, err)
			assert.Equal(t, "b", p)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		tree, err := Build(regressionEntries(), 2)
		require.NoError(t, err)

		_, err = tree.Nearest([]int32{1, 2, 3})
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 2, dm.Expected)
		assert.Equal(t, 3, dm.Actual)

		_, err = tree.NearestPayload([]int32{1})
		assert.Error(t, err)

		var empty Tree[float64, int]
		_, err = empty.Nearest([]float64{1})
		assert.ErrorIs(t, err, ErrEmptyTree)
	})
}

func TestNearestMatchesLinearScan(t *testing.T) {
	rng := testutil.NewRNG(4711)

	datasets := []struct {
		name   string
		dim    int
		points [][]float64
	}{
		{"Uniform2D", 2, rng.UniformPoints(1000, 2)},
		{"Uniform3D", 3, rng.UniformPoints(5000, 3)},
		{"Uniform5D", 5, rng.UniformPoints(2000, 5)},
		{"Clustered", 3, rng.ClusteredPoints(3000, 3, 8, 0.005)},
		{"AxisAligned", 3, rng.AxisAlignedPoints(1000, 3, 1, 50)},
		{"Duplicates", 2, rng.GridPoints(1000, 2, 4)},
		{"WideRange", 3, rng.UniformRangePoints(1000, 3, -1e6, 1e6)},
	}

	for _, ds := range datasets {
		t.Run(ds.name, func(t *testing.T) {
			tree, err := Build(entriesOf(ds.points), ds.dim)
			require.NoError(t, err)

			queries := rng.UniformRangePoints(300, ds.dim, -0.5, 1.5)
			queries = append(queries, ds.points[:50]...)

			for _, q := range queries {
				node, err := tree.Nearest(q)
				require.NoError(t, err)

				_, want := testutil.LinearNearest(ds.points, q)
				require.Equal(t, want, SquaredDistance(node.Point(), q), "query %v", q)
			}
		})
	}
}

func TestNearestRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(13)
	points := rng.UniformPoints(777, 4)
	points = append(points, points[:20]...) // exact duplicates

	tree, err := Build(entriesOf(points), 4)
	require.NoError(t, err)

	for _, p := range points {
		node, err := tree.Nearest(p)
		require.NoError(t, err)
		assert.Zero(t, SquaredDistance(node.Point(), p))
	}
}

func TestNearestAllSizes(t *testing.T) {
	rng := testutil.NewRNG(21)
	for n := 1; n <= 70; n++ {
		points := rng.UniformPoints(n, 2)
		tree, err := Build(entriesOf(points), 2)
		require.NoError(t, err)

		for _, q := range rng.UniformRangePoints(40, 2, -0.2, 1.2) {
			node, err := tree.Nearest(q)
			require.NoError(t, err)
			_, want := testutil.LinearNearest(points, q)
			require.Equal(t, want, SquaredDistance(node.Point(), q), "n=%d query %v", n, q)
		}
	}
}

func TestNearestCoordinateTypes(t *testing.T) {
	t.Run("Float32", func(t *testing.T) {
		tree, err := Build([]Entry[float32, int]{
			{Point: []float32{0, 0}, Payload: 1},
			{Point: []float32{1, 1}, Payload: 2},
			{Point: []float32{2, 2}, Payload: 3},
		}, 2)
		require.NoError(t, err)

		p, err := tree.NearestPayload([]float32{1.9, 2.2})
		require.NoError(t, err)
		assert.Equal(t, 3, p)
	})

	t.Run("Uint16", func(t *testing.T) {
		tree, err := Build([]Entry[uint16, string]{
			{Point: []uint16{10, 10}, Payload: "a"},
			{Point: []uint16{20, 5}, Payload: "b"},
			{Point: []uint16{3, 30}, Payload: "c"},
			{Point: []uint16{15, 15}, Payload: "d"},
		}, 2)
		require.NoError(t, err)

		p, err := tree.NearestPayload([]uint16{2, 28})
		require.NoError(t, err)
		assert.Equal(t, "c", p)

		p, err = tree.NearestPayload([]uint16{21, 4})
		require.NoError(t, err)
		assert.Equal(t, "b", p)
	})
}

func TestNewTree(t *testing.T) {
	ordered, err := Layout(regressionEntries(), 2)
	require.NoError(t, err)

	nodes := make([]Node[int32, int], len(ordered))
	for i, e := range ordered {
		nodes[i] = NewNode(e.Point, e.Payload)
	}

	t.Run("Valid", func(t *testing.T) {
		tree, err := NewTree(nodes, 2, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, tree.MaxDepth())
		assert.Equal(t, 3, tree.Height())

		node, err := tree.Nearest([]int32{3, 9})
		require.NoError(t, err)
		assert.Equal(t, []int32{4, 7}, node.Point())
	})

	t.Run("DepthBoundTooSmall", func(t *testing.T) {
		_, err := NewTree(nodes, 2, 1)
		var db *ErrDepthBound
		require.ErrorAs(t, err, &db)
		assert.Equal(t, 2, db.Required)
		assert.Equal(t, 1, db.Bound)
	})

	t.Run("DepthBoundTooLarge", func(t *testing.T) {
		_, err := NewTree(nodes, 2, 2+MaxDepthSlack+1)
		var db *ErrDepthBound
		require.ErrorAs(t, err, &db)
		assert.Equal(t, 2, db.Required)
		assert.Equal(t, 5, db.Bound)
		assert.Contains(t, db.Error(), "too large")

		_, err = NewTree(nodes, 2, 1<<27)
		assert.ErrorAs(t, err, &db)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := NewTree[int32, int](nil, 2, 4)
		assert.ErrorIs(t, err, ErrEmptyTree)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := NewTree(nodes, 3, 4)
		var dm *ErrDimensionMismatch
		assert.ErrorAs(t, err, &dm)
	})
}

func TestTreeAll(t *testing.T) {
	tree, err := Build(regressionEntries(), 2)
	require.NoError(t, err)

	var payloads []int
	for i, n := range tree.All() {
		assert.Same(t, tree.Node(i), n)
		payloads = append(payloads, n.Payload())
	}
	assert.Equal(t, []int{4, 0, 3, 1, 5, 2}, payloads)
}

func TestNearestConcurrent(t *testing.T) {
	rng := testutil.NewRNG(5)
	points := rng.UniformPoints(10000, 3)
	tree, err := Build(entriesOf(points), 3)
	require.NoError(t, err)

	queries := rng.UniformPoints(400, 3)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := w; i < len(queries); i += 8 {
				q := queries[i]
				node, err := tree.Nearest(q)
				if err != nil {
					errs <- err
					return
				}
				if _, want := testutil.LinearNearest(points, q); want != SquaredDistance(node.Point(), q) {
					errs <- fmt.Errorf("query %v: got %v want %v", q, SquaredDistance(node.Point(), q), want)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
