package kdtree

import (
	"cmp"
	"fmt"
	"runtime"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultParallelThreshold is the smallest range that is partitioned on its
// own goroutine. Smaller ranges are cheaper to sort inline.
const DefaultParallelThreshold = 4096

// WorkerLimiter bounds the number of goroutines Build may start.
// TryAcquireBackground must not block.
type WorkerLimiter interface {
	TryAcquireBackground() bool
	ReleaseBackground()
}

// BuildOptions configures Build.
type BuildOptions struct {
	// ParallelThreshold is the minimum range length handed to a separate
	// goroutine. Values <= 0 disable parallel partitioning.
	ParallelThreshold int

	// Workers is the number of extra goroutines used when Limiter is nil.
	// Defaults to GOMAXPROCS-1.
	Workers int

	// Limiter overrides Workers with an externally owned limiter.
	Limiter WorkerLimiter
}

// DefaultBuildOptions contains the default configuration for Build.
var DefaultBuildOptions = BuildOptions{
	ParallelThreshold: DefaultParallelThreshold,
}

// Build creates a balanced tree of dimension dim from entries.
//
// Points are copied into a single coordinate arena owned by the tree, so the
// caller may reuse the entry slices afterwards. The order of entries is not
// modified.
func Build[T Number, V any](entries []Entry[T, V], dim int, optFns ...func(o *BuildOptions)) (*Tree[T, V], error) {
	ordered, err := Layout(entries, dim, optFns...)
	if err != nil {
		return nil, err
	}

	arena := make([]T, len(ordered)*dim)
	nodes := make([]Node[T, V], len(ordered))
	for i, e := range ordered {
		p := arena[i*dim : (i+1)*dim : (i+1)*dim]
		copy(p, e.Point)
		nodes[i] = Node[T, V]{point: p, payload: e.Payload}
	}

	return newTree(nodes, dim, MaxDepth(len(nodes))), nil
}

// Layout returns entries reordered into implicit heap order without creating
// a tree. The result can be persisted and later turned into a tree with
// NewTree.
func Layout[T Number, V any](entries []Entry[T, V], dim int, optFns ...func(o *BuildOptions)) ([]Entry[T, V], error) {
	if len(entries) == 0 {
		return nil, ErrEmptyInput
	}
	if dim < 1 {
		return nil, &ErrInvalidDimension{Dimension: dim}
	}
	for _, e := range entries {
		if len(e.Point) != dim {
			return nil, &ErrDimensionMismatch{Expected: dim, Actual: len(e.Point)}
		}
	}

	opts := DefaultBuildOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	slots := make([]slot[T, V], len(entries))
	for i := range entries {
		slots[i].entry = &entries[i]
	}

	p := &partitioner[T, V]{
		dim:       dim,
		threshold: opts.ParallelThreshold,
		limiter:   opts.Limiter,
	}
	if p.threshold > 0 && p.limiter == nil {
		workers := opts.Workers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0) - 1
		}
		if workers > 0 {
			p.limiter = &semaphoreLimiter{sem: semaphore.NewWeighted(int64(workers))}
		}
	}

	p.partition(slots, 0, 0)
	_ = p.g.Wait()

	return place(slots), nil
}

// slot pairs an entry with the heap index it is assigned to.
type slot[T Number, V any] struct {
	entry *Entry[T, V]
	index int
}

type partitioner[T Number, V any] struct {
	dim       int
	threshold int
	limiter   WorkerLimiter
	g         errgroup.Group
}

func (p *partitioner[T, V]) partition(s []slot[T, V], axis, target int) {
	axis %= p.dim
	slices.SortFunc(s, func(a, b slot[T, V]) int {
		return cmp.Compare(a.entry.Point[axis], b.entry.Point[axis])
	})

	switch len(s) {
	case 1:
		s[0].index = target
		return
	case 2:
		// The second element becomes the root and the first its left child.
		s[1].index = target
		p.partition(s[:1], axis+1, Left(target))
		return
	}

	mid := midOffset(len(s))
	s[mid].index = target

	left, right := s[:mid], s[mid+1:]
	if p.spawn(len(s)) {
		p.g.Go(func() error {
			defer p.limiter.ReleaseBackground()
			p.partition(left, axis+1, Left(target))
			return nil
		})
	} else {
		p.partition(left, axis+1, Left(target))
	}
	p.partition(right, axis+1, Right(target))
}

func (p *partitioner[T, V]) spawn(n int) bool {
	if p.limiter == nil || p.threshold <= 0 || n < p.threshold {
		return false
	}
	return p.limiter.TryAcquireBackground()
}

// place orders the entries by their assigned heap index.
func place[T Number, V any](slots []slot[T, V]) []Entry[T, V] {
	out := make([]Entry[T, V], len(slots))
	assigned := roaring.New()
	for _, s := range slots {
		if s.index < 0 || s.index >= len(slots) || !assigned.CheckedAdd(uint32(s.index)) {
			panic(fmt.Sprintf("kdtree: heap index %d assigned twice or out of range", s.index))
		}
		out[s.index] = *s.entry
	}
	return out
}

type semaphoreLimiter struct {
	sem *semaphore.Weighted
}

func (l *semaphoreLimiter) TryAcquireBackground() bool { return l.sem.TryAcquire(1) }

func (l *semaphoreLimiter) ReleaseBackground() { l.sem.Release(1) }
