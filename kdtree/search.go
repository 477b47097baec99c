package kdtree

// visit records which children of the node at a level have been explored.
type visit uint8

const (
	visitNone visit = iota
	visitLeft
	visitRight
	visitAll
)

type levelState struct {
	visited visit
	checked bool // distance of this level's node already compared in the current pass
}

type direction uint8

const (
	dirUp direction = iota
	dirLeft
	dirRight
)

// Nearest returns the node with the smallest squared Euclidean distance to q.
//
// If several nodes are equally close, the first one reached by the traversal
// is returned; a later node only replaces the current best when it is
// strictly closer.
func (t *Tree[T, V]) Nearest(q []T) (*Node[T, V], error) {
	if len(t.nodes) == 0 {
		return nil, ErrEmptyTree
	}
	if len(q) != t.dim {
		return nil, &ErrDimensionMismatch{Expected: t.dim, Actual: len(q)}
	}

	levels := t.states.Get().(*[]levelState)
	defer t.states.Put(levels)

	s := searcher[T, V]{
		nodes:  t.nodes,
		dim:    t.dim,
		query:  q,
		levels: *levels,
	}
	s.bestDist = SquaredDistance(t.nodes[0].point, q)

	for {
		s.descend()
		if s.backtrack() {
			break
		}
	}

	return &t.nodes[s.best], nil
}

// NearestPayload is like Nearest but returns only the payload.
func (t *Tree[T, V]) NearestPayload(q []T) (V, error) {
	n, err := t.Nearest(q)
	if err != nil {
		var zero V
		return zero, err
	}
	return n.payload, nil
}

// searcher is the transient state of a single query.
type searcher[T Number, V any] struct {
	nodes    []Node[T, V]
	dim      int
	query    []T
	levels   []levelState
	index    int
	depth    int
	best     int
	bestDist T
}

// descend walks from the current node to a leaf comparing only the split
// coordinate of each level.
func (s *searcher[T, V]) descend() {
	n := len(s.nodes)
	for {
		s.levels[s.depth] = levelState{}

		if Left(s.index) >= n {
			s.levels[s.depth].visited = visitAll
			return
		}

		axis := s.depth % s.dim
		next := Right(s.index)
		if s.query[axis] <= s.nodes[s.index].point[axis] {
			next = Left(s.index)
		}
		// The last row may end with a node that only has a left child.
		if next >= n {
			next--
		}

		s.index = next
		s.depth++
	}
}

// backtrack climbs towards the root, updating the best candidate. It returns
// true when the search is complete and false after stepping down into an
// unexplored subtree that must be descended next.
func (s *searcher[T, V]) backtrack() bool {
	n := len(s.nodes)
	for {
		node := &s.nodes[s.index]
		state := &s.levels[s.depth]

		if !state.checked {
			if d := SquaredDistance(node.point, s.query); d < s.bestDist {
				s.bestDist = d
				s.best = s.index
			}
			state.checked = true
		}

		axis := s.depth % s.dim
		dir := dirUp
		switch state.visited {
		case visitAll:
		case visitLeft:
			if Right(s.index) < n && axisDistance(s.query[axis], node.point[axis]) < s.bestDist {
				dir = dirRight
			}
		case visitRight:
			if Left(s.index) < n && axisDistance(s.query[axis], node.point[axis]) < s.bestDist {
				dir = dirLeft
			}
		default:
			panic("kdtree: backtracking through a level without visited children")
		}

		switch dir {
		case dirUp:
			if s.depth == 0 {
				return true
			}
			parent := Parent(s.index)
			s.depth--
			ps := &s.levels[s.depth]
			switch ps.visited {
			case visitLeft, visitRight:
				ps.visited = visitAll
			default:
				if Left(parent) == s.index {
					ps.visited = visitLeft
				} else {
					ps.visited = visitRight
				}
			}
			s.index = parent
		case dirLeft:
			s.depth++
			s.levels[s.depth].visited = visitNone
			s.index = Left(s.index)
			return false
		case dirRight:
			s.depth++
			s.levels[s.depth].visited = visitNone
			s.index = Right(s.index)
			return false
		}
	}
}
