/*
Package quadtree implements a region quadtree over 2D points.

A node is either a leaf holding up to its capacity of points or an internal
node owning exactly four children that partition its bounds. A leaf turns
into an internal node as soon as it reaches capacity, unless all of its
points share one position; internal nodes never merge back.

The tree stores any value implementing HasPosition and never looks at it
beyond its position.

quadtree is not safe for concurrent use. Queries may run concurrently with
each other, but not with Insert.
*/
package quadtree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
)

// DefaultCapacity is the leaf size used when New is given a capacity below 1.
const DefaultCapacity = 4

// QuadTree is one node of the tree. The root is created with New or
// FromPoints; the zero value is not usable.
type QuadTree[T HasPosition] struct {
	bounds   Rect
	capacity int
	// points is only meaningful while children is nil
	points   []T
	children *[4]QuadTree[T]
	pool     *sync.Pool
}

// New creates an empty tree covering bounds.
func New[T HasPosition](bounds Rect, capacity int) *QuadTree[T] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &QuadTree[T]{
		bounds:   bounds,
		capacity: capacity,
		points:   make([]T, 0, capacity),
		pool: &sync.Pool{
			New: func() any {
				s := make([]T, 0, capacity)
				return &s
			},
		},
	}
}

// FromPoints builds a tree from points. Points that cannot be inserted are
// skipped and the tree keeps every other point; the returned error joins
// one error per skipped point and is nil when all of them were inserted.
func FromPoints[T HasPosition](points []T, bounds Rect, capacity int) (*QuadTree[T], error) {
	q := New[T](bounds, capacity)
	var errs []error
	for _, p := range points {
		if err := q.Insert(p); err != nil {
			errs = append(errs, err)
		}
	}
	return q, errors.Join(errs...)
}

func (q *QuadTree[T]) Bounds() Rect  { return q.bounds }
func (q *QuadTree[T]) Capacity() int { return q.capacity }
func (q *QuadTree[T]) IsLeaf() bool  { return q.children == nil }

// Points returns a copy of the values held by a leaf. Internal nodes hold
// none.
func (q *QuadTree[T]) Points() []T {
	if q.children != nil {
		return nil
	}
	return append([]T(nil), q.points...)
}

// Children returns the four quadrants of an internal node, or nil for a leaf.
func (q *QuadTree[T]) Children() []*QuadTree[T] {
	if q.children == nil {
		return nil
	}
	return []*QuadTree[T]{&q.children[0], &q.children[1], &q.children[2], &q.children[3]}
}

// Insert adds p to the tree. It fails with ErrOutOfBounds when p lies
// outside the node's bounds, and leaves the tree unchanged on any error.
//
// A leaf that reaches capacity is subdivided unless all of its points share
// one position, or its bounds are too small to halve. Such a leaf keeps
// growing past capacity and stays a single entry in LeafBounds.
func (q *QuadTree[T]) Insert(p T) error {
	if !q.bounds.Contains(p) {
		return fmt.Errorf("%w: %v outside %v", ErrOutOfBounds, p.Position(), q.bounds)
	}

	if q.children == nil {
		q.points = append(q.points, p)
		if len(q.points) >= q.capacity && q.splittable() {
			q.subdivide()
		}
		return nil
	}

	for i := range q.children {
		if c := &q.children[i]; c.bounds.Contains(p) {
			return c.Insert(p)
		}
	}

	if l := Logger(); l.Enabled(context.Background(), slog.LevelDebug) {
		l.Debug("quadtree: point rejected by every child",
			"point", p.Position().String(),
			"bounds", q.bounds.String(),
			"child0", q.children[0].bounds.String(),
			"child1", q.children[1].bounds.String(),
			"child2", q.children[2].bounds.String(),
			"child3", q.children[3].bounds.String(),
		)
	}
	return fmt.Errorf("%w: %v in %v", ErrNoMatchingChild, p.Position(), q.bounds)
}

// subdivide turns a leaf into an internal node and hands its points to the
// quadrants. Quadrants are numbered like the cartesian plane with y
// growing downwards:
//
//	 _______ _______
//	|       |       |
//	|   1   |   0   |
//	|_______|_______|
//	|       |       |
//	|   2   |   3   |
//	|_______|_______|
//
// The low quadrants end at x+halfW, the same sum that places the high
// quadrants' origin, and the high quadrants are sized to end exactly on the
// parent's far edge, overhanging it by a rounding step at most. A quadrant that receives more than capacity points is
// split again.
func (q *QuadTree[T]) subdivide() {
	x, y := q.bounds.Origin.X, q.bounds.Origin.Y
	halfW := q.bounds.Size.X / 2
	halfH := q.bounds.Size.Y / 2
	midX, midY := x+halfW, y+halfH
	farW := reach(midX, x+q.bounds.Size.X)
	farH := reach(midY, y+q.bounds.Size.Y)

	rects := [4]Rect{
		NewRect(midX, y, farW, halfH),
		NewRect(x, y, halfW, halfH),
		NewRect(x, midY, halfW, farH),
		NewRect(midX, midY, farW, farH),
	}

	var children [4]QuadTree[T]
	placed := 0
	for i, r := range rects {
		children[i] = QuadTree[T]{
			bounds:   r,
			capacity: q.capacity,
			points:   PointsInside(r, q.points),
			pool:     q.pool,
		}
		placed += len(children[i].points)
	}
	if placed != len(q.points) {
		// keep the points rather than lose the ones no quadrant claims
		Logger().Debug("quadtree: quadrants do not partition bounds",
			"bounds", q.bounds.String(), "points", len(q.points), "placed", placed)
		return
	}

	for i := range children {
		if c := &children[i]; len(c.points) > c.capacity && c.splittable() {
			c.subdivide()
		}
	}
	q.children = &children
	q.points = nil
}

// reach returns the size of a quadrant starting at mid whose far edge lies
// at or beyond edge. edge-mid alone can round short when mid is not exact.
func reach(mid, edge float64) float64 {
	s := edge - mid
	for mid+s < edge {
		s = math.Nextafter(s, math.Inf(1))
	}
	return s
}

// splittable reports whether subdividing a leaf can separate its points:
// the bounds must still have room for a midpoint on both axes and the
// points must not all sit at the same position.
func (q *QuadTree[T]) splittable() bool {
	b := q.bounds
	midX, midY := b.Origin.X+b.Size.X/2, b.Origin.Y+b.Size.Y/2
	if !(midX > b.Origin.X && midX < b.Origin.X+b.Size.X &&
		midY > b.Origin.Y && midY < b.Origin.Y+b.Size.Y) {
		return false
	}
	if len(q.points) == 0 {
		return false
	}
	first := q.points[0].Position()
	for _, p := range q.points[1:] {
		if p.Position() != first {
			return true
		}
	}
	return false
}

// Positions returns the position of every stored point. Leaves report
// their points in insertion order and children are visited in quadrant
// order.
func (q *QuadTree[T]) Positions() []Point {
	return q.appendPositions(nil)
}

func (q *QuadTree[T]) appendPositions(dst []Point) []Point {
	if q.children == nil {
		for _, p := range q.points {
			dst = append(dst, p.Position())
		}
		return dst
	}
	for i := range q.children {
		dst = q.children[i].appendPositions(dst)
	}
	return dst
}

// Objects returns every stored value in the same order as Positions.
func (q *QuadTree[T]) Objects() []T {
	var out []T
	q.Walk(func(n *QuadTree[T]) bool {
		if n.children == nil {
			out = append(out, n.points...)
		}
		return true
	})
	return out
}

// LeafBounds returns the bounds of every leaf holding at least one point.
func (q *QuadTree[T]) LeafBounds() []Rect {
	var out []Rect
	q.Walk(func(n *QuadTree[T]) bool {
		if n.children == nil && len(n.points) > 0 {
			out = append(out, n.bounds)
		}
		return true
	})
	return out
}

// IntersectingLeaves returns the leaves whose boundary l crosses, whether
// or not they hold points. Subtrees whose bounds l misses are skipped
// without descending. The returned nodes belong to q and must not be
// modified.
func (q *QuadTree[T]) IntersectingLeaves(l Line) []*QuadTree[T] {
	if q.children == nil {
		if l.RectIntersect(q.bounds) {
			return []*QuadTree[T]{q}
		}
		return nil
	}
	var res []*QuadTree[T]
	for i := range q.children {
		c := &q.children[i]
		if l.RectIntersect(c.bounds) {
			res = append(res, c.IntersectingLeaves(l)...)
		}
	}
	return res
}

// Query returns all values inside r.
func (q *QuadTree[T]) Query(r Rect) []T {
	if q.pool == nil {
		return q.query(r, nil)
	}
	// Take a pre-allocated slice from the pool and hand back an exact copy.
	bufPtr := q.pool.Get().(*[]T)
	results := q.query(r, (*bufPtr)[:0])

	out := make([]T, len(results))
	copy(out, results)

	clear(results)
	*bufPtr = results[:0]
	q.pool.Put(bufPtr)
	return out
}

func (q *QuadTree[T]) query(r Rect, found []T) []T {
	if !q.bounds.Intersects(r) {
		return found
	}
	if q.children == nil {
		for _, p := range q.points {
			if r.Contains(p) {
				found = append(found, p)
			}
		}
		return found
	}
	for i := range q.children {
		found = q.children[i].query(r, found)
	}
	return found
}

// Walk visits q and its descendants in pre-order. When fn returns false
// the children of that node are skipped.
func (q *QuadTree[T]) Walk(fn func(*QuadTree[T]) bool) {
	if !fn(q) || q.children == nil {
		return
	}
	for i := range q.children {
		q.children[i].Walk(fn)
	}
}

// Len returns the number of stored points.
func (q *QuadTree[T]) Len() int {
	n := 0
	q.Walk(func(c *QuadTree[T]) bool {
		n += len(c.points)
		return true
	})
	return n
}

// Depth returns the number of levels below and including q.
func (q *QuadTree[T]) Depth() int {
	if q.children == nil {
		return 1
	}
	d := 0
	for i := range q.children {
		d = max(d, q.children[i].Depth())
	}
	return d + 1
}
