package quadtree

import "strconv"

// HasPosition is implemented by anything the tree can store.
type HasPosition interface {
	Position() Point
}

// Point represents a location in 2D space.
type Point struct {
	X, Y float64
}

// Position returns the point itself.
func (p Point) Position() Point {
	return p
}

// Add returns the vector p+o.
func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }

// Sub returns the vector p-o.
func (p Point) Sub(o Point) Point { return Point{X: p.X - o.X, Y: p.Y - o.Y} }

// Mul returns p scaled by s. The products are rounded before use so the
// compiler cannot fuse them into a later add.
func (p Point) Mul(s float64) Point {
	return Point{X: float64(p.X * s), Y: float64(p.Y * s)}
}

func (p Point) String() string {
	return "[" + strconv.FormatFloat(p.X, 'f', -1, 64) + "," + strconv.FormatFloat(p.Y, 'f', -1, 64) + "]"
}

// Rect is an axis-aligned region anchored at Origin. It covers
// [Origin.X, Origin.X+Size.X) x [Origin.Y, Origin.Y+Size.Y).
type Rect struct {
	Origin Point
	Size   Point
}

// NewRect creates a rectangle with its origin at (x, y).
func NewRect(x, y, w, h float64) Rect {
	return Rect{Origin: Point{X: x, Y: y}, Size: Point{X: w, Y: h}}
}

// Position returns the origin corner of the rectangle.
func (r Rect) Position() Point {
	return r.Origin
}

// Max returns the exclusive far corner.
func (r Rect) Max() Point {
	return Point{X: r.Origin.X + r.Size.X, Y: r.Origin.Y + r.Size.Y}
}

func (r Rect) Area() float64 {
	return r.Size.X * r.Size.Y
}

// Contains reports whether v's position lies inside r. The minimum edges
// are inclusive and the maximum edges exclusive, so adjacent rectangles
// never both contain the same point.
func (r Rect) Contains(v HasPosition) bool {
	p := v.Position()
	return p.X >= r.Origin.X && p.X < r.Origin.X+r.Size.X &&
		p.Y >= r.Origin.Y && p.Y < r.Origin.Y+r.Size.Y
}

// Intersects checks if two rectangles overlap. Touching edges do not count.
func (r Rect) Intersects(o Rect) bool {
	return r.Origin.X < o.Origin.X+o.Size.X &&
		r.Origin.X+r.Size.X > o.Origin.X &&
		r.Origin.Y < o.Origin.Y+o.Size.Y &&
		r.Origin.Y+r.Size.Y > o.Origin.Y
}

func (r Rect) String() string {
	return r.Origin.String() + "-" + r.Max().String()
}

// PointsInside returns the candidates contained in r, keeping their order.
func PointsInside[T HasPosition](r Rect, candidates []T) []T {
	var inside []T
	for _, c := range candidates {
		if r.Contains(c) {
			inside = append(inside, c)
		}
	}
	return inside
}
