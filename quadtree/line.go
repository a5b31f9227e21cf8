package quadtree

// Line is a segment from Origin to End.
type Line struct {
	Origin Point
	End    Point
}

func NewLine(x1, y1, x2, y2 float64) Line {
	return Line{Origin: Point{X: x1, Y: y1}, End: Point{X: x2, Y: y2}}
}

func (l Line) delta() Point {
	return l.End.Sub(l.Origin)
}

// params returns the parametric positions ua (along l) and ub (along o)
// of the crossing of the two supporting lines. Parallel and collinear
// segments divide by zero and produce NaN or Inf.
func (l Line) params(o Line) (ua, ub float64) {
	d1, d2 := l.delta(), o.delta()
	w := l.Origin.Sub(o.Origin)

	// The conversions keep the products from being fused, which would
	// break the symmetry of SegmentIntersect on some architectures.
	denom := float64(d2.Y*d1.X) - float64(d2.X*d1.Y)
	ua = (float64(d2.X*w.Y) - float64(d2.Y*w.X)) / denom
	ub = (float64(d1.X*w.Y) - float64(d1.Y*w.X)) / denom
	return ua, ub
}

// SegmentIntersect returns the point where l and o cross. Collinear
// segments never report an intersection, even when they overlap.
func (l Line) SegmentIntersect(o Line) (Point, bool) {
	ua, ub := l.params(o)
	// NaN fails both comparisons
	if !(ua >= 0 && ua <= 1 && ub >= 0 && ub <= 1) {
		return Point{}, false
	}
	// Evaluate on the same segment regardless of argument order so the
	// result is symmetric down to the last bit.
	if lessLine(o, l) {
		return o.Origin.Add(o.delta().Mul(ub)), true
	}
	return l.Origin.Add(l.delta().Mul(ua)), true
}

func lessLine(a, b Line) bool {
	ka := [4]float64{a.Origin.X, a.Origin.Y, a.End.X, a.End.Y}
	kb := [4]float64{b.Origin.X, b.Origin.Y, b.End.X, b.End.Y}
	for i := range ka {
		if ka[i] != kb[i] {
			return ka[i] < kb[i]
		}
	}
	return false
}

// edges returns the left, right, top and bottom edges of r.
func edges(r Rect) [4]Line {
	x, y := r.Origin.X, r.Origin.Y
	mx, my := x+r.Size.X, y+r.Size.Y
	return [4]Line{
		NewLine(x, y, x, my),
		NewLine(mx, y, mx, my),
		NewLine(x, y, mx, y),
		NewLine(x, my, mx, my),
	}
}

// RectIntersect reports whether l crosses any edge of r. A segment lying
// strictly inside r touches no edge and is not reported.
func (l Line) RectIntersect(r Rect) bool {
	for _, e := range edges(r) {
		if _, ok := l.SegmentIntersect(e); ok {
			return true
		}
	}
	return false
}

// RectIntersections returns every edge crossing of l with r, in
// left, right, top, bottom order. A corner hit shows up once per edge.
func (l Line) RectIntersections(r Rect) []Point {
	var hits []Point
	for _, e := range edges(r) {
		if p, ok := l.SegmentIntersect(e); ok {
			hits = append(hits, p)
		}
	}
	return hits
}
