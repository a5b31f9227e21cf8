package quadtree

import (
	"math"
	"math/rand"
	"testing"
)

func TestSegmentIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Line
		want Point
		ok   bool
	}{
		{"cross", NewLine(0, 0, 10, 10), NewLine(0, 10, 10, 0), Point{5, 5}, true},
		{"cross offset", NewLine(10, 10, 20, 20), NewLine(10, 20, 20, 10), Point{15, 15}, true},
		{"touching ends", NewLine(0, 0, 10, 0), NewLine(10, 0, 10, 10), Point{10, 0}, true},
		{"t junction", NewLine(0, 5, 10, 5), NewLine(5, 0, 5, 5), Point{5, 5}, true},
		{"apart", NewLine(0, 0, 1, 1), NewLine(5, 0, 6, -1), Point{}, false},
		{"parallel", NewLine(0, 0, 10, 0), NewLine(0, 1, 10, 1), Point{}, false},
		{"collinear overlap", NewLine(10, 10, 20, 20), NewLine(10, 10, 20, 20), Point{}, false},
		{"collinear disjoint", NewLine(0, 0, 1, 0), NewLine(2, 0, 3, 0), Point{}, false},
		{"degenerate", NewLine(3, 3, 3, 3), NewLine(0, 0, 10, 10), Point{}, false},
		{"supporting lines cross outside", NewLine(0, 0, 1, 1), NewLine(0, 10, 10, 0), Point{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.SegmentIntersect(tt.b)
			if ok != tt.ok {
				t.Fatalf("SegmentIntersect ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("SegmentIntersect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSegmentIntersectNegative(t *testing.T) {
	a := NewLine(-10, 10, 10, -10)
	b := NewLine(-15, -15, 10, 15)
	got, ok := a.SegmentIntersect(b)
	if !ok {
		t.Fatal("expected an intersection")
	}
	want := Point{-3 / 2.2, 3 / 2.2}
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 {
		t.Errorf("SegmentIntersect = %v, want %v", got, want)
	}
}

func TestSegmentIntersectSymmetric(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	seg := func() Line {
		return NewLine(r.Float64()*10, r.Float64()*10, r.Float64()*10, r.Float64()*10)
	}
	hits := 0
	for i := 0; i < 10000; i++ {
		a, b := seg(), seg()
		p1, ok1 := a.SegmentIntersect(b)
		p2, ok2 := b.SegmentIntersect(a)
		if ok1 != ok2 || p1 != p2 {
			t.Fatalf("%v x %v = (%v, %v), reversed (%v, %v)", a, b, p1, ok1, p2, ok2)
		}
		if ok1 {
			hits++
		}
	}
	if hits == 0 {
		t.Error("no random segment pair intersected")
	}
}

func TestRectIntersect(t *testing.T) {
	r := NewRect(0, 0, 100, 100)
	tests := []struct {
		name string
		l    Line
		want bool
	}{
		{"through", NewLine(-10, 50, 110, 50), true},
		{"diagonal", NewLine(-1, -1, 101, 101), true},
		{"enters right edge", NewLine(50, 50, 150, 50), true},
		{"enters bottom edge", NewLine(50, 50, 50, 150), true},
		{"outside", NewLine(200, 200, 300, 300), false},
		{"outside parallel", NewLine(-10, -5, 110, -5), false},
		{"strictly inside", NewLine(10, 10, 20, 20), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.l.RectIntersect(r); got != tt.want {
				t.Errorf("RectIntersect(%v) = %v, want %v", tt.l, got, tt.want)
			}
		})
	}
}

func TestRectIntersections(t *testing.T) {
	r := NewRect(0, 0, 100, 100)
	got := NewLine(-50, 50, 150, 50).RectIntersections(r)
	want := []Point{{0, 50}, {100, 50}}
	if len(got) != len(want) {
		t.Fatalf("RectIntersections = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hit %d = %v, want %v", i, got[i], want[i])
		}
	}
	if hits := NewLine(200, 200, 300, 300).RectIntersections(r); len(hits) != 0 {
		t.Errorf("expected no hits, got %v", hits)
	}
}
