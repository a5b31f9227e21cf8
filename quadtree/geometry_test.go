package quadtree

import "testing"

func TestRectContains(t *testing.T) {
	r := NewRect(400, 200, 400, 200)
	tests := []struct {
		p    Point
		want bool
	}{
		{Point{640.0831, 292.49387}, true},
		{Point{400, 200}, true},
		{Point{799.999, 399.999}, true},
		{Point{800, 300}, false},
		{Point{500, 400}, false},
		{Point{399.999, 300}, false},
		{Point{500, 199.999}, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.p); got != tt.want {
			t.Errorf("%v.Contains(%v) = %v, want %v", r, tt.p, got, tt.want)
		}
	}
}

func TestRectContainsRect(t *testing.T) {
	outer := NewRect(0, 0, 10, 10)
	if !outer.Contains(NewRect(5, 5, 100, 100)) {
		t.Error("a rectangle should be contained by its origin corner")
	}
	if outer.Contains(NewRect(10, 5, 1, 1)) {
		t.Error("origin on the exclusive edge should not be contained")
	}
}

func TestRectArea(t *testing.T) {
	if got := NewRect(3, 4, 1200, 700).Area(); got != 840000 {
		t.Errorf("Area = %v, want 840000", got)
	}
	if got := NewRect(0, 0, 0, 5).Area(); got != 0 {
		t.Errorf("Area = %v, want 0", got)
	}
}

func TestRectIntersects(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	tests := []struct {
		b    Rect
		want bool
	}{
		{NewRect(5, 5, 10, 10), true},
		{NewRect(2, 2, 1, 1), true},
		{NewRect(-5, -5, 30, 30), true},
		{NewRect(10, 0, 5, 5), false},
		{NewRect(0, -5, 5, 5), false},
		{NewRect(20, 20, 1, 1), false},
	}
	for _, tt := range tests {
		if got := a.Intersects(tt.b); got != tt.want {
			t.Errorf("%v.Intersects(%v) = %v, want %v", a, tt.b, got, tt.want)
		}
		if got := tt.b.Intersects(a); got != tt.want {
			t.Errorf("%v.Intersects(%v) = %v, want %v", tt.b, a, got, tt.want)
		}
	}
}

func TestPointsInside(t *testing.T) {
	r := NewRect(0, 0, 50, 50)
	in := []Point{{60, 10}, {10, 10}, {50, 0}, {0, 0}, {49, 49}}
	got := PointsInside(r, in)
	want := []Point{{10, 10}, {0, 0}, {49, 49}}
	if len(got) != len(want) {
		t.Fatalf("PointsInside = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PointsInside[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if got := PointsInside[Point](r, nil); len(got) != 0 {
		t.Errorf("PointsInside(nil) = %v", got)
	}
}

func TestStrings(t *testing.T) {
	if got := (Point{1.5, -2}).String(); got != "[1.5,-2]" {
		t.Errorf("Point.String = %q", got)
	}
	if got := NewRect(0, 0, 100, 50).String(); got != "[0,0]-[100,50]" {
		t.Errorf("Rect.String = %q", got)
	}
}
