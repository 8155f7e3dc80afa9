package geo

import (
	"math"
	"testing"

	"github.com/twpayne/go-geom"
)

func square(x, y, size float64) *geom.Polygon {
	return NewRect(x, y, x+size, y+size).Polygon()
}

func TestRect_IntersectsAndDistance(t *testing.T) {
	a := NewRect(0, 0, 2, 2)
	b := NewRect(2, 2, 3, 3)
	c := NewRect(2.1, 0, 3, 1)

	if !a.Intersects(b) {
		t.Fatalf("touching rects must intersect")
	}
	if a.Intersects(c) {
		t.Fatalf("disjoint rects must not intersect")
	}
	if d := a.Distance(1, 1); d != 0 {
		t.Fatalf("inside distance=%g want 0", d)
	}
	if d := a.Distance(5, 6); math.Abs(d-5) > 1e-12 {
		t.Fatalf("corner distance=%g want 5", d)
	}
	if !EmptyRect().Extend(a).Contains(a) {
		t.Fatalf("extending the empty rect must yield the other rect")
	}
	if EmptyRect().Valid() {
		t.Fatalf("empty rect must not be valid")
	}
}

func TestPointInPolygon_HolesAndBoundary(t *testing.T) {
	withHole := geom.NewPolygonFlat(geom.XY, []float64{
		0, 0, 10, 0, 10, 10, 0, 10, 0, 0,
		4, 4, 6, 4, 6, 6, 4, 6, 4, 4,
	}, []int{10, 20})

	cases := []struct {
		name string
		x, y float64
		want bool
	}{
		{"interior", 1, 1, true},
		{"in hole", 5, 5, false},
		{"on hole edge", 4, 5, true},
		{"on outer edge", 0, 5, true},
		{"outside", 11, 5, false},
	}
	for _, tc := range cases {
		if got := PointInPolygon(tc.x, tc.y, withHole); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestPolygonsIntersect(t *testing.T) {
	big := square(0, 0, 10)

	if !PolygonsIntersect(big, square(9, 9, 5)) {
		t.Fatalf("overlapping squares must intersect")
	}
	if !PolygonsIntersect(big, square(2, 2, 1)) {
		t.Fatalf("contained square must intersect")
	}
	if !PolygonsIntersect(square(2, 2, 1), big) {
		t.Fatalf("containing square must intersect")
	}
	if PolygonsIntersect(big, square(20, 20, 1)) {
		t.Fatalf("far square must not intersect")
	}

	withHole := geom.NewPolygonFlat(geom.XY, []float64{
		0, 0, 10, 0, 10, 10, 0, 10, 0, 0,
		3, 3, 7, 3, 7, 7, 3, 7, 3, 3,
	}, []int{10, 20})
	if PolygonsIntersect(withHole, square(4, 4, 1)) {
		t.Fatalf("square inside the hole must not intersect")
	}
}

func TestLineStringIntersectsPolygon(t *testing.T) {
	p := square(0, 0, 10)
	crossing := []float64{-5, 5, 15, 5}
	outside := []float64{-5, -5, -1, -1}
	inside := []float64{1, 1, 2, 2}

	if !LineStringIntersectsPolygon(crossing, 2, p) {
		t.Fatalf("crossing line must intersect")
	}
	if LineStringIntersectsPolygon(outside, 2, p) {
		t.Fatalf("outside line must not intersect")
	}
	if !LineStringIntersectsPolygon(inside, 2, p) {
		t.Fatalf("inside line must intersect")
	}
}

func TestPredicates_TouchingAndOpenRings(t *testing.T) {
	p := square(0, 0, 10)

	cases := []struct {
		name string
		path []float64
		want bool
	}{
		{"along an edge", []float64{2, 0, 8, 0}, true},
		{"touches a corner", []float64{10, 10, 12, 14}, true},
		{"ends on an edge", []float64{-3, 5, 0, 5}, true},
		{"parallel outside", []float64{2, -0.5, 8, -0.5}, false},
	}
	for _, tc := range cases {
		if got := LineStringIntersectsPolygon(tc.path, 2, p); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}

	open := geom.NewPolygonFlat(geom.XY, []float64{0, 0, 4, 0, 4, 4, 0, 4}, []int{8})
	if !PointInPolygon(2, 2, open) || PointInPolygon(5, 5, open) {
		t.Fatalf("open ring must be treated as closed")
	}
	if !PointInPolygon(0, 2, open) {
		t.Fatalf("point on the implicit closing edge must be on the boundary")
	}
	if !PolygonsIntersect(square(10, 0, 5), p) {
		t.Fatalf("squares sharing an edge must intersect")
	}
}

func TestParseAreaGeoJSON(t *testing.T) {
	mp, err := ParseAreaGeoJSON([]byte(`{"type":"Polygon","coordinates":[[[18.0,59.3],[18.1,59.3],[18.1,59.4],[18.0,59.4],[18.0,59.3]]]}`))
	if err != nil {
		t.Fatalf("polygon: %v", err)
	}
	if mp.NumPolygons() != 1 {
		t.Fatalf("polygons=%d want 1", mp.NumPolygons())
	}

	if _, err := ParseAreaGeoJSON([]byte(`{"type":"Point","coordinates":[1,2]}`)); err == nil {
		t.Fatalf("expected error for point geometry")
	}
	if _, err := ParseAreaGeoJSON([]byte(`{`)); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}
