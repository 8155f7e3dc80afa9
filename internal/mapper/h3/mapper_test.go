package h3mapper

import (
	"reflect"
	"slices"
	"testing"

	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/h3-columnar/internal/geo"
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

func TestRect_HappyPath_SortedUnique(t *testing.T) {
	m := New()
	r := geo.NewRect(17.95, 59.30, 18.15, 59.40)

	cells, err := m.CellsForRect(r, 8)
	if err != nil {
		t.Fatalf("CellsForRect err: %v", err)
	}
	if len(cells) == 0 {
		t.Fatalf("expected non-empty cells for rect")
	}
	if !slices.IsSorted(cells) {
		t.Fatalf("cells must be sorted")
	}
	if hasDups(cells) {
		t.Fatalf("cells must be de-duplicated")
	}
}

func TestPolygon_SubsetOfRectAndDeterministic(t *testing.T) {
	m := New()
	r := geo.NewRect(17.95, 59.30, 18.15, 59.40)
	poly := geo.NewRect(18.00, 59.32, 18.12, 59.38).Polygon()

	res := 9
	cp, err := m.CellsForPolygon(poly, res)
	if err != nil {
		t.Fatalf("polygon: %v", err)
	}
	cb, err := m.CellsForRect(r, res)
	if err != nil {
		t.Fatalf("rect: %v", err)
	}
	if len(cp) == 0 {
		t.Fatalf("expected non-empty polygon coverage")
	}
	cp2, err := m.CellsForPolygon(poly, res)
	if err != nil {
		t.Fatalf("polygon second call: %v", err)
	}
	if !reflect.DeepEqual(cp, cp2) {
		t.Fatalf("expected identical output for identical input")
	}
	// polygon lies inside the rect
	if len(cp) > len(cb) {
		t.Fatalf("polygon coverage larger than rect coverage (unexpected)")
	}
}

func TestMultiPolygon_UnionOfMembers(t *testing.T) {
	m := New()
	a := geo.NewRect(18.00, 59.32, 18.05, 59.35).Polygon()
	b := geo.NewRect(18.03, 59.33, 18.08, 59.36).Polygon()
	mp := geom.NewMultiPolygon(geom.XY)
	_ = mp.Push(a)
	_ = mp.Push(b)

	all, err := m.CellsForMultiPolygon(mp, 9)
	if err != nil {
		t.Fatalf("multipolygon: %v", err)
	}
	ca, _ := m.CellsForPolygon(a, 9)
	cb, _ := m.CellsForPolygon(b, 9)
	if hasDups(all) {
		t.Fatalf("union must be de-duplicated")
	}
	for _, c := range append(ca, cb...) {
		if _, found := slices.BinarySearch(all, c); !found {
			t.Fatalf("cell %s of a member missing from union", c)
		}
	}
}

func TestBounds_InvalidResolutionAndDegeneratePolygon(t *testing.T) {
	m := New()
	r := geo.NewRect(11, 55, 12, 56)

	if _, err := m.CellsForRect(r, -1); err == nil {
		t.Fatalf("expected error for res=-1")
	}
	if _, err := m.CellsForRect(r, 16); err == nil {
		t.Fatalf("expected error for res=16")
	}

	degenerate := geom.NewPolygonFlat(geom.XY, []float64{11, 55, 12, 56, 11, 55}, []int{6})
	if _, err := m.CellsForPolygon(degenerate, 8); err == nil {
		t.Fatalf("expected error for degenerate polygon")
	}
	if _, err := m.CellsForPolygon(nil, 8); err == nil {
		t.Fatalf("expected error for nil polygon")
	}
}

func hasDups(s []h3index.Cell) bool {
	seen := map[h3index.Cell]struct{}{}
	for _, v := range s {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}
