package spatial

import (
	"math"
	"testing"

	"github.com/twpayne/go-geom"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/h3-columnar/internal/column"
	"github.com/mohammed-shakir/h3-columnar/internal/geo"
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

func cellAt(t *testing.T, lat, lng float64, res int) h3index.Cell {
	t.Helper()
	c, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lng}, res)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	return h3index.CellFromH3(c)
}

// two res 7 cells far apart plus a null in the middle
func testColumn(t *testing.T) column.IndexColumn[h3index.Cell] {
	t.Helper()
	a := cellAt(t, 45.5, 45.5, 7)
	b := cellAt(t, -60.5, -60.5, 7)
	return column.FromRawTolerant[h3index.Cell]([]uint64{uint64(a), 0, uint64(b)}, []bool{true, false, true})
}

func TestIntersectPolygon(t *testing.T) {
	ix := Build(testColumn(t))
	if ix.Indexed() != 2 || ix.Len() != 3 {
		t.Fatalf("indexed=%d len=%d", ix.Indexed(), ix.Len())
	}

	poly := geo.NewRect(40, 40, 49, 50).Polygon()
	m := ix.IntersectPolygon(poly)
	want := []bool{true, false, false}
	got := m.Bools()
	if len(got) != len(want) {
		t.Fatalf("mask len=%d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mask=%v want %v", got, want)
		}
	}
}

func TestIntersectMultiPolygon(t *testing.T) {
	ix := Build(testColumn(t))

	mp := geom.NewMultiPolygon(geom.XY)
	if err := mp.Push(geo.NewRect(40, 40, 49, 50).Polygon()); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := mp.Push(geo.NewRect(-62, -62, -59, -59).Polygon()); err != nil {
		t.Fatalf("push: %v", err)
	}
	// overlaps the first member
	if err := mp.Push(geo.NewRect(44, 44, 47, 47).Polygon()); err != nil {
		t.Fatalf("push: %v", err)
	}

	m := ix.IntersectMultiPolygon(mp)
	if m.Count() != 2 || !m.Get(0) || m.Get(1) || !m.Get(2) {
		t.Fatalf("positions=%v", m.Positions())
	}

	one := ix.IntersectPolygon(mp.Polygon(0))
	two := ix.IntersectPolygon(mp.Polygon(1))
	if u := one.Or(two); u.Count() != m.Count() {
		t.Fatalf("union of members=%v multipolygon=%v", u.Positions(), m.Positions())
	}
}

func TestEnvelopesWithinDistance(t *testing.T) {
	ix := Build(testColumn(t))

	m := ix.EnvelopesWithinDistance(-60, -60, 2.0)
	if m.Len() != 3 || m.Count() != 1 || !m.Get(2) {
		t.Fatalf("positions=%v", m.Positions())
	}
	if ix.EnvelopesWithinDistance(-60, -60, -1).Count() != 0 {
		t.Fatalf("negative distance must match nothing")
	}
	if ix.EnvelopesWithinDistance(0, 0, 500).Count() != 2 {
		t.Fatalf("large distance must match every indexed position")
	}
}

func TestIntersectEnvelope_MonotonicAndIdempotent(t *testing.T) {
	ix := Build(testColumn(t))

	small := geo.NewRect(45, 45, 46, 46)
	large := geo.NewRect(-70, -70, 50, 50)

	s1 := ix.IntersectEnvelope(small)
	s2 := ix.IntersectEnvelope(small)
	if s1.Count() != s2.Count() || s1.Count() != 1 {
		t.Fatalf("envelope query not idempotent: %v vs %v", s1.Positions(), s2.Positions())
	}
	l := ix.IntersectEnvelope(large)
	for _, p := range s1.Positions() {
		if !l.Get(p) {
			t.Fatalf("position %d matched small rect but not enclosing rect", p)
		}
	}
	if l.Get(1) {
		t.Fatalf("null position must never match")
	}
}

func TestEmptyColumn(t *testing.T) {
	ix := Build(column.IndexColumn[h3index.Cell]{})
	if m := ix.IntersectEnvelope(geo.NewRect(-180, -90, 180, 90)); m.Len() != 0 || m.Count() != 0 {
		t.Fatalf("empty column mask len=%d count=%d", m.Len(), m.Count())
	}
	if m := ix.IntersectPolygon(geo.NewRect(0, 0, 1, 1).Polygon()); m.Len() != 0 {
		t.Fatalf("empty column polygon mask len=%d", m.Len())
	}
}

func TestParallelExactStageWithCache(t *testing.T) {
	center := cellAt(t, 59.33, 18.07, 9)
	disk, err := center.H3().GridDisk(6)
	if err != nil {
		t.Fatalf("GridDisk: %v", err)
	}
	cells := make([]h3index.Cell, len(disk))
	for i, c := range disk {
		cells[i] = h3index.CellFromH3(c)
	}
	col, err := column.FromIndexes(cells)
	if err != nil {
		t.Fatalf("FromIndexes: %v", err)
	}

	lat, lng, _ := center.LatLng()
	poly := geo.NewRect(lng-0.01, lat-0.005, lng+0.01, lat+0.005).Polygon()

	serial := Build(col, WithWorkers(1)).IntersectPolygon(poly)
	cached := Build(col, WithWorkers(4), WithGeometryCache(16), withExactChunk(8))
	parallel := cached.IntersectPolygon(poly)
	again := cached.IntersectPolygon(poly)

	if serial.Count() == 0 {
		t.Fatalf("expected matches around the center cell")
	}
	for i, c := range cells {
		if c == center && !serial.Get(i) {
			t.Fatalf("center cell must match")
		}
	}
	for i := range col.Len() {
		if serial.Get(i) != parallel.Get(i) || parallel.Get(i) != again.Get(i) {
			t.Fatalf("position %d: serial=%v parallel=%v again=%v", i, serial.Get(i), parallel.Get(i), again.Get(i))
		}
	}
}

func TestEdgeIndex_ExactStageFollowsTheLine(t *testing.T) {
	c := cellAt(t, 59.33, 18.07, 7)
	hs, err := c.H3().DirectedEdges()
	if err != nil {
		t.Fatalf("DirectedEdges: %v", err)
	}
	edges := make([]h3index.DirectedEdge, len(hs))
	for i, e := range hs {
		edges[i] = h3index.EdgeFromH3(e)
	}
	col, err := column.FromIndexes(edges)
	if err != nil {
		t.Fatalf("FromIndexes: %v", err)
	}
	ix := Build(col, WithWorkers(2))
	if ix.Indexed() != len(edges) || ix.Skipped() != 0 {
		t.Fatalf("indexed=%d skipped=%d", ix.Indexed(), ix.Skipped())
	}

	// a diagonal edge, so a corner of its envelope lies off the line
	pick := -1
	var x0, y0, x1, y1 float64
	for i, e := range hs {
		b, err := e.Boundary()
		if err != nil || len(b) != 2 {
			continue
		}
		x0, y0, x1, y1 = b[0].Lng, b[0].Lat, b[1].Lng, b[1].Lat
		if math.Abs(x1-x0) > 1e-3 && math.Abs(y1-y0) > 1e-3 {
			pick = i
			break
		}
	}
	if pick < 0 {
		t.Fatalf("no diagonal edge found")
	}

	const eps = 1e-7
	mx, my := (x0+x1)/2, (y0+y1)/2
	onLine := ix.IntersectPolygon(geo.NewRect(mx-eps, my-eps, mx+eps, my+eps).Polygon())
	if onLine.Count() != 1 || !onLine.Get(pick) {
		t.Fatalf("midpoint square matched %v want [%d]", onLine.Positions(), pick)
	}

	corner := geo.NewRect(x0-eps, y1-eps, x0+eps, y1+eps)
	if !ix.IntersectEnvelope(corner).Get(pick) {
		t.Fatalf("envelope corner must be a stage one candidate")
	}
	if ix.IntersectPolygon(corner.Polygon()).Get(pick) {
		t.Fatalf("envelope corner is off the edge line and must fail the exact test")
	}

	near := ix.EnvelopesWithinDistance(mx, my, 0)
	if !near.Get(pick) {
		t.Fatalf("zero distance from the midpoint must match the edge")
	}
}

func TestVertexIndex_PointEnvelopes(t *testing.T) {
	c := cellAt(t, 59.33, 18.07, 7)
	vs, err := h3index.VertexesOf(c)
	if err != nil {
		t.Fatalf("VertexesOf: %v", err)
	}
	col, err := column.FromIndexes(vs)
	if err != nil {
		t.Fatalf("FromIndexes: %v", err)
	}
	ix := Build(col, WithGeometryCache(8))
	if ix.Indexed() != len(vs) {
		t.Fatalf("indexed=%d want %d", ix.Indexed(), len(vs))
	}

	const eps = 1e-7
	for k, v := range vs {
		lat, lng, err := v.LatLng()
		if err != nil {
			t.Fatalf("LatLng: %v", err)
		}
		if m := ix.EnvelopesWithinDistance(lng, lat, eps); m.Count() != 1 || !m.Get(k) {
			t.Fatalf("vertex %d: within distance matched %v", k, m.Positions())
		}
		if m := ix.IntersectPolygon(geo.NewRect(lng-eps, lat-eps, lng+eps, lat+eps).Polygon()); m.Count() != 1 || !m.Get(k) {
			t.Fatalf("vertex %d: polygon matched %v", k, m.Positions())
		}
	}
}

func TestVertexIndex_DistortedOwnerAndUndecodable(t *testing.T) {
	pents, err := h3.Pentagons(1)
	if err != nil || len(pents) == 0 {
		t.Fatalf("Pentagons: %v", err)
	}
	vs, err := h3index.VertexesOf(h3index.CellFromH3(pents[0]))
	if err != nil {
		t.Fatalf("VertexesOf: %v", err)
	}
	col, err := column.FromIndexes(vs)
	if err != nil {
		t.Fatalf("FromIndexes: %v", err)
	}
	ix := Build(col)
	if ix.Indexed() != len(vs) || ix.Skipped() != 0 {
		t.Fatalf("distorted pentagon vertexes: indexed=%d skipped=%d", ix.Indexed(), ix.Skipped())
	}
	world := geo.NewRect(-180, -90, 180, 90)
	if n := ix.IntersectPolygon(world.Polygon()).Count(); n != len(vs) {
		t.Fatalf("world polygon matched %d want %d", n, len(vs))
	}

	// derived input bypasses validation; an undecodable value is left out
	bad := column.FromDerived([]h3index.Vertex{vs[0], h3index.Vertex(^uint64(0))})
	ix = Build(bad)
	if ix.Len() != 2 || ix.Indexed() != 1 || ix.Skipped() != 1 {
		t.Fatalf("len=%d indexed=%d skipped=%d", ix.Len(), ix.Indexed(), ix.Skipped())
	}
	if m := ix.IntersectEnvelope(world); m.Len() != 2 || !m.Get(0) || m.Get(1) {
		t.Fatalf("undecodable position must never match: %v", m.Positions())
	}
}
