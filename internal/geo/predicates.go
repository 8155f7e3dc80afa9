package geo

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/lineintersector"
	"github.com/twpayne/go-geom/xy/location"
)

// Predicates treat boundaries as part of the geometry, so touching shapes
// intersect.

var robust = lineintersector.RobustLineIntersector{}

// PointInPolygon reports whether (x, y) lies inside or on the boundary of p.
// Points strictly inside a hole are outside.
func PointInPolygon(x, y float64, p *geom.Polygon) bool {
	if p == nil || p.Empty() {
		return false
	}
	pt := geom.Coord{x, y}
	flat, layout := p.FlatCoords(), p.Layout()
	start := 0
	for i, end := range p.Ends() {
		loc := xy.LocatePointInRing(layout, pt, closed(flat[start:end], layout.Stride()))
		switch {
		case loc == location.Boundary:
			return true
		case i == 0 && loc == location.Exterior:
			return false
		case i > 0 && loc == location.Interior:
			return false
		}
		start = end
	}
	return true
}

// PolygonsIntersect is the exact polygon/polygon intersection test.
func PolygonsIntersect(a, b *geom.Polygon) bool {
	if a == nil || b == nil || a.Empty() || b.Empty() {
		return false
	}
	ra, _ := FromFlat(a.FlatCoords(), a.Stride())
	rb, _ := FromFlat(b.FlatCoords(), b.Stride())
	if !ra.Intersects(rb) {
		return false
	}
	if ringsCross(a.FlatCoords(), a.Ends(), a.Stride(), b.FlatCoords(), b.Ends(), b.Stride()) {
		return true
	}
	// without crossing edges one shape is entirely inside or outside the other
	af, bf := a.FlatCoords(), b.FlatCoords()
	if PointInPolygon(af[0], af[1], b) {
		return true
	}
	return PointInPolygon(bf[0], bf[1], a)
}

// LineStringIntersectsPolygon tests a path given as flat xy coordinates.
func LineStringIntersectsPolygon(flat []float64, stride int, p *geom.Polygon) bool {
	if p == nil || p.Empty() || len(flat) < stride {
		return false
	}
	rl, _ := FromFlat(flat, stride)
	rp, _ := FromFlat(p.FlatCoords(), p.Stride())
	if !rl.Intersects(rp) {
		return false
	}
	if ringsCross(flat, []int{len(flat)}, stride, p.FlatCoords(), p.Ends(), p.Stride()) {
		return true
	}
	return PointInPolygon(flat[0], flat[1], p)
}

// ringsCross reports whether any segment of a touches any segment of b. Each
// ring or path is delimited by ends, as in go-geom flat layouts.
func ringsCross(af []float64, aEnds []int, aStride int, bf []float64, bEnds []int, bStride int) bool {
	aStart := 0
	for _, aEnd := range aEnds {
		for i := aStart; i+aStride < aEnd; i += aStride {
			a1, a2 := geom.Coord(af[i:i+2]), geom.Coord(af[i+aStride:i+aStride+2])
			bStart := 0
			for _, bEnd := range bEnds {
				for j := bStart; j+bStride < bEnd; j += bStride {
					res := lineintersector.LineIntersectsLine(robust, a1, a2, geom.Coord(bf[j:j+2]), geom.Coord(bf[j+bStride:j+bStride+2]))
					if res.HasIntersection() {
						return true
					}
				}
				bStart = bEnd
			}
		}
		aStart = aEnd
	}
	return false
}

// closed returns ring with its first point repeated at the end when the
// input leaves it open.
func closed(ring []float64, stride int) []float64 {
	n := len(ring)
	if n < 2*stride || (ring[0] == ring[n-stride] && ring[1] == ring[n-stride+1]) {
		return ring
	}
	out := make([]float64, 0, n+stride)
	out = append(out, ring...)
	return append(out, ring[:stride]...)
}
