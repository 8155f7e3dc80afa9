package h3index

import (
	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/h3-columnar/internal/geo"
)

// Shape is a decoded index geometry in degrees, kept around for repeated
// exact tests. Flat holds x=lng, y=lat pairs: the closed boundary ring of a
// cell, the path of an edge or the single point of a vertex.
type Shape struct {
	Kind   Kind
	Bounds geo.Rect
	Flat   []float64
	// cell centroid
	CX, CY float64
}

func ShapeOf[V Index](v V) (Shape, error) {
	switch x := any(v).(type) {
	case Cell:
		return x.Shape()
	case DirectedEdge:
		return x.Shape()
	default:
		return any(v).(Vertex).Shape()
	}
}

// IntersectsPolygon is the exact test. Cells check the centroid first and
// fall back to polygon/polygon intersection when it lies outside p.
func (s Shape) IntersectsPolygon(p *geom.Polygon) bool {
	switch s.Kind {
	case KindCell:
		if geo.PointInPolygon(s.CX, s.CY, p) {
			return true
		}
		return geo.PolygonsIntersect(geom.NewPolygonFlat(geom.XY, s.Flat, []int{len(s.Flat)}), p)
	case KindDirectedEdge:
		return geo.LineStringIntersectsPolygon(s.Flat, 2, p)
	default:
		return geo.PointInPolygon(s.Flat[0], s.Flat[1], p)
	}
}

func (c Cell) Shape() (Shape, error) {
	lat, lng, err := c.LatLng()
	if err != nil {
		return Shape{}, err
	}
	flat, err := c.ring(true)
	if err != nil {
		return Shape{}, err
	}
	r, _ := geo.FromFlat(flat, 2)
	return Shape{Kind: KindCell, Bounds: r, Flat: flat, CX: lng, CY: lat}, nil
}

func (e DirectedEdge) Shape() (Shape, error) {
	flat, err := e.path(true)
	if err != nil {
		return Shape{}, err
	}
	r, _ := geo.FromFlat(flat, 2)
	return Shape{Kind: KindDirectedEdge, Bounds: r, Flat: flat}, nil
}

func (v Vertex) Shape() (Shape, error) {
	lat, lng, err := v.LatLng()
	if err != nil {
		return Shape{}, err
	}
	return Shape{
		Kind:   KindVertex,
		Bounds: geo.Rect{MinX: lng, MinY: lat, MaxX: lng, MaxY: lat},
		Flat:   []float64{lng, lat},
	}, nil
}
