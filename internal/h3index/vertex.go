package h3index

import (
	"fmt"
	"strconv"

	"github.com/twpayne/go-geom"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/h3-columnar/internal/geo"
)

// Vertex is a topological cell vertex in H3 vertex mode. Each vertex shared
// by up to three cells has exactly one canonical index, owned by one of them.
type Vertex uint64

// VertexOf returns the canonical index of vertex n of cell c. The owner of
// the result is not necessarily c.
func VertexOf(c Cell, n int) (Vertex, error) {
	if !c.IsValid() {
		return 0, fmt.Errorf("vertex owner %s: %w", c, ErrInvalidKind)
	}
	v, err := h3.CellToVertex(h3.Cell(c), n)
	if err != nil {
		return 0, fmt.Errorf("vertex %d of %s: %w", n, c, err)
	}
	return Vertex(v), nil
}

// VertexesOf returns the canonical vertexes of c, five for pentagons.
func VertexesOf(c Cell) ([]Vertex, error) {
	vs, err := h3.CellToVertexes(h3.Cell(c))
	if err != nil {
		return nil, fmt.Errorf("vertexes of %s: %w", c, err)
	}
	out := make([]Vertex, len(vs))
	for i, v := range vs {
		out[i] = Vertex(v)
	}
	return out, nil
}

func (v Vertex) IsValid() bool {
	return modeOf(uint64(v)) == modeVertex && h3.IsValidVertex(h3.Cell(v))
}

// Owner is the cell the canonical index hangs off.
func (v Vertex) Owner() Cell { return Cell(ownerBits(uint64(v))) }

// Number is the vertex number on the owner cell.
func (v Vertex) Number() int { return reservedOf(uint64(v)) }

func (v Vertex) Resolution() int { return resolutionOf(uint64(v)) }

func (v Vertex) String() string { return strconv.FormatUint(uint64(v), 16) }

// LatLng returns the vertex position in degrees.
func (v Vertex) LatLng() (lat, lng float64, err error) {
	ll, err := h3.VertexToLatLng(h3.Cell(v))
	if err != nil {
		return 0, 0, geometryErr(uint64(v), KindVertex, err)
	}
	return ll.Lat, ll.Lng, nil
}

func (v Vertex) Bounds() (geo.Rect, error) {
	lat, lng, err := v.LatLng()
	if err != nil {
		return geo.Rect{}, err
	}
	return geo.Rect{MinX: lng, MinY: lat, MaxX: lng, MaxY: lat}, nil
}

func (v Vertex) Geometry(degrees bool) (geom.T, error) {
	lat, lng, err := v.LatLng()
	if err != nil {
		return nil, err
	}
	if !degrees {
		lat, lng = toRadians(lat), toRadians(lng)
	}
	return geom.NewPointFlat(geom.XY, []float64{lng, lat}), nil
}

func (v Vertex) IntersectsPolygon(p *geom.Polygon) (bool, error) {
	s, err := v.Shape()
	if err != nil {
		return false, err
	}
	return s.IntersectsPolygon(p), nil
}
