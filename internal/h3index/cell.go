package h3index

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/twpayne/go-geom"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/h3-columnar/internal/geo"
)

type Cell uint64

// CellFromH3 converts a cell produced by h3-go. Values coming out of h3-go
// primitives are valid by construction.
func CellFromH3(c h3.Cell) Cell { return Cell(c) }

func (c Cell) H3() h3.Cell { return h3.Cell(c) }

func (c Cell) IsValid() bool {
	return modeOf(uint64(c)) == modeCell && h3.Cell(c).IsValid()
}

func (c Cell) Resolution() int { return resolutionOf(uint64(c)) }

func (c Cell) String() string { return strconv.FormatUint(uint64(c), 16) }

func (c Cell) IsPentagon() bool { return h3.Cell(c).IsPentagon() }

// LatLng is the cell centroid in degrees.
func (c Cell) LatLng() (lat, lng float64, err error) {
	ll, err := h3.Cell(c).LatLng()
	if err != nil {
		return 0, 0, geometryErr(uint64(c), KindCell, err)
	}
	return ll.Lat, ll.Lng, nil
}

// ring returns the closed boundary ring as flat x=lng, y=lat coordinates.
func (c Cell) ring(degrees bool) ([]float64, error) {
	b, err := h3.Cell(c).Boundary()
	if err != nil {
		return nil, geometryErr(uint64(c), KindCell, err)
	}
	if len(b) < 3 {
		return nil, geometryErr(uint64(c), KindCell, fmt.Errorf("boundary has %d vertices", len(b)))
	}
	flat := make([]float64, 0, 2*(len(b)+1))
	for _, ll := range b {
		flat = appendLatLng(flat, ll, degrees)
	}
	return append(flat, flat[0], flat[1]), nil
}

func (c Cell) Bounds() (geo.Rect, error) {
	flat, err := c.ring(true)
	if err != nil {
		return geo.Rect{}, err
	}
	r, ok := geo.FromFlat(flat, 2)
	if !ok {
		return geo.Rect{}, geometryErr(uint64(c), KindCell, errors.New("empty bounds"))
	}
	return r, nil
}

func (c Cell) Geometry(degrees bool) (geom.T, error) {
	return c.Polygon(degrees)
}

func (c Cell) Polygon(degrees bool) (*geom.Polygon, error) {
	flat, err := c.ring(degrees)
	if err != nil {
		return nil, err
	}
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}), nil
}

// IntersectsPolygon tests the centroid first; only cells whose centroid
// falls outside p need the polygon/polygon test.
func (c Cell) IntersectsPolygon(p *geom.Polygon) (bool, error) {
	s, err := c.Shape()
	if err != nil {
		return false, err
	}
	return s.IntersectsPolygon(p), nil
}

func appendLatLng(flat []float64, ll h3.LatLng, degrees bool) []float64 {
	if degrees {
		return append(flat, ll.Lng, ll.Lat)
	}
	return append(flat, toRadians(ll.Lng), toRadians(ll.Lat))
}
