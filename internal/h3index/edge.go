package h3index

import (
	"fmt"
	"strconv"

	"github.com/twpayne/go-geom"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/h3-columnar/internal/geo"
)

type DirectedEdge uint64

func EdgeFromH3(e h3.DirectedEdge) DirectedEdge { return DirectedEdge(e) }

func (e DirectedEdge) H3() h3.DirectedEdge { return h3.DirectedEdge(e) }

func (e DirectedEdge) IsValid() bool {
	return modeOf(uint64(e)) == modeDirectedEdge && h3.DirectedEdge(e).IsValid()
}

func (e DirectedEdge) Resolution() int { return resolutionOf(uint64(e)) }

func (e DirectedEdge) String() string { return strconv.FormatUint(uint64(e), 16) }

func (e DirectedEdge) Origin() (Cell, error) {
	c, err := h3.DirectedEdge(e).Origin()
	if err != nil {
		return 0, fmt.Errorf("edge origin: %w", err)
	}
	return Cell(c), nil
}

func (e DirectedEdge) Destination() (Cell, error) {
	c, err := h3.DirectedEdge(e).Destination()
	if err != nil {
		return 0, fmt.Errorf("edge destination: %w", err)
	}
	return Cell(c), nil
}

func (e DirectedEdge) path(degrees bool) ([]float64, error) {
	b, err := h3.DirectedEdge(e).Boundary()
	if err != nil {
		return nil, geometryErr(uint64(e), KindDirectedEdge, err)
	}
	if len(b) < 2 {
		return nil, geometryErr(uint64(e), KindDirectedEdge, fmt.Errorf("boundary has %d vertices", len(b)))
	}
	flat := make([]float64, 0, 2*len(b))
	for _, ll := range b {
		flat = appendLatLng(flat, ll, degrees)
	}
	return flat, nil
}

func (e DirectedEdge) Bounds() (geo.Rect, error) {
	flat, err := e.path(true)
	if err != nil {
		return geo.Rect{}, err
	}
	r, _ := geo.FromFlat(flat, 2)
	return r, nil
}

func (e DirectedEdge) Geometry(degrees bool) (geom.T, error) {
	flat, err := e.path(degrees)
	if err != nil {
		return nil, err
	}
	return geom.NewLineStringFlat(geom.XY, flat), nil
}

func (e DirectedEdge) IntersectsPolygon(p *geom.Polygon) (bool, error) {
	s, err := e.Shape()
	if err != nil {
		return false, err
	}
	return s.IntersectsPolygon(p), nil
}
