package geo

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

var ErrUnsupportedGeometry = errors.New("unsupported geometry")

// ParseAreaGeoJSON decodes a GeoJSON Polygon or MultiPolygon. A Polygon is
// returned as a single-member MultiPolygon.
func ParseAreaGeoJSON(data []byte) (*geom.MultiPolygon, error) {
	var g geom.T
	if err := geojson.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	switch t := g.(type) {
	case *geom.Polygon:
		if t.Empty() {
			return nil, errors.New("empty polygon")
		}
		mp := geom.NewMultiPolygon(geom.XY)
		if err := mp.Push(xyPolygon(t)); err != nil {
			return nil, fmt.Errorf("multipolygon push: %w", err)
		}
		return mp, nil
	case *geom.MultiPolygon:
		if t.NumPolygons() == 0 {
			return nil, errors.New("empty multipolygon")
		}
		mp := geom.NewMultiPolygon(geom.XY)
		for i := range t.NumPolygons() {
			if err := mp.Push(xyPolygon(t.Polygon(i))); err != nil {
				return nil, fmt.Errorf("multipolygon push: %w", err)
			}
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedGeometry, g)
	}
}

// xyPolygon drops any z/m ordinates so predicates can assume stride 2.
func xyPolygon(p *geom.Polygon) *geom.Polygon {
	if p.Layout() == geom.XY {
		return p
	}
	stride := p.Stride()
	flat := p.FlatCoords()
	out := make([]float64, 0, len(flat)/stride*2)
	ends := make([]int, 0, len(p.Ends()))
	for i := 0; i+1 < len(flat); i += stride {
		out = append(out, flat[i], flat[i+1])
	}
	for _, e := range p.Ends() {
		ends = append(ends, e/stride*2)
	}
	return geom.NewPolygonFlat(geom.XY, out, ends)
}
