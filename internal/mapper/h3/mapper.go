// Package h3mapper wraps h3-go as pure functions on single cells and on
// query geometries. Callers hand in validated cells; outputs come straight
// from h3-go and are valid by construction.
package h3mapper

import (
	"errors"
	"fmt"
	"slices"

	"github.com/twpayne/go-geom"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/h3-columnar/internal/geo"
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
	"github.com/mohammed-shakir/h3-columnar/internal/mapper"
)

type Mapper struct{}

var _ mapper.Interface = (*Mapper)(nil)

func New() *Mapper { return &Mapper{} }

func (m *Mapper) CellsForRect(r geo.Rect, res int) ([]h3index.Cell, error) {
	if err := ValidateRes(res); err != nil {
		return nil, err
	}
	if !r.Valid() {
		return nil, errors.New("empty rectangle")
	}
	// v4 wants degrees, lat/lng order
	outer := h3.GeoLoop{
		{Lat: r.MinY, Lng: r.MinX},
		{Lat: r.MinY, Lng: r.MaxX},
		{Lat: r.MaxY, Lng: r.MaxX},
		{Lat: r.MaxY, Lng: r.MinX},
	}
	return polyfillOne(outer, nil, res)
}

// CellsForPolygon returns the sorted unique cells whose centers fall in p
// (x=lng, y=lat degrees, holes honoured).
func (m *Mapper) CellsForPolygon(p *geom.Polygon, res int) ([]h3index.Cell, error) {
	if err := ValidateRes(res); err != nil {
		return nil, err
	}
	if p == nil || p.NumLinearRings() == 0 {
		return nil, errors.New("empty polygon")
	}
	outer := toLoop(p.LinearRing(0))
	if len(outer) < 3 {
		return nil, errors.New("outer ring has < 3 distinct vertices")
	}
	var holes []h3.GeoLoop
	for i := 1; i < p.NumLinearRings(); i++ {
		h := toLoop(p.LinearRing(i))
		if len(h) < 3 {
			return nil, fmt.Errorf("hole %d has < 3 distinct vertices", i-1)
		}
		holes = append(holes, h)
	}
	return polyfillOne(outer, holes, res)
}

func (m *Mapper) CellsForMultiPolygon(mp *geom.MultiPolygon, res int) ([]h3index.Cell, error) {
	if err := ValidateRes(res); err != nil {
		return nil, err
	}
	if mp == nil || mp.NumPolygons() == 0 {
		return nil, errors.New("empty multipolygon")
	}
	seen := make(map[h3index.Cell]struct{})
	var out []h3index.Cell
	for i := range mp.NumPolygons() {
		cells, err := m.CellsForPolygon(mp.Polygon(i), res)
		if err != nil {
			return nil, fmt.Errorf("polygon %d: %w", i, err)
		}
		for _, c := range cells {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

// --- helpers ---

func ValidateRes(res int) error {
	if res < 0 || res > h3index.MaxResolution {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

// toLoop converts a ring in x=lng, y=lat order to an h3.GeoLoop. The
// closing duplicate vertex, if present, is dropped.
func toLoop(ring *geom.LinearRing) h3.GeoLoop {
	flat, stride := ring.FlatCoords(), ring.Stride()
	loop := make(h3.GeoLoop, 0, len(flat)/max(stride, 1))
	for i := 0; stride >= 2 && i+1 < len(flat); i += stride {
		loop = append(loop, h3.LatLng{Lat: flat[i+1], Lng: flat[i]})
	}
	if len(loop) >= 2 {
		last := loop[len(loop)-1]
		first := loop[0]
		if last.Lat == first.Lat && last.Lng == first.Lng {
			loop = loop[:len(loop)-1]
		}
	}
	return loop
}

// polyfillOne computes unique cells and returns them sorted for determinism.
func polyfillOne(outer h3.GeoLoop, holes []h3.GeoLoop, res int) ([]h3index.Cell, error) {
	poly := h3.GeoPolygon{
		GeoLoop: outer,
		Holes:   holes,
	}

	indexes, err := h3.PolygonToCells(poly, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}

	out := make([]h3index.Cell, 0, len(indexes))
	seen := make(map[h3.Cell]struct{}, len(indexes))
	for _, idx := range indexes {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, h3index.CellFromH3(idx))
	}
	slices.Sort(out)
	return out, nil
}
