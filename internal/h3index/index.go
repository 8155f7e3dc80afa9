// Package h3index defines the three H3 index kinds handled by the columnar
// layer and the geometry decoding each of them needs for spatial queries.
//
// Cell, DirectedEdge and Vertex are plain uint64 bit patterns. A value only
// means something after IsValid has accepted it; columns rely on that and
// reinterpret stored bits without checking again.
package h3index

import (
	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/h3-columnar/internal/geo"
)

type Kind uint8

const (
	KindCell Kind = iota + 1
	KindDirectedEdge
	KindVertex
)

func (k Kind) String() string {
	switch k {
	case KindCell:
		return "cell"
	case KindDirectedEdge:
		return "directed_edge"
	case KindVertex:
		return "vertex"
	default:
		return "unknown"
	}
}

// Index is the closed set of index kinds. Every member has uint64 as its
// underlying type, so V(raw) and uint64(v) are plain conversions.
type Index interface {
	Cell | DirectedEdge | Vertex

	IsValid() bool
	Resolution() int
	String() string

	// Bounds is the bounding rectangle of the boundary geometry in degrees.
	Bounds() (geo.Rect, error)
	// Geometry decodes the exact geometry: a polygon for cells, a line string
	// for edges and a point for vertices.
	Geometry(degrees bool) (geom.T, error)
	// IntersectsPolygon is the exact test against a polygon in degrees.
	IntersectsPolygon(p *geom.Polygon) (bool, error)
}

func KindOf[V Index]() Kind {
	var v V
	switch any(v).(type) {
	case Cell:
		return KindCell
	case DirectedEdge:
		return KindDirectedEdge
	default:
		return KindVertex
	}
}

// Valid reports whether raw decodes to a structurally valid V.
func Valid[V Index](raw uint64) bool {
	return V(raw).IsValid()
}
