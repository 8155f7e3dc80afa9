package grid

import (
	"context"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/h3-columnar/internal/column"
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

// Parent maps each cell to its ancestor at res. Cells coarser than res
// become null.
func (e *Engine) Parent(col column.IndexColumn[h3index.Cell], res int) (column.IndexColumn[h3index.Cell], error) {
	if err := checkRes(res); err != nil {
		return column.IndexColumn[h3index.Cell]{}, err
	}
	return column.Map(col, func(c h3index.Cell) (h3index.Cell, bool) {
		p, err := e.mapper.ToParent(c, res)
		return p, err == nil
	}), nil
}

// Children lists the descendants at res per position. Cells finer than res
// become null elements.
func (e *Engine) Children(ctx context.Context, col column.IndexColumn[h3index.Cell], res int) (column.List[h3index.Cell], error) {
	if err := checkRes(res); err != nil {
		return column.List[h3index.Cell]{}, err
	}
	parts, err := chunked(ctx, e, col.Len(), func(lo, hi int) column.List[h3index.Cell] {
		b := column.NewDerivedListBuilder[h3index.Cell](hi - lo)
		for i := lo; i < hi; i++ {
			c, ok := col.Get(i)
			if !ok {
				b.PushInvalid()
				continue
			}
			kids, err := e.mapper.ToChildren(c, res)
			if err != nil {
				b.PushInvalid()
				continue
			}
			b.PushValid(kids...)
		}
		l, _ := b.Build()
		return l
	})
	if err != nil {
		return column.List[h3index.Cell]{}, err
	}
	return column.ConcatLists(parts...), nil
}

func (e *Engine) ChildrenCount(col column.IndexColumn[h3index.Cell], res int) column.Array[uint64] {
	return column.MapValues(col, func(c h3index.Cell) (uint64, bool) {
		n, err := e.mapper.ChildrenCount(c, res)
		return n, err == nil
	})
}

// Resolution reads the resolution of every index of any kind.
func Resolution[V h3index.Index](col column.IndexColumn[V]) column.Array[uint8] {
	return column.MapValues(col, func(v V) (uint8, bool) { return uint8(v.Resolution()), true })
}

// Compact replaces complete child sets with their parents. Nulls are
// dropped. All cells must share one resolution.
func (e *Engine) Compact(col column.IndexColumn[h3index.Cell]) (column.IndexColumn[h3index.Cell], error) {
	out, err := e.mapper.Compact(col.Indexes())
	if err != nil {
		return column.IndexColumn[h3index.Cell]{}, fmt.Errorf("%w: compact: %w", ErrArgument, err)
	}
	return column.FromDerived(out), nil
}

// Uncompact expands a compacted set to res. Nulls are dropped.
func (e *Engine) Uncompact(col column.IndexColumn[h3index.Cell], res int) (column.IndexColumn[h3index.Cell], error) {
	out, err := e.mapper.Uncompact(col.Indexes(), res)
	if err != nil {
		return column.IndexColumn[h3index.Cell]{}, fmt.Errorf("%w: uncompact: %w", ErrArgument, err)
	}
	return column.FromDerived(out), nil
}

// PolygonFill lists the cells covering each polygon. A nil or unfillable
// polygon gives a null element.
func (e *Engine) PolygonFill(ctx context.Context, polys []*geom.Polygon, res int) (column.List[h3index.Cell], error) {
	if err := checkRes(res); err != nil {
		return column.List[h3index.Cell]{}, err
	}
	parts, err := chunked(ctx, e, len(polys), func(lo, hi int) column.List[h3index.Cell] {
		b := column.NewDerivedListBuilder[h3index.Cell](hi - lo)
		for _, p := range polys[lo:hi] {
			if p == nil {
				b.PushInvalid()
				continue
			}
			cells, err := e.mapper.CellsForPolygon(p, res)
			if err != nil {
				b.PushInvalid()
				continue
			}
			b.PushValid(cells...)
		}
		l, _ := b.Build()
		return l
	})
	if err != nil {
		return column.List[h3index.Cell]{}, err
	}
	return column.ConcatLists(parts...), nil
}

func EdgeOrigin(col column.IndexColumn[h3index.DirectedEdge]) column.IndexColumn[h3index.Cell] {
	return column.Map(col, func(e h3index.DirectedEdge) (h3index.Cell, bool) {
		c, err := e.Origin()
		return c, err == nil
	})
}

func EdgeDestination(col column.IndexColumn[h3index.DirectedEdge]) column.IndexColumn[h3index.Cell] {
	return column.Map(col, func(e h3index.DirectedEdge) (h3index.Cell, bool) {
		c, err := e.Destination()
		return c, err == nil
	})
}

func VertexOwner(col column.IndexColumn[h3index.Vertex]) column.IndexColumn[h3index.Cell] {
	return column.Map(col, func(v h3index.Vertex) (h3index.Cell, bool) { return v.Owner(), true })
}

// Centroids returns the cell centers, in degrees or radians.
func Centroids(col column.IndexColumn[h3index.Cell], degrees bool) (lat, lng column.Array[float64]) {
	conv := func(v float64) float64 {
		if degrees {
			return v
		}
		return v * math.Pi / 180
	}
	lat = column.MapValues(col, func(c h3index.Cell) (float64, bool) {
		la, _, err := c.LatLng()
		return conv(la), err == nil
	})
	lng = column.MapValues(col, func(c h3index.Cell) (float64, bool) {
		_, ln, err := c.LatLng()
		return conv(ln), err == nil
	})
	return lat, lng
}
