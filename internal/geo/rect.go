// Package geo holds the planar rectangle and intersection predicates used by
// the spatial index. Coordinates are x=lng, y=lat.
package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// EmptyRect returns an inverted rectangle that any Extend call replaces.
func EmptyRect() Rect {
	return Rect{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
}

func NewRect(x1, y1, x2, y2 float64) Rect {
	return Rect{
		MinX: math.Min(x1, x2), MinY: math.Min(y1, y2),
		MaxX: math.Max(x1, x2), MaxY: math.Max(y1, y2),
	}
}

// FromBounds converts go-geom bounds; ok is false for empty bounds.
func FromBounds(b *geom.Bounds) (Rect, bool) {
	if b == nil || b.IsEmpty() {
		return Rect{}, false
	}
	return Rect{MinX: b.Min(0), MinY: b.Min(1), MaxX: b.Max(0), MaxY: b.Max(1)}, true
}

// FromFlat computes the bounds of xy flat coordinates with the given stride.
func FromFlat(flat []float64, stride int) (Rect, bool) {
	if stride < 2 || len(flat) < stride {
		return Rect{}, false
	}
	r := EmptyRect()
	for i := 0; i+1 < len(flat); i += stride {
		r = r.ExtendPoint(flat[i], flat[i+1])
	}
	return r, r.Valid()
}

func (r Rect) Valid() bool {
	return r.MinX <= r.MaxX && r.MinY <= r.MaxY &&
		!math.IsNaN(r.MinX) && !math.IsNaN(r.MinY) &&
		!math.IsNaN(r.MaxX) && !math.IsNaN(r.MaxY)
}

func (r Rect) Extend(o Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, o.MinX), MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX), MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

func (r Rect) ExtendPoint(x, y float64) Rect {
	return Rect{
		MinX: math.Min(r.MinX, x), MinY: math.Min(r.MinY, y),
		MaxX: math.Max(r.MaxX, x), MaxY: math.Max(r.MaxY, y),
	}
}

// Intersects is inclusive: touching edges count.
func (r Rect) Intersects(o Rect) bool {
	return r.MinX <= o.MaxX && o.MinX <= r.MaxX &&
		r.MinY <= o.MaxY && o.MinY <= r.MaxY
}

func (r Rect) Contains(o Rect) bool {
	return r.MinX <= o.MinX && r.MinY <= o.MinY &&
		r.MaxX >= o.MaxX && r.MaxY >= o.MaxY
}

func (r Rect) ContainsPoint(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Distance returns the euclidean distance from (x, y) to the nearest point of
// the rectangle, 0 when the point lies inside.
func (r Rect) Distance(x, y float64) float64 {
	dx := 0.0
	switch {
	case x < r.MinX:
		dx = r.MinX - x
	case x > r.MaxX:
		dx = x - r.MaxX
	}
	dy := 0.0
	switch {
	case y < r.MinY:
		dy = r.MinY - y
	case y > r.MaxY:
		dy = y - r.MaxY
	}
	return math.Hypot(dx, dy)
}

func (r Rect) Center() (float64, float64) {
	return (r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Polygon renders the rectangle as a closed go-geom polygon.
func (r Rect) Polygon() *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		r.MinX, r.MinY,
		r.MaxX, r.MinY,
		r.MaxX, r.MaxY,
		r.MinX, r.MaxY,
		r.MinX, r.MinY,
	}, []int{10})
}
