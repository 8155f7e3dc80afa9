// Package mapper converts between geometries and H3 cells and walks the
// cell grid one cell at a time.
package mapper

import (
	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/h3-columnar/internal/geo"
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

// Interface is the per-cell grid toolkit the column algorithms are built
// on. Outputs must be valid cells; callers wrap them without validating.
type Interface interface {
	CellsForRect(r geo.Rect, res int) ([]h3index.Cell, error)
	CellsForPolygon(p *geom.Polygon, res int) ([]h3index.Cell, error)

	ToParent(c h3index.Cell, res int) (h3index.Cell, error)
	ToChildren(c h3index.Cell, res int) ([]h3index.Cell, error)
	ChildrenCount(c h3index.Cell, res int) (uint64, error)

	Disk(c h3index.Cell, k int) ([]h3index.Cell, error)
	// DiskDistances appends the disk of c and the distance of each member.
	DiskDistances(c h3index.Cell, k int, cells []h3index.Cell, dists []uint32) ([]h3index.Cell, []uint32, error)

	Compact(cs []h3index.Cell) ([]h3index.Cell, error)
	Uncompact(cs []h3index.Cell, res int) ([]h3index.Cell, error)
}
