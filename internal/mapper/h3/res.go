package h3mapper

import (
	"fmt"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

func (m *Mapper) ToParent(c h3index.Cell, parentRes int) (h3index.Cell, error) {
	if err := ValidateRes(parentRes); err != nil {
		return 0, err
	}
	curRes := c.Resolution()
	if parentRes > curRes {
		return 0, fmt.Errorf("parentRes %d must be <= cell resolution %d", parentRes, curRes)
	}
	if parentRes == curRes {
		return c, nil
	}

	// traverse up to the requested parent resolution
	p, err := c.H3().Parent(parentRes)
	if err != nil {
		return 0, fmt.Errorf("h3 parent: %w", err)
	}
	return h3index.CellFromH3(p), nil
}

// ToChildren returns the children in h3-go order.
func (m *Mapper) ToChildren(c h3index.Cell, childRes int) ([]h3index.Cell, error) {
	if err := ValidateRes(childRes); err != nil {
		return nil, err
	}
	curRes := c.Resolution()
	if childRes < curRes {
		return nil, fmt.Errorf("childRes %d must be >= cell resolution %d", childRes, curRes)
	}
	if childRes == curRes {
		return []h3index.Cell{c}, nil
	}

	kids, err := c.H3().Children(childRes)
	if err != nil {
		return nil, fmt.Errorf("h3 children: %w", err)
	}
	return fromH3(kids), nil
}

// ChildrenCount is the number of children at childRes without listing
// them. A pentagon has one pentagon child and five hexagons per level.
func (m *Mapper) ChildrenCount(c h3index.Cell, childRes int) (uint64, error) {
	if err := ValidateRes(childRes); err != nil {
		return 0, err
	}
	curRes := c.Resolution()
	if childRes < curRes {
		return 0, fmt.Errorf("childRes %d must be >= cell resolution %d", childRes, curRes)
	}
	n := uint64(1)
	for range childRes - curRes {
		n *= 7
	}
	if c.IsPentagon() {
		return 1 + 5*(n-1)/6, nil
	}
	return n, nil
}

func (m *Mapper) Disk(c h3index.Cell, k int) ([]h3index.Cell, error) {
	if k < 0 {
		return nil, fmt.Errorf("invalid k %d", k)
	}
	cells, err := c.H3().GridDisk(k)
	if err != nil {
		return nil, fmt.Errorf("h3 grid disk: %w", err)
	}
	return fromH3(cells), nil
}

// DiskDistances appends every cell within k of c to cells, and its grid
// distance to dists.
func (m *Mapper) DiskDistances(c h3index.Cell, k int, cells []h3index.Cell, dists []uint32) ([]h3index.Cell, []uint32, error) {
	if k < 0 {
		return cells, dists, fmt.Errorf("invalid k %d", k)
	}
	rings, err := c.H3().GridDiskDistances(k)
	if err != nil {
		return cells, dists, fmt.Errorf("h3 grid disk distances: %w", err)
	}
	for d, ring := range rings {
		for _, cell := range ring {
			if cell == 0 {
				continue
			}
			cells = append(cells, h3index.CellFromH3(cell))
			dists = append(dists, uint32(d))
		}
	}
	return cells, dists, nil
}

func (m *Mapper) Compact(cs []h3index.Cell) ([]h3index.Cell, error) {
	out, err := h3.CompactCells(toH3(cs))
	if err != nil {
		return nil, fmt.Errorf("h3 compact: %w", err)
	}
	return fromH3(out), nil
}

func (m *Mapper) Uncompact(cs []h3index.Cell, res int) ([]h3index.Cell, error) {
	if err := ValidateRes(res); err != nil {
		return nil, err
	}
	out, err := h3.UncompactCells(toH3(cs), res)
	if err != nil {
		return nil, fmt.Errorf("h3 uncompact: %w", err)
	}
	return fromH3(out), nil
}

func fromH3(cs []h3.Cell) []h3index.Cell {
	out := make([]h3index.Cell, 0, len(cs))
	for _, c := range cs {
		if c == 0 {
			continue
		}
		out = append(out, h3index.CellFromH3(c))
	}
	return out
}

func toH3(cs []h3index.Cell) []h3.Cell {
	out := make([]h3.Cell, len(cs))
	for i, c := range cs {
		out[i] = c.H3()
	}
	return out
}
