package grid

import (
	"context"
	"fmt"

	"github.com/mohammed-shakir/h3-columnar/internal/column"
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

// DiskDistances pairs each neighbour list with the grid distance of every
// neighbour from its input cell. Both lists share one layout.
type DiskDistances struct {
	Cells     column.List[h3index.Cell]
	Distances column.ValueList[uint32]
}

// GridDisk returns, per input position, every cell within k steps,
// including the input cell itself.
func (e *Engine) GridDisk(ctx context.Context, col column.IndexColumn[h3index.Cell], k int) (column.List[h3index.Cell], error) {
	if err := e.checkK(k); err != nil {
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
			disk, err := e.mapper.Disk(c, k)
			if err != nil {
				b.PushInvalid()
				continue
			}
			b.PushValid(disk...)
		}
		l, _ := b.Build()
		return l
	})
	if err != nil {
		return column.List[h3index.Cell]{}, err
	}
	return column.ConcatLists(parts...), nil
}

func (e *Engine) GridDiskDistances(ctx context.Context, col column.IndexColumn[h3index.Cell], k int) (DiskDistances, error) {
	if err := e.checkK(k); err != nil {
		return DiskDistances{}, err
	}
	return e.diskDistances(ctx, col, 0, k)
}

// GridRingDistances is GridDiskDistances over radius kMax keeping only
// neighbours at distance kMin or more.
func (e *Engine) GridRingDistances(ctx context.Context, col column.IndexColumn[h3index.Cell], kMin, kMax int) (DiskDistances, error) {
	if err := e.checkK(kMax); err != nil {
		return DiskDistances{}, err
	}
	if kMin < 0 || kMin > kMax {
		return DiskDistances{}, fmt.Errorf("%w: ring %d..%d", ErrArgument, kMin, kMax)
	}
	return e.diskDistances(ctx, col, kMin, kMax)
}

type distancePart struct {
	cells column.List[h3index.Cell]
	dists []uint32
}

func (e *Engine) diskDistances(ctx context.Context, col column.IndexColumn[h3index.Cell], kMin, kMax int) (DiskDistances, error) {
	parts, err := chunked(ctx, e, col.Len(), func(lo, hi int) distancePart {
		b := column.NewDerivedListBuilder[h3index.Cell](hi - lo)
		var dists []uint32
		var scratchCells []h3index.Cell
		var scratchDists []uint32
		for i := lo; i < hi; i++ {
			c, ok := col.Get(i)
			if !ok {
				b.PushInvalid()
				continue
			}
			var err error
			scratchCells, scratchDists, err = e.mapper.DiskDistances(c, kMax, scratchCells[:0], scratchDists[:0])
			if err != nil {
				b.PushInvalid()
				continue
			}
			b.PushValidSeq(func(yield func(h3index.Cell) bool) {
				for j, cell := range scratchCells {
					if scratchDists[j] < uint32(kMin) {
						continue
					}
					dists = append(dists, scratchDists[j])
					if !yield(cell) {
						return
					}
				}
			})
		}
		l, _ := b.Build()
		return distancePart{cells: l, dists: dists}
	})
	if err != nil {
		return DiskDistances{}, err
	}

	lists := make([]column.List[h3index.Cell], len(parts))
	var dists []uint32
	for i, p := range parts {
		lists[i] = p.cells
		dists = append(dists, p.dists...)
	}
	cells := column.ConcatLists(lists...)
	arr, err := column.NewArray(dists, nil)
	if err != nil {
		return DiskDistances{}, err
	}
	distances, err := column.NewValueList(cells.Layout(), arr)
	if err != nil {
		return DiskDistances{}, err
	}
	return DiskDistances{Cells: cells, Distances: distances}, nil
}
