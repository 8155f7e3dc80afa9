package grid

import (
	"context"

	"github.com/mohammed-shakir/h3-columnar/internal/column"
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

// ResolutionPair is the paired form of ChangeResolution: Before[j] is the
// input cell that produced After[j].
type ResolutionPair struct {
	Before column.IndexColumn[h3index.Cell]
	After  column.IndexColumn[h3index.Cell]
}

// ChangeResolution moves every valid cell to res: finer cells map to their
// single ancestor, coarser cells expand to all descendants. Nulls are
// dropped, so the output length generally differs from the input.
func (e *Engine) ChangeResolution(ctx context.Context, col column.IndexColumn[h3index.Cell], res int) (column.IndexColumn[h3index.Cell], error) {
	pair, err := e.changeResolution(ctx, col, res, false)
	if err != nil {
		return column.IndexColumn[h3index.Cell]{}, err
	}
	return pair.After, nil
}

func (e *Engine) ChangeResolutionPaired(ctx context.Context, col column.IndexColumn[h3index.Cell], res int) (ResolutionPair, error) {
	return e.changeResolution(ctx, col, res, true)
}

type resolutionPart struct {
	before, after []h3index.Cell
}

func (e *Engine) changeResolution(ctx context.Context, col column.IndexColumn[h3index.Cell], res int, paired bool) (ResolutionPair, error) {
	if err := checkRes(res); err != nil {
		return ResolutionPair{}, err
	}
	parts, err := chunked(ctx, e, col.Len(), func(lo, hi int) resolutionPart {
		var p resolutionPart
		for i := lo; i < hi; i++ {
			c, ok := col.Get(i)
			if !ok {
				continue
			}
			out, err := e.moveTo(c, res)
			if err != nil {
				continue
			}
			p.after = append(p.after, out...)
			if paired {
				for range out {
					p.before = append(p.before, c)
				}
			}
		}
		return p
	})
	if err != nil {
		return ResolutionPair{}, err
	}

	var before, after []h3index.Cell
	for _, p := range parts {
		before = append(before, p.before...)
		after = append(after, p.after...)
	}
	pair := ResolutionPair{After: column.FromDerived(after)}
	if paired {
		pair.Before = column.FromDerived(before)
	}
	return pair, nil
}

func (e *Engine) moveTo(c h3index.Cell, res int) ([]h3index.Cell, error) {
	switch cur := c.Resolution(); {
	case cur == res:
		return []h3index.Cell{c}, nil
	case cur > res:
		p, err := e.mapper.ToParent(c, res)
		if err != nil {
			return nil, err
		}
		return []h3index.Cell{p}, nil
	default:
		return e.mapper.ToChildren(c, res)
	}
}
