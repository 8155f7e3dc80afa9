// Package spatial answers geometric queries over an index column with a
// packed R-tree built once from the decoded bounds of every valid position.
//
// Queries return a Mask with one entry per column position. Polygon queries
// filter in two stages: rectangle candidates from the tree, then the exact
// geometry test on each candidate.
package spatial

import (
	"runtime"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/twpayne/go-geom"
	"golang.org/x/sync/errgroup"

	"github.com/mohammed-shakir/h3-columnar/internal/column"
	"github.com/mohammed-shakir/h3-columnar/internal/geo"
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

const defaultExactChunk = 512

type options struct {
	cacheSize  int
	workers    int
	exactChunk int
}

type Option func(*options)

// WithGeometryCache keeps up to n decoded shapes for the exact stage.
func WithGeometryCache(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithWorkers bounds the goroutines used by the exact stage.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

func withExactChunk(n int) Option {
	return func(o *options) { o.exactChunk = n }
}

// Index is immutable after Build and safe for concurrent queries.
type Index[V h3index.Index] struct {
	col     column.IndexColumn[V]
	tree    *packedTree
	shapes  *lru.Cache[int, h3index.Shape]
	opts    options
	skipped int
}

// Build decodes the bounds of every valid position and bulk loads the tree.
// Positions whose geometry cannot be decoded are left out and never match.
func Build[V h3index.Index](col column.IndexColumn[V], opts ...Option) *Index[V] {
	o := options{workers: runtime.GOMAXPROCS(0), exactChunk: defaultExactChunk}
	for _, opt := range opts {
		opt(&o)
	}

	ix := &Index[V]{col: col, opts: o}
	if o.cacheSize > 0 {
		ix.shapes, _ = lru.New[int, h3index.Shape](o.cacheSize)
	}

	b := newTreeBuilder(col.Len() - col.NullCount())
	for pos, v := range col.Valid() {
		s, err := h3index.ShapeOf(v)
		if err != nil {
			ix.skipped++
			continue
		}
		b.add(s.Bounds, pos)
	}
	ix.tree = b.finish()
	return ix
}

// Len is the length of the source column and of every mask.
func (ix *Index[V]) Len() int { return ix.col.Len() }

// Indexed is the number of positions stored in the tree.
func (ix *Index[V]) Indexed() int { return ix.tree.len() }

// Skipped counts valid positions left out because their geometry did not
// decode.
func (ix *Index[V]) Skipped() int { return ix.skipped }

func (ix *Index[V]) Column() column.IndexColumn[V] { return ix.col }

// IntersectEnvelope marks positions whose bounding rectangle intersects r,
// borders included.
func (ix *Index[V]) IntersectEnvelope(r geo.Rect) Mask {
	m := newMask(ix.col.Len())
	if !r.Valid() {
		return m
	}
	m.set(ix.candidates(r, nil))
	return m
}

// EnvelopesWithinDistance marks positions whose bounding rectangle lies
// within distance of (x, y). Distance is Euclidean in coordinate units,
// measured to the nearest point of the rectangle. There is no exact stage.
func (ix *Index[V]) EnvelopesWithinDistance(x, y, distance float64) Mask {
	m := newMask(ix.col.Len())
	if distance < 0 {
		return m
	}
	var hits []uint32
	ix.tree.search(
		func(r geo.Rect) bool { return r.Distance(x, y) <= distance },
		func(pos int) { hits = append(hits, uint32(pos)) },
	)
	m.set(hits)
	return m
}

// IntersectPolygon marks positions whose exact geometry intersects p.
func (ix *Index[V]) IntersectPolygon(p *geom.Polygon) Mask {
	m := newMask(ix.col.Len())
	ix.intersectInto(m, p)
	return m
}

// IntersectMultiPolygon is the union of IntersectPolygon over the member
// polygons. A position matched by one member is not tested again.
func (ix *Index[V]) IntersectMultiPolygon(mp *geom.MultiPolygon) Mask {
	m := newMask(ix.col.Len())
	if mp == nil {
		return m
	}
	for i := range mp.NumPolygons() {
		ix.intersectInto(m, mp.Polygon(i))
	}
	return m
}

func (ix *Index[V]) intersectInto(m Mask, p *geom.Polygon) {
	if p == nil || p.Empty() {
		return
	}
	r, ok := geo.FromBounds(p.Bounds())
	if !ok {
		return
	}
	cands := ix.candidates(r, func(pos int) bool { return !m.bits.Contains(uint32(pos)) })
	m.set(ix.exact(cands, p))
}

func (ix *Index[V]) candidates(r geo.Rect, keep func(int) bool) []uint32 {
	var out []uint32
	ix.tree.search(r.Intersects, func(pos int) {
		if keep == nil || keep(pos) {
			out = append(out, uint32(pos))
		}
	})
	return out
}

// exact runs the exact test over cands, split in chunks across workers.
// Matches keep candidate order.
func (ix *Index[V]) exact(cands []uint32, p *geom.Polygon) []uint32 {
	chunk := max(ix.opts.exactChunk, 1)
	if len(cands) <= chunk || ix.opts.workers <= 1 {
		return ix.exactChunk(cands, p)
	}

	parts := make([][]uint32, (len(cands)+chunk-1)/chunk)
	var g errgroup.Group
	g.SetLimit(ix.opts.workers)
	for i := range parts {
		lo := i * chunk
		hi := min(lo+chunk, len(cands))
		g.Go(func() error {
			parts[i] = ix.exactChunk(cands[lo:hi], p)
			return nil
		})
	}
	_ = g.Wait()

	var out []uint32
	for _, part := range parts {
		out = append(out, part...)
	}
	return out
}

func (ix *Index[V]) exactChunk(cands []uint32, p *geom.Polygon) []uint32 {
	var out []uint32
	for _, pos := range cands {
		s, ok := ix.shape(int(pos))
		if ok && s.IntersectsPolygon(p) {
			out = append(out, pos)
		}
	}
	return out
}

func (ix *Index[V]) shape(pos int) (h3index.Shape, bool) {
	if ix.shapes != nil {
		if s, ok := ix.shapes.Get(pos); ok {
			return s, true
		}
	}
	v, ok := ix.col.Get(pos)
	if !ok {
		return h3index.Shape{}, false
	}
	s, err := h3index.ShapeOf(v)
	if err != nil {
		return h3index.Shape{}, false
	}
	if ix.shapes != nil {
		ix.shapes.Add(pos, s)
	}
	return s, true
}
