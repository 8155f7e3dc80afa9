package spatial

import (
	"math"
	"slices"

	"github.com/mohammed-shakir/h3-columnar/internal/geo"
)

const nodeSize = 16

// treeBuilder collects leaf rectangles. finish sorts them along a Hilbert
// curve and packs the upper levels; the builder is discarded afterwards.
type treeBuilder struct {
	boxes  []geo.Rect
	refs   []int
	bounds geo.Rect
}

func newTreeBuilder(capacity int) *treeBuilder {
	return &treeBuilder{
		boxes:  make([]geo.Rect, 0, capacity),
		refs:   make([]int, 0, capacity),
		bounds: geo.EmptyRect(),
	}
}

func (b *treeBuilder) add(r geo.Rect, pos int) {
	b.boxes = append(b.boxes, r)
	b.refs = append(b.refs, pos)
	b.bounds = b.bounds.Extend(r)
}

// packedTree is an immutable bulk-loaded R-tree. boxes holds the leaves
// first and every upper level after them, root last. For a leaf refs is the
// payload position; for an inner node it is the index of its first child.
type packedTree struct {
	boxes       []geo.Rect
	refs        []int
	levelBounds []int
	numItems    int
}

func (b *treeBuilder) finish() *packedTree {
	n := len(b.boxes)
	if n == 0 {
		return &packedTree{}
	}

	order := make([]int, n)
	keys := make([]uint32, n)
	w, h := b.bounds.Width(), b.bounds.Height()
	for i, r := range b.boxes {
		order[i] = i
		cx, cy := r.Center()
		keys[i] = hilbert(scale(cx-b.bounds.MinX, w), scale(cy-b.bounds.MinY, h))
	}
	slices.SortStableFunc(order, func(x, y int) int {
		switch {
		case keys[x] < keys[y]:
			return -1
		case keys[x] > keys[y]:
			return 1
		}
		return 0
	})

	total := n
	for m := n; m > 1; {
		m = (m + nodeSize - 1) / nodeSize
		total += m
	}
	boxes := make([]geo.Rect, 0, total)
	refs := make([]int, 0, total)
	for _, i := range order {
		boxes = append(boxes, b.boxes[i])
		refs = append(refs, b.refs[i])
	}

	levelBounds := []int{n}
	for start, end := 0, n; end-start > 1; {
		for i := start; i < end; i += nodeSize {
			node := geo.EmptyRect()
			for j := i; j < min(i+nodeSize, end); j++ {
				node = node.Extend(boxes[j])
			}
			boxes = append(boxes, node)
			refs = append(refs, i)
		}
		start, end = end, len(boxes)
		levelBounds = append(levelBounds, end)
	}

	return &packedTree{boxes: boxes, refs: refs, levelBounds: levelBounds, numItems: n}
}

// search visits the payload of every leaf whose rectangle, and every
// ancestor rectangle, satisfies hit.
func (t *packedTree) search(hit func(geo.Rect) bool, visit func(pos int)) {
	if t.numItems == 0 {
		return
	}
	root := len(t.boxes) - 1
	if !hit(t.boxes[root]) {
		return
	}
	top := len(t.levelBounds) - 1
	if top == 0 {
		visit(t.refs[root])
		return
	}

	type frame struct{ node, level int }
	stack := []frame{{root, top}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		first := t.refs[f.node]
		last := min(first+nodeSize, t.levelBounds[f.level-1])
		for c := first; c < last; c++ {
			if !hit(t.boxes[c]) {
				continue
			}
			if f.level == 1 {
				visit(t.refs[c])
			} else {
				stack = append(stack, frame{c, f.level - 1})
			}
		}
	}
}

func (t *packedTree) len() int { return t.numItems }

func scale(v, extent float64) uint32 {
	if extent <= 0 || math.IsNaN(v) {
		return 0
	}
	return uint32(math.Floor(0xFFFF * v / extent))
}

// hilbert maps a 16-bit grid coordinate to its distance along the Hilbert
// curve.
func hilbert(x, y uint32) uint32 {
	a := x ^ y
	b := 0xFFFF ^ a
	c := 0xFFFF ^ (x | y)
	d := x & (y ^ 0xFFFF)

	A := a | (b >> 1)
	B := (a >> 1) ^ a
	C := ((c >> 1) ^ (b & (d >> 1))) ^ c
	D := ((a & (c >> 1)) ^ (d >> 1)) ^ d

	a, b, c, d = A, B, C, D
	A = (a & (a >> 2)) ^ (b & (b >> 2))
	B = (a & (b >> 2)) ^ (b & ((a ^ b) >> 2))
	C ^= (a & (c >> 2)) ^ (b & (d >> 2))
	D ^= (b & (c >> 2)) ^ ((a ^ b) & (d >> 2))

	a, b, c, d = A, B, C, D
	A = (a & (a >> 4)) ^ (b & (b >> 4))
	B = (a & (b >> 4)) ^ (b & ((a ^ b) >> 4))
	C ^= (a & (c >> 4)) ^ (b & (d >> 4))
	D ^= (b & (c >> 4)) ^ ((a ^ b) & (d >> 4))

	a, b, c, d = A, B, C, D
	C ^= (a & (c >> 8)) ^ (b & (d >> 8))
	D ^= (b & (c >> 8)) ^ ((a ^ b) & (d >> 8))

	a = C ^ (C >> 1)
	b = D ^ (D >> 1)

	i0 := x ^ y
	i1 := b | (0xFFFF ^ (i0 | a))

	i0 = (i0 | (i0 << 8)) & 0x00FF00FF
	i0 = (i0 | (i0 << 4)) & 0x0F0F0F0F
	i0 = (i0 | (i0 << 2)) & 0x33333333
	i0 = (i0 | (i0 << 1)) & 0x55555555

	i1 = (i1 | (i1 << 8)) & 0x00FF00FF
	i1 = (i1 | (i1 << 4)) & 0x0F0F0F0F
	i1 = (i1 | (i1 << 2)) & 0x33333333
	i1 = (i1 | (i1 << 1)) & 0x55555555

	return (i1 << 1) | i0
}
