package spatial

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Mask is a boolean query result with one entry per column position.
type Mask struct {
	bits *roaring.Bitmap
	n    int
}

func newMask(n int) Mask { return Mask{bits: roaring.New(), n: n} }

func (m Mask) set(positions []uint32) { m.bits.AddMany(positions) }

func (m Mask) Len() int { return m.n }

func (m Mask) Get(i int) bool {
	if m.bits == nil || i < 0 || i >= m.n {
		return false
	}
	return m.bits.Contains(uint32(i))
}

// Count is the number of true positions.
func (m Mask) Count() int {
	if m.bits == nil {
		return 0
	}
	return int(m.bits.GetCardinality())
}

// Positions returns the true positions in ascending order.
func (m Mask) Positions() []int {
	if m.bits == nil {
		return nil
	}
	arr := m.bits.ToArray()
	out := make([]int, len(arr))
	for i, p := range arr {
		out[i] = int(p)
	}
	return out
}

func (m Mask) Bools() []bool {
	out := make([]bool, m.n)
	if m.bits == nil {
		return out
	}
	it := m.bits.Iterator()
	for it.HasNext() {
		out[it.Next()] = true
	}
	return out
}

// Or returns the union of two masks over the same column.
func (m Mask) Or(o Mask) Mask {
	out := Mask{bits: roaring.New(), n: max(m.n, o.n)}
	if m.bits != nil {
		out.bits.Or(m.bits)
	}
	if o.bits != nil {
		out.bits.Or(o.bits)
	}
	return out
}
