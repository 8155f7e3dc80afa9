package column

import (
	"github.com/bits-and-blooms/bitset"
)

// Validity is an immutable null bitmap: bit set means present. A nil
// *Validity means every position is present, and all methods accept a nil
// receiver.
//
// Slices share the underlying bitset and only move the window.
type Validity struct {
	bits   *bitset.BitSet
	offset int
	length int
}

// NewValidity builds a bitmap from per-position flags. It returns nil when
// every flag is true.
func NewValidity(valid []bool) *Validity {
	var b validityBuilder
	b.grow(len(valid))
	for _, ok := range valid {
		b.append(ok)
	}
	return b.finish()
}

// ValidityFromWords wraps packed little-endian words holding n bits.
func ValidityFromWords(words []uint64, n int) *Validity {
	bits := bitset.From(words)
	v := &Validity{bits: bits, length: n}
	if v.NullCount() == 0 {
		return nil
	}
	return v
}

func (v *Validity) IsValid(i int) bool {
	if v == nil {
		return true
	}
	return v.bits.Test(uint(v.offset + i))
}

func (v *Validity) Len() int {
	if v == nil {
		return 0
	}
	return v.length
}

func (v *Validity) NullCount() int {
	if v == nil {
		return 0
	}
	if v.offset == 0 && uint(v.length) == v.bits.Len() {
		return v.length - int(v.bits.Count())
	}
	nulls := 0
	for i := range v.length {
		if !v.bits.Test(uint(v.offset + i)) {
			nulls++
		}
	}
	return nulls
}

// Slice returns a view over [offset, offset+length).
func (v *Validity) Slice(offset, length int) *Validity {
	if v == nil {
		return nil
	}
	if offset < 0 || length < 0 || offset+length > v.length {
		panic("column: validity slice out of range")
	}
	return &Validity{bits: v.bits, offset: v.offset + offset, length: length}
}

// Words returns the bitmap packed from position 0, suitable for encoding.
func (v *Validity) Words() []uint64 {
	if v == nil {
		return nil
	}
	out := make([]uint64, (v.length+63)/64)
	for i := range v.length {
		if v.bits.Test(uint(v.offset + i)) {
			out[i/64] |= 1 << (uint(i) % 64)
		}
	}
	return out
}

type validityBuilder struct {
	bits  *bitset.BitSet
	n     int
	nulls int
}

func (b *validityBuilder) grow(n int) {
	if b.bits == nil {
		b.bits = bitset.New(uint(n))
	}
}

func (b *validityBuilder) append(ok bool) {
	if b.bits == nil {
		b.bits = bitset.New(64)
	}
	if ok {
		b.bits.Set(uint(b.n))
	} else {
		b.nulls++
	}
	b.n++
}

// finish freezes the bitmap; the builder must not be reused.
func (b *validityBuilder) finish() *Validity {
	if b.nulls == 0 {
		return nil
	}
	return &Validity{bits: b.bits, length: b.n}
}
