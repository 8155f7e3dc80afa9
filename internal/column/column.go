// Package column stores batches of H3 indexes as packed uint64 values with
// a null bitmap.
//
// Values are validated once, when a column is created. Reads reinterpret
// the stored bits as the index type directly. Nothing in this package
// re-validates a value that is already inside a column.
package column

import (
	"iter"
	"slices"

	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

// Nullable is one element read from a column.
type Nullable[T any] struct {
	Value T
	Valid bool
}

// IndexColumn is an immutable sequence of optional V values. The zero value
// is an empty column.
type IndexColumn[V h3index.Index] struct {
	values   []uint64
	validity *Validity
}

// trusted is the single place raw bits become a column. Callers guarantee
// every valid position holds a valid V.
func trusted[V h3index.Index](values []uint64, validity *Validity) IndexColumn[V] {
	return IndexColumn[V]{values: values, validity: validity}
}

// FromRaw validates every value and fails on the first one that is not a
// valid V. On error no column is produced.
func FromRaw[V h3index.Index](values []uint64) (IndexColumn[V], error) {
	for i, raw := range values {
		if !h3index.Valid[V](raw) {
			return IndexColumn[V]{}, &ValidationError{Position: i, Raw: raw, Kind: h3index.KindOf[V]()}
		}
	}
	return trusted[V](slices.Clone(values), nil), nil
}

// FromRawWithValidity validates the valid positions only. validity must be
// nil or cover exactly len(values) positions.
func FromRawWithValidity[V h3index.Index](values []uint64, validity *Validity) (IndexColumn[V], error) {
	if validity != nil && validity.Len() != len(values) {
		return IndexColumn[V]{}, &LengthError{Want: len(values), Got: validity.Len()}
	}
	out := slices.Clone(values)
	for i, raw := range out {
		if !validity.IsValid(i) {
			out[i] = 0
			continue
		}
		if !h3index.Valid[V](raw) {
			return IndexColumn[V]{}, &ValidationError{Position: i, Raw: raw, Kind: h3index.KindOf[V]()}
		}
	}
	return trusted[V](out, validity), nil
}

// FromRawTolerant never fails: absent and invalid inputs become nulls.
// present == nil means every value is present; positions past len(present)
// are absent.
func FromRawTolerant[V h3index.Index](values []uint64, present []bool) IndexColumn[V] {
	out := make([]uint64, len(values))
	var vb validityBuilder
	vb.grow(len(values))
	for i, raw := range values {
		ok := present == nil || (i < len(present) && present[i])
		if ok && h3index.Valid[V](raw) {
			out[i] = raw
			vb.append(true)
			continue
		}
		vb.append(false)
	}
	return trusted[V](out, vb.finish())
}

// FromIndexes is FromRaw for typed input.
func FromIndexes[V h3index.Index](idx []V) (IndexColumn[V], error) {
	raw := make([]uint64, len(idx))
	for i, v := range idx {
		if !v.IsValid() {
			return IndexColumn[V]{}, &ValidationError{Position: i, Raw: uint64(v), Kind: h3index.KindOf[V]()}
		}
		raw[i] = uint64(v)
	}
	return trusted[V](raw, nil), nil
}

// FromDerived wraps values produced by h3 primitives from indexes that were
// already validated. It does not validate.
func FromDerived[V h3index.Index](idx []V) IndexColumn[V] {
	raw := make([]uint64, len(idx))
	for i, v := range idx {
		raw[i] = uint64(v)
	}
	return trusted[V](raw, nil)
}

func (c IndexColumn[V]) Len() int { return len(c.values) }

func (c IndexColumn[V]) NullCount() int { return c.validity.NullCount() }

// Validity returns the null bitmap, nil when every position is valid.
func (c IndexColumn[V]) Validity() *Validity { return c.validity }

// Raw returns the packed values. Null positions hold unspecified bits. The
// slice is shared and must not be modified.
func (c IndexColumn[V]) Raw() []uint64 { return slices.Clip(c.values) }

func (c IndexColumn[V]) IsNull(i int) bool { return !c.validity.IsValid(i) }

// Get returns the value at i, or false for a null position.
func (c IndexColumn[V]) Get(i int) (V, bool) {
	if !c.validity.IsValid(i) {
		return 0, false
	}
	return V(c.values[i]), true
}

// Slice returns a zero-copy view over [offset, offset+length). It panics on
// an out of range window, like slicing.
func (c IndexColumn[V]) Slice(offset, length int) IndexColumn[V] {
	if offset < 0 || length < 0 || offset+length > len(c.values) {
		panic("column: slice out of range")
	}
	return trusted[V](c.values[offset:offset+length:offset+length], c.validity.Slice(offset, length))
}

// All yields every position with its optional value.
func (c IndexColumn[V]) All() iter.Seq2[int, Nullable[V]] {
	return func(yield func(int, Nullable[V]) bool) {
		for i, raw := range c.values {
			n := Nullable[V]{Valid: c.validity.IsValid(i)}
			if n.Valid {
				n.Value = V(raw)
			}
			if !yield(i, n) {
				return
			}
		}
	}
}

// Valid yields the valid positions only.
func (c IndexColumn[V]) Valid() iter.Seq2[int, V] {
	return func(yield func(int, V) bool) {
		for i, raw := range c.values {
			if !c.validity.IsValid(i) {
				continue
			}
			if !yield(i, V(raw)) {
				return
			}
		}
	}
}

// Indexes returns the valid values in position order.
func (c IndexColumn[V]) Indexes() []V {
	out := make([]V, 0, len(c.values)-c.NullCount())
	for _, v := range c.Valid() {
		out = append(out, v)
	}
	return out
}

// Concat joins columns in order.
func Concat[V h3index.Index](cols ...IndexColumn[V]) IndexColumn[V] {
	n, nulls := 0, 0
	for _, c := range cols {
		n += c.Len()
		nulls += c.NullCount()
	}
	values := make([]uint64, 0, n)
	if nulls == 0 {
		for _, c := range cols {
			values = append(values, c.values...)
		}
		return trusted[V](values, nil)
	}
	var vb validityBuilder
	vb.grow(n)
	for _, c := range cols {
		values = append(values, c.values...)
		for i := range c.values {
			vb.append(c.validity.IsValid(i))
		}
	}
	return trusted[V](values, vb.finish())
}
