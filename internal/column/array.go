package column

import (
	"iter"
	"slices"

	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

// Array is an immutable sequence of optional non-index values, such as
// resolutions, distances or coordinates.
type Array[T any] struct {
	data     []T
	validity *Validity
}

// NewArray takes ownership of data. validity must be nil or cover len(data).
func NewArray[T any](data []T, validity *Validity) (Array[T], error) {
	if validity != nil && validity.Len() != len(data) {
		return Array[T]{}, &LengthError{Want: len(data), Got: validity.Len()}
	}
	return Array[T]{data: data, validity: validity}, nil
}

func (a Array[T]) Len() int { return len(a.data) }

func (a Array[T]) NullCount() int { return a.validity.NullCount() }

func (a Array[T]) Validity() *Validity { return a.validity }

// Data returns the stored values; null positions hold the zero value. The
// slice is shared and must not be modified.
func (a Array[T]) Data() []T { return slices.Clip(a.data) }

func (a Array[T]) Get(i int) (T, bool) {
	if !a.validity.IsValid(i) {
		var zero T
		return zero, false
	}
	return a.data[i], true
}

func (a Array[T]) Slice(offset, length int) Array[T] {
	if offset < 0 || length < 0 || offset+length > len(a.data) {
		panic("column: slice out of range")
	}
	return Array[T]{data: a.data[offset : offset+length : offset+length], validity: a.validity.Slice(offset, length)}
}

func (a Array[T]) All() iter.Seq2[int, Nullable[T]] {
	return func(yield func(int, Nullable[T]) bool) {
		for i, v := range a.data {
			n := Nullable[T]{Valid: a.validity.IsValid(i)}
			if n.Valid {
				n.Value = v
			}
			if !yield(i, n) {
				return
			}
		}
	}
}

// Map applies f to every valid position. Null inputs, f returning false and
// outputs that are not a valid U all become nulls.
func Map[V, U h3index.Index](c IndexColumn[V], f func(V) (U, bool)) IndexColumn[U] {
	out := make([]uint64, len(c.values))
	var vb validityBuilder
	vb.grow(len(c.values))
	for i, raw := range c.values {
		if !c.validity.IsValid(i) {
			vb.append(false)
			continue
		}
		u, ok := f(V(raw))
		if !ok || !u.IsValid() {
			vb.append(false)
			continue
		}
		out[i] = uint64(u)
		vb.append(true)
	}
	return trusted[U](out, vb.finish())
}

// MapValues is Map for non-index outputs.
func MapValues[V h3index.Index, T any](c IndexColumn[V], f func(V) (T, bool)) Array[T] {
	out := make([]T, len(c.values))
	var vb validityBuilder
	vb.grow(len(c.values))
	for i, raw := range c.values {
		if !c.validity.IsValid(i) {
			vb.append(false)
			continue
		}
		t, ok := f(V(raw))
		if ok {
			out[i] = t
		}
		vb.append(ok)
	}
	return Array[T]{data: out, validity: vb.finish()}
}
