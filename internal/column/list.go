package column

import (
	"iter"
	"slices"

	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

// Layout is the outer structure of a ragged list: M+1 offsets into a flat
// value sequence plus an outer null bitmap of length M.
//
// Element i covers values[offsets[i]:offsets[i+1]]. A null element always
// covers an empty range, which keeps it distinct from a valid empty element
// only through the bitmap.
type Layout struct {
	offsets  []int64
	validity *Validity
}

// NewLayout checks that offsets start at 0, never decrease and end at
// valuesLen.
func NewLayout(offsets []int64, validity *Validity, valuesLen int) (Layout, error) {
	if len(offsets) == 0 {
		return Layout{}, &OffsetError{Position: 0, Reason: "offsets must hold at least one entry"}
	}
	if offsets[0] != 0 {
		return Layout{}, &OffsetError{Position: 0, Offset: offsets[0], Reason: "first offset must be 0"}
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return Layout{}, &OffsetError{Position: i, Offset: offsets[i], Reason: "offsets must not decrease"}
		}
	}
	last := len(offsets) - 1
	if offsets[last] != int64(valuesLen) {
		return Layout{}, &OffsetError{Position: last, Offset: offsets[last], Reason: "last offset must equal the value count"}
	}
	if validity != nil && validity.Len() != last {
		return Layout{}, &LengthError{Want: last, Got: validity.Len()}
	}
	for i := range last {
		if !validity.IsValid(i) && offsets[i+1] != offsets[i] {
			return Layout{}, &OffsetError{Position: i, Offset: offsets[i+1], Reason: "null element must be empty"}
		}
	}
	return Layout{offsets: offsets, validity: validity}, nil
}

func (l Layout) Len() int {
	if len(l.offsets) == 0 {
		return 0
	}
	return len(l.offsets) - 1
}

func (l Layout) IsNull(i int) bool { return !l.validity.IsValid(i) }

func (l Layout) NullCount() int { return l.validity.NullCount() }

// Range returns the value range of element i.
func (l Layout) Range(i int) (start, end int) {
	return int(l.offsets[i]), int(l.offsets[i+1])
}

// Offsets is shared and must not be modified.
func (l Layout) Offsets() []int64 {
	if len(l.offsets) == 0 {
		return []int64{0}
	}
	return slices.Clip(l.offsets)
}

func (l Layout) Validity() *Validity { return l.validity }

func (l Layout) valuesLen() int {
	if len(l.offsets) == 0 {
		return 0
	}
	return int(l.offsets[len(l.offsets)-1])
}

// List is a ragged list of index columns, stored as one flat column plus a
// Layout.
type List[V h3index.Index] struct {
	layout Layout
	values IndexColumn[V]
}

// NewList wraps an already validated values column.
func NewList[V h3index.Index](offsets []int64, values IndexColumn[V], validity *Validity) (List[V], error) {
	layout, err := NewLayout(offsets, validity, values.Len())
	if err != nil {
		return List[V]{}, err
	}
	return List[V]{layout: layout, values: values}, nil
}

func (l List[V]) Len() int { return l.layout.Len() }

func (l List[V]) IsNull(i int) bool { return l.layout.IsNull(i) }

func (l List[V]) Layout() Layout { return l.layout }

func (l List[V]) Offsets() []int64 { return l.layout.Offsets() }

func (l List[V]) Validity() *Validity { return l.layout.validity }

func (l List[V]) Values() IndexColumn[V] { return l.values }

// At returns element i as a zero-copy sub-column, or false when the element
// is null.
func (l List[V]) At(i int) (IndexColumn[V], bool) {
	if l.layout.IsNull(i) {
		return IndexColumn[V]{}, false
	}
	start, end := l.layout.Range(i)
	return l.values.Slice(start, end-start), true
}

// SubColumns yields one item per outer element. Null elements yield
// Valid == false; valid empty elements yield an empty column.
func (l List[V]) SubColumns() iter.Seq2[int, Nullable[IndexColumn[V]]] {
	return func(yield func(int, Nullable[IndexColumn[V]]) bool) {
		for i := range l.Len() {
			sub, ok := l.At(i)
			if !yield(i, Nullable[IndexColumn[V]]{Value: sub, Valid: ok}) {
				return
			}
		}
	}
}

// Flatten returns the concatenated inner values. Inner nulls are kept. Outer
// nulls contribute nothing, so callers that need them must look at Validity
// first.
func (l List[V]) Flatten() IndexColumn[V] { return l.values }

// ConcatLists joins lists in order, rebasing offsets.
func ConcatLists[V h3index.Index](ls ...List[V]) List[V] {
	outer := 0
	for _, l := range ls {
		outer += l.Len()
	}
	offsets := make([]int64, 1, outer+1)
	var vb validityBuilder
	vb.grow(outer)
	values := make([]IndexColumn[V], 0, len(ls))
	var base int64
	for _, l := range ls {
		for i := range l.Len() {
			offsets = append(offsets, base+l.layout.offsets[i+1])
			vb.append(!l.IsNull(i))
		}
		base += int64(l.values.Len())
		values = append(values, l.values)
	}
	return List[V]{layout: Layout{offsets: offsets, validity: vb.finish()}, values: Concat(values...)}
}

// ValueList is a ragged list of non-index values.
type ValueList[T any] struct {
	layout Layout
	values Array[T]
}

func NewValueList[T any](layout Layout, values Array[T]) (ValueList[T], error) {
	if layout.valuesLen() != values.Len() {
		return ValueList[T]{}, &LengthError{Want: layout.valuesLen(), Got: values.Len()}
	}
	return ValueList[T]{layout: layout, values: values}, nil
}

func (l ValueList[T]) Len() int { return l.layout.Len() }

func (l ValueList[T]) IsNull(i int) bool { return l.layout.IsNull(i) }

func (l ValueList[T]) Layout() Layout { return l.layout }

func (l ValueList[T]) Values() Array[T] { return l.values }

func (l ValueList[T]) At(i int) (Array[T], bool) {
	if l.layout.IsNull(i) {
		return Array[T]{}, false
	}
	start, end := l.layout.Range(i)
	return l.values.Slice(start, end-start), true
}
