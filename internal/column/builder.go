package column

import (
	"errors"
	"iter"

	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

var ErrBuilt = errors.New("list builder already built")

// ListBuilder appends outer elements one at a time. It has a single owner
// and is frozen by Build.
type ListBuilder[V h3index.Index] struct {
	offsets  []int64
	values   []uint64
	validity validityBuilder
	derived  bool
	built    bool
}

// NewListBuilder returns a builder that validates all pushed values in
// Build.
func NewListBuilder[V h3index.Index](capacity int) *ListBuilder[V] {
	b := &ListBuilder[V]{offsets: make([]int64, 1, capacity+1)}
	b.validity.grow(capacity)
	return b
}

// NewDerivedListBuilder returns a builder for values produced by h3
// primitives from already validated indexes. Build does not validate.
func NewDerivedListBuilder[V h3index.Index](capacity int) *ListBuilder[V] {
	b := NewListBuilder[V](capacity)
	b.derived = true
	return b
}

// PushValid appends one valid element holding vs. An empty call appends a
// valid empty element.
func (b *ListBuilder[V]) PushValid(vs ...V) {
	b.mustOpen()
	for _, v := range vs {
		b.values = append(b.values, uint64(v))
	}
	b.close(true)
}

// PushValidSeq is PushValid for an iterator.
func (b *ListBuilder[V]) PushValidSeq(seq iter.Seq[V]) {
	b.mustOpen()
	for v := range seq {
		b.values = append(b.values, uint64(v))
	}
	b.close(true)
}

// PushInvalid appends a null element.
func (b *ListBuilder[V]) PushInvalid() {
	b.mustOpen()
	b.close(false)
}

// Len is the number of outer elements pushed so far.
func (b *ListBuilder[V]) Len() int { return len(b.offsets) - 1 }

// Build freezes the builder. A failed validation reports the flat value
// position.
func (b *ListBuilder[V]) Build() (List[V], error) {
	if b.built {
		return List[V]{}, ErrBuilt
	}
	b.built = true
	if !b.derived {
		for i, raw := range b.values {
			if !h3index.Valid[V](raw) {
				return List[V]{}, &ValidationError{Position: i, Raw: raw, Kind: h3index.KindOf[V]()}
			}
		}
	}
	layout := Layout{offsets: b.offsets, validity: b.validity.finish()}
	return List[V]{layout: layout, values: trusted[V](b.values, nil)}, nil
}

func (b *ListBuilder[V]) close(valid bool) {
	b.offsets = append(b.offsets, int64(len(b.values)))
	b.validity.append(valid)
}

func (b *ListBuilder[V]) mustOpen() {
	if b.built {
		panic("column: push after Build")
	}
}
