package column

import (
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

// ParseStrings parses index text. In strict mode the first unparsable
// string fails the call with a *ParseError; in tolerant mode it becomes a
// null. present has the same meaning as in FromRawTolerant.
func ParseStrings[V h3index.Index](ss []string, present []bool, tolerant bool) (IndexColumn[V], error) {
	out := make([]uint64, len(ss))
	var vb validityBuilder
	vb.grow(len(ss))
	for i, s := range ss {
		if present != nil && (i >= len(present) || !present[i]) {
			vb.append(false)
			continue
		}
		v, err := h3index.Parse[V](s)
		if err != nil {
			if !tolerant {
				return IndexColumn[V]{}, &ParseError{Position: i, Text: s, Err: err}
			}
			vb.append(false)
			continue
		}
		out[i] = uint64(v)
		vb.append(true)
	}
	return trusted[V](out, vb.finish()), nil
}

// Strings renders every valid position as canonical hex text.
func Strings[V h3index.Index](c IndexColumn[V]) Array[string] {
	return MapValues(c, func(v V) (string, bool) { return v.String(), true })
}
