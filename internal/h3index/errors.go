package h3index

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrGeometry    = errors.New("geometry decode failed")
	ErrUnparsable  = errors.New("unparsable index")
	ErrInvalidKind = errors.New("index is not of the requested kind")
)

// GeometryDecodeError reports an index whose boundary could not be decoded,
// e.g. a distorted boundary near an icosahedron edge.
type GeometryDecodeError struct {
	Raw  uint64
	Kind Kind
	Err  error
}

func (e *GeometryDecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("decode %s %s geometry", e.Kind, strconv.FormatUint(e.Raw, 16))
	}
	return fmt.Sprintf("decode %s %s geometry: %v", e.Kind, strconv.FormatUint(e.Raw, 16), e.Err)
}

func (e *GeometryDecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGeometry}
	}
	return []error{ErrGeometry, e.Err}
}

func geometryErr(raw uint64, kind Kind, err error) error {
	return &GeometryDecodeError{Raw: raw, Kind: kind, Err: err}
}
