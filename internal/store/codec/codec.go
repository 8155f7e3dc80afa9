// Package codec serializes index columns and ragged lists into a compact
// binary frame.
//
// Frame layout, little-endian:
//
//	magic   [4]byte "H3CL"
//	version uint8
//	kind    uint8   h3index.Kind
//	shape   uint8   column or list
//	_       uint8
//	sum     uint64  xxhash64 of the compressed body
//	body    zstd(payload)
//
// A column payload is the row count, a validity flag, the raw values and,
// when flagged, the validity words. A list payload is the element count, an
// outer validity flag, the offsets, the outer validity words and then a
// column payload for the flat values.
//
// Decoding re-validates every valid value, so a frame never produces a
// column holding bits that are not a valid index of its kind.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/mohammed-shakir/h3-columnar/internal/column"
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

const (
	Version    = 1
	headerSize = 16

	// upper bound on one decoded payload
	maxPayload = 1 << 30
)

var magic = [4]byte{'H', '3', 'C', 'L'}

type Shape uint8

const (
	ShapeColumn Shape = iota + 1
	ShapeList
)

func (s Shape) String() string {
	switch s {
	case ShapeColumn:
		return "column"
	case ShapeList:
		return "list"
	default:
		return "unknown"
	}
}

var (
	ErrCorrupt  = errors.New("codec: corrupt frame")
	ErrChecksum = errors.New("codec: checksum mismatch")
	ErrVersion  = errors.New("codec: unsupported version")
	ErrMismatch = errors.New("codec: kind or shape mismatch")
)

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxPayload))
)

// Header is the uncompressed prefix of a frame.
type Header struct {
	Version uint8
	Kind    h3index.Kind
	Shape   Shape
	// Sum is the xxhash of the compressed body. Equal sums mean equal
	// contents.
	Sum uint64
}

// ReadHeader parses and checks the frame prefix without decompressing.
func ReadHeader(frame []byte) (Header, error) {
	if len(frame) < headerSize || [4]byte(frame[:4]) != magic {
		return Header{}, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	h := Header{
		Version: frame[4],
		Kind:    h3index.Kind(frame[5]),
		Shape:   Shape(frame[6]),
		Sum:     binary.LittleEndian.Uint64(frame[8:]),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	return h, nil
}

func EncodeColumn[V h3index.Index](c column.IndexColumn[V]) []byte {
	payload := appendColumn(nil, c.Raw(), c.Validity())
	return seal(h3index.KindOf[V](), ShapeColumn, payload)
}

func EncodeList[V h3index.Index](l column.List[V]) []byte {
	offsets := l.Offsets()
	payload := binary.LittleEndian.AppendUint64(nil, uint64(l.Len()))
	payload = appendValidity(payload, l.Validity())
	for _, o := range offsets {
		payload = binary.LittleEndian.AppendUint64(payload, uint64(o))
	}
	payload = appendWords(payload, l.Validity())
	payload = appendColumn(payload, l.Values().Raw(), l.Values().Validity())
	return seal(h3index.KindOf[V](), ShapeList, payload)
}

func DecodeColumn[V h3index.Index](frame []byte) (column.IndexColumn[V], error) {
	r, err := open(frame, h3index.KindOf[V](), ShapeColumn)
	if err != nil {
		return column.IndexColumn[V]{}, err
	}
	c, err := readColumn[V](r)
	if err != nil {
		return column.IndexColumn[V]{}, err
	}
	if len(r.buf) != 0 {
		return column.IndexColumn[V]{}, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(r.buf))
	}
	return c, nil
}

func DecodeList[V h3index.Index](frame []byte) (column.List[V], error) {
	r, err := open(frame, h3index.KindOf[V](), ShapeList)
	if err != nil {
		return column.List[V]{}, err
	}
	m := r.count()
	hasValidity := r.flag()
	offsets := make([]int64, 0, min(m+1, len(r.buf)/8))
	for range m + 1 {
		offsets = append(offsets, int64(r.u64()))
	}
	var outer *column.Validity
	if hasValidity {
		outer = r.validity(m)
	}
	values, err := readColumn[V](r)
	if err != nil {
		return column.List[V]{}, err
	}
	if r.err != nil {
		return column.List[V]{}, r.err
	}
	if len(r.buf) != 0 {
		return column.List[V]{}, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(r.buf))
	}
	l, err := column.NewList(offsets, values, outer)
	if err != nil {
		return column.List[V]{}, fmt.Errorf("codec: decode list: %w", err)
	}
	return l, nil
}

func seal(kind h3index.Kind, shape Shape, payload []byte) []byte {
	body := encoder.EncodeAll(payload, nil)
	frame := make([]byte, headerSize, headerSize+len(body))
	copy(frame, magic[:])
	frame[4] = Version
	frame[5] = byte(kind)
	frame[6] = byte(shape)
	binary.LittleEndian.PutUint64(frame[8:], xxhash.Sum64(body))
	return append(frame, body...)
}

func open(frame []byte, kind h3index.Kind, shape Shape) (*reader, error) {
	h, err := ReadHeader(frame)
	if err != nil {
		return nil, err
	}
	if h.Kind != kind || h.Shape != shape {
		return nil, fmt.Errorf("%w: frame holds %s %s, want %s %s", ErrMismatch, h.Kind, h.Shape, kind, shape)
	}
	body := frame[headerSize:]
	if xxhash.Sum64(body) != binary.LittleEndian.Uint64(frame[8:]) {
		return nil, ErrChecksum
	}
	payload, err := decoder.DecodeAll(body, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return &reader{buf: payload}, nil
}

func appendColumn(dst []byte, raw []uint64, v *column.Validity) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, uint64(len(raw)))
	dst = appendValidity(dst, v)
	for _, x := range raw {
		dst = binary.LittleEndian.AppendUint64(dst, x)
	}
	return appendWords(dst, v)
}

func appendValidity(dst []byte, v *column.Validity) []byte {
	if v == nil {
		return append(dst, 0)
	}
	return append(dst, 1)
}

func appendWords(dst []byte, v *column.Validity) []byte {
	for _, w := range v.Words() {
		dst = binary.LittleEndian.AppendUint64(dst, w)
	}
	return dst
}

func readColumn[V h3index.Index](r *reader) (column.IndexColumn[V], error) {
	n := r.count()
	hasValidity := r.flag()
	raw := make([]uint64, 0, min(n, len(r.buf)/8))
	for range n {
		raw = append(raw, r.u64())
	}
	var v *column.Validity
	if hasValidity {
		v = r.validity(n)
	}
	if r.err != nil {
		return column.IndexColumn[V]{}, r.err
	}
	c, err := column.FromRawWithValidity[V](raw, v)
	if err != nil {
		return column.IndexColumn[V]{}, fmt.Errorf("codec: decode column: %w", err)
	}
	return c, nil
}

// reader consumes a payload and latches the first short read.
type reader struct {
	buf []byte
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf) < n {
		r.err = fmt.Errorf("%w: truncated payload", ErrCorrupt)
		r.buf = nil
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) flag() bool {
	b := r.take(1)
	return b != nil && b[0] == 1
}

// count reads a length and rejects values the remaining payload cannot hold.
func (r *reader) count() int {
	n := r.u64()
	if r.err == nil && n > uint64(len(r.buf)) {
		r.err = fmt.Errorf("%w: length %d exceeds payload", ErrCorrupt, n)
	}
	if r.err != nil {
		return 0
	}
	return int(n)
}

func (r *reader) validity(n int) *column.Validity {
	words := make([]uint64, (n+63)/64)
	for i := range words {
		words[i] = r.u64()
	}
	if r.err != nil {
		return nil
	}
	return column.ValidityFromWords(words, n)
}
