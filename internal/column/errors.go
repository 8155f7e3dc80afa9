package column

import (
	"errors"
	"fmt"

	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

var (
	ErrInvalidIndex = errors.New("invalid index")
	ErrOffsets      = errors.New("invalid offsets")
	ErrLength       = errors.New("length mismatch")
)

// ValidationError reports the first raw value that does not decode to the
// column's index kind. Position is the flat value position.
type ValidationError struct {
	Position int
	Raw      uint64
	Kind     h3index.Kind
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("position %d: %#x is not a valid %s", e.Position, e.Raw, e.Kind)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidIndex }

// OffsetError reports a list offset array that breaks the layout rules.
type OffsetError struct {
	Position int
	Offset   int64
	Reason   string
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("offset %d at position %d: %s", e.Offset, e.Position, e.Reason)
}

func (e *OffsetError) Unwrap() error { return ErrOffsets }

// LengthError reports a validity bitmap or value array whose length does not
// match its companion.
type LengthError struct {
	Want, Got int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("length %d, want %d", e.Got, e.Want)
}

func (e *LengthError) Unwrap() error { return ErrLength }

// ParseError reports text that does not parse as an index.
type ParseError struct {
	Position int
	Text     string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("position %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
