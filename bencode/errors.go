package bencode

import (
	"errors"
	"fmt"
)

// ErrUnexpectedEnd reports that the byte source was exhausted in the
// middle of a value. It is always fatal: the partially decoded value is
// discarded and the stream is left mid-consumption.
var ErrUnexpectedEnd = errors.New("bencode: unexpected end of input")

// ErrRangeConflict reports that more than one capture-marked field was
// decoded during a single call. A call has exactly one byte-range slot.
var ErrRangeConflict = errors.New("bencode: multiple fields captured a byte range")

// SyntaxError reports malformed input: an unexpected prefix or
// terminator, a non-digit where a digit is required, a negative string
// length, a literal exceeding the digit bound, or nesting beyond the
// depth limit. Offset is the byte position of the offending input,
// counted from the start of the decode call.
type SyntaxError struct {
	Offset  int64
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("bencode: %s at offset %d", e.Message, e.Offset)
}

// ShapeError reports a value whose kind does not match the shape the
// schema declares at its position.
type ShapeError struct {
	Expected Kind
	Actual   Kind
	Context  string // field or element label, may be empty
}

func (e *ShapeError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("bencode: %s: expected %s, got %s", e.Context, e.Expected, e.Actual)
	}
	return fmt.Sprintf("bencode: expected %s, got %s", e.Expected, e.Actual)
}

// MissingFieldError reports a struct field that is not marked optional
// and was absent: missing from the input dictionary on decode, or nil
// in the value on encode.
type MissingFieldError struct {
	Struct string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("bencode: %s: required field %q is missing", e.Struct, e.Field)
}
