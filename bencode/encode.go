package bencode

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/text/encoding"
)

// EncodeOptions configures an encode call. The zero value selects the
// defaults.
type EncodeOptions struct {
	// Charset encodes text values and keys into byte strings. nil
	// means UTF-8.
	Charset encoding.Encoding

	// SortKeys emits dictionary entries and struct fields in byte
	// order of their encoded keys instead of value order and schema
	// declaration order. BEP 3 consumers that check canonical form
	// need this.
	SortKeys bool
}

// DefaultEncodeOptions returns the default encode configuration.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{}
}

// ============================================================
// Entry points
// ============================================================

// Marshal encodes the value against the schema.
func Marshal(s *Schema, v *Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeWithOptions(&buf, s, v, DefaultEncodeOptions()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode encodes one value to w against the schema.
func Encode(w io.Writer, s *Schema, v *Value) error {
	return EncodeWithOptions(w, s, v, DefaultEncodeOptions())
}

// EncodeWithOptions encodes one value to w against the schema.
func EncodeWithOptions(w io.Writer, s *Schema, v *Value, opts EncodeOptions) error {
	if s == nil {
		return fmt.Errorf("bencode: nil schema")
	}
	e := &encoder{bw: bufio.NewWriter(w), opts: opts}
	context := s.name
	if context == "" {
		context = "value"
	}
	if err := e.value(s, v, context); err != nil {
		return err
	}
	return e.bw.Flush()
}

// ============================================================
// Encoder engine
// ============================================================

type encoder struct {
	bw         *bufio.Writer
	opts       EncodeOptions
	charsetEnc *encoding.Encoder // lazily built from opts.Charset
	num        [24]byte
}

func (e *encoder) value(s *Schema, v *Value, context string) error {
	if v == nil {
		return fmt.Errorf("bencode: nil value for %s shape %q", s.kind, context)
	}
	if v.kind != s.kind {
		return &ShapeError{Expected: s.kind, Actual: v.kind, Context: context}
	}
	switch s.kind {
	case KindInteger:
		return e.integer(v.intVal)
	case KindText:
		raw, err := e.encodeText(v.strVal)
		if err != nil {
			return err
		}
		return e.writeString(raw)
	case KindBinary:
		return e.writeString(v.bytesVal)
	case KindList:
		return e.list(s, v)
	case KindDict:
		return e.dict(s, v)
	case KindStruct:
		return e.structured(s, v)
	default:
		return fmt.Errorf("bencode: invalid schema kind %s", s.kind)
	}
}

func (e *encoder) integer(n int64) error {
	if err := e.bw.WriteByte(prefixInteger); err != nil {
		return err
	}
	if _, err := e.bw.Write(strconv.AppendInt(e.num[:0], n, 10)); err != nil {
		return err
	}
	return e.bw.WriteByte(terminator)
}

// writeString emits <len>:<payload>.
func (e *encoder) writeString(raw []byte) error {
	if _, err := e.bw.Write(strconv.AppendInt(e.num[:0], int64(len(raw)), 10)); err != nil {
		return err
	}
	if err := e.bw.WriteByte(lengthSep); err != nil {
		return err
	}
	_, err := e.bw.Write(raw)
	return err
}

func (e *encoder) encodeText(s string) ([]byte, error) {
	if e.opts.Charset == nil {
		return []byte(s), nil
	}
	if e.charsetEnc == nil {
		e.charsetEnc = e.opts.Charset.NewEncoder()
	}
	out, err := e.charsetEnc.Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("bencode: encoding text: %w", err)
	}
	return out, nil
}

func (e *encoder) list(s *Schema, v *Value) error {
	if err := e.bw.WriteByte(prefixList); err != nil {
		return err
	}
	for i, item := range v.listVal {
		if err := e.value(s.elem, item, fmt.Sprintf("element %d", i)); err != nil {
			return err
		}
	}
	return e.bw.WriteByte(terminator)
}

// rawEntry is one key/value pair ready to emit, its key already
// charset-encoded so that sorting compares wire bytes.
type rawEntry struct {
	key   []byte
	shape *Schema
	val   *Value
	name  string
}

func (e *encoder) dict(s *Schema, v *Value) error {
	entries := make([]rawEntry, 0, len(v.dictVal))
	for _, de := range v.dictVal {
		key, err := e.encodeText(de.Key)
		if err != nil {
			return err
		}
		entries = append(entries, rawEntry{key: key, shape: s.elem, val: de.Value, name: de.Key})
	}
	return e.emitDict(entries)
}

// structured emits fields in schema declaration order, omitting absent
// optional fields. An absent required field is an error.
func (e *encoder) structured(s *Schema, v *Value) error {
	sv := v.structVal
	if sv.Schema != s {
		return fmt.Errorf("bencode: struct value built against schema %q, not %q", sv.Schema.name, s.name)
	}
	entries := make([]rawEntry, 0, len(s.fields))
	for i, f := range s.fields {
		fv := sv.Fields[i]
		if fv == nil {
			if f.Optional {
				continue
			}
			return &MissingFieldError{Struct: s.name, Field: f.Name}
		}
		key, err := e.encodeText(f.Name)
		if err != nil {
			return err
		}
		entries = append(entries, rawEntry{key: key, shape: f.Shape, val: fv, name: f.Name})
	}
	return e.emitDict(entries)
}

func (e *encoder) emitDict(entries []rawEntry) error {
	if e.opts.SortKeys {
		sortRawEntries(entries)
	}
	if err := e.bw.WriteByte(prefixDict); err != nil {
		return err
	}
	for _, en := range entries {
		if err := e.writeString(en.key); err != nil {
			return err
		}
		if err := e.value(en.shape, en.val, en.name); err != nil {
			return err
		}
	}
	return e.bw.WriteByte(terminator)
}

// sortRawEntries orders entries by key bytes.
// Simple insertion sort (good for small lists).
func sortRawEntries(entries []rawEntry) {
	for i := 1; i < len(entries); i++ {
		cur := entries[i]
		j := i - 1
		for j >= 0 && bytes.Compare(entries[j].key, cur.key) > 0 {
			entries[j+1] = entries[j]
			j--
		}
		entries[j+1] = cur
	}
}
