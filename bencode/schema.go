package bencode

import "fmt"

// Schema describes the shape a decode call targets or an encode call
// emits. Schemas are immutable after construction, safe for concurrent
// use, and outlive the calls that consume them.
type Schema struct {
	kind   Kind
	name   string      // struct name, for diagnostics
	elem   *Schema     // element shape of a list, value shape of a dict
	fields []*FieldDef // struct fields in declaration order
	byName map[string]int
}

// FieldDef describes one field of a struct schema.
type FieldDef struct {
	Name     string
	Shape    *Schema
	Optional bool // absent input keys leave the field nil instead of failing
	Capture  bool // field is the byte-range capture target
}

// ============================================================
// Shape constructors
// ============================================================

// Integer returns the schema for a 64-bit signed integer.
func Integer() *Schema {
	return &Schema{kind: KindInteger}
}

// Text returns the schema for a byte string materialized as text
// through the configured charset and the intern cache.
func Text() *Schema {
	return &Schema{kind: KindText}
}

// Binary returns the schema for a byte string kept as raw bytes.
func Binary() *Schema {
	return &Schema{kind: KindBinary}
}

// ListOf returns the schema for a homogeneous list.
func ListOf(elem *Schema) *Schema {
	if elem == nil {
		panic("bencode: ListOf requires an element schema")
	}
	return &Schema{kind: KindList, elem: elem}
}

// DictOf returns the schema for a dictionary with text keys and a
// uniform value shape.
func DictOf(value *Schema) *Schema {
	if value == nil {
		panic("bencode: DictOf requires a value schema")
	}
	return &Schema{kind: KindDict, elem: value}
}

// Struct returns the schema for a dictionary decoded against a fixed,
// named field set. Field declaration order is the encode order.
func Struct(name string, fields ...*FieldDef) *Schema {
	s := &Schema{
		kind:   KindStruct,
		name:   name,
		fields: fields,
		byName: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f == nil || f.Shape == nil {
			panic(fmt.Sprintf("bencode: nil field in %s", name))
		}
		if _, dup := s.byName[f.Name]; dup {
			panic(fmt.Sprintf("bencode: duplicate field %q in %s", f.Name, name))
		}
		s.byName[f.Name] = i
	}
	return s
}

// Field creates a field definition.
func Field(name string, shape *Schema, opts ...FieldOption) *FieldDef {
	f := &FieldDef{Name: name, Shape: shape}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FieldOption configures a field definition.
type FieldOption func(*FieldDef)

// WithOptional marks a field as optional: a key absent from the input
// leaves the field nil instead of failing the decode, and a nil field
// is omitted on encode.
func WithOptional() FieldOption {
	return func(f *FieldDef) {
		f.Optional = true
	}
}

// WithCapture marks a field as the byte-range capture target. The span
// consumed decoding its value is reported alongside the decoded value.
func WithCapture() FieldOption {
	return func(f *FieldDef) {
		f.Capture = true
	}
}

// ============================================================
// Descriptor surface
// ============================================================

// Kind returns the schema's shape kind.
func (s *Schema) Kind() Kind {
	if s == nil {
		return KindInvalid
	}
	return s.kind
}

// Name returns the struct name, or "" for non-struct schemas.
func (s *Schema) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Elem returns the element shape of a list schema or the value shape of
// a dict schema, nil otherwise.
func (s *Schema) Elem() *Schema {
	if s == nil {
		return nil
	}
	return s.elem
}

// NumFields returns the number of declared struct fields.
func (s *Schema) NumFields() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// FieldIndex resolves a field name to its declaration index.
func (s *Schema) FieldIndex(name string) (int, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.byName[name]
	return i, ok
}

// FieldAt returns the i-th field definition.
func (s *Schema) FieldAt(i int) *FieldDef {
	return s.fields[i]
}
