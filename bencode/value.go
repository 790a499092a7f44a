package bencode

import "fmt"

// Kind identifies the shape of a Value or Schema node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInteger
	KindText
	KindBinary
	KindList
	KindDict
	KindStruct
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindStruct:
		return "struct"
	default:
		return "invalid"
	}
}

// Value is a bencode value shaped by the schema that produced it.
// Text and Binary values share the one wire production <len>:<bytes>
// and differ only in how the payload was materialized.
type Value struct {
	kind Kind

	// Scalar values (only one valid based on kind)
	intVal   int64
	strVal   string
	bytesVal []byte

	// Container values
	listVal   []*Value
	dictVal   []DictEntry
	structVal *StructValue
}

// DictEntry is a key/value pair of a dictionary, in wire order.
type DictEntry struct {
	Key   string
	Value *Value
}

// StructValue holds the fields of a structured value, indexed by the
// declaring schema's field order. Absent optional fields are nil.
type StructValue struct {
	Schema *Schema
	Fields []*Value
}

// ============================================================
// Constructors
// ============================================================

// Int creates an integer value.
func Int(v int64) *Value {
	return &Value{kind: KindInteger, intVal: v}
}

// Str creates a text value.
func Str(v string) *Value {
	return &Value{kind: KindText, strVal: v}
}

// Bin creates a binary value. The slice is kept as-is, not copied.
func Bin(v []byte) *Value {
	return &Value{kind: KindBinary, bytesVal: v}
}

// List creates a list value.
func List(values ...*Value) *Value {
	return &Value{kind: KindList, listVal: values}
}

// Dict creates a dictionary value from entries in wire order.
func Dict(entries ...DictEntry) *Value {
	return &Value{kind: KindDict, dictVal: entries}
}

// Entry creates a DictEntry for use with Dict.
func Entry(key string, value *Value) DictEntry {
	return DictEntry{Key: key, Value: value}
}

// NewStruct creates a structured value for the given struct schema with
// every field unset.
func NewStruct(s *Schema) *Value {
	if s == nil || s.kind != KindStruct {
		panic("bencode: NewStruct requires a struct schema")
	}
	return &Value{
		kind: KindStruct,
		structVal: &StructValue{
			Schema: s,
			Fields: make([]*Value, len(s.fields)),
		},
	}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value kind. A nil value reports KindInvalid.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindInvalid
	}
	return v.kind
}

// AsInt returns the integer value.
func (v *Value) AsInt() (int64, error) {
	if v == nil {
		return 0, fmt.Errorf("bencode: nil value")
	}
	if v.kind != KindInteger {
		return 0, fmt.Errorf("bencode: expected integer, got %s", v.kind)
	}
	return v.intVal, nil
}

// AsText returns the text value.
func (v *Value) AsText() (string, error) {
	if v == nil {
		return "", fmt.Errorf("bencode: nil value")
	}
	if v.kind != KindText {
		return "", fmt.Errorf("bencode: expected text, got %s", v.kind)
	}
	return v.strVal, nil
}

// AsBytes returns the binary payload.
func (v *Value) AsBytes() ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("bencode: nil value")
	}
	if v.kind != KindBinary {
		return nil, fmt.Errorf("bencode: expected binary, got %s", v.kind)
	}
	return v.bytesVal, nil
}

// AsList returns the list elements.
func (v *Value) AsList() ([]*Value, error) {
	if v == nil {
		return nil, fmt.Errorf("bencode: nil value")
	}
	if v.kind != KindList {
		return nil, fmt.Errorf("bencode: expected list, got %s", v.kind)
	}
	return v.listVal, nil
}

// AsDict returns the dictionary entries in wire order.
func (v *Value) AsDict() ([]DictEntry, error) {
	if v == nil {
		return nil, fmt.Errorf("bencode: nil value")
	}
	if v.kind != KindDict {
		return nil, fmt.Errorf("bencode: expected dict, got %s", v.kind)
	}
	return v.dictVal, nil
}

// AsStruct returns the structured value.
func (v *Value) AsStruct() (*StructValue, error) {
	if v == nil {
		return nil, fmt.Errorf("bencode: nil value")
	}
	if v.kind != KindStruct {
		return nil, fmt.Errorf("bencode: expected struct, got %s", v.kind)
	}
	return v.structVal, nil
}

// Len returns the length of a list, dict, or struct (counting set
// fields only), and 0 for scalars.
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	switch v.kind {
	case KindList:
		return len(v.listVal)
	case KindDict:
		return len(v.dictVal)
	case KindStruct:
		n := 0
		for _, f := range v.structVal.Fields {
			if f != nil {
				n++
			}
		}
		return n
	default:
		return 0
	}
}

// Get returns the first entry with the given key from a dictionary, or
// the named field from a struct. Returns nil when absent.
func (v *Value) Get(key string) *Value {
	if v == nil {
		return nil
	}
	switch v.kind {
	case KindDict:
		for _, e := range v.dictVal {
			if e.Key == key {
				return e.Value
			}
		}
	case KindStruct:
		return v.Field(key)
	}
	return nil
}

// Index returns the i-th element of a list.
func (v *Value) Index(i int) (*Value, error) {
	if v == nil || v.kind != KindList {
		return nil, fmt.Errorf("bencode: not a list")
	}
	if i < 0 || i >= len(v.listVal) {
		return nil, fmt.Errorf("bencode: index %d out of bounds (len=%d)", i, len(v.listVal))
	}
	return v.listVal[i], nil
}

// Field returns the named field of a struct value. Returns nil when the
// field is unset or the name is not declared by the schema.
func (v *Value) Field(name string) *Value {
	if v == nil || v.kind != KindStruct {
		return nil
	}
	i, ok := v.structVal.Schema.FieldIndex(name)
	if !ok {
		return nil
	}
	return v.structVal.Fields[i]
}

// ============================================================
// Mutators
// ============================================================

// SetField sets the named field of a struct value.
func (v *Value) SetField(name string, val *Value) error {
	if v == nil || v.kind != KindStruct {
		return fmt.Errorf("bencode: not a struct")
	}
	i, ok := v.structVal.Schema.FieldIndex(name)
	if !ok {
		return fmt.Errorf("bencode: no field %q in %s", name, v.structVal.Schema.name)
	}
	v.structVal.Fields[i] = val
	return nil
}

// Append adds a value to a list.
func (v *Value) Append(val *Value) {
	if v == nil || v.kind != KindList {
		panic("bencode: cannot append to non-list")
	}
	v.listVal = append(v.listVal, val)
}
