package bencode

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	cborEnc = em

	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
		IntDec:         cbor.IntDecConvertSignedOrFail,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	cborDec = dm
}

// ToCBOR renders the value as deterministic CBOR. Binary payloads map
// to CBOR byte strings directly; dictionary wire order is not
// preserved, since deterministic encoding sorts map keys.
func ToCBOR(v *Value) ([]byte, error) {
	x, err := ToCBORValue(v)
	if err != nil {
		return nil, err
	}
	return cborEnc.Marshal(x)
}

// ToCBORValue converts the value into the native Go shape that the
// CBOR encoder marshals from.
func ToCBORValue(v *Value) (interface{}, error) {
	if v == nil {
		return nil, fmt.Errorf("bencode: cbor: nil value")
	}
	switch v.kind {
	case KindInteger:
		return v.intVal, nil
	case KindText:
		return v.strVal, nil
	case KindBinary:
		return v.bytesVal, nil
	case KindList:
		out := make([]interface{}, len(v.listVal))
		for i, item := range v.listVal {
			x, err := ToCBORValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	case KindDict:
		out := make(map[string]interface{}, len(v.dictVal))
		for _, de := range v.dictVal {
			x, err := ToCBORValue(de.Value)
			if err != nil {
				return nil, err
			}
			out[de.Key] = x
		}
		return out, nil
	case KindStruct:
		sv := v.structVal
		out := make(map[string]interface{}, len(sv.Fields))
		for i, f := range sv.Schema.fields {
			fv := sv.Fields[i]
			if fv == nil {
				continue
			}
			x, err := ToCBORValue(fv)
			if err != nil {
				return nil, err
			}
			out[f.Name] = x
		}
		return out, nil
	default:
		return nil, fmt.Errorf("bencode: cbor: invalid value kind %s", v.kind)
	}
}

// FromCBOR builds a value of the given shape from CBOR. Integers
// outside the int64 range are a decode error.
func FromCBOR(data []byte, s *Schema) (*Value, error) {
	var x interface{}
	if err := cborDec.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("bencode: cbor: %w", err)
	}
	return FromCBORValue(s, x)
}

// FromCBORValue builds a value of the given shape from the native Go
// shape that the CBOR decoder unmarshals into. Dictionary entries are
// ordered by key; unknown map keys against a Struct shape are ignored.
func FromCBORValue(s *Schema, x interface{}) (*Value, error) {
	if s == nil {
		return nil, fmt.Errorf("bencode: cbor: nil schema")
	}
	switch s.kind {
	case KindInteger:
		n, ok := x.(int64)
		if !ok {
			return nil, fmt.Errorf("bencode: cbor: expected integer shape, got %T", x)
		}
		return Int(n), nil
	case KindText:
		str, ok := x.(string)
		if !ok {
			return nil, fmt.Errorf("bencode: cbor: expected text string for text shape, got %T", x)
		}
		return Str(str), nil
	case KindBinary:
		b, ok := x.([]byte)
		if !ok {
			return nil, fmt.Errorf("bencode: cbor: expected byte string for binary shape, got %T", x)
		}
		return Bin(b), nil
	case KindList:
		items, ok := x.([]interface{})
		if !ok {
			return nil, fmt.Errorf("bencode: cbor: expected array for list shape, got %T", x)
		}
		out := List()
		for _, item := range items {
			v, err := FromCBORValue(s.elem, item)
			if err != nil {
				return nil, err
			}
			out.Append(v)
		}
		return out, nil
	case KindDict:
		obj, ok := x.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("bencode: cbor: expected string-keyed map for dictionary shape, got %T", x)
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sortStrings(keys)
		out := Dict()
		for _, k := range keys {
			v, err := FromCBORValue(s.elem, obj[k])
			if err != nil {
				return nil, err
			}
			out.dictVal = append(out.dictVal, DictEntry{Key: k, Value: v})
		}
		return out, nil
	case KindStruct:
		obj, ok := x.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("bencode: cbor: expected string-keyed map for struct shape, got %T", x)
		}
		out := NewStruct(s)
		for i, f := range s.fields {
			raw, ok := obj[f.Name]
			if !ok {
				if f.Optional {
					continue
				}
				return nil, &MissingFieldError{Struct: s.name, Field: f.Name}
			}
			v, err := FromCBORValue(f.Shape, raw)
			if err != nil {
				return nil, err
			}
			out.structVal.Fields[i] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("bencode: cbor: invalid schema kind %s", s.kind)
	}
}
