package bencode

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// jsonBytesKey marks a binary payload inside a JSON object, since JSON
// has no byte string type. {"$bytes": "<base64>"} round-trips through
// FromJSON against a Binary shape.
const jsonBytesKey = "$bytes"

// ToJSON renders the value as JSON. Binary payloads become
// {"$bytes": "<base64>"} objects. Dictionary wire order is not
// preserved: JSON objects here marshal with sorted keys.
func ToJSON(v *Value) ([]byte, error) {
	x, err := ToJSONValue(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(x)
}

// ToJSONValue converts the value into the native Go shape that
// encoding/json marshals from.
func ToJSONValue(v *Value) (interface{}, error) {
	if v == nil {
		return nil, fmt.Errorf("bencode: json: nil value")
	}
	switch v.kind {
	case KindInteger:
		return v.intVal, nil
	case KindText:
		return v.strVal, nil
	case KindBinary:
		return map[string]interface{}{jsonBytesKey: base64.StdEncoding.EncodeToString(v.bytesVal)}, nil
	case KindList:
		out := make([]interface{}, len(v.listVal))
		for i, item := range v.listVal {
			x, err := ToJSONValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	case KindDict:
		out := make(map[string]interface{}, len(v.dictVal))
		for _, de := range v.dictVal {
			x, err := ToJSONValue(de.Value)
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
			x, err := ToJSONValue(fv)
			if err != nil {
				return nil, err
			}
			out[f.Name] = x
		}
		return out, nil
	default:
		return nil, fmt.Errorf("bencode: json: invalid value kind %s", v.kind)
	}
}

// FromJSON builds a value of the given shape from JSON. Numbers are
// read without a float64 round trip, so the full int64 range survives.
func FromJSON(data []byte, s *Schema) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var x interface{}
	if err := dec.Decode(&x); err != nil {
		return nil, fmt.Errorf("bencode: json: %w", err)
	}
	return FromJSONValue(s, x)
}

// FromJSONValue builds a value of the given shape from the native Go
// shape that encoding/json decodes into. Dictionary entries are
// ordered by key; unknown object keys against a Struct shape are
// ignored.
func FromJSONValue(s *Schema, x interface{}) (*Value, error) {
	if s == nil {
		return nil, fmt.Errorf("bencode: json: nil schema")
	}
	switch s.kind {
	case KindInteger:
		return jsonInteger(x)
	case KindText:
		str, ok := x.(string)
		if !ok {
			return nil, fmt.Errorf("bencode: json: expected string for text shape, got %T", x)
		}
		return Str(str), nil
	case KindBinary:
		return jsonBinary(x)
	case KindList:
		items, ok := x.([]interface{})
		if !ok {
			return nil, fmt.Errorf("bencode: json: expected array for list shape, got %T", x)
		}
		out := List()
		for _, item := range items {
			v, err := FromJSONValue(s.elem, item)
			if err != nil {
				return nil, err
			}
			out.Append(v)
		}
		return out, nil
	case KindDict:
		obj, ok := x.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("bencode: json: expected object for dictionary shape, got %T", x)
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sortStrings(keys)
		out := Dict()
		for _, k := range keys {
			v, err := FromJSONValue(s.elem, obj[k])
			if err != nil {
				return nil, err
			}
			out.dictVal = append(out.dictVal, DictEntry{Key: k, Value: v})
		}
		return out, nil
	case KindStruct:
		obj, ok := x.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("bencode: json: expected object for struct shape, got %T", x)
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
			v, err := FromJSONValue(f.Shape, raw)
			if err != nil {
				return nil, err
			}
			out.structVal.Fields[i] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("bencode: json: invalid schema kind %s", s.kind)
	}
}

func jsonInteger(x interface{}) (*Value, error) {
	switch n := x.(type) {
	case json.Number:
		i, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bencode: json: integer %s out of range", n)
		}
		return Int(i), nil
	case float64:
		if math.Trunc(n) != n || n < math.MinInt64 || n >= math.MaxInt64 {
			return nil, fmt.Errorf("bencode: json: number %v is not an int64", n)
		}
		return Int(int64(n)), nil
	case int64:
		return Int(n), nil
	case int:
		return Int(int64(n)), nil
	default:
		return nil, fmt.Errorf("bencode: json: expected number for integer shape, got %T", x)
	}
}

func jsonBinary(x interface{}) (*Value, error) {
	obj, ok := x.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("bencode: json: expected {%q: ...} object for binary shape, got %T", jsonBytesKey, x)
	}
	raw, ok := obj[jsonBytesKey]
	if !ok || len(obj) != 1 {
		return nil, fmt.Errorf("bencode: json: binary object must hold the single key %q", jsonBytesKey)
	}
	str, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("bencode: json: %q must be a base64 string, got %T", jsonBytesKey, raw)
	}
	b, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return nil, fmt.Errorf("bencode: json: decoding %q: %w", jsonBytesKey, err)
	}
	return Bin(b), nil
}
