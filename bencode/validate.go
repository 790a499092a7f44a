package bencode

import "fmt"

// ValidationError reports the first mismatch between a value and its
// schema, with the path from the root to the offending spot.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("bencode: invalid value: %s", e.Message)
	}
	return fmt.Sprintf("bencode: invalid value at %s: %s", e.Path, e.Message)
}

// Validate checks that the value conforms to the schema without
// encoding it. Checking stops at the first mismatch.
func Validate(s *Schema, v *Value) error {
	if s == nil {
		return fmt.Errorf("bencode: nil schema")
	}
	return validate(s, v, "")
}

func validate(s *Schema, v *Value, path string) error {
	if v == nil {
		return &ValidationError{Path: path, Message: "missing value"}
	}
	if v.kind != s.kind {
		return &ValidationError{Path: path, Message: fmt.Sprintf("expected %s, got %s", s.kind, v.kind)}
	}
	switch s.kind {
	case KindList:
		for i, item := range v.listVal {
			if err := validate(s.elem, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case KindDict:
		for _, de := range v.dictVal {
			if err := validate(s.elem, de.Value, joinPath(path, de.Key)); err != nil {
				return err
			}
		}
	case KindStruct:
		sv := v.structVal
		if sv.Schema != s {
			return &ValidationError{Path: path, Message: fmt.Sprintf("struct value built against schema %q, not %q", sv.Schema.name, s.name)}
		}
		for i, f := range s.fields {
			fv := sv.Fields[i]
			if fv == nil {
				if f.Optional {
					continue
				}
				return &ValidationError{Path: joinPath(path, f.Name), Message: "required field missing"}
			}
			if err := validate(f.Shape, fv, joinPath(path, f.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinPath(path, seg string) string {
	if path == "" {
		return seg
	}
	return path + "." + seg
}
