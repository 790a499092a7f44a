package bencode

import "testing"

func TestValueAccessors(t *testing.T) {
	if got, err := Int(42).AsInt(); err != nil || got != 42 {
		t.Errorf("AsInt = %d, %v", got, err)
	}
	if got, err := Str("spam").AsText(); err != nil || got != "spam" {
		t.Errorf("AsText = %q, %v", got, err)
	}
	if got, err := Bin([]byte{1}).AsBytes(); err != nil || len(got) != 1 {
		t.Errorf("AsBytes = %v, %v", got, err)
	}

	// Kind mismatches report errors, never panic.
	if _, err := Int(1).AsText(); err == nil {
		t.Error("AsText on integer succeeded")
	}
	if _, err := Str("x").AsList(); err == nil {
		t.Error("AsList on text succeeded")
	}
}

func TestValueNilSafety(t *testing.T) {
	var v *Value
	if v.Kind() != KindInvalid {
		t.Errorf("nil kind = %s", v.Kind())
	}
	if _, err := v.AsInt(); err == nil {
		t.Error("AsInt on nil succeeded")
	}
	if v.Len() != 0 || v.Get("x") != nil || v.Field("x") != nil {
		t.Error("nil value navigation not zero-valued")
	}
}

func TestValueDictNavigation(t *testing.T) {
	v := Dict(Entry("a", Int(1)), Entry("b", Int(2)), Entry("a", Int(3)))
	if v.Len() != 3 {
		t.Errorf("len = %d", v.Len())
	}
	if got, _ := v.Get("a").AsInt(); got != 1 {
		t.Errorf("Get(a) = %d, want the first entry", got)
	}
	if v.Get("zzz") != nil {
		t.Error("Get hit on absent key")
	}
}

func TestValueListNavigation(t *testing.T) {
	v := List(Int(1), Int(2))
	if _, err := v.Index(2); err == nil {
		t.Error("out of bounds Index succeeded")
	}
	if _, err := v.Index(-1); err == nil {
		t.Error("negative Index succeeded")
	}
	v.Append(Int(3))
	if v.Len() != 3 {
		t.Errorf("len after append = %d", v.Len())
	}
	last, err := v.Index(2)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if got, _ := last.AsInt(); got != 3 {
		t.Errorf("appended = %d", got)
	}
}

func TestValueStructFields(t *testing.T) {
	s := makeInfoSchema()
	v := NewStruct(s)
	if v.Len() != 0 {
		t.Errorf("fresh struct len = %d", v.Len())
	}
	if err := v.SetField("name", Str("spam")); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if err := v.SetField("bogus", Int(1)); err == nil {
		t.Error("SetField on undeclared name succeeded")
	}
	if v.Len() != 1 {
		t.Errorf("len = %d, want set fields only", v.Len())
	}
	if got, _ := v.Field("name").AsText(); got != "spam" {
		t.Errorf("Field(name) = %q", got)
	}
	if v.Field("pieces") != nil {
		t.Error("unset field is non-nil")
	}
	// Get falls through to fields on structs.
	if got, _ := v.Get("name").AsText(); got != "spam" {
		t.Errorf("Get(name) = %q", got)
	}
}

func TestValueAppendPanicsOnNonList(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Append on integer did not panic")
		}
	}()
	Int(1).Append(Int(2))
}

func TestNewStructRequiresStructSchema(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewStruct on integer schema did not panic")
		}
	}()
	NewStruct(Integer())
}
