package bencode

import "testing"

func TestSchemaDescriptors(t *testing.T) {
	s := makeInfoSchema()
	if s.Kind() != KindStruct {
		t.Errorf("kind = %s", s.Kind())
	}
	if s.Name() != "Info" {
		t.Errorf("name = %q", s.Name())
	}
	if s.NumFields() != 3 {
		t.Errorf("fields = %d", s.NumFields())
	}
	i, ok := s.FieldIndex("pieces")
	if !ok || i != 2 {
		t.Errorf("FieldIndex(pieces) = %d, %v", i, ok)
	}
	if _, ok := s.FieldIndex("nope"); ok {
		t.Error("FieldIndex hit on undeclared name")
	}
	f := s.FieldAt(1)
	if f.Name != "piece length" || !f.Optional {
		t.Errorf("FieldAt(1) = %+v", f)
	}

	l := ListOf(Integer())
	if l.Kind() != KindList || l.Elem().Kind() != KindInteger {
		t.Errorf("list schema = %s of %s", l.Kind(), l.Elem().Kind())
	}
	if Integer().Elem() != nil {
		t.Error("scalar schema has an element shape")
	}
}

func TestSchemaNilSafety(t *testing.T) {
	var s *Schema
	if s.Kind() != KindInvalid || s.Name() != "" || s.Elem() != nil || s.NumFields() != 0 {
		t.Error("nil schema descriptors not zero-valued")
	}
	if _, ok := s.FieldIndex("x"); ok {
		t.Error("nil schema resolved a field")
	}
}

func TestSchemaFieldOptions(t *testing.T) {
	f := Field("info", Binary(), WithOptional(), WithCapture())
	if !f.Optional || !f.Capture {
		t.Errorf("options not applied: %+v", f)
	}
	plain := Field("name", Text())
	if plain.Optional || plain.Capture {
		t.Errorf("plain field carries options: %+v", plain)
	}
}

func TestSchemaDuplicateFieldPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("duplicate field name did not panic")
		}
	}()
	Struct("X", Field("a", Integer()), Field("a", Text()))
}

func TestSchemaNilFieldPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("nil field shape did not panic")
		}
	}()
	Struct("X", Field("a", nil))
}

// ============================================================
// Registry
// ============================================================

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if r.Len() != 0 {
		t.Fatalf("fresh registry has %d entries", r.Len())
	}
	info := makeInfoSchema()
	r.Register("torrent.Info", info)
	r.Register("torrent.MetaInfo", makeTorrentSchema())

	got, ok := r.Lookup("torrent.Info")
	if !ok || got != info {
		t.Errorf("Lookup = %v, %v", got, ok)
	}
	if _, ok := r.Lookup("nope"); ok {
		t.Error("Lookup hit on unregistered name")
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "torrent.Info" || names[1] != "torrent.MetaInfo" {
		t.Errorf("Names = %v, want sorted", names)
	}

	// Re-registering replaces.
	other := Struct("Info2")
	r.Register("torrent.Info", other)
	got, _ = r.Lookup("torrent.Info")
	if got != other {
		t.Error("re-registration did not replace")
	}
	if r.Len() != 2 {
		t.Errorf("len = %d, want 2", r.Len())
	}
}
