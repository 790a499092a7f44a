package bencode

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"
	"testing/quick"
)

// genValue builds a random value conforming to s.
func genValue(r *rand.Rand, s *Schema, depth int) *Value {
	switch s.Kind() {
	case KindInteger:
		return Int(r.Int63() - r.Int63())
	case KindText:
		return Str(randomText(r))
	case KindBinary:
		b := make([]byte, r.Intn(48))
		r.Read(b)
		return Bin(b)
	case KindList:
		n := r.Intn(4)
		if depth > 3 {
			n = 0
		}
		v := List()
		for i := 0; i < n; i++ {
			v.Append(genValue(r, s.Elem(), depth+1))
		}
		return v
	case KindDict:
		n := r.Intn(4)
		if depth > 3 {
			n = 0
		}
		v := Dict()
		for i := 0; i < n; i++ {
			v.dictVal = append(v.dictVal, DictEntry{Key: randomText(r), Value: genValue(r, s.Elem(), depth+1)})
		}
		return v
	case KindStruct:
		v := NewStruct(s)
		for i := 0; i < s.NumFields(); i++ {
			f := s.FieldAt(i)
			if f.Optional && r.Intn(2) == 0 {
				continue
			}
			v.structVal.Fields[i] = genValue(r, f.Shape, depth+1)
		}
		return v
	default:
		panic("unreachable")
	}
}

var textAlphabet = []rune("abcdefghijklmnopqrstuvwxyz0123456789 ._-éüλ日本")

func randomText(r *rand.Rand) string {
	n := r.Intn(12)
	runes := make([]rune, n)
	for i := range runes {
		runes[i] = textAlphabet[r.Intn(len(textAlphabet))]
	}
	return string(runes)
}

func makeRoundTripSchema() *Schema {
	file := Struct("File",
		Field("length", Integer()),
		Field("path", ListOf(Text())),
	)
	return Struct("MetaInfo",
		Field("announce", Text(), WithOptional()),
		Field("tags", DictOf(Integer()), WithOptional()),
		Field("files", ListOf(file), WithOptional()),
		Field("name", Text()),
		Field("pieces", Binary(), WithOptional()),
	)
}

// Encoding is canonical for a schema, so encode, decode, encode again
// must reproduce the bytes exactly.
func TestRoundTripQuick(t *testing.T) {
	s := makeRoundTripSchema()
	property := func(seed int64) bool {
		r := rand.New(rand.NewSource(seed))
		v := genValue(r, s, 0)
		enc, err := Marshal(s, v)
		if err != nil {
			t.Logf("seed %d: encode: %v", seed, err)
			return false
		}
		dec, err := Unmarshal(enc, s)
		if err != nil {
			t.Logf("seed %d: decode of %q: %v", seed, enc, err)
			return false
		}
		enc2, err := Marshal(s, dec)
		if err != nil {
			t.Logf("seed %d: re-encode: %v", seed, err)
			return false
		}
		return bytes.Equal(enc, enc2)
	}
	if err := quick.Check(property, &quick.Config{MaxCount: 200}); err != nil {
		t.Error(err)
	}
}

func TestRoundTripIntegersQuick(t *testing.T) {
	property := func(n int64) bool {
		v, err := Unmarshal([]byte(fmt.Sprintf("i%de", n)), Integer())
		if err != nil {
			return false
		}
		got, err := v.AsInt()
		return err == nil && got == n
	}
	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

func TestRoundTripSortedStaysSorted(t *testing.T) {
	s := makeRoundTripSchema()
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		v := genValue(r, s, 0)
		enc, err := marshalWithOptions(s, v, EncodeOptions{SortKeys: true})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		dec, err := Unmarshal(enc, s)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		enc2, err := marshalWithOptions(s, dec, EncodeOptions{SortKeys: true})
		if err != nil {
			t.Fatalf("re-encode: %v", err)
		}
		if !bytes.Equal(enc, enc2) {
			t.Fatalf("sorted form not stable:\n %q\n %q", enc, enc2)
		}
	}
}
