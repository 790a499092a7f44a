package bencode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBridgeSchema() *Schema {
	return Struct("Info",
		Field("name", Text()),
		Field("piece length", Integer(), WithOptional()),
		Field("pieces", Binary(), WithOptional()),
	)
}

func makeBridgeValue(t *testing.T, s *Schema) *Value {
	t.Helper()
	v := NewStruct(s)
	require.NoError(t, v.SetField("name", Str("spam")))
	require.NoError(t, v.SetField("pieces", Bin([]byte{0x00, 0x01, 0x02})))
	return v
}

// ============================================================
// JSON
// ============================================================

func TestJSONBridgeToJSON(t *testing.T) {
	s := makeBridgeSchema()
	out, err := ToJSON(makeBridgeValue(t, s))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"spam","pieces":{"$bytes":"AAEC"}}`, string(out))
}

func TestJSONBridgeRoundTrip(t *testing.T) {
	s := makeBridgeSchema()
	v := makeBridgeValue(t, s)
	wire, err := Marshal(s, v)
	require.NoError(t, err)

	js, err := ToJSON(v)
	require.NoError(t, err)
	back, err := FromJSON(js, s)
	require.NoError(t, err)
	wire2, err := Marshal(s, back)
	require.NoError(t, err)
	assert.Equal(t, wire, wire2)
}

func TestJSONBridgeInt64Precision(t *testing.T) {
	s := Struct("X", Field("n", Integer()))
	// One above 2^53: a float64 round trip would lose it.
	v, err := FromJSON([]byte(`{"n":9007199254740993}`), s)
	require.NoError(t, err)
	n, err := v.Field("n").AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), n)
}

func TestJSONBridgeUnknownKeysIgnored(t *testing.T) {
	s := makeBridgeSchema()
	v, err := FromJSON([]byte(`{"name":"spam","future":"stuff"}`), s)
	require.NoError(t, err)
	name, err := v.Field("name").AsText()
	require.NoError(t, err)
	assert.Equal(t, "spam", name)
}

func TestJSONBridgeMissingRequired(t *testing.T) {
	s := makeBridgeSchema()
	_, err := FromJSON([]byte(`{"piece length":1}`), s)
	var mf *MissingFieldError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, "name", mf.Field)
}

func TestJSONBridgeDictOrdering(t *testing.T) {
	s := DictOf(Integer())
	v, err := FromJSON([]byte(`{"b":2,"a":1,"c":3}`), s)
	require.NoError(t, err)
	entries, err := v.AsDict()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// JSON objects are unordered, so entries come back key-sorted.
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, "b", entries[1].Key)
	assert.Equal(t, "c", entries[2].Key)
}

func TestJSONBridgeBadBinary(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"plain string", `"AAEC"`},
		{"extra keys", `{"$bytes":"AAEC","x":1}`},
		{"wrong key", `{"bytes":"AAEC"}`},
		{"not base64", `{"$bytes":"!!!"}`},
		{"non-string payload", `{"$bytes":7}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromJSON([]byte(tt.input), Binary())
			assert.Error(t, err)
		})
	}
}

func TestJSONBridgeNumberErrors(t *testing.T) {
	_, err := FromJSON([]byte(`{"n":99999999999999999999}`), Struct("X", Field("n", Integer())))
	assert.Error(t, err)
	_, err = FromJSON([]byte(`{"n":1.5}`), Struct("X", Field("n", Integer())))
	assert.Error(t, err)
}

// ============================================================
// CBOR
// ============================================================

func TestCBORBridgeRoundTrip(t *testing.T) {
	s := makeBridgeSchema()
	v := makeBridgeValue(t, s)
	wire, err := Marshal(s, v)
	require.NoError(t, err)

	cb, err := ToCBOR(v)
	require.NoError(t, err)
	back, err := FromCBOR(cb, s)
	require.NoError(t, err)
	wire2, err := Marshal(s, back)
	require.NoError(t, err)
	assert.Equal(t, wire, wire2)
}

func TestCBORBridgeBinaryStaysBinary(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	cb, err := ToCBOR(Bin(payload))
	require.NoError(t, err)
	back, err := FromCBOR(cb, Binary())
	require.NoError(t, err)
	raw, err := back.AsBytes()
	require.NoError(t, err)
	assert.Equal(t, payload, raw)
}

func TestCBORBridgeIntegers(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 1 << 40, -(1 << 40), 9223372036854775807, -9223372036854775808} {
		cb, err := ToCBOR(Int(n))
		require.NoError(t, err)
		back, err := FromCBOR(cb, Integer())
		require.NoError(t, err)
		got, err := back.AsInt()
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestCBORBridgeShapeMismatch(t *testing.T) {
	cb, err := ToCBOR(Int(7))
	require.NoError(t, err)
	_, err = FromCBOR(cb, Binary())
	assert.Error(t, err)

	cb, err = ToCBOR(Str("spam"))
	require.NoError(t, err)
	_, err = FromCBOR(cb, Struct("X", Field("a", Integer())))
	assert.Error(t, err)
}

func TestCBORBridgeNested(t *testing.T) {
	s := ListOf(DictOf(Integer()))
	v := List(
		Dict(Entry("a", Int(1)), Entry("b", Int(2))),
		Dict(),
	)
	cb, err := ToCBOR(v)
	require.NoError(t, err)
	back, err := FromCBOR(cb, s)
	require.NoError(t, err)
	require.Equal(t, 2, back.Len())
	first, err := back.Index(0)
	require.NoError(t, err)
	n, err := first.Get("b").AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
