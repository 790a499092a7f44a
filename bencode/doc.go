// Package bencode implements a schema-driven codec for bencode, the
// encoding used by BitTorrent metainfo and tracker messages.
//
// The codec is designed to be:
//   - Schema-driven (the shape steers decoding, not reflection)
//   - Single-pass (one byte of pushback, no full-document buffering)
//   - Forward-compatible (unknown dictionary keys skip without materializing)
//   - Allocation-frugal (scratch buffer for short strings, LRU key interning)
//   - Byte-exact (capture returns the raw span of a field, for infohashes)
//
// # Data Model
//
// Scalars: integer, text, binary
// Containers: list, dictionary (homogeneous), struct (fixed fields)
//
// Text and binary share one wire type, the byte string; the schema
// decides which one a payload materializes as, and text goes through
// the configured charset.
//
// # Wire Syntax
//
// Integer:     i<digits>e        i42e  i-7e
// Byte string: <len>:<bytes>     4:spam
// List:        l...e             l4:spami42ee
// Dictionary:  d...e             d3:fooi1ee
//
// Every byte is structural. There is no whitespace and no padding.
//
// # Schema
//
//	info := bencode.Struct("Info",
//		bencode.Field("name", bencode.Text()),
//		bencode.Field("piece length", bencode.Integer()),
//		bencode.Field("pieces", bencode.Binary(), bencode.WithOptional()),
//	)
//
// Struct fields are required unless marked optional. A field marked
// with WithCapture reports the byte range its value occupied in the
// input, so callers can hash or re-emit the original bytes.
//
// # Decoding
//
//	v, err := bencode.Unmarshal(data, info)
//	name, err := v.Field("name").AsText()
//
// Decode reads from a stream and leaves it positioned after the value;
// Unmarshal requires the buffer to hold exactly one value. Both accept
// input key order freely and keep the last value of a repeated key.
//
// # Encoding
//
// Encoding is canonical for a given schema: struct fields emit in
// declaration order, integers without leading zeros, -0 as 0. SortKeys
// switches to byte order of the encoded keys for BEP 3 consumers.
package bencode
