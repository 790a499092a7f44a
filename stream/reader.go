// Package stream reads and writes sequences of bencode values over a
// single connection or file, one schema per stream.
//
// Values are butted directly against each other on the wire; bencode
// needs no framing between them. The reader keeps one intern cache for
// the whole stream, so keys repeated across consecutive values decode
// to shared strings.
package stream

import (
	"bufio"
	"context"
	"io"

	"golang.org/x/text/encoding"

	"github.com/Neumenon/bencode/bencode"
)

// Reader decodes consecutive values of one schema from an io.Reader.
type Reader struct {
	r      *bufio.Reader
	schema *bencode.Schema
	opts   bencode.DecodeOptions

	count     int64
	lastRange *bencode.Range
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithCharset sets the charset byte strings decode through
// (default: UTF-8).
func WithCharset(enc encoding.Encoding) ReaderOption {
	return func(r *Reader) {
		r.opts.Charset = enc
	}
}

// WithMaxDepth sets the nesting limit per value (default: 1024).
func WithMaxDepth(max int) ReaderOption {
	return func(r *Reader) {
		r.opts.MaxDepth = max
	}
}

// WithMaxStringLen sets the maximum single string payload
// (default: 64 MiB).
func WithMaxStringLen(max int64) ReaderOption {
	return func(r *Reader) {
		r.opts.MaxStringLen = max
	}
}

// WithCacheBudget sets the stream's intern cache budget
// (default: 1 MiB).
func WithCacheBudget(budget int) ReaderOption {
	return func(r *Reader) {
		r.opts.Interner = bencode.NewInterner(budget)
	}
}

// NewReader creates a reader decoding values of the given schema.
func NewReader(r io.Reader, schema *bencode.Schema, opts ...ReaderOption) *Reader {
	reader := &Reader{
		r:      bufio.NewReader(r),
		schema: schema,
		opts:   bencode.DefaultDecodeOptions(),
	}
	reader.opts.Interner = bencode.NewInterner(0)
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Next reads and returns the next value.
// Returns io.EOF when the stream ends cleanly on a value boundary; a
// stream ending mid-value fails with bencode.ErrUnexpectedEnd.
func (r *Reader) Next(ctx context.Context) (*bencode.Value, error) {
	if _, err := r.r.ReadByte(); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}
	if err := r.r.UnreadByte(); err != nil {
		return nil, err
	}

	v, rng, err := bencode.DecodeWithOptions(ctx, r.r, r.schema, r.opts)
	if err != nil {
		return nil, err
	}
	r.count++
	r.lastRange = rng
	return v, nil
}

// Range returns the byte range captured while decoding the last value,
// with offsets counted from that value's first byte. Nil when the
// schema marks no capture field or the last value had none.
func (r *Reader) Range() *bencode.Range {
	return r.lastRange
}

// Count returns the number of values read so far.
func (r *Reader) Count() int64 {
	return r.count
}

// ReadAll reads values until EOF.
func (r *Reader) ReadAll(ctx context.Context) ([]*bencode.Value, error) {
	var values []*bencode.Value
	for {
		v, err := r.Next(ctx)
		if err == io.EOF {
			return values, nil
		}
		if err != nil {
			return values, err
		}
		values = append(values, v)
	}
}
