package stream

import (
	"io"

	"github.com/Neumenon/bencode/bencode"
)

// Writer encodes consecutive values of one schema to an io.Writer.
type Writer struct {
	w      *countingWriter
	schema *bencode.Schema
	opts   bencode.EncodeOptions
	count  int64
}

// NewWriter creates a writer emitting values of the given schema.
func NewWriter(w io.Writer, schema *bencode.Schema) *Writer {
	return NewWriterWithOptions(w, schema, bencode.DefaultEncodeOptions())
}

// NewWriterWithOptions creates a writer with explicit encode options.
func NewWriterWithOptions(w io.Writer, schema *bencode.Schema, opts bencode.EncodeOptions) *Writer {
	return &Writer{w: &countingWriter{w: w}, schema: schema, opts: opts}
}

// Write encodes one value onto the stream.
func (w *Writer) Write(v *bencode.Value) error {
	if err := bencode.EncodeWithOptions(w.w, w.schema, v, w.opts); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns the number of values written so far.
func (w *Writer) Count() int64 {
	return w.count
}

// BytesWritten returns the number of bytes emitted so far.
func (w *Writer) BytesWritten() int64 {
	return w.w.n
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
