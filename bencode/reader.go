package bencode

import (
	"errors"
	"io"
)

// reader wraps a decode call's byte source with the one-byte pushback
// and running offset the engine needs. The offset counts consumed
// bytes from the start of the call: +1 per read, -1 per pushback.
//
// When the source implements io.ByteReader it is used directly, so the
// caller keeps control of buffering (wrap files and sockets in a
// bufio.Reader for sequential decodes). Otherwise single bytes are
// pulled through a one-byte read.
type reader struct {
	r   io.Reader
	br  io.ByteReader // r, when it implements io.ByteReader
	one [1]byte

	off       int64
	pushed    byte
	hasPushed bool
}

func newReader(r io.Reader) *reader {
	rd := &reader{r: r}
	if br, ok := r.(io.ByteReader); ok {
		rd.br = br
	}
	return rd
}

// readByte returns the next byte, failing with ErrUnexpectedEnd on
// exhaustion.
func (rd *reader) readByte() (byte, error) {
	if rd.hasPushed {
		rd.hasPushed = false
		rd.off++
		return rd.pushed, nil
	}
	var b byte
	if rd.br != nil {
		var err error
		b, err = rd.br.ReadByte()
		if err != nil {
			return 0, endOfInput(err)
		}
	} else {
		if _, err := io.ReadFull(rd.r, rd.one[:]); err != nil {
			return 0, endOfInput(err)
		}
		b = rd.one[0]
	}
	rd.off++
	return b, nil
}

// unreadByte makes the next readByte return b again. At most one
// pushback may be outstanding.
func (rd *reader) unreadByte(b byte) {
	if rd.hasPushed {
		panic("bencode: pushback already pending")
	}
	rd.pushed = b
	rd.hasPushed = true
	rd.off--
}

// pos returns the byte offset from the start of the call.
func (rd *reader) pos() int64 {
	return rd.off
}

// readFull fills p from the source, failing with ErrUnexpectedEnd if
// fewer than len(p) bytes remain.
func (rd *reader) readFull(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if rd.hasPushed {
		p[0] = rd.pushed
		rd.hasPushed = false
		rd.off++
		p = p[1:]
		if len(p) == 0 {
			return nil
		}
	}
	if _, err := io.ReadFull(rd.r, p); err != nil {
		return endOfInput(err)
	}
	rd.off += int64(len(p))
	return nil
}

// endOfInput maps source exhaustion to ErrUnexpectedEnd; real I/O
// errors pass through unchanged.
func endOfInput(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrUnexpectedEnd
	}
	return err
}
