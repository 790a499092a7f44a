package bencode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

// Grammar bytes. Every byte of a bencoded document is structural; there
// is no insignificant whitespace.
const (
	prefixInteger = 'i'
	prefixList    = 'l'
	prefixDict    = 'd'
	terminator    = 'e'
	lengthSep     = ':'
)

const (
	// maxIntegerDigits bounds integer and length literals. An int64
	// never needs more than 19 decimal digits, so longer literals are
	// rejected outright rather than silently wrapped further.
	maxIntegerDigits = 19

	// scratchSize is the capacity of the per-call scratch buffer that
	// short string payloads and skip chunks pass through.
	scratchSize = 4096

	defaultMaxDepth     = 1024
	defaultMaxStringLen = 1 << 26 // 64 MiB
)

// Range is the byte span consumed decoding the capture-marked field,
// counted from the start of the decode call.
type Range struct {
	Offset int64
	Length int64
}

// DecodeOptions configures a decode call. The zero value selects the
// defaults.
type DecodeOptions struct {
	// Charset decodes byte strings into text for Text shapes and
	// dictionary keys. nil means UTF-8, with invalid sequences decoded
	// to U+FFFD.
	Charset encoding.Encoding

	// MaxDepth bounds value nesting, skipped substructures included
	// (default 1024).
	MaxDepth int

	// CacheBudget bounds the intern cache cost in bytes (default
	// 1 MiB). Negative disables interning.
	CacheBudget int

	// MaxStringLen bounds a single string payload (default 64 MiB).
	// Negative removes the bound.
	MaxStringLen int64

	// Interner, when non-nil, replaces the per-call intern cache with
	// one persisted across the calls of a session. See Interner.
	Interner *Interner
}

// DefaultDecodeOptions returns the default decode configuration.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		MaxDepth:     defaultMaxDepth,
		CacheBudget:  defaultCacheBudget,
		MaxStringLen: defaultMaxStringLen,
	}
}

// ============================================================
// Entry points
// ============================================================

// Unmarshal decodes data against the schema. The whole input must be
// one value: trailing bytes are an error.
func Unmarshal(data []byte, s *Schema) (*Value, error) {
	v, _, err := unmarshal(data, s)
	return v, err
}

// UnmarshalRange is Unmarshal returning the captured byte range as
// well; the range is nil when the schema marks no field for capture.
func UnmarshalRange(data []byte, s *Schema) (*Value, *Range, error) {
	return unmarshal(data, s)
}

func unmarshal(data []byte, s *Schema) (*Value, *Range, error) {
	r := bytes.NewReader(data)
	v, rng, err := DecodeWithOptions(context.Background(), r, s, DefaultDecodeOptions())
	if err != nil {
		return nil, nil, err
	}
	if r.Len() > 0 {
		off := int64(len(data) - r.Len())
		return nil, nil, &SyntaxError{Offset: off, Message: fmt.Sprintf("%d trailing bytes after value", r.Len())}
	}
	return v, rng, nil
}

// Decode decodes one value from r against the schema, leaving r
// positioned after the value.
func Decode(ctx context.Context, r io.Reader, s *Schema) (*Value, error) {
	v, _, err := DecodeWithOptions(ctx, r, s, DefaultDecodeOptions())
	return v, err
}

// DecodeRange is Decode returning the captured byte range as well; the
// range is nil when the schema marks no field for capture.
func DecodeRange(ctx context.Context, r io.Reader, s *Schema) (*Value, *Range, error) {
	return DecodeWithOptions(ctx, r, s, DefaultDecodeOptions())
}

// DecodeWithOptions decodes one value from r against the schema.
//
// All decode state lives for this one call: on error or cancellation
// the stream is left partially consumed and is not resumable.
// Independent calls on separate streams may run concurrently.
func DecodeWithOptions(ctx context.Context, r io.Reader, s *Schema, opts DecodeOptions) (*Value, *Range, error) {
	if s == nil {
		return nil, nil, errors.New("bencode: nil schema")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	if opts.CacheBudget == 0 {
		opts.CacheBudget = defaultCacheBudget
	}
	if opts.MaxStringLen == 0 {
		opts.MaxStringLen = defaultMaxStringLen
	}

	d := &decoder{ctx: ctx, rd: newReader(r), opts: opts}
	switch {
	case opts.Interner != nil:
		d.cache = opts.Interner.cache
	case opts.CacheBudget > 0:
		d.cache = newStringCache(opts.CacheBudget)
	}

	v, err := d.value(s)
	if err != nil {
		return nil, nil, err
	}
	return v, d.captured, nil
}

// ============================================================
// Decoder engine
// ============================================================

type decoder struct {
	ctx        context.Context
	rd         *reader
	cache      *stringCache      // nil when interning is disabled
	charsetDec *encoding.Decoder // lazily built from opts.Charset
	opts       DecodeOptions

	scratch  [scratchSize]byte
	depth    int
	captured *Range
}

func (d *decoder) syntaxErr(off int64, format string, args ...interface{}) error {
	return &SyntaxError{Offset: off, Message: fmt.Sprintf(format, args...)}
}

func (d *decoder) enter() error {
	d.depth++
	if d.depth > d.opts.MaxDepth {
		return d.syntaxErr(d.rd.pos(), "nesting exceeds %d levels", d.opts.MaxDepth)
	}
	return nil
}

func (d *decoder) leave() {
	d.depth--
}

func (d *decoder) expect(want byte) error {
	b, err := d.rd.readByte()
	if err != nil {
		return err
	}
	if b != want {
		return d.syntaxErr(d.rd.pos()-1, "expected %q, got %q", want, b)
	}
	return nil
}

// value decodes one value of the given shape.
func (d *decoder) value(s *Schema) (*Value, error) {
	switch s.kind {
	case KindInteger:
		return d.integer()
	case KindText:
		return d.textValue()
	case KindBinary:
		return d.binaryValue()
	case KindList:
		return d.list(s)
	case KindDict:
		return d.dict(s)
	case KindStruct:
		return d.structured(s)
	default:
		return nil, fmt.Errorf("bencode: invalid schema kind %s", s.kind)
	}
}

// integer decodes i<digits>e. The digit accumulation matches what
// existing producers emit: i-0e decodes to 0, leading zeros are
// accepted, and values within the digit bound wrap silently.
func (d *decoder) integer() (*Value, error) {
	if err := d.expect(prefixInteger); err != nil {
		return nil, err
	}
	b, err := d.rd.readByte()
	if err != nil {
		return nil, err
	}
	neg := false
	if b == '-' {
		neg = true
		b, err = d.rd.readByte()
		if err != nil {
			return nil, err
		}
	}
	var n int64
	digits := 0
	for b != terminator {
		if b < '0' || b > '9' {
			return nil, d.syntaxErr(d.rd.pos()-1, "unexpected byte %q in integer", b)
		}
		digits++
		if digits > maxIntegerDigits {
			return nil, d.syntaxErr(d.rd.pos()-1, "integer exceeds %d digits", maxIntegerDigits)
		}
		n = n*10 + int64(b-'0')
		b, err = d.rd.readByte()
		if err != nil {
			return nil, err
		}
	}
	if digits == 0 {
		return nil, d.syntaxErr(d.rd.pos()-1, "integer has no digits")
	}
	if neg {
		n = -n
	}
	return Int(n), nil
}

// readLength reads a decimal string length whose first byte is b, up to
// the separator.
func (d *decoder) readLength(b byte) (int64, error) {
	if b == '-' {
		return 0, d.syntaxErr(d.rd.pos()-1, "negative string length")
	}
	if b < '0' || b > '9' {
		return 0, d.syntaxErr(d.rd.pos()-1, "expected string length, got %q", b)
	}
	var n int64
	digits := 0
	for b != lengthSep {
		if b < '0' || b > '9' {
			return 0, d.syntaxErr(d.rd.pos()-1, "unexpected byte %q in string length", b)
		}
		digits++
		if digits > maxIntegerDigits {
			return 0, d.syntaxErr(d.rd.pos()-1, "string length exceeds %d digits", maxIntegerDigits)
		}
		n = n*10 + int64(b-'0')
		var err error
		b, err = d.rd.readByte()
		if err != nil {
			return 0, err
		}
	}
	if n < 0 {
		return 0, d.syntaxErr(d.rd.pos()-1, "string length overflows")
	}
	return n, nil
}

// stringBytes reads <len>:<payload> whose first length byte is b.
// When borrowed is true the returned slice aliases the scratch buffer
// and is only valid until the next decoder step. MaxStringLen applies
// here, before the payload is allocated; the skip path, which never
// allocates, is exempt.
func (d *decoder) stringBytes(b byte) (raw []byte, borrowed bool, err error) {
	n, err := d.readLength(b)
	if err != nil {
		return nil, false, err
	}
	if d.opts.MaxStringLen >= 0 && n > d.opts.MaxStringLen {
		return nil, false, d.syntaxErr(d.rd.pos()-1, "string length %d exceeds limit %d", n, d.opts.MaxStringLen)
	}
	if n <= scratchSize {
		buf := d.scratch[:n]
		if err := d.rd.readFull(buf); err != nil {
			return nil, false, err
		}
		return buf, true, nil
	}
	buf := make([]byte, n)
	if err := d.rd.readFull(buf); err != nil {
		return nil, false, err
	}
	return buf, false, nil
}

func (d *decoder) textValue() (*Value, error) {
	b, err := d.rd.readByte()
	if err != nil {
		return nil, err
	}
	raw, _, err := d.stringBytes(b)
	if err != nil {
		return nil, err
	}
	s, err := d.text(raw)
	if err != nil {
		return nil, err
	}
	return Str(s), nil
}

func (d *decoder) binaryValue() (*Value, error) {
	b, err := d.rd.readByte()
	if err != nil {
		return nil, err
	}
	raw, borrowed, err := d.stringBytes(b)
	if err != nil {
		return nil, err
	}
	if borrowed {
		owned := make([]byte, len(raw))
		copy(owned, raw)
		return Bin(owned), nil
	}
	return Bin(raw), nil
}

// text materializes raw through the intern cache, decoding via the
// configured charset on a miss. The cache stores its own copy of raw,
// never a scratch-backed slice.
func (d *decoder) text(raw []byte) (string, error) {
	if d.cache != nil {
		if s, ok := d.cache.lookup(raw); ok {
			return s, nil
		}
	}
	s, err := d.decodeCharset(raw)
	if err != nil {
		return "", err
	}
	if d.cache != nil {
		d.cache.store(raw, s)
	}
	return s, nil
}

func (d *decoder) decodeCharset(raw []byte) (string, error) {
	if d.opts.Charset == nil {
		if utf8.Valid(raw) {
			return string(raw), nil
		}
		return replaceInvalidUTF8(raw), nil
	}
	if d.charsetDec == nil {
		d.charsetDec = d.opts.Charset.NewDecoder()
	}
	out, err := d.charsetDec.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("bencode: decoding text: %w", err)
	}
	return string(out), nil
}

func replaceInvalidUTF8(raw []byte) string {
	var sb strings.Builder
	sb.Grow(len(raw))
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		sb.WriteRune(r)
		raw = raw[size:]
	}
	return sb.String()
}

func (d *decoder) list(s *Schema) (*Value, error) {
	if err := d.expect(prefixList); err != nil {
		return nil, err
	}
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	var items []*Value
	for {
		if err := d.ctx.Err(); err != nil {
			return nil, err
		}
		b, err := d.rd.readByte()
		if err != nil {
			return nil, err
		}
		if b == terminator {
			break
		}
		d.rd.unreadByte(b)
		item, err := d.value(s.elem)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return List(items...), nil
}

// keyFrom materializes a dictionary key whose first byte is b. Keys
// must be byte strings; they decode as text through the cache.
func (d *decoder) keyFrom(b byte) (string, error) {
	if b < '0' || b > '9' {
		return "", d.syntaxErr(d.rd.pos()-1, "dictionary key must be a byte string, got %q", b)
	}
	raw, _, err := d.stringBytes(b)
	if err != nil {
		return "", err
	}
	return d.text(raw)
}

func (d *decoder) dict(s *Schema) (*Value, error) {
	if err := d.expect(prefixDict); err != nil {
		return nil, err
	}
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	var entries []DictEntry
	for {
		if err := d.ctx.Err(); err != nil {
			return nil, err
		}
		b, err := d.rd.readByte()
		if err != nil {
			return nil, err
		}
		if b == terminator {
			break
		}
		key, err := d.keyFrom(b)
		if err != nil {
			return nil, err
		}
		val, err := d.value(s.elem)
		if err != nil {
			return nil, err
		}
		entries = append(entries, DictEntry{Key: key, Value: val})
	}
	return Dict(entries...), nil
}

// structured decodes a dictionary against a fixed field set. Unknown
// keys are skipped without materializing; input key order is free;
// a known key seen twice keeps its last value.
func (d *decoder) structured(s *Schema) (*Value, error) {
	if err := d.expect(prefixDict); err != nil {
		return nil, err
	}
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	v := NewStruct(s)
	fields := v.structVal.Fields
	unseen := len(fields)
	for {
		if err := d.ctx.Err(); err != nil {
			return nil, err
		}
		b, err := d.rd.readByte()
		if err != nil {
			return nil, err
		}
		if b == terminator {
			break
		}
		if unseen == 0 {
			// Every schema field is satisfied: consume the remaining
			// pairs without materializing them.
			if err := d.skipKeyFrom(b); err != nil {
				return nil, err
			}
			if err := d.skipValue(); err != nil {
				return nil, err
			}
			continue
		}
		key, err := d.keyFrom(b)
		if err != nil {
			return nil, err
		}
		idx, ok := s.byName[key]
		if !ok {
			if err := d.skipValue(); err != nil {
				return nil, err
			}
			continue
		}
		f := s.fields[idx]
		if f.Capture && d.captured != nil {
			return nil, ErrRangeConflict
		}
		start := d.rd.pos()
		val, err := d.value(f.Shape)
		if err != nil {
			return nil, err
		}
		if f.Capture {
			d.captured = &Range{Offset: start, Length: d.rd.pos() - start}
		}
		if fields[idx] == nil {
			unseen--
		}
		fields[idx] = val
	}
	for i, f := range s.fields {
		if fields[i] == nil && !f.Optional {
			return nil, &MissingFieldError{Struct: s.name, Field: f.Name}
		}
	}
	return v, nil
}

// ============================================================
// Skip logic
// ============================================================

// skipValue consumes one value without materializing it.
func (d *decoder) skipValue() error {
	b, err := d.rd.readByte()
	if err != nil {
		return err
	}
	return d.skipFrom(b)
}

// skipFrom consumes the remainder of a value whose first byte is b.
func (d *decoder) skipFrom(b byte) error {
	if err := d.ctx.Err(); err != nil {
		return err
	}
	switch {
	case b == prefixInteger:
		return d.skipInteger()
	case b == prefixList, b == prefixDict:
		return d.skipContainer()
	case b >= '0' && b <= '9':
		return d.skipString(b)
	default:
		return d.syntaxErr(d.rd.pos()-1, "unexpected byte %q", b)
	}
}

// skipInteger scans to the terminator without validating digits.
func (d *decoder) skipInteger() error {
	for {
		b, err := d.rd.readByte()
		if err != nil {
			return err
		}
		if b == terminator {
			return nil
		}
	}
}

// skipString consumes <len>:<payload> through the scratch buffer in
// chunks, never allocating for the payload.
func (d *decoder) skipString(b byte) error {
	n, err := d.readLength(b)
	if err != nil {
		return err
	}
	for n > 0 {
		chunk := n
		if chunk > scratchSize {
			chunk = scratchSize
		}
		if err := d.rd.readFull(d.scratch[:chunk]); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// skipKeyFrom consumes a dictionary key without materializing it.
func (d *decoder) skipKeyFrom(b byte) error {
	if b < '0' || b > '9' {
		return d.syntaxErr(d.rd.pos()-1, "dictionary key must be a byte string, got %q", b)
	}
	return d.skipString(b)
}

// skipContainer consumes list or dictionary contents to the matching
// terminator, recursing with the same rules.
func (d *decoder) skipContainer() error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()
	for {
		b, err := d.rd.readByte()
		if err != nil {
			return err
		}
		if b == terminator {
			return nil
		}
		if err := d.skipFrom(b); err != nil {
			return err
		}
	}
}
