package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// WireType is the 3-bit tag discriminator the wire format defines.
type WireType uint8

const (
	WireVarint          WireType = 0
	WireFixed64         WireType = 1
	WireLengthDelimited WireType = 2
	WireFixed32         WireType = 5
)

func (wt WireType) valid() bool {
	switch wt {
	case WireVarint, WireFixed64, WireLengthDelimited, WireFixed32:
		return true
	default:
		return false
	}
}

// SpanReader is a pull-based decoder over an immutable view of bytes.
// It never mutates the underlying slice and is exclusively owned by
// its caller for the duration of one decode operation — it is not
// safe for concurrent use.
type SpanReader struct {
	buf []byte
	pos int
}

// NewSpanReader wraps buf for reading. buf is not copied; the caller
// must not mutate it while the SpanReader is in use.
func NewSpanReader(buf []byte) *SpanReader {
	return &SpanReader{buf: buf}
}

// Len returns the number of unread bytes remaining in the view.
func (r *SpanReader) Len() int {
	return len(r.buf) - r.pos
}

// EOF reports whether every byte in the view has been consumed.
func (r *SpanReader) EOF() bool {
	return r.pos >= len(r.buf)
}

// Pos returns the current read offset, used for error context.
func (r *SpanReader) Pos() int {
	return r.pos
}

func (r *SpanReader) wrapf(reason error, format string, args ...interface{}) error {
	return fmt.Errorf("%s at offset %d: %w", fmt.Sprintf(format, args...), r.pos, reason)
}

// ReadVarint64 decodes a base-128 varint of up to 10 bytes.
func (r *SpanReader) ReadVarint64() (uint64, error) {
	var x uint64
	for shift := uint(0); shift < 64; shift += 7 {
		if r.pos >= len(r.buf) {
			return 0, r.wrapf(ErrTruncatedInput, "varint")
		}
		b := r.buf[r.pos]
		r.pos++
		x |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			if shift == 63 && b > 1 {
				return 0, r.wrapf(ErrIntegerOverflow, "varint")
			}
			return x, nil
		}
	}
	return 0, r.wrapf(ErrMalformed, "varint exceeds 10 bytes")
}

// ReadVarint32 decodes a varint and truncates it to 32 bits, matching
// the reference implementation's behavior for int32/uint32 fields
// whose wire encoding is always a 64-bit-wide varint.
func (r *SpanReader) ReadVarint32() (uint32, error) {
	v, err := r.ReadVarint64()
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// ReadZigZag64 decodes a zigzag-mapped 64-bit signed integer.
func (r *SpanReader) ReadZigZag64() (int64, error) {
	v, err := r.ReadVarint64()
	if err != nil {
		return 0, err
	}
	return int64(v>>1) ^ -int64(v&1), nil
}

// ReadZigZag32 decodes a zigzag-mapped 32-bit signed integer.
func (r *SpanReader) ReadZigZag32() (int32, error) {
	v, err := r.ReadVarint64()
	if err != nil {
		return 0, err
	}
	u := uint32(v)
	return int32(u>>1) ^ -int32(u&1), nil
}

// ReadBool decodes a varint-encoded boolean: any nonzero value is true.
func (r *SpanReader) ReadBool() (bool, error) {
	v, err := r.ReadVarint64()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ReadFixed32 reads 4 little-endian bytes.
func (r *SpanReader) ReadFixed32() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, r.wrapf(ErrTruncatedInput, "fixed32")
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadFixed64 reads 8 little-endian bytes.
func (r *SpanReader) ReadFixed64() (uint64, error) {
	if r.pos+8 > len(r.buf) {
		return 0, r.wrapf(ErrTruncatedInput, "fixed64")
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadFloat32 reads an IEEE-754 32-bit float.
func (r *SpanReader) ReadFloat32() (float32, error) {
	bits, err := r.ReadFixed32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// ReadFloat64 reads an IEEE-754 64-bit float.
func (r *SpanReader) ReadFloat64() (float64, error) {
	bits, err := r.ReadFixed64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// ReadChar16 decodes a 16-bit UTF-16 code unit, on the wire as a plain
// varint.
func (r *SpanReader) ReadChar16() (uint16, error) {
	v, err := r.ReadVarint64()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint16 {
		return 0, r.wrapf(ErrIntegerOverflow, "char16")
	}
	return uint16(v), nil
}

// lengthPrefixedView reads a varint length and returns the bounded
// byte slice that follows, without copying. It fails with
// ErrLimitExceeded if the length would run past the end of the view.
func (r *SpanReader) lengthPrefixedView() ([]byte, error) {
	n, err := r.ReadVarint64()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(r.buf)-r.pos) {
		return nil, r.wrapf(ErrLimitExceeded, "length-delimited field of %d bytes", n)
	}
	start := r.pos
	r.pos += int(n)
	return r.buf[start:r.pos], nil
}

// ReadLengthDelimited returns a new SpanReader bounded to exactly the
// next length-prefixed segment. It does not copy; the caller must
// consume exactly that segment's worth of decoding.
func (r *SpanReader) ReadLengthDelimited() (*SpanReader, error) {
	view, err := r.lengthPrefixedView()
	if err != nil {
		return nil, err
	}
	return NewSpanReader(view), nil
}

// ReadBytesInto decodes a length-delimited field into a freshly
// allocated, owned byte slice (a copy of the underlying view, so it
// outlives the buffer the SpanReader wraps).
func (r *SpanReader) ReadBytesInto() ([]byte, error) {
	view, err := r.lengthPrefixedView()
	if err != nil {
		return nil, err
	}
	if len(view) == 0 {
		return nil, nil
	}
	owned := make([]byte, len(view))
	copy(owned, view)
	return owned, nil
}

// ReadStringInto decodes a length-delimited UTF-8 string into a new
// owned Go string.
func (r *SpanReader) ReadStringInto() (string, error) {
	view, err := r.lengthPrefixedView()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(view) {
		return "", r.wrapf(ErrMalformed, "invalid UTF-8 string")
	}
	return string(view), nil
}

// ReadTag decodes the next field tag. ok is false (with err == nil)
// when the view has been fully consumed — the normal, successful
// end-of-input condition the generated Read<M> loop checks for.
func (r *SpanReader) ReadTag() (fieldNumber int32, wireType WireType, ok bool, err error) {
	if r.EOF() {
		return 0, 0, false, nil
	}
	v, err := r.ReadVarint64()
	if err != nil {
		return 0, 0, false, err
	}
	wt := WireType(v & 0x7)
	fn := v >> 3
	if !wt.valid() {
		return 0, 0, false, r.wrapf(ErrMalformed, "wire type %d not in {0,1,2,5}", wt)
	}
	if fn == 0 || fn > 0x1fffffff {
		return 0, 0, false, r.wrapf(ErrMalformed, "field number %d out of range", fn)
	}
	return int32(fn), wt, true, nil
}

// Skip advances past a field whose tag has been consumed but whose
// value the caller does not need. Required for forward compatibility:
// unknown tags must be skippable without error.
func (r *SpanReader) Skip(wt WireType) error {
	switch wt {
	case WireVarint:
		_, err := r.ReadVarint64()
		return err
	case WireFixed32:
		_, err := r.ReadFixed32()
		return err
	case WireFixed64:
		_, err := r.ReadFixed64()
		return err
	case WireLengthDelimited:
		_, err := r.lengthPrefixedView()
		return err
	default:
		return r.wrapf(ErrMalformed, "cannot skip wire type %d", wt)
	}
}
