package wire

import (
	"encoding/binary"
	"math"
	"sync"
)

// defaultStagingSize is the default size of a StreamWriter's staging
// buffer. It is comfortably larger than any single fixed-width
// primitive or tag, so the varint and fixed-width fast paths almost
// never need to flush mid-value.
const defaultStagingSize = 4096

// smallStringThreshold is the UTF-8 byte count up to which
// WriteString encodes through a small stack-local array instead of a
// pooled scratch buffer (spec §4.2 "short-string fast path"; 4*N<=
// stack allowance with N=256 8-bit code units covers the common case
// of short identifiers and keys without touching the pool).
const smallStringThreshold = 256

var stringScratchPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 1024)
		return &b
	},
}

// StreamWriter wraps a staging buffer over a Sink. It is exclusively
// owned by its caller for the duration of one encode and is not safe
// for concurrent use — the same restriction the SpanReader carries.
type StreamWriter struct {
	sink    Sink
	staging []byte
	used    int
}

// NewStreamWriter creates a StreamWriter with the default staging
// buffer size.
func NewStreamWriter(sink Sink) *StreamWriter {
	return NewStreamWriterSize(sink, defaultStagingSize)
}

// NewStreamWriterSize creates a StreamWriter with a caller-chosen
// staging buffer size.
func NewStreamWriterSize(sink Sink, size int) *StreamWriter {
	if size <= 0 {
		size = defaultStagingSize
	}
	return &StreamWriter{sink: sink, staging: make([]byte, size)}
}

// Flush drains the staging buffer to the sink. Required at the end of
// any top-level Write<M> call before the bytes are considered final.
func (w *StreamWriter) Flush() error {
	if w.used == 0 {
		return nil
	}
	err := w.sink.WriteBytes(w.staging[:w.used])
	w.used = 0
	return err
}

func (w *StreamWriter) freeSpace() int {
	return len(w.staging) - w.used
}

// WriteBytes is the copy-through primitive every other writer method
// bottoms out in. If the staging buffer lacks room and the payload
// itself is larger than the whole buffer, it flushes what's staged
// and then writes the payload directly to the sink rather than
// fragmenting it across multiple partial copies.
func (w *StreamWriter) WriteBytes(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if len(p) > len(w.staging) {
		if err := w.Flush(); err != nil {
			return err
		}
		return w.sink.WriteBytes(p)
	}
	if w.freeSpace() < len(p) {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	w.used += copy(w.staging[w.used:], p)
	return nil
}

// WriteTag emits a varint-encoded (field_number<<3)|wire_type tag.
func (w *StreamWriter) WriteTag(fieldNumber int32, wt WireType) error {
	return w.WriteVarint64((uint64(fieldNumber) << 3) | uint64(wt))
}

// WriteVarint64 emits v as a base-128 varint, using a direct
// no-bounds-check path when the staging buffer has the full 10 bytes
// a 64-bit varint could ever need, and a safe one-byte-at-a-time path
// otherwise.
func (w *StreamWriter) WriteVarint64(v uint64) error {
	if w.freeSpace() >= binary.MaxVarintLen64 {
		n := putUvarint(w.staging[w.used:], v)
		w.used += n
		return nil
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if w.freeSpace() >= binary.MaxVarintLen64 {
		n := putUvarint(w.staging[w.used:], v)
		w.used += n
		return nil
	}
	// Staging buffer itself is smaller than one varint; encode into a
	// local scratch array and copy-through.
	var tmp [binary.MaxVarintLen64]byte
	n := putUvarint(tmp[:], v)
	return w.WriteBytes(tmp[:n])
}

// WriteVarint32 emits v zero-extended to 64 bits, matching the
// reference implementation's convention that int32/uint32 fields are
// always varint-decoded as 64-bit values.
func (w *StreamWriter) WriteVarint32(v uint32) error {
	return w.WriteVarint64(uint64(v))
}

// putUvarint is the standard 7-bits-per-byte varint encoding.
func putUvarint(buf []byte, v uint64) int {
	i := 0
	for v >= 0x80 {
		buf[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	buf[i] = byte(v)
	return i + 1
}

// WriteZigZag64 zigzag-maps v and writes it as a varint.
func (w *StreamWriter) WriteZigZag64(v int64) error {
	return w.WriteVarint64(uint64(v<<1) ^ uint64(v>>63))
}

// WriteZigZag32 zigzag-maps v and writes it as a varint.
func (w *StreamWriter) WriteZigZag32(v int32) error {
	return w.WriteVarint32(uint32(v<<1) ^ uint32(v>>31))
}

// WriteBool emits the canonical one-byte varint boolean encoding.
func (w *StreamWriter) WriteBool(v bool) error {
	if v {
		return w.WriteVarint64(1)
	}
	return w.WriteVarint64(0)
}

// WriteChar16 emits a 16-bit character as a plain varint codepoint.
func (w *StreamWriter) WriteChar16(v uint16) error {
	return w.WriteVarint64(uint64(v))
}

// WriteFixed32 emits 4 little-endian bytes.
func (w *StreamWriter) WriteFixed32(v uint32) error {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return w.WriteBytes(tmp[:])
}

// WriteFixed64 emits 8 little-endian bytes.
func (w *StreamWriter) WriteFixed64(v uint64) error {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return w.WriteBytes(tmp[:])
}

// WriteFloat32 emits an IEEE-754 32-bit float, little-endian.
func (w *StreamWriter) WriteFloat32(v float32) error {
	return w.WriteFixed32(math.Float32bits(v))
}

// WriteFloat64 emits an IEEE-754 64-bit float, little-endian.
func (w *StreamWriter) WriteFloat64(v float64) error {
	return w.WriteFixed64(math.Float64bits(v))
}

// WriteLengthDelimitedHeader emits a varint length prefix. Callers
// must follow it with exactly n bytes of body.
func (w *StreamWriter) WriteLengthDelimitedHeader(n int) error {
	return w.WriteVarint64(uint64(n))
}

// WriteBytesField emits a length-delimited bytes field: a varint
// length prefix followed by the raw bytes.
func (w *StreamWriter) WriteBytesField(p []byte) error {
	if err := w.WriteLengthDelimitedHeader(len(p)); err != nil {
		return err
	}
	return w.WriteBytes(p)
}

// WriteString emits a length-delimited UTF-8 string. Strings at or
// under smallStringThreshold bytes are staged through a small
// stack-local array; longer strings borrow a scratch buffer from a
// process-wide pool, released on every exit path.
func (w *StreamWriter) WriteString(s string) error {
	if err := w.WriteLengthDelimitedHeader(len(s)); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	if len(s) <= smallStringThreshold {
		var tmp [smallStringThreshold]byte
		n := copy(tmp[:], s)
		return w.WriteBytes(tmp[:n])
	}

	scratchPtr := stringScratchPool.Get().(*[]byte)
	defer func() {
		*scratchPtr = (*scratchPtr)[:0]
		stringScratchPool.Put(scratchPtr)
	}()
	scratch := *scratchPtr
	if cap(scratch) < len(s) {
		scratch = make([]byte, len(s))
	} else {
		scratch = scratch[:len(s)]
	}
	copy(scratch, s)
	*scratchPtr = scratch
	return w.WriteBytes(scratch)
}
