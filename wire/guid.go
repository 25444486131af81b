package wire

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// 128-bit identifier BCL encoding (spec §6, §4.5): a nested message of
// two fixed64 fields — field 1 is the low 8 bytes of the identifier's
// 16-byte sequence (little-endian), field 2 the high 8 bytes
// (little-endian). This mirrors the reference implementation's
// bcl.Guid convention. The all-zero identifier is absent on the wire;
// callers check IsZeroGUID before emitting the field's own tag and
// length prefix.

const (
	guidLowTag  int32 = 1
	guidHighTag int32 = 2
)

// IsZeroGUID reports whether id is the all-zero identifier, which is
// never serialized (spec §3, §7 "semantic absence").
func IsZeroGUID(id uuid.UUID) bool {
	return id == uuid.Nil
}

// SizeGUIDBody returns the encoded size of a non-zero identifier's
// nested-message body (excluding the enclosing field's own tag and
// length prefix): two fixed64 fields, 9 bytes each, always 18.
func SizeGUIDBody(uuid.UUID) int {
	return SizeOfTag(guidLowTag, WireFixed64) + 8 + SizeOfTag(guidHighTag, WireFixed64) + 8
}

// WriteGUIDBody writes the nested-message body for a non-zero
// identifier. Callers are responsible for the enclosing field's tag
// and length prefix (SizeGUIDBody gives the length to prefix with).
func WriteGUIDBody(w *StreamWriter, id uuid.UUID) error {
	low := binary.LittleEndian.Uint64(id[0:8])
	high := binary.LittleEndian.Uint64(id[8:16])
	if err := w.WriteTag(guidLowTag, WireFixed64); err != nil {
		return err
	}
	if err := w.WriteFixed64(low); err != nil {
		return err
	}
	if err := w.WriteTag(guidHighTag, WireFixed64); err != nil {
		return err
	}
	return w.WriteFixed64(high)
}

// ReadGUIDBody decodes an identifier's nested-message body from r,
// tolerating the two fixed64 fields in either order and skipping any
// unknown tag (forward compatibility, spec §8).
func ReadGUIDBody(r *SpanReader) (uuid.UUID, error) {
	var low, high uint64
	var sawLow, sawHigh bool
	for {
		fieldNumber, wt, ok, err := r.ReadTag()
		if err != nil {
			return uuid.Nil, err
		}
		if !ok {
			break
		}
		switch fieldNumber {
		case guidLowTag:
			low, err = r.ReadFixed64()
			if err != nil {
				return uuid.Nil, err
			}
			sawLow = true
		case guidHighTag:
			high, err = r.ReadFixed64()
			if err != nil {
				return uuid.Nil, err
			}
			sawHigh = true
		default:
			if err := r.Skip(wt); err != nil {
				return uuid.Nil, err
			}
		}
	}
	if !sawLow && !sawHigh {
		return uuid.Nil, nil
	}
	var id uuid.UUID
	binary.LittleEndian.PutUint64(id[0:8], low)
	binary.LittleEndian.PutUint64(id[8:16], high)
	return id, nil
}
