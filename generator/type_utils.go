package generator

import (
	"strings"

	"github.com/bclproto/bclproto/schema"
)

// goReservedKeywords is the set of identifiers Go syntax reserves that
// generated field and message names must never collide with.
var goReservedKeywords = map[string]bool{
	"break": true, "default": true, "func": true, "interface": true, "select": true,
	"case": true, "defer": true, "go": true, "map": true, "struct": true,
	"chan": true, "else": true, "goto": true, "package": true, "switch": true,
	"const": true, "fallthrough": true, "if": true, "range": true, "type": true,
	"continue": true, "for": true, "import": true, "return": true, "var": true,
}

// sanitizeKeyword renames a Go reserved word by appending an
// underscore, mirroring the teacher's leading-underscore convention
// but trailing: a leading underscore on an exported field would stop
// it being exported.
func sanitizeKeyword(w string) string {
	if goReservedKeywords[w] {
		return w + "_"
	}
	return w
}

// typeToGo returns the Go type used for one field's Kind, ignoring
// cardinality (callers wrap in []T or map[K]V themselves).
func typeToGo(f *schema.Field) string {
	switch f.Kind {
	case schema.KindInt8:
		return "int8"
	case schema.KindInt16:
		return "int16"
	case schema.KindInt32:
		return "int32"
	case schema.KindInt64:
		return "int64"
	case schema.KindUint8:
		return "uint8"
	case schema.KindUint16:
		return "uint16"
	case schema.KindUint32:
		return "uint32"
	case schema.KindUint64:
		return "uint64"
	case schema.KindBool:
		return "bool"
	case schema.KindFloat32:
		return "float32"
	case schema.KindFloat64:
		return "float64"
	case schema.KindChar16:
		return "uint16"
	case schema.KindBytes:
		return "[]byte"
	case schema.KindString:
		return "string"
	case schema.KindGUID:
		return "uuid.UUID"
	case schema.KindMessage:
		if f.MessageType != nil {
			return "*" + f.MessageType.GoName
		}
		return "*struct{}"
	case schema.KindPair:
		return "struct {\n\t\tFirst  " + typeToGo(f.PairFirst) + "\n\t\tSecond " + typeToGo(f.PairSecond) + "\n\t}"
	default:
		return "interface{}"
	}
}

// goFieldType is the declared struct-field type for f, accounting for
// cardinality: repeated wraps in a slice (or a map, for KindMap),
// optional wraps non-message scalars in a pointer.
func goFieldType(f *schema.Field) string {
	if f.Kind == schema.KindMap {
		return "map[" + typeToGo(f.MapKey) + "]" + typeToGo(f.MapValue)
	}
	elem := typeToGo(f)
	switch f.Cardinality {
	case schema.CardinalityRepeated:
		return "[]" + elem
	case schema.CardinalityOptional:
		if f.Kind == schema.KindMessage || f.Kind == schema.KindBytes {
			return elem // already nil-able
		}
		return "*" + elem
	default:
		return elem
	}
}

// readMethod returns the SpanReader method name that decodes one
// instance of a scalar Kind, honoring the field's WireForm.
func readMethod(f *schema.Field) string {
	switch f.Kind {
	case schema.KindInt8, schema.KindInt16, schema.KindInt32:
		if f.WireForm == schema.WireZigZag {
			return "ReadZigZag32"
		}
		if f.WireForm == schema.WireFixed32 {
			return "ReadFixed32"
		}
		// Plain-varint signed: the writer sign-extends to 64 bits before
		// encoding (spec §6), so the reader must decode the full 64-bit
		// varint too, then truncate back to the field's native width.
		return "ReadVarint64"
	case schema.KindInt64:
		if f.WireForm == schema.WireZigZag {
			return "ReadZigZag64"
		}
		if f.WireForm == schema.WireFixed64 {
			return "ReadFixed64"
		}
		return "ReadVarint64"
	case schema.KindUint8, schema.KindUint16, schema.KindUint32:
		if f.WireForm == schema.WireFixed32 {
			return "ReadFixed32"
		}
		return "ReadVarint32"
	case schema.KindUint64:
		if f.WireForm == schema.WireFixed64 {
			return "ReadFixed64"
		}
		return "ReadVarint64"
	case schema.KindBool:
		return "ReadBool"
	case schema.KindFloat32:
		return "ReadFloat32"
	case schema.KindFloat64:
		return "ReadFloat64"
	case schema.KindChar16:
		return "ReadChar16"
	case schema.KindString:
		return "ReadStringInto"
	case schema.KindBytes:
		return "ReadBytesInto"
	default:
		return ""
	}
}

// writeMethod returns the StreamWriter method name that encodes one
// instance of a scalar Kind, honoring the field's WireForm.
func writeMethod(f *schema.Field) string {
	switch f.Kind {
	case schema.KindInt8, schema.KindInt16, schema.KindInt32:
		if f.WireForm == schema.WireZigZag {
			return "WriteZigZag32"
		}
		if f.WireForm == schema.WireFixed32 {
			return "WriteFixed32"
		}
		// Plain-varint signed fields sign-extend to 64 bits before
		// encoding (spec §6): a negative value must always expand to a
		// 10-byte varint, matching the reference's own treatment of
		// negative signed varints, rather than truncating to 32 bits.
		return "WriteVarint64"
	case schema.KindInt64:
		if f.WireForm == schema.WireZigZag {
			return "WriteZigZag64"
		}
		if f.WireForm == schema.WireFixed64 {
			return "WriteFixed64"
		}
		return "WriteVarint64"
	case schema.KindUint8, schema.KindUint16, schema.KindUint32:
		if f.WireForm == schema.WireFixed32 {
			return "WriteFixed32"
		}
		return "WriteVarint32"
	case schema.KindUint64:
		if f.WireForm == schema.WireFixed64 {
			return "WriteFixed64"
		}
		return "WriteVarint64"
	case schema.KindBool:
		return "WriteBool"
	case schema.KindFloat32:
		return "WriteFloat32"
	case schema.KindFloat64:
		return "WriteFloat64"
	case schema.KindChar16:
		return "WriteChar16"
	case schema.KindString:
		return "WriteString"
	case schema.KindBytes:
		return "WriteBytesField"
	default:
		return ""
	}
}

// sizeMethod mirrors writeMethod for SizeCalculator's Add* API.
func sizeMethod(f *schema.Field) string {
	m := writeMethod(f)
	if m == "" {
		return ""
	}
	return "Add" + strings.TrimPrefix(m, "Write")
}

// sizeMethodTakesValue reports whether sizeMethod's Add* counterpart
// accepts the value being sized — AddBool, AddFixed32, AddFixed64,
// AddFloat32 and AddFloat64 account for a constant-width encoding and
// take no argument, unlike the other per-value Add* methods.
func sizeMethodTakesValue(f *schema.Field) bool {
	switch f.Kind {
	case schema.KindBool, schema.KindFloat32, schema.KindFloat64:
		return false
	case schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64,
		schema.KindUint8, schema.KindUint16, schema.KindUint32, schema.KindUint64:
		return f.WireForm != schema.WireFixed32 && f.WireForm != schema.WireFixed64
	default:
		return true
	}
}

// scalarWireGoType returns the Go type the wire.StreamWriter/SpanReader
// method backing f's scalar Kind actually encodes/decodes — which for
// the integer kinds narrower than 32 bits, and for any integer kind
// using a wire form other than its own signedness's native one (e.g.
// an Int32 field on the plain varint form, whose ReadVarint64/
// WriteVarint64 only know uint64), differs from typeToGo(f).
func scalarWireGoType(f *schema.Field) string {
	switch f.Kind {
	case schema.KindInt8, schema.KindInt16, schema.KindInt32:
		if f.WireForm == schema.WireZigZag {
			return "int32"
		}
		if f.WireForm == schema.WireFixed32 {
			return "uint32"
		}
		// Plain varint: WriteVarint64/ReadVarint64 sign-extend to 64 bits.
		return "uint64"
	case schema.KindInt64:
		if f.WireForm == schema.WireZigZag {
			return "int64"
		}
		return "uint64"
	case schema.KindUint8, schema.KindUint16, schema.KindUint32:
		return "uint32"
	case schema.KindUint64:
		return "uint64"
	case schema.KindBool:
		return "bool"
	case schema.KindFloat32:
		return "float32"
	case schema.KindFloat64:
		return "float64"
	case schema.KindChar16:
		return "uint16"
	case schema.KindString:
		return "string"
	case schema.KindBytes:
		return "[]byte"
	default:
		return ""
	}
}

// scalarCastType returns the Go type accessor must be cast to before
// handing it to writeMethod/sizeMethod, or "" if its own native type
// (typeToGo) already matches what the wire method expects.
func scalarCastType(f *schema.Field) string {
	want := scalarWireGoType(f)
	if want == "" || want == typeToGo(f) {
		return ""
	}
	return want
}

// needsReadCast reports whether readMethod's return type differs from
// f's own native Go type (typeToGo), requiring the rawVal+cast
// decoding pattern rather than a direct assignment.
func needsReadCast(f *schema.Field) bool {
	return scalarCastType(f) != ""
}

// wireTypeConst returns the wire.WireXxx constant name a field's
// on-wire discriminator maps to.
func wireTypeConst(f *schema.Field) string {
	switch f.WireForm.OnWire() {
	case schema.WireTypeVarint:
		return "wire.WireVarint"
	case schema.WireTypeFixed64:
		return "wire.WireFixed64"
	case schema.WireTypeFixed32:
		return "wire.WireFixed32"
	default:
		return "wire.WireLengthDelimited"
	}
}
