// Package schema defines the Intermediate Schema (IS): the in-memory,
// language-neutral description of messages and fields that the
// extractor builds once and the generator consumes once. Nothing
// outside package extractor constructs a Schema, and nothing mutates
// one after New returns it.
package schema

// TypeKind enumerates the closed set of field type kinds the generator
// knows how to encode. It is deliberately not extensible at runtime:
// every case the synthesizer switches on is listed here.
type TypeKind int

const (
	KindInvalid TypeKind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindBool
	KindFloat32
	KindFloat64
	KindChar16
	KindBytes
	KindString
	KindGUID       // 128-bit identifier, BCL bcl.Guid encoding
	KindMessage    // reference to another Message
	KindPair       // Pair<A,B>, two-field nested message
	KindMap        // Mapping<K,V>, repeated {key,value} nested message
	KindSet        // Set<T>, repeated T with decode-time uniqueness
	KindSequence   // Ordered sequence<T>, plain repeated T
)

func (k TypeKind) String() string {
	switch k {
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindBool:
		return "bool"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindChar16:
		return "char16"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindGUID:
		return "guid"
	case KindMessage:
		return "message"
	case KindPair:
		return "pair"
	case KindMap:
		return "map"
	case KindSet:
		return "set"
	case KindSequence:
		return "sequence"
	default:
		return "invalid"
	}
}

// IsIntegerScalar reports whether the kind is one of the signed or
// unsigned fixed-width integer scalars (not bool, not char16).
func (k TypeKind) IsIntegerScalar() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether the kind is a scalar numeric or boolean
// type eligible for packed encoding when repeated.
func (k TypeKind) IsNumeric() bool {
	switch k {
	case KindBool, KindFloat32, KindFloat64, KindChar16:
		return true
	default:
		return k.IsIntegerScalar()
	}
}

// IsLengthDelimitedElement reports whether a repeated field of this
// element kind can never be packed (bytes, string, message, and the
// composite kinds are always one-tag-per-element on the wire).
func (k TypeKind) IsLengthDelimitedElement() bool {
	switch k {
	case KindBytes, KindString, KindGUID, KindMessage, KindPair, KindMap:
		return true
	default:
		return false
	}
}

// WireForm is one of the five wire representations a field may take.
type WireForm int

const (
	WireInvalid WireForm = iota
	WireVarint
	WireZigZag
	WireFixed32
	WireFixed64
	WireLengthDelimited
)

func (w WireForm) String() string {
	switch w {
	case WireVarint:
		return "varint"
	case WireZigZag:
		return "zigzag"
	case WireFixed32:
		return "fixed32"
	case WireFixed64:
		return "fixed64"
	case WireLengthDelimited:
		return "length_delimited"
	default:
		return "invalid"
	}
}

// WireType is the 3-bit tag discriminator defined by the wire format
// itself (spec §6): 0=varint, 1=fixed64, 2=length-delimited, 5=fixed32.
type WireType int

const (
	WireTypeVarint          WireType = 0
	WireTypeFixed64         WireType = 1
	WireTypeLengthDelimited WireType = 2
	WireTypeFixed32         WireType = 5
)

// OnWire returns the 3-bit wire type that a single value with this
// WireForm travels as. It does not account for cardinality: a packed
// repeated field is written under WireTypeLengthDelimited by its
// caller regardless of the element's own WireForm.
func (f WireForm) OnWire() WireType {
	switch f {
	case WireVarint, WireZigZag:
		return WireTypeVarint
	case WireFixed32:
		return WireTypeFixed32
	case WireFixed64:
		return WireTypeFixed64
	case WireLengthDelimited:
		return WireTypeLengthDelimited
	default:
		return WireTypeVarint
	}
}

// Cardinality is how many wire-level values a field carries.
type Cardinality int

const (
	CardinalitySingle Cardinality = iota
	CardinalityOptional
	CardinalityRepeated
)

// Field is one member of a Message, sorted by ascending TagNumber in
// Message.Fields by the extractor so emitted output has stable byte
// order (spec §3 invariant).
type Field struct {
	TagNumber    int32
	Name         string // source identifier, as declared
	GoName       string // exported Go identifier derived from Name
	Kind         TypeKind
	WireForm     WireForm
	Cardinality  Cardinality
	IsPacked     bool // only meaningful for CardinalityRepeated + Kind.IsNumeric()
	IsSet        bool // CardinalityRepeated + collection_kind set; enforces uniqueness on decode
	MessageType  *Message // set when Kind == KindMessage, KindPair's component, or KindMap's key/value
	MapKey       *Field   // set when Kind == KindMap
	MapValue     *Field   // set when Kind == KindMap
	PairFirst    *Field   // set when Kind == KindPair
	PairSecond   *Field   // set when Kind == KindPair
}

// PolymorphismEdge is one (tag_number, Message) entry in a Message's
// Derived list — the wire-level analogue of a ProtoInclude attribute.
type PolymorphismEdge struct {
	TagNumber int32
	Type      *Message
}

// Message is one protobuf-style message type in the Intermediate
// Schema, together with its inheritance edges.
type Message struct {
	QualifiedName string
	GoName        string
	Base          *Message
	Derived       []PolymorphismEdge
	Fields        []*Field // sorted by ascending TagNumber
}

// AllTagNumbers returns the full set of tag numbers this message
// occupies: its own fields' tags plus every Derived edge's tag. Used
// by the extractor to enforce the global-uniqueness invariant.
func (m *Message) AllTagNumbers() []int32 {
	tags := make([]int32, 0, len(m.Fields)+len(m.Derived))
	for _, f := range m.Fields {
		tags = append(tags, f.TagNumber)
	}
	for _, d := range m.Derived {
		tags = append(tags, d.TagNumber)
	}
	return tags
}

// IsPolymorphic reports whether this message has any known subtypes.
func (m *Message) IsPolymorphic() bool {
	return len(m.Derived) > 0
}

// Schema is the complete Intermediate Schema built by one extractor
// invocation: every message that survived validation, indexed by
// qualified name. Construct it only via extractor.Extract; the zero
// value is not usable.
type Schema struct {
	messages []*Message
	byName   map[string]*Message
}

// New builds a Schema from an already-validated, already-ordered list
// of messages. Callers outside package extractor should not need this;
// it is exported so extractor can live in its own package without an
// import cycle.
func New(messages []*Message) *Schema {
	s := &Schema{
		messages: messages,
		byName:   make(map[string]*Message, len(messages)),
	}
	for _, m := range messages {
		s.byName[m.QualifiedName] = m
	}
	return s
}

// Messages returns every message in the schema, in extraction order.
func (s *Schema) Messages() []*Message {
	return s.messages
}

// Lookup finds a message by its qualified name.
func (s *Schema) Lookup(qualifiedName string) (*Message, bool) {
	m, ok := s.byName[qualifiedName]
	return m, ok
}
