// Package extractor implements the Schema Extractor: it reads a
// protoc CodeGeneratorRequest (the catalog of message declarations)
// together with an AnnotationCatalog (the per-field/per-message
// annotations that have no native .proto representation — data_form,
// packed, collection_kind, derived, tuple — spec §4.4) and builds
// the Intermediate Schema that package generator consumes.
package extractor

// DataForm is the explicit per-field wire-form override spec §4.4
// allows: `data_form: {default | zigzag | fixed_size}`.
type DataForm int

const (
	DataFormDefault DataForm = iota
	DataFormZigZag
	DataFormFixedSize
)

// CollectionKind distinguishes Set<T> from an Ordered sequence<T> —
// identical on the wire (spec §3), meaningful only to the decoder's
// uniqueness enforcement.
type CollectionKind int

const (
	CollectionSequence CollectionKind = iota
	CollectionSet
)

// FieldAnnotation carries the annotations spec §4.4 describes for one
// field, keyed by "qualified.Message.field_name" in AnnotationCatalog.
// The field's tag number is not repeated here — it is always native
// protobuf field number.
type FieldAnnotation struct {
	DataForm       DataForm
	Packed         bool // catalog default false, independent of proto3's own packed convention
	CollectionKind CollectionKind
}

// DerivedEdge is one entry of a message's polymorphism table: the
// ProtoInclude-equivalent (tag_number, qualified sub-type name).
type DerivedEdge struct {
	TagNumber     int32
	QualifiedType string
}

// MessageAnnotation carries the message-level annotations: whether a
// two-field message should be treated as Pair<A,B>, and its known
// polymorphic sub-types.
type MessageAnnotation struct {
	Tuple   bool
	Derived []DerivedEdge
}

// AnnotationCatalog is the full side-channel input alongside the
// CodeGeneratorRequest. It is a plain Go value — built by whatever
// reads the user's source-level annotations (out of scope for this
// generator, per spec §1) — so the extractor itself stays free of any
// particular annotation-source mechanism.
type AnnotationCatalog struct {
	Fields   map[string]FieldAnnotation
	Messages map[string]MessageAnnotation
}

// NewAnnotationCatalog returns an empty, ready-to-populate catalog.
func NewAnnotationCatalog() *AnnotationCatalog {
	return &AnnotationCatalog{
		Fields:   make(map[string]FieldAnnotation),
		Messages: make(map[string]MessageAnnotation),
	}
}

func fieldKey(qualifiedMessage, fieldName string) string {
	return qualifiedMessage + "." + fieldName
}

// SetField records the annotation for one field.
func (c *AnnotationCatalog) SetField(qualifiedMessage, fieldName string, ann FieldAnnotation) {
	c.Fields[fieldKey(qualifiedMessage, fieldName)] = ann
}

// Field looks up a field's annotation, returning the zero value
// (DataFormDefault, Packed=false, CollectionSequence) when none was
// recorded — exactly the catalog's stated defaults.
func (c *AnnotationCatalog) Field(qualifiedMessage, fieldName string) FieldAnnotation {
	return c.Fields[fieldKey(qualifiedMessage, fieldName)]
}

// SetMessage records the annotation for one message.
func (c *AnnotationCatalog) SetMessage(qualifiedMessage string, ann MessageAnnotation) {
	c.Messages[qualifiedMessage] = ann
}

// Message looks up a message's annotation, returning the zero value
// when none was recorded.
func (c *AnnotationCatalog) Message(qualifiedMessage string) MessageAnnotation {
	return c.Messages[qualifiedMessage]
}
