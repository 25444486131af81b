package extractor

import (
	"fmt"
	"log"
	"strings"

	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/bclproto/bclproto/schema"
)

// guidQualifiedName is the well-known message name the reference
// implementation uses for the 128-bit identifier's BCL encoding
// (spec §6). A message field whose type resolves to this name becomes
// schema.KindGUID rather than schema.KindMessage.
const guidQualifiedName = "bcl.Guid"

// descriptorEntry is everything the extractor knows about one
// .proto-declared message before cross-references are resolved.
type descriptorEntry struct {
	qualifiedName string
	descriptor    *descriptorpb.DescriptorProto
	isMapEntry    bool
}

// Extract builds the Intermediate Schema from req's message catalog
// and catalog's annotations. It never returns an error for malformed
// user schemas — those become Diagnostics and the offending message is
// dropped — err is reserved for extractor-internal bugs (spec §4.6,
// §7). Two checks report a Diagnostic without dropping the message: a
// derived edge naming an unknown or excluded subtype drops only that
// edge (resolveDerived), and a tag shared between a message's own
// fields and its derived edges leaves the message in the schema
// (checkTagUniqueness).
func Extract(req *pluginpb.CodeGeneratorRequest, catalog *AnnotationCatalog) (*schema.Schema, []Diagnostic, error) {
	if catalog == nil {
		catalog = NewAnnotationCatalog()
	}

	registry := make(map[string]*descriptorEntry)
	var order []string
	for _, file := range req.GetProtoFile() {
		collectDescriptors(file.GetPackage(), "", file.GetMessageType(), registry, &order)
	}
	log.Printf("DEBUG: extractor: registry holds %d message declarations", len(registry))

	var diagnostics []Diagnostic
	drafts := make(map[string]*schema.Message, len(order))

	// Pass 1: build every message's own fields (tag, kind, wire form,
	// cardinality) without resolving references to other messages.
	// A message with an own-field validation failure is recorded as
	// excluded and skipped entirely.
	excluded := make(map[string]bool)
	fieldDescriptors := make(map[string][]*descriptorpb.FieldDescriptorProto)
	for _, name := range order {
		entry := registry[name]
		if entry.isMapEntry {
			continue // map-entry synthesized messages are never emitted as messages themselves
		}
		msg, fields, diags := buildOwnFields(name, entry.descriptor, catalog)
		diagnostics = append(diagnostics, diags...)
		if msg == nil {
			excluded[name] = true
			log.Printf("WARNING: excluding message %s from emission: %s", name, diags)
			continue
		}
		drafts[name] = msg
		fieldDescriptors[name] = fields
	}

	// Pass 2: resolve field types that reference other messages
	// (KindMessage, KindPair components, KindMap key/value, KindGUID
	// detection) and polymorphism edges, now that every message's own
	// shape is known.
	var final []*schema.Message
	for _, name := range order {
		msg, ok := drafts[name]
		if !ok {
			continue
		}
		ok, diags := resolveReferences(msg, fieldDescriptors[name], registry, drafts, excluded, catalog)
		diagnostics = append(diagnostics, diags...)
		if !ok {
			excluded[name] = true
			log.Printf("WARNING: excluding message %s after reference resolution: %s", name, diags)
			continue
		}
	}
	for _, name := range order {
		if excluded[name] {
			continue
		}
		if msg, ok := drafts[name]; ok {
			final = append(final, msg)
		}
	}

	if err := checkTagUniqueness(final, &diagnostics); err != nil {
		return nil, diagnostics, err
	}

	return schema.New(final), diagnostics, nil
}

// collectDescriptors walks a message tree, flattening nested messages
// into dotted qualified names (the same convention protoc-gen-go uses
// for a nested type's generated Go name: Outer_Inner), and recording
// map-entry synthetic messages so later passes can recognize them.
func collectDescriptors(pkg, prefix string, messages []*descriptorpb.DescriptorProto, registry map[string]*descriptorEntry, order *[]string) {
	for _, m := range messages {
		name := m.GetName()
		qualified := name
		if prefix != "" {
			qualified = prefix + "." + name
		}
		full := qualified
		if pkg != "" {
			full = pkg + "." + qualified
		}
		registry[full] = &descriptorEntry{
			qualifiedName: full,
			descriptor:    m,
			isMapEntry:    m.GetOptions().GetMapEntry(),
		}
		*order = append(*order, full)
		if len(m.GetNestedType()) > 0 {
			collectDescriptors(pkg, qualified, m.GetNestedType(), registry, order)
		}
	}
}

// buildOwnFields constructs a Message's struct shape and its own
// scalar/length-delimited fields, deferring any field whose Kind
// depends on another message (KindMessage/KindPair/KindMap/KindGUID)
// to resolveReferences. Returns nil with diagnostics when the message
// must be excluded.
func buildOwnFields(qualifiedName string, d *descriptorpb.DescriptorProto, catalog *AnnotationCatalog) (*schema.Message, []*descriptorpb.FieldDescriptorProto, []Diagnostic) {
	msg := &schema.Message{
		QualifiedName: qualifiedName,
		GoName:        goMessageName(qualifiedName),
	}

	var diags []Diagnostic
	fields := append([]*descriptorpb.FieldDescriptorProto(nil), d.GetField()...)

	seenTags := make(map[int32]bool)
	ok := true
	for _, fd := range fields {
		tag := fd.GetNumber()
		if seenTags[tag] {
			diags = append(diags, Diagnostic{Message: qualifiedName, Reason: fmt.Sprintf("duplicate tag number %d", tag)})
			ok = false
			continue
		}
		seenTags[tag] = true

		ann := catalog.Field(qualifiedName, fd.GetName())
		kind, wireForm, diag := classifyScalar(fd, ann)
		if diag != "" {
			diags = append(diags, Diagnostic{Message: qualifiedName, Field: fd.GetName(), Reason: diag})
			ok = false
			continue
		}

		cardinality := schema.CardinalitySingle
		if fd.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REPEATED {
			cardinality = schema.CardinalityRepeated
		} else if fd.GetProto3Optional() {
			cardinality = schema.CardinalityOptional
		}

		if ann.Packed && cardinality == schema.CardinalityRepeated && kind != schema.KindInvalid && kind.IsLengthDelimitedElement() {
			diags = append(diags, Diagnostic{Message: qualifiedName, Field: fd.GetName(), Reason: "packed requested on a length-delimited element type"})
			ok = false
			continue
		}

		field := &schema.Field{
			TagNumber:   tag,
			Name:        fd.GetName(),
			GoName:      goFieldName(fd.GetName()),
			Kind:        kind,
			WireForm:    wireForm,
			Cardinality: cardinality,
			IsPacked:    ann.Packed && cardinality == schema.CardinalityRepeated,
			IsSet:       ann.CollectionKind == CollectionSet && cardinality == schema.CardinalityRepeated,
		}
		msg.Fields = append(msg.Fields, field)
	}

	if !ok {
		return nil, nil, diags
	}

	sortFieldsByTag(msg.Fields)
	return msg, fields, diags
}

// classifyScalar determines the Kind and WireForm for any field whose
// kind does not depend on resolving another message. For TYPE_MESSAGE
// fields it returns KindInvalid with no diagnostic — those are handled
// in resolveReferences. TYPE_ENUM fields, which this generator's
// closed Type Kind set does not include, are rejected here with a
// diagnostic, as is data_form: fixed_size on a bool, string, bytes or
// message field.
func classifyScalar(fd *descriptorpb.FieldDescriptorProto, ann FieldAnnotation) (schema.TypeKind, schema.WireForm, string) {
	if ann.DataForm == DataFormFixedSize {
		switch fd.GetType() {
		case descriptorpb.FieldDescriptorProto_TYPE_BOOL, descriptorpb.FieldDescriptorProto_TYPE_STRING,
			descriptorpb.FieldDescriptorProto_TYPE_BYTES, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
			return schema.KindInvalid, schema.WireInvalid, "data_form: fixed_size requested on a type that has no fixed encoding"
		}
	}
	switch fd.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		return schema.KindBool, schema.WireVarint, ""
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT:
		return schema.KindFloat32, schema.WireFixed32, ""
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		return schema.KindFloat64, schema.WireFixed64, ""
	case descriptorpb.FieldDescriptorProto_TYPE_STRING:
		return schema.KindString, schema.WireLengthDelimited, ""
	case descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		return schema.KindBytes, schema.WireLengthDelimited, ""
	case descriptorpb.FieldDescriptorProto_TYPE_INT32, descriptorpb.FieldDescriptorProto_TYPE_SINT32, descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		return integralWireForm(schema.KindInt32, ann)
	case descriptorpb.FieldDescriptorProto_TYPE_INT64, descriptorpb.FieldDescriptorProto_TYPE_SINT64, descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		return integralWireForm(schema.KindInt64, ann)
	case descriptorpb.FieldDescriptorProto_TYPE_UINT32, descriptorpb.FieldDescriptorProto_TYPE_FIXED32:
		return integralWireForm(schema.KindUint32, ann)
	case descriptorpb.FieldDescriptorProto_TYPE_UINT64, descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		return integralWireForm(schema.KindUint64, ann)
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		return schema.KindInvalid, schema.WireInvalid, ""
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		return schema.KindInvalid, schema.WireInvalid, "enum fields are not a supported Type Kind"
	default:
		return schema.KindInvalid, schema.WireInvalid, fmt.Sprintf("unsupported field type %s", fd.GetType())
	}
}

// integralWireForm applies data_form to one of the four integer
// scalar kinds that support all three wire forms (varint, zigzag,
// fixed). data_form: fixed_size on bool, string, bytes and message
// fields is rejected before this function is reached (classifyScalar);
// those kinds are never routed through it. data_form: zigzag only
// makes sense for signed kinds — it buys nothing for a value that is
// never negative — so it is rejected on the unsigned kinds.
func integralWireForm(kind schema.TypeKind, ann FieldAnnotation) (schema.TypeKind, schema.WireForm, string) {
	switch ann.DataForm {
	case DataFormZigZag:
		switch kind {
		case schema.KindInt32, schema.KindInt64:
			return kind, schema.WireZigZag, ""
		}
		return schema.KindInvalid, schema.WireInvalid, "data_form: zigzag requested on an unsigned type"
	case DataFormFixedSize:
		switch kind {
		case schema.KindInt32, schema.KindUint32:
			return kind, schema.WireFixed32, ""
		case schema.KindInt64, schema.KindUint64:
			return kind, schema.WireFixed64, ""
		}
		return schema.KindInvalid, schema.WireInvalid, "data_form: fixed_size requested on a type that has no fixed encoding"
	default:
		return kind, schema.WireVarint, ""
	}
}

func sortFieldsByTag(fields []*schema.Field) {
	for i := 1; i < len(fields); i++ {
		for j := i; j > 0 && fields[j-1].TagNumber > fields[j].TagNumber; j-- {
			fields[j-1], fields[j] = fields[j], fields[j-1]
		}
	}
}

// goMessageName converts a dotted qualified name into an exported Go
// identifier: "pkg.Outer.Inner" -> "Outer_Inner" (the package
// segments are dropped; the generator's caller is responsible for
// per-package output files, mirroring protoc-gen-go's own
// package-scoped naming).
func goMessageName(qualifiedName string) string {
	parts := strings.Split(qualifiedName, ".")
	// Drop leading package segments: keep everything from the first
	// capitalized segment onward, since message names are
	// capitalized by proto convention and package segments are not.
	start := 0
	for i, p := range parts {
		if len(p) > 0 && p[0] >= 'A' && p[0] <= 'Z' {
			start = i
			break
		}
	}
	return strings.Join(parts[start:], "_")
}

func goFieldName(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		if len(p) > 1 {
			b.WriteString(p[1:])
		}
	}
	if b.Len() == 0 {
		return "Field"
	}
	return b.String()
}
