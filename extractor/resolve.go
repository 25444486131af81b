package extractor

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bclproto/bclproto/schema"
)

// resolveReferences fills in every field of msg left at KindInvalid by
// buildOwnFields (message-typed fields: plain message references,
// Pair<A,B>, Mapping<K,V>, and bcl.Guid) and resolves msg's own
// polymorphism edges. It returns false when msg cannot be fully
// resolved and must be excluded.
func resolveReferences(msg *schema.Message, fields []*descriptorpb.FieldDescriptorProto, registry map[string]*descriptorEntry, drafts map[string]*schema.Message, excluded map[string]bool, catalog *AnnotationCatalog) (bool, []Diagnostic) {
	byTag := make(map[int32]*descriptorpb.FieldDescriptorProto, len(fields))
	for _, fd := range fields {
		byTag[fd.GetNumber()] = fd
	}

	var diags []Diagnostic
	ok := true
	for _, f := range msg.Fields {
		if f.Kind != schema.KindInvalid {
			continue
		}
		fd, found := byTag[f.TagNumber]
		if !found {
			diags = append(diags, Diagnostic{Message: msg.QualifiedName, Field: f.Name, Reason: "internal: no descriptor for deferred field"})
			ok = false
			continue
		}
		typeName := strings.TrimPrefix(fd.GetTypeName(), ".")
		entry, found := registry[typeName]
		if !found && typeName != guidQualifiedName {
			diags = append(diags, Diagnostic{Message: msg.QualifiedName, Field: f.Name, Reason: fmt.Sprintf("references unknown message type %s", typeName)})
			ok = false
			continue
		}

		switch {
		case found && entry.isMapEntry:
			key, value, diag := buildMapKV(msg.QualifiedName, entry.descriptor, registry, drafts, catalog)
			if diag != "" {
				diags = append(diags, Diagnostic{Message: msg.QualifiedName, Field: f.Name, Reason: diag})
				ok = false
				continue
			}
			f.Kind = schema.KindMap
			f.WireForm = schema.WireLengthDelimited
			f.MapKey = key
			f.MapValue = value
			if f.IsPacked {
				diags = append(diags, Diagnostic{Message: msg.QualifiedName, Field: f.Name, Reason: "packed requested on a Mapping<K,V> field"})
				ok = false
			}

		case typeName == guidQualifiedName:
			f.Kind = schema.KindGUID
			f.WireForm = schema.WireLengthDelimited
			if f.IsPacked {
				diags = append(diags, Diagnostic{Message: msg.QualifiedName, Field: f.Name, Reason: "packed requested on a bcl.Guid field"})
				ok = false
			}

		case catalog.Message(typeName).Tuple:
			first, second, diag := buildPairComponents(typeName, entry.descriptor, registry, drafts, catalog)
			if diag != "" {
				diags = append(diags, Diagnostic{Message: msg.QualifiedName, Field: f.Name, Reason: diag})
				ok = false
				continue
			}
			f.Kind = schema.KindPair
			f.WireForm = schema.WireLengthDelimited
			f.PairFirst = first
			f.PairSecond = second
			if f.IsPacked {
				diags = append(diags, Diagnostic{Message: msg.QualifiedName, Field: f.Name, Reason: "packed requested on a Pair<A,B> field"})
				ok = false
			}

		default:
			if excluded[typeName] {
				diags = append(diags, Diagnostic{Message: msg.QualifiedName, Field: f.Name, Reason: fmt.Sprintf("references excluded message type %s", typeName)})
				ok = false
				continue
			}
			refMsg, found := drafts[typeName]
			if !found {
				diags = append(diags, Diagnostic{Message: msg.QualifiedName, Field: f.Name, Reason: fmt.Sprintf("references unresolved message type %s", typeName)})
				ok = false
				continue
			}
			f.Kind = schema.KindMessage
			f.WireForm = schema.WireLengthDelimited
			f.MessageType = refMsg
			if f.IsPacked {
				diags = append(diags, Diagnostic{Message: msg.QualifiedName, Field: f.Name, Reason: "packed requested on a message-typed field"})
				ok = false
			}
		}
	}

	if !ok {
		return false, diags
	}

	resolveDerived(msg, drafts, excluded, catalog, &diags)
	return true, diags
}

// buildMapKV resolves a synthesized map-entry descriptor's "key" and
// "value" fields into schema.Fields. proto3 guarantees the key is
// always a scalar type; the value may be scalar or message.
func buildMapKV(parentQualified string, entryDescriptor *descriptorpb.DescriptorProto, registry map[string]*descriptorEntry, drafts map[string]*schema.Message, catalog *AnnotationCatalog) (*schema.Field, *schema.Field, string) {
	var keyFd, valueFd *descriptorpb.FieldDescriptorProto
	for _, fd := range entryDescriptor.GetField() {
		switch fd.GetName() {
		case "key":
			keyFd = fd
		case "value":
			valueFd = fd
		}
	}
	if keyFd == nil || valueFd == nil {
		return nil, nil, "map entry missing key or value field"
	}

	keyKind, keyWire, diag := classifyScalar(keyFd, FieldAnnotation{})
	if diag != "" {
		return nil, nil, "map key: " + diag
	}
	key := &schema.Field{TagNumber: 1, Name: "key", GoName: "Key", Kind: keyKind, WireForm: keyWire, Cardinality: schema.CardinalitySingle}

	value := &schema.Field{TagNumber: 2, Name: "value", GoName: "Value", Cardinality: schema.CardinalitySingle}
	if valueFd.GetType() == descriptorpb.FieldDescriptorProto_TYPE_MESSAGE {
		typeName := strings.TrimPrefix(valueFd.GetTypeName(), ".")
		if typeName == guidQualifiedName {
			value.Kind = schema.KindGUID
			value.WireForm = schema.WireLengthDelimited
		} else if refMsg, ok := drafts[typeName]; ok {
			value.Kind = schema.KindMessage
			value.WireForm = schema.WireLengthDelimited
			value.MessageType = refMsg
		} else {
			return nil, nil, fmt.Sprintf("map value references unresolved message type %s", typeName)
		}
	} else {
		valueKind, valueWire, diag := classifyScalar(valueFd, FieldAnnotation{})
		if diag != "" {
			return nil, nil, "map value: " + diag
		}
		value.Kind = valueKind
		value.WireForm = valueWire
	}
	return key, value, ""
}

// buildPairComponents resolves the two fields of a message flagged
// tuple:true in the annotation catalog into Pair<A,B> components.
func buildPairComponents(typeName string, d *descriptorpb.DescriptorProto, registry map[string]*descriptorEntry, drafts map[string]*schema.Message, catalog *AnnotationCatalog) (*schema.Field, *schema.Field, string) {
	fds := d.GetField()
	if len(fds) != 2 {
		return nil, nil, fmt.Sprintf("%s is flagged tuple but does not have exactly two fields", typeName)
	}
	build := func(fd *descriptorpb.FieldDescriptorProto) (*schema.Field, string) {
		if fd.GetType() == descriptorpb.FieldDescriptorProto_TYPE_MESSAGE {
			refName := strings.TrimPrefix(fd.GetTypeName(), ".")
			if refName == guidQualifiedName {
				return &schema.Field{TagNumber: fd.GetNumber(), Name: fd.GetName(), GoName: goFieldName(fd.GetName()), Kind: schema.KindGUID, WireForm: schema.WireLengthDelimited}, ""
			}
			refMsg, ok := drafts[refName]
			if !ok {
				return nil, fmt.Sprintf("pair component references unresolved message type %s", refName)
			}
			return &schema.Field{TagNumber: fd.GetNumber(), Name: fd.GetName(), GoName: goFieldName(fd.GetName()), Kind: schema.KindMessage, WireForm: schema.WireLengthDelimited, MessageType: refMsg}, ""
		}
		kind, wireForm, diag := classifyScalar(fd, catalog.Field(typeName, fd.GetName()))
		if diag != "" {
			return nil, diag
		}
		return &schema.Field{TagNumber: fd.GetNumber(), Name: fd.GetName(), GoName: goFieldName(fd.GetName()), Kind: kind, WireForm: wireForm}, ""
	}
	first, diag := build(fds[0])
	if diag != "" {
		return nil, nil, diag
	}
	second, diag := build(fds[1])
	if diag != "" {
		return nil, nil, diag
	}
	return first, second, ""
}

// resolveDerived wires msg's polymorphism table from the annotation
// catalog. An edge naming an excluded or unknown subtype is dropped
// with a diagnostic rather than excluding the whole base message.
func resolveDerived(msg *schema.Message, drafts map[string]*schema.Message, excluded map[string]bool, catalog *AnnotationCatalog, diags *[]Diagnostic) {
	ann := catalog.Message(msg.QualifiedName)
	for _, edge := range ann.Derived {
		if excluded[edge.QualifiedType] {
			*diags = append(*diags, Diagnostic{Message: msg.QualifiedName, Reason: fmt.Sprintf("derived tag %d references excluded type %s", edge.TagNumber, edge.QualifiedType)})
			continue
		}
		sub, ok := drafts[edge.QualifiedType]
		if !ok {
			*diags = append(*diags, Diagnostic{Message: msg.QualifiedName, Reason: fmt.Sprintf("derived tag %d references unknown type %s", edge.TagNumber, edge.QualifiedType)})
			continue
		}
		msg.Derived = append(msg.Derived, schema.PolymorphismEdge{TagNumber: edge.TagNumber, Type: sub})
		sub.Base = msg
	}
}

// checkTagUniqueness enforces the global invariant that a message's
// own field tags never collide with its polymorphism table's tags
// (spec §3, §4.4): both travel on the same wire stream for a
// polymorphic value. Violations are recorded as diagnostics; the
// message is left in the schema since this is detected too late to
// cheaply re-run reference resolution, and a logged diagnostic is
// sufficient for the generator's caller to reject the run.
func checkTagUniqueness(messages []*schema.Message, diagnostics *[]Diagnostic) error {
	for _, msg := range messages {
		seen := make(map[int32]bool)
		for _, tag := range msg.AllTagNumbers() {
			if seen[tag] {
				*diagnostics = append(*diagnostics, Diagnostic{Message: msg.QualifiedName, Reason: fmt.Sprintf("tag number %d is used by more than one field or derived edge", tag)})
				continue
			}
			seen[tag] = true
		}
	}
	return nil
}
