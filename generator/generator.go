// Package generator implements the Code Synthesizer: given the
// Intermediate Schema package extractor built, it emits one Go source
// file per input .proto file containing a struct and a
// Read<M>/Write<M>/SizeOf<M> triple for every message declared in that
// file (spec §4.5).
package generator

import (
	"fmt"
	"log"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/bclproto/bclproto/extractor"
	"github.com/bclproto/bclproto/schema"
)

// GenerateMode restricts which half of the Read/Write/SizeOf triple is
// emitted, set via the protoc plugin parameter string's generate= key.
type GenerateMode int

const (
	GenerateAll GenerateMode = iota
	GenerateDecoderOnly
	GenerateEncoderOnly
)

// Options holds the parsed protoc plugin parameter string (spec §8
// "ParseParameters", generalized from the teacher's comma-separated
// key=value convention).
type Options struct {
	GoPackagePrefix         string
	Mode                    GenerateMode
	StrictFieldNumbers      bool
	AllowNonMonotonicFields bool
}

// ParseParameters parses protoc's `--bcl_out=key=val,key=val:outdir`
// plugin parameter string.
func ParseParameters(param string) (Options, error) {
	opts := Options{Mode: GenerateAll}
	if param == "" {
		return opts, nil
	}
	for _, kv := range strings.Split(param, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		key := parts[0]
		var value string
		if len(parts) == 2 {
			value = parts[1]
		}
		switch key {
		case "go_package_prefix":
			opts.GoPackagePrefix = value
		case "generate":
			switch value {
			case "all", "":
				opts.Mode = GenerateAll
			case "decoder":
				opts.Mode = GenerateDecoderOnly
			case "encoder":
				opts.Mode = GenerateEncoderOnly
			default:
				return opts, fmt.Errorf("unknown generate= value %q", value)
			}
		case "strict_field_numbers":
			opts.StrictFieldNumbers = value != "false"
		case "allow_non_monotonic_fields":
			opts.AllowNonMonotonicFields = value != "false"
		default:
			log.Printf("WARNING: generator: ignoring unknown parameter %q", key)
		}
	}
	return opts, nil
}

// Generate is the generator's single external entry point (spec §6):
// it runs the extractor over req's descriptor catalog and catalog's
// annotations, then emits one output file per requested .proto file.
func Generate(req *pluginpb.CodeGeneratorRequest, catalog *extractor.AnnotationCatalog) (*pluginpb.CodeGeneratorResponse, error) {
	opts, err := ParseParameters(req.GetParameter())
	if err != nil {
		return nil, err
	}

	for _, file := range req.GetProtoFile() {
		if err := checkSyntaxVersion(file.GetSyntax()); err != nil {
			return nil, fmt.Errorf("%s: %w", file.GetName(), err)
		}
	}

	sc, diagnostics, err := extractor.Extract(req, catalog)
	if err != nil {
		return nil, err
	}
	for _, d := range diagnostics {
		log.Printf("WARNING: generator: %s", d.String())
	}
	log.Printf("DEBUG: generator: schema holds %d emittable messages", len(sc.Messages()))

	naming := NewFileNaming()
	resp := &pluginpb.CodeGeneratorResponse{}
	resp.SupportedFeatures = proto.Uint64(uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL))

	targets := make(map[string]bool, len(req.GetFileToGenerate()))
	for _, name := range req.GetFileToGenerate() {
		targets[name] = true
	}

	for _, file := range req.GetProtoFile() {
		if !targets[file.GetName()] {
			continue
		}
		content, err := generateFile(file, sc, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file.GetName(), err)
		}
		if content == "" {
			continue
		}
		resp.File = append(resp.File, &pluginpb.CodeGeneratorResponse_File{
			Name:    proto.String(naming.GenerateOutputFileName(file.GetName())),
			Content: proto.String(content),
		})
	}

	return resp, nil
}

// generateFile renders one .proto file's Go source: package clause,
// imports, and every message declared directly in that file.
func generateFile(file *descriptorpb.FileDescriptorProto, sc *schema.Schema, opts Options) (string, error) {
	names := fileMessageNames(file)
	if len(names) == 0 {
		return "", nil
	}

	var messages []*schema.Message
	for _, name := range names {
		if msg, ok := sc.Lookup(name); ok {
			messages = append(messages, msg)
		}
	}
	if len(messages) == 0 {
		return "", nil
	}

	im := NewImportManager()
	im.Add("github.com/bclproto/bclproto/wire")
	if needsGuid(messages) {
		im.Add("github.com/google/uuid")
	}
	if opts.Mode != GenerateDecoderOnly && needsPacked(messages) {
		im.Add("bytes")
	}
	if opts.Mode != GenerateEncoderOnly && needsSet(messages) {
		im.Add("fmt")
	}

	b := NewWriteableBuffer()
	b.P("// Code generated by protoc-gen-bcl. DO NOT EDIT.")
	b.P("// source: %s", file.GetName())
	b.P0()
	b.P("package %s", packageToGoPackage(file.GetPackage()))
	b.P0()
	im.GenerateImports(b)

	for _, msg := range messages {
		switch opts.Mode {
		case GenerateAll:
			generateMessage(b, msg)
		case GenerateDecoderOnly:
			generateStruct(b, msg)
			b.P0()
			generateReadFunc(b, msg)
			b.P0()
		case GenerateEncoderOnly:
			generateStruct(b, msg)
			b.P0()
			generateWriteFunc(b, msg)
			b.P0()
			generateSizeFunc(b, msg)
			b.P0()
		}
	}

	return b.String(), nil
}

// fileMessageNames flattens a file's top-level and nested message
// declarations into the dotted qualified names the extractor indexed
// the schema by, skipping synthesized map-entry messages.
func fileMessageNames(file *descriptorpb.FileDescriptorProto) []string {
	var names []string
	var walk func(prefix string, messages []*descriptorpb.DescriptorProto)
	walk = func(prefix string, messages []*descriptorpb.DescriptorProto) {
		for _, m := range messages {
			if m.GetOptions().GetMapEntry() {
				continue
			}
			qualified := m.GetName()
			if prefix != "" {
				qualified = prefix + "." + m.GetName()
			}
			full := qualified
			if file.GetPackage() != "" {
				full = file.GetPackage() + "." + qualified
			}
			names = append(names, full)
			if len(m.GetNestedType()) > 0 {
				walk(qualified, m.GetNestedType())
			}
		}
	}
	walk("", file.GetMessageType())
	return names
}

func needsGuid(messages []*schema.Message) bool {
	for _, msg := range messages {
		for _, f := range msg.Fields {
			if f.Kind == schema.KindGUID || (f.Kind == schema.KindMap && (f.MapKey.Kind == schema.KindGUID || f.MapValue.Kind == schema.KindGUID)) {
				return true
			}
		}
	}
	return false
}

func needsPacked(messages []*schema.Message) bool {
	for _, msg := range messages {
		for _, f := range msg.Fields {
			if f.IsPacked {
				return true
			}
		}
	}
	return false
}

func needsSet(messages []*schema.Message) bool {
	for _, msg := range messages {
		for _, f := range msg.Fields {
			if f.IsSet {
				return true
			}
		}
	}
	return false
}
