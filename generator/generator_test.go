package generator

import (
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/bclproto/bclproto/extractor"
)

func strp(s string) *string { return &s }
func i32p(i int32) *int32   { return &i }

func scalarField(name string, number int32, t descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   strp(name),
		Number: i32p(number),
		Type:   t.Enum(),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
	}
}

func TestParseParameters(t *testing.T) {
	opts, err := ParseParameters("go_package_prefix=github.com/x/y,generate=decoder,strict_field_numbers=true")
	require.NoError(t, err)
	assert.Equal(t, "github.com/x/y", opts.GoPackagePrefix)
	assert.Equal(t, GenerateDecoderOnly, opts.Mode)
	assert.True(t, opts.StrictFieldNumbers)
}

func TestParseParametersEmpty(t *testing.T) {
	opts, err := ParseParameters("")
	require.NoError(t, err)
	assert.Equal(t, GenerateAll, opts.Mode)
}

func TestParseParametersUnknownGenerateValue(t *testing.T) {
	_, err := ParseParameters("generate=bogus")
	assert.Error(t, err)
}

func TestParseParametersMatchesExpectedStruct(t *testing.T) {
	got, err := ParseParameters("go_package_prefix=github.com/x/y,generate=decoder,strict_field_numbers=true,allow_non_monotonic_fields=true")
	require.NoError(t, err)
	want := Options{
		GoPackagePrefix:         "github.com/x/y",
		Mode:                    GenerateDecoderOnly,
		StrictFieldNumbers:      true,
		AllowNonMonotonicFields: true,
	}
	if diff := pretty.Compare(got, want); diff != "" {
		t.Errorf("ParseParameters result differs from expected (-got, +want)\n%s", diff)
	}
}

func TestGenerateEmitsStructAndTriple(t *testing.T) {
	file := &descriptorpb.FileDescriptorProto{
		Name:    strp("point.proto"),
		Package: strp("geo"),
		Syntax:  strp("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: strp("Point"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalarField("x", 1, descriptorpb.FieldDescriptorProto_TYPE_INT32),
					scalarField("y", 2, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				},
			},
		},
	}
	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{"point.proto"},
		ProtoFile:      []*descriptorpb.FileDescriptorProto{file},
	}

	resp, err := Generate(req, extractor.NewAnnotationCatalog())
	require.NoError(t, err)
	require.Empty(t, resp.GetError())
	require.Len(t, resp.GetFile(), 1)

	f := resp.GetFile()[0]
	assert.Equal(t, "point.pb.bcl.go", f.GetName())
	content := f.GetContent()

	assert.True(t, strings.HasPrefix(content, "// Code generated by protoc-gen-bcl. DO NOT EDIT.\n"))
	assert.Contains(t, content, "package geo")
	assert.Contains(t, content, "type Point struct {")
	assert.Contains(t, content, "X int32")
	assert.Contains(t, content, "Y int32")
	assert.Contains(t, content, "func WritePoint(w *wire.StreamWriter, m *Point) error {")
	assert.Contains(t, content, "func SizeOfPoint(m *Point) int {")
	assert.Contains(t, content, "func ReadPoint(r *wire.SpanReader) (*Point, error) {")
}

func TestGeneratePackageNameCollidingWithGoKeywordIsSanitized(t *testing.T) {
	file := &descriptorpb.FileDescriptorProto{
		Name:    strp("t.proto"),
		Package: strp("bcl.type"),
		Syntax:  strp("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{Name: strp("Thing"), Field: []*descriptorpb.FieldDescriptorProto{scalarField("v", 1, descriptorpb.FieldDescriptorProto_TYPE_INT32)}},
		},
	}
	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{"t.proto"},
		ProtoFile:      []*descriptorpb.FileDescriptorProto{file},
	}
	resp, err := Generate(req, extractor.NewAnnotationCatalog())
	require.NoError(t, err)
	content := resp.GetFile()[0].GetContent()
	assert.Contains(t, content, "package type_")
}

func TestGenerateSkipsNonTargetFiles(t *testing.T) {
	dep := &descriptorpb.FileDescriptorProto{
		Name:    strp("dep.proto"),
		Package: strp("dep"),
		Syntax:  strp("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{Name: strp("Helper"), Field: []*descriptorpb.FieldDescriptorProto{scalarField("v", 1, descriptorpb.FieldDescriptorProto_TYPE_INT32)}},
		},
	}
	main := &descriptorpb.FileDescriptorProto{
		Name:    strp("main.proto"),
		Package: strp("main"),
		Syntax:  strp("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{Name: strp("Root"), Field: []*descriptorpb.FieldDescriptorProto{scalarField("v", 1, descriptorpb.FieldDescriptorProto_TYPE_INT32)}},
		},
	}
	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{"main.proto"},
		ProtoFile:      []*descriptorpb.FileDescriptorProto{dep, main},
	}

	resp, err := Generate(req, extractor.NewAnnotationCatalog())
	require.NoError(t, err)
	require.Len(t, resp.GetFile(), 1)
	assert.Equal(t, "main.pb.bcl.go", resp.GetFile()[0].GetName())
}

func TestGenerateRejectsProto2(t *testing.T) {
	file := &descriptorpb.FileDescriptorProto{
		Name:   strp("old.proto"),
		Syntax: strp("proto2"),
	}
	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{"old.proto"},
		ProtoFile:      []*descriptorpb.FileDescriptorProto{file},
	}
	_, err := Generate(req, extractor.NewAnnotationCatalog())
	assert.Error(t, err)
}

func TestGenerateEncoderOnlyOmitsReadFunc(t *testing.T) {
	file := &descriptorpb.FileDescriptorProto{
		Name:    strp("enc.proto"),
		Package: strp("enc"),
		Syntax:  strp("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{Name: strp("Thing"), Field: []*descriptorpb.FieldDescriptorProto{scalarField("v", 1, descriptorpb.FieldDescriptorProto_TYPE_INT32)}},
		},
	}
	req := &pluginpb.CodeGeneratorRequest{
		Parameter:      proto.String("generate=encoder"),
		FileToGenerate: []string{"enc.proto"},
		ProtoFile:      []*descriptorpb.FileDescriptorProto{file},
	}

	resp, err := Generate(req, extractor.NewAnnotationCatalog())
	require.NoError(t, err)
	require.Len(t, resp.GetFile(), 1)
	content := resp.GetFile()[0].GetContent()
	assert.Contains(t, content, "func WriteThing(")
	assert.NotContains(t, content, "func ReadThing(")
}

func TestGenerateSetFieldImportsFmt(t *testing.T) {
	file := &descriptorpb.FileDescriptorProto{
		Name:    strp("tags.proto"),
		Package: strp("tags"),
		Syntax:  strp("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: strp("Tags"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{
						Name:   strp("names"),
						Number: i32p(1),
						Type:   descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
						Label:  descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
					},
				},
			},
		},
	}
	catalog := extractor.NewAnnotationCatalog()
	catalog.SetField("tags.Tags", "names", extractor.FieldAnnotation{CollectionKind: extractor.CollectionSet})

	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{"tags.proto"},
		ProtoFile:      []*descriptorpb.FileDescriptorProto{file},
	}
	resp, err := Generate(req, catalog)
	require.NoError(t, err)
	require.Len(t, resp.GetFile(), 1)
	content := resp.GetFile()[0].GetContent()
	assert.Contains(t, content, `"fmt"`)
	assert.Contains(t, content, "fmt.Sprint(existing)")
}

func TestGenerateFixedSizeSignedIntCastsBetweenWireAndNativeType(t *testing.T) {
	file := &descriptorpb.FileDescriptorProto{
		Name:    strp("fixed.proto"),
		Package: strp("fx"),
		Syntax:  strp("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: strp("Fixed"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalarField("id", 1, descriptorpb.FieldDescriptorProto_TYPE_INT32),
					scalarField("big", 2, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				},
			},
		},
	}
	catalog := extractor.NewAnnotationCatalog()
	catalog.SetField("fx.Fixed", "id", extractor.FieldAnnotation{DataForm: extractor.DataFormFixedSize})
	catalog.SetField("fx.Fixed", "big", extractor.FieldAnnotation{DataForm: extractor.DataFormFixedSize})

	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{"fixed.proto"},
		ProtoFile:      []*descriptorpb.FileDescriptorProto{file},
	}
	resp, err := Generate(req, catalog)
	require.NoError(t, err)
	require.Len(t, resp.GetFile(), 1)
	content := resp.GetFile()[0].GetContent()

	assert.Contains(t, content, "w.WriteFixed32(uint32(m.Id))")
	assert.Contains(t, content, "w.WriteFixed64(uint64(m.Big))")
	assert.Contains(t, content, "sc.AddFixed32()")
	assert.Contains(t, content, "sc.AddFixed64()")
	assert.Contains(t, content, "rawVal, err := r.ReadFixed32()")
	assert.Contains(t, content, "m.Id = int32(rawVal)")
}

func TestGeneratePlainVarintSignedIntCastsBetweenWireAndNativeType(t *testing.T) {
	file := &descriptorpb.FileDescriptorProto{
		Name:    strp("varint.proto"),
		Package: strp("vr"),
		Syntax:  strp("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: strp("Num"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalarField("v", 1, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				},
			},
		},
	}
	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{"varint.proto"},
		ProtoFile:      []*descriptorpb.FileDescriptorProto{file},
	}
	resp, err := Generate(req, extractor.NewAnnotationCatalog())
	require.NoError(t, err)
	content := resp.GetFile()[0].GetContent()

	assert.Contains(t, content, "w.WriteVarint64(uint64(m.V))")
	assert.Contains(t, content, "sc.AddVarint64(uint64(m.V))")
	assert.Contains(t, content, "rawVal, err := r.ReadVarint64()")
	assert.Contains(t, content, "m.V = int32(rawVal)")
}

func TestGeneratePlainVarintUnsignedIntUsesNativeWidth(t *testing.T) {
	file := &descriptorpb.FileDescriptorProto{
		Name:    strp("uvarint.proto"),
		Package: strp("uv"),
		Syntax:  strp("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: strp("Num"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalarField("v", 1, descriptorpb.FieldDescriptorProto_TYPE_UINT32),
				},
			},
		},
	}
	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{"uvarint.proto"},
		ProtoFile:      []*descriptorpb.FileDescriptorProto{file},
	}
	resp, err := Generate(req, extractor.NewAnnotationCatalog())
	require.NoError(t, err)
	content := resp.GetFile()[0].GetContent()

	assert.Contains(t, content, "w.WriteVarint32(m.V)")
	assert.Contains(t, content, "m.V, err = r.ReadVarint32()")
}

func TestGenerateRepeatedNumericFieldDecodesAdaptivelyEvenWhenNotDeclaredPacked(t *testing.T) {
	file := &descriptorpb.FileDescriptorProto{
		Name:    strp("rep.proto"),
		Package: strp("rp"),
		Syntax:  strp("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: strp("Nums"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{
						Name:   strp("vals"),
						Number: i32p(1),
						Type:   descriptorpb.FieldDescriptorProto_TYPE_INT32.Enum(),
						Label:  descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
					},
				},
			},
		},
	}
	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{"rep.proto"},
		ProtoFile:      []*descriptorpb.FileDescriptorProto{file},
	}
	// No Packed annotation: the field is not declared packed, but an
	// incoming message may still have packed it (spec §4.1, §8) — the
	// decoder must branch on the observed wireType, not on IsPacked.
	resp, err := Generate(req, extractor.NewAnnotationCatalog())
	require.NoError(t, err)
	content := resp.GetFile()[0].GetContent()

	assert.Contains(t, content, "if wireType == wire.WireLengthDelimited {")
}

func TestGenerateWritesDiscriminatorBeforeOwnFields(t *testing.T) {
	file := &descriptorpb.FileDescriptorProto{
		Name:    strp("poly.proto"),
		Package: strp("poly"),
		Syntax:  strp("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: strp("Shape"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalarField("label", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				},
			},
			{
				Name: strp("Circle"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalarField("radius", 1, descriptorpb.FieldDescriptorProto_TYPE_FLOAT),
				},
			},
		},
	}
	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{"poly.proto"},
		ProtoFile:      []*descriptorpb.FileDescriptorProto{file},
	}
	catalog := extractor.NewAnnotationCatalog()
	catalog.SetMessage("poly.Shape", extractor.MessageAnnotation{
		Derived: []extractor.DerivedEdge{{TagNumber: 100, QualifiedType: "poly.Circle"}},
	})

	resp, err := Generate(req, catalog)
	require.NoError(t, err)
	content := resp.GetFile()[0].GetContent()

	writeFn := content[strings.Index(content, "func WriteShape("):strings.Index(content, "func SizeOfShape(")]
	discriminatorPos := strings.Index(writeFn, "if m.Circle != nil {")
	ownFieldPos := strings.Index(writeFn, `if !(m.Label == "") {`)
	require.NotEqual(t, -1, discriminatorPos)
	require.NotEqual(t, -1, ownFieldPos)
	assert.Less(t, discriminatorPos, ownFieldPos, "discriminator edge must be written before own fields")

	sizeFn := content[strings.Index(content, "func SizeOfShape("):strings.Index(content, "func ReadShape(")]
	sizeDiscriminatorPos := strings.Index(sizeFn, "if m.Circle != nil {")
	sizeOwnFieldPos := strings.Index(sizeFn, `if !(m.Label == "") {`)
	require.NotEqual(t, -1, sizeDiscriminatorPos)
	require.NotEqual(t, -1, sizeOwnFieldPos)
	assert.Less(t, sizeDiscriminatorPos, sizeOwnFieldPos, "discriminator edge must be sized before own fields")
}

func TestFileMessageNamesSkipsMapEntries(t *testing.T) {
	file := &descriptorpb.FileDescriptorProto{
		Name:    strp("m.proto"),
		Package: strp("m"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: strp("Container"),
				NestedType: []*descriptorpb.DescriptorProto{
					{
						Name:    strp("CountsEntry"),
						Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
					},
				},
			},
		},
	}
	names := fileMessageNames(file)
	assert.Equal(t, []string{"m.Container"}, names)
}
