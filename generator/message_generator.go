package generator

import (
	"github.com/bclproto/bclproto/schema"
)

// generateMessage emits one message's struct declaration and its
// Read<M>/Write<M>/SizeOf<M> triple (spec §4.2, §4.5). Fields whose
// Kind could not be resolved are never reached here — the extractor
// excludes the whole message first.
func generateMessage(b *WriteableBuffer, msg *schema.Message) {
	generateStruct(b, msg)
	b.P0()
	generateWriteFunc(b, msg)
	b.P0()
	generateSizeFunc(b, msg)
	b.P0()
	generateReadFunc(b, msg)
	b.P0()
}

func generateStruct(b *WriteableBuffer, msg *schema.Message) {
	b.P("type %s struct {", msg.GoName)
	b.Indent()
	for _, f := range msg.Fields {
		b.P("%s %s", f.GoName, goFieldType(f))
	}
	for _, edge := range msg.Derived {
		b.P("%s *%s", edge.Type.GoName, edge.Type.GoName)
	}
	b.Unindent()
	b.P("}")
}

// generateWriteFunc emits Write<M>(w, m) error. For a polymorphic base
// message, the Derived discriminator edges are written first and the
// own fields second, matching the reference's own ordering (spec §4.5
// step 1/2, scenario 4, §9).
func generateWriteFunc(b *WriteableBuffer, msg *schema.Message) {
	b.P("func Write%s(w *wire.StreamWriter, m *%s) error {", msg.GoName, msg.GoName)
	b.Indent()
	for _, edge := range msg.Derived {
		b.P("if m.%s != nil {", edge.Type.GoName)
		b.Indent()
		b.P("if err := w.WriteTag(%d, wire.WireLengthDelimited); err != nil {", edge.TagNumber)
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
		b.P("if err := w.WriteLengthDelimitedHeader(SizeOf%s(m.%s)); err != nil {", edge.Type.GoName, edge.Type.GoName)
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
		b.P("if err := Write%s(w, m.%s); err != nil {", edge.Type.GoName, edge.Type.GoName)
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
		b.Unindent()
		b.P("}")
	}
	for _, f := range msg.Fields {
		writeField(b, f)
	}
	b.P("return nil")
	b.Unindent()
	b.P("}")
}

// generateSizeFunc mirrors generateWriteFunc's ordering so a message's
// accumulated size always matches the bytes Write<M> actually emits.
func generateSizeFunc(b *WriteableBuffer, msg *schema.Message) {
	b.P("func SizeOf%s(m *%s) int {", msg.GoName, msg.GoName)
	b.Indent()
	b.P("sc := wire.NewSizeCalculator()")
	for _, edge := range msg.Derived {
		b.P("if m.%s != nil {", edge.Type.GoName)
		b.Indent()
		b.P("sc.AddTag(%d, wire.WireLengthDelimited)", edge.TagNumber)
		b.P("sz := SizeOf%s(m.%s)", edge.Type.GoName, edge.Type.GoName)
		b.P("sc.AddLengthDelimitedHeader(sz)")
		b.P("sc.AddRaw(sz)")
		b.Unindent()
		b.P("}")
	}
	for _, f := range msg.Fields {
		sizeField(b, f)
	}
	b.P("return sc.Size()")
	b.Unindent()
	b.P("}")
}

// generateReadFunc emits Read<M>(r) (*M, error). Unknown tags —
// including a base message's own unrecognized field numbers — are
// skipped for forward compatibility (spec §8) unless they match a
// known Derived edge, in which case the nested body populates that
// subtype's pointer field.
func generateReadFunc(b *WriteableBuffer, msg *schema.Message) {
	b.P("func Read%s(r *wire.SpanReader) (*%s, error) {", msg.GoName, msg.GoName)
	b.Indent()
	b.P("m := &%s{}", msg.GoName)
	b.P("for {")
	b.Indent()
	b.P("fieldNumber, wireType, ok, err := r.ReadTag()")
	b.P("if err != nil {")
	b.Indent()
	b.P("return nil, err")
	b.Unindent()
	b.P("}")
	b.P("if !ok {")
	b.Indent()
	b.P("break")
	b.Unindent()
	b.P("}")
	b.P("switch fieldNumber {")
	for _, f := range msg.Fields {
		readFieldCase(b, f)
	}
	for _, edge := range msg.Derived {
		b.P("case %d:", edge.TagNumber)
		b.Indent()
		b.P("sub, err := r.ReadLengthDelimited()")
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
		b.P("sub%s, err := Read%s(sub)", edge.Type.GoName, edge.Type.GoName)
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
		b.P("m.%s = sub%s", edge.Type.GoName, edge.Type.GoName)
		b.Unindent()
	}
	b.P("default:")
	b.Indent()
	b.P("if err := r.Skip(wireType); err != nil {")
	b.Indent()
	b.P("return nil, err")
	b.Unindent()
	b.P("}")
	b.Unindent()
	b.P("}")
	b.Unindent()
	b.P("}")
	b.P("return m, nil")
	b.Unindent()
	b.P("}")
}
