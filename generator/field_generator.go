package generator

import (
	"github.com/bclproto/bclproto/schema"
)

// isZeroExpr returns a Go boolean expression that is true when accessor
// (e.g. "m.Count") holds its Kind's zero value — proto3's own
// singular-field convention, which this generator also applies to
// BCL's "absent means default" semantics (spec §3, §7).
func isZeroExpr(f *schema.Field, accessor string) string {
	switch f.Kind {
	case schema.KindBool:
		return "!" + accessor
	case schema.KindString:
		return accessor + ` == ""`
	case schema.KindBytes:
		return "len(" + accessor + ") == 0"
	case schema.KindGUID:
		return "wire.IsZeroGUID(" + accessor + ")"
	case schema.KindMessage:
		return accessor + " == nil"
	default:
		return accessor + " == 0"
	}
}

// writeScalarValue emits the StreamWriter call that encodes one scalar
// value held in accessor.
func writeScalarValue(b *WriteableBuffer, f *schema.Field, accessor string) {
	switch f.Kind {
	case schema.KindGUID:
		b.P("if err := w.WriteLengthDelimitedHeader(wire.SizeGUIDBody(%s)); err != nil {", accessor)
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
		b.P("if err := wire.WriteGUIDBody(w, %s); err != nil {", accessor)
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
	case schema.KindMessage:
		b.P("if err := w.WriteLengthDelimitedHeader(SizeOf%s(%s)); err != nil {", f.MessageType.GoName, accessor)
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
		b.P("if err := Write%s(w, %s); err != nil {", f.MessageType.GoName, accessor)
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
	case schema.KindPair:
		writePairBody(b, f, accessor)
	default:
		method := writeMethod(f)
		arg := accessor
		if cast := scalarCastType(f); cast != "" {
			arg = cast + "(" + accessor + ")"
		}
		b.P("if err := w.%s(%s); err != nil {", method, arg)
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
	}
}

// writePairBody writes the nested-message body of a Pair<A,B> field:
// a length prefix followed by its two tagged components (spec §3).
func writePairBody(b *WriteableBuffer, f *schema.Field, accessor string) {
	b.P("pairSC := wire.NewSizeCalculator()")
	b.P("pairSC.AddTag(1, %s)", wireTypeConst(f.PairFirst))
	sizeScalarValue(b, f.PairFirst, accessor+".First", "pairSC")
	b.P("pairSC.AddTag(2, %s)", wireTypeConst(f.PairSecond))
	sizeScalarValue(b, f.PairSecond, accessor+".Second", "pairSC")
	b.P("if err := w.WriteLengthDelimitedHeader(pairSC.Size()); err != nil {")
	b.Indent()
	b.P("return err")
	b.Unindent()
	b.P("}")
	b.P("if err := w.WriteTag(1, %s); err != nil {", wireTypeConst(f.PairFirst))
	b.Indent()
	b.P("return err")
	b.Unindent()
	b.P("}")
	writeScalarValue(b, f.PairFirst, accessor+".First")
	b.P("if err := w.WriteTag(2, %s); err != nil {", wireTypeConst(f.PairSecond))
	b.Indent()
	b.P("return err")
	b.Unindent()
	b.P("}")
	writeScalarValue(b, f.PairSecond, accessor+".Second")
}

func sizeScalarValue(b *WriteableBuffer, f *schema.Field, accessor, sizer string) {
	switch f.Kind {
	case schema.KindGUID:
		b.P("%s.AddLengthDelimitedHeader(wire.SizeGUIDBody(%s))", sizer, accessor)
		b.P("%s.AddRaw(wire.SizeGUIDBody(%s))", sizer, accessor)
	case schema.KindMessage:
		b.P("sz := SizeOf%s(%s)", f.MessageType.GoName, accessor)
		b.P("%s.AddLengthDelimitedHeader(sz)", sizer)
		b.P("%s.AddRaw(sz)", sizer)
	case schema.KindPair:
		b.P("innerPairSC := wire.NewSizeCalculator()")
		b.P("innerPairSC.AddTag(1, %s)", wireTypeConst(f.PairFirst))
		sizeScalarValue(b, f.PairFirst, accessor+".First", "innerPairSC")
		b.P("innerPairSC.AddTag(2, %s)", wireTypeConst(f.PairSecond))
		sizeScalarValue(b, f.PairSecond, accessor+".Second", "innerPairSC")
		b.P("%s.AddLengthDelimitedHeader(innerPairSC.Size())", sizer)
		b.P("%s.AddRaw(innerPairSC.Size())", sizer)
	default:
		method := sizeMethod(f)
		if !sizeMethodTakesValue(f) {
			b.P("%s.%s()", sizer, method)
			return
		}
		if cast := scalarCastType(f); cast != "" {
			b.P("%s.%s(%s(%s))", sizer, method, cast, accessor)
			return
		}
		b.P("%s.%s(%s)", sizer, method, accessor)
	}
}

// writeField emits the full statement sequence for one field of a
// non-polymorphic-envelope field slot: single, optional, repeated,
// map.
func writeField(b *WriteableBuffer, f *schema.Field) {
	accessor := "m." + f.GoName

	switch f.Cardinality {
	case schema.CardinalitySingle:
		b.P("if !(%s) {", isZeroExpr(f, accessor))
		b.Indent()
		b.P("if err := w.WriteTag(%d, %s); err != nil {", f.TagNumber, wireTypeConst(f))
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
		writeScalarValue(b, f, accessor)
		b.Unindent()
		b.P("}")

	case schema.CardinalityOptional:
		optAccessor := accessor
		needsDeref := f.Kind != schema.KindMessage && f.Kind != schema.KindBytes
		b.P("if %s != nil {", accessor)
		b.Indent()
		b.P("if err := w.WriteTag(%d, %s); err != nil {", f.TagNumber, wireTypeConst(f))
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
		if needsDeref {
			optAccessor = "(*" + accessor + ")"
		}
		writeScalarValue(b, f, optAccessor)
		b.Unindent()
		b.P("}")

	case schema.CardinalityRepeated:
		writeRepeatedField(b, f, accessor)
	}
}

func writeRepeatedField(b *WriteableBuffer, f *schema.Field, accessor string) {
	if f.Kind == schema.KindMap {
		b.P("for k, v := range %s {", accessor)
		b.Indent()
		b.P("entrySC := wire.NewSizeCalculator()")
		b.P("entrySC.AddTag(1, %s)", mapComponentOnWireConst(f.MapKey))
		sizeScalarValue(b, f.MapKey, "k", "entrySC")
		b.P("entrySC.AddTag(2, %s)", mapComponentOnWireConst(f.MapValue))
		sizeScalarValue(b, f.MapValue, "v", "entrySC")
		b.P("if err := w.WriteTag(%d, wire.WireLengthDelimited); err != nil {", f.TagNumber)
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
		b.P("if err := w.WriteLengthDelimitedHeader(entrySC.Size()); err != nil {")
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
		b.P("if err := w.WriteTag(1, %s); err != nil {", mapComponentOnWireConst(f.MapKey))
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
		writeScalarValue(b, f.MapKey, "k")
		b.P("if err := w.WriteTag(2, %s); err != nil {", mapComponentOnWireConst(f.MapValue))
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
		writeScalarValue(b, f.MapValue, "v")
		b.Unindent()
		b.P("}")
		return
	}

	if f.IsPacked {
		b.P("if len(%s) > 0 {", accessor)
		b.Indent()
		b.P("var body bytes.Buffer")
		b.P("bw := wire.NewStreamWriter(wire.NewBufferSink(&body))")
		b.P("for _, v := range %s {", accessor)
		b.Indent()
		writePackedElement(b, f)
		b.Unindent()
		b.P("}")
		b.P("if err := bw.Flush(); err != nil {")
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
		b.P("if err := w.WriteTag(%d, wire.WireLengthDelimited); err != nil {", f.TagNumber)
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
		b.P("if err := w.WriteLengthDelimitedHeader(body.Len()); err != nil {")
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
		b.P("if err := w.WriteBytes(body.Bytes()); err != nil {")
		b.Indent()
		b.P("return err")
		b.Unindent()
		b.P("}")
		b.Unindent()
		b.P("}")
		return
	}

	b.P("for _, v := range %s {", accessor)
	b.Indent()
	b.P("if err := w.WriteTag(%d, %s); err != nil {", f.TagNumber, wireTypeConst(f))
	b.Indent()
	b.P("return err")
	b.Unindent()
	b.P("}")
	writeScalarValue(b, f, "v")
	b.Unindent()
	b.P("}")
}

// writePackedElement writes one packed element "v" into the staging
// writer bw; only numeric/bool/char16 kinds can be packed (enforced by
// the extractor), so this never needs the message/GUID branches.
func writePackedElement(b *WriteableBuffer, f *schema.Field) {
	method := writeMethod(f)
	arg := "v"
	if cast := scalarCastType(f); cast != "" {
		arg = cast + "(v)"
	}
	b.P("if err := bw.%s(%s); err != nil {", method, arg)
	b.Indent()
	b.P("return err")
	b.Unindent()
	b.P("}")
}

func mapComponentOnWireConst(f *schema.Field) string {
	return wireTypeConst(f)
}

// sizeField mirrors writeField for SizeCalculator accumulation.
func sizeField(b *WriteableBuffer, f *schema.Field) {
	accessor := "m." + f.GoName

	switch f.Cardinality {
	case schema.CardinalitySingle:
		b.P("if !(%s) {", isZeroExpr(f, accessor))
		b.Indent()
		b.P("sc.AddTag(%d, %s)", f.TagNumber, wireTypeConst(f))
		sizeScalarValue(b, f, accessor, "sc")
		b.Unindent()
		b.P("}")

	case schema.CardinalityOptional:
		optAccessor := accessor
		needsDeref := f.Kind != schema.KindMessage && f.Kind != schema.KindBytes
		b.P("if %s != nil {", accessor)
		b.Indent()
		b.P("sc.AddTag(%d, %s)", f.TagNumber, wireTypeConst(f))
		if needsDeref {
			optAccessor = "(*" + accessor + ")"
		}
		sizeScalarValue(b, f, optAccessor, "sc")
		b.Unindent()
		b.P("}")

	case schema.CardinalityRepeated:
		sizeRepeatedField(b, f, accessor)
	}
}

func sizeRepeatedField(b *WriteableBuffer, f *schema.Field, accessor string) {
	if f.Kind == schema.KindMap {
		b.P("for k, v := range %s {", accessor)
		b.Indent()
		b.P("sc.AddTag(%d, wire.WireLengthDelimited)", f.TagNumber)
		b.P("entrySC := wire.NewSizeCalculator()")
		b.P("entrySC.AddTag(1, %s)", mapComponentOnWireConst(f.MapKey))
		sizeScalarValue(b, f.MapKey, "k", "entrySC")
		b.P("entrySC.AddTag(2, %s)", mapComponentOnWireConst(f.MapValue))
		sizeScalarValue(b, f.MapValue, "v", "entrySC")
		b.P("sc.AddLengthDelimitedHeader(entrySC.Size())")
		b.P("sc.AddRaw(entrySC.Size())")
		b.Unindent()
		b.P("}")
		return
	}
	if f.IsPacked {
		b.P("if len(%s) > 0 {", accessor)
		b.Indent()
		b.P("inner := wire.NewSizeCalculator()")
		b.P("for _, v := range %s {", accessor)
		b.Indent()
		if !sizeMethodTakesValue(f) {
			b.P("inner.%s()", sizeMethod(f))
		} else if cast := scalarCastType(f); cast != "" {
			b.P("inner.%s(%s(v))", sizeMethod(f), cast)
		} else {
			b.P("inner.%s(v)", sizeMethod(f))
		}
		b.Unindent()
		b.P("}")
		b.P("sc.AddTag(%d, wire.WireLengthDelimited)", f.TagNumber)
		b.P("sc.AddLengthDelimitedHeader(inner.Size())")
		b.P("sc.AddRaw(inner.Size())")
		b.Unindent()
		b.P("}")
		return
	}
	b.P("for _, v := range %s {", accessor)
	b.Indent()
	b.P("sc.AddTag(%d, %s)", f.TagNumber, wireTypeConst(f))
	sizeScalarValue(b, f, "v", "sc")
	b.Unindent()
	b.P("}")
}

// readScalarValue emits the expression that decodes one scalar value
// of f's Kind from r, assigned into dest.
func readScalarValue(b *WriteableBuffer, f *schema.Field, dest string) {
	switch f.Kind {
	case schema.KindGUID:
		b.P("sub, err := r.ReadLengthDelimited()")
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
		b.P("%s, err = wire.ReadGUIDBody(sub)", dest)
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
	case schema.KindMessage:
		b.P("sub, err := r.ReadLengthDelimited()")
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
		b.P("%s, err = Read%s(sub)", dest, f.MessageType.GoName)
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
	case schema.KindPair:
		b.P("pairBody, err := r.ReadLengthDelimited()")
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
		b.P("for !pairBody.EOF() {")
		b.Indent()
		b.P("pairFieldNumber, _, pairOK, err := pairBody.ReadTag()")
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
		b.P("if !pairOK {")
		b.Indent()
		b.P("break")
		b.Unindent()
		b.P("}")
		b.P("switch pairFieldNumber {")
		b.P("case 1:")
		b.Indent()
		readScalarValueOn(b, f.PairFirst, dest+".First", "pairBody")
		b.Unindent()
		b.P("case 2:")
		b.Indent()
		readScalarValueOn(b, f.PairSecond, dest+".Second", "pairBody")
		b.Unindent()
		b.P("}")
		b.Unindent()
		b.P("}")
	default:
		method := readMethod(f)
		goType := typeToGo(f)
		if needsReadCast(f) {
			b.P("rawVal, err := r.%s()", method)
			b.P("if err != nil {")
			b.Indent()
			b.P("return nil, err")
			b.Unindent()
			b.P("}")
			b.P("%s = %s(rawVal)", dest, goType)
			return
		}
		b.P("%s, err = r.%s()", dest, method)
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
	}
}

// readFieldCase emits one `case <tag>:` branch of the decode switch.
func readFieldCase(b *WriteableBuffer, f *schema.Field) {
	b.P("case %d:", f.TagNumber)
	b.Indent()

	switch {
	case f.Kind == schema.KindMap:
		b.P("sub, err := r.ReadLengthDelimited()")
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
		b.P("var k %s", typeToGo(f.MapKey))
		b.P("var v %s", typeToGo(f.MapValue))
		b.P("for !sub.EOF() {")
		b.Indent()
		b.P("entryFieldNumber, _, entryOK, err := sub.ReadTag()")
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
		b.P("if !entryOK {")
		b.Indent()
		b.P("break")
		b.Unindent()
		b.P("}")
		b.P("switch entryFieldNumber {")
		b.P("case 1:")
		b.Indent()
		readScalarValueOn(b, f.MapKey, "k", "sub")
		b.Unindent()
		b.P("case 2:")
		b.Indent()
		readScalarValueOn(b, f.MapValue, "v", "sub")
		b.Unindent()
		b.P("}")
		b.Unindent()
		b.P("}")
		b.P("if m.%s == nil {", f.GoName)
		b.Indent()
		b.P("m.%s = make(%s)", f.GoName, goFieldType(f))
		b.Unindent()
		b.P("}")
		b.P("m.%s[k] = v", f.GoName)

	case f.Cardinality == schema.CardinalityRepeated && f.Kind.IsNumeric():
		// Packed-adaptivity (spec §4.1, §8): a repeated numeric field must
		// decode correctly whether the sender packed it (wire type 2, one
		// length-delimited run of back-to-back values) or not (wire type
		// matching the scalar's own WireForm, one tag per value) — this is
		// independent of whether this schema itself declares the field
		// packed, since the schema only controls what *this* generator
		// writes, not what a peer using a different schema may have sent.
		cast := scalarCastType(f)
		b.P("if wireType == wire.WireLengthDelimited {")
		b.Indent()
		b.P("sub, err := r.ReadLengthDelimited()")
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
		b.P("for !sub.EOF() {")
		b.Indent()
		b.P("val, err := sub.%s()", readMethod(f))
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
		if cast != "" {
			b.P("elem := %s(val)", typeToGo(f))
			appendElement(b, f, "elem")
		} else {
			appendElement(b, f, "val")
		}
		b.Unindent()
		b.P("}")
		b.Unindent()
		b.P("} else {")
		b.Indent()
		b.P("val, err := r.%s()", readMethod(f))
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
		if cast != "" {
			b.P("elem := %s(val)", typeToGo(f))
			appendElement(b, f, "elem")
		} else {
			appendElement(b, f, "val")
		}
		b.Unindent()
		b.P("}")

	case f.Cardinality == schema.CardinalityRepeated:
		b.P("var val %s", typeToGo(f))
		b.P("var err error")
		readScalarValue(b, f, "val")
		appendElement(b, f, "val")

	case f.Cardinality == schema.CardinalityOptional:
		b.P("var val %s", typeToGo(f))
		b.P("var err error")
		readScalarValue(b, f, "val")
		if f.Kind == schema.KindMessage || f.Kind == schema.KindBytes {
			b.P("m.%s = val", f.GoName)
		} else {
			b.P("m.%s = &val", f.GoName)
		}

	default:
		b.P("var err error")
		readScalarValue(b, f, "m."+f.GoName)
	}

	b.Unindent()
}

func readScalarValueOn(b *WriteableBuffer, f *schema.Field, dest, reader string) {
	switch f.Kind {
	case schema.KindGUID:
		b.P("sub, err := %s.ReadLengthDelimited()", reader)
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
		b.P("%s, err = wire.ReadGUIDBody(sub)", dest)
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
	case schema.KindMessage:
		b.P("sub, err := %s.ReadLengthDelimited()", reader)
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
		b.P("%s, err = Read%s(sub)", dest, f.MessageType.GoName)
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
	default:
		method := readMethod(f)
		goType := typeToGo(f)
		if needsReadCast(f) {
			b.P("rawVal, err := %s.%s()", reader, method)
			b.P("if err != nil {")
			b.Indent()
			b.P("return nil, err")
			b.Unindent()
			b.P("}")
			b.P("%s = %s(rawVal)", dest, goType)
			return
		}
		b.P("var err error")
		b.P("%s, err = %s.%s()", dest, reader, method)
		b.P("if err != nil {")
		b.Indent()
		b.P("return nil, err")
		b.Unindent()
		b.P("}")
	}
}

// appendElement appends val to the destination slice, enforcing
// decode-time uniqueness when the field is a Set (spec §3).
func appendElement(b *WriteableBuffer, f *schema.Field, valExpr string) {
	if f.IsSet {
		b.P("dup := false")
		b.P("for _, existing := range m.%s {", f.GoName)
		b.Indent()
		b.P("if fmt.Sprint(existing) == fmt.Sprint(%s) {", valExpr)
		b.Indent()
		b.P("dup = true")
		b.P("break")
		b.Unindent()
		b.P("}")
		b.Unindent()
		b.P("}")
		b.P("if !dup {")
		b.Indent()
		b.P("m.%s = append(m.%s, %s)", f.GoName, f.GoName, valExpr)
		b.Unindent()
		b.P("}")
		return
	}
	b.P("m.%s = append(m.%s, %s)", f.GoName, f.GoName, valExpr)
}
