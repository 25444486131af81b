package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireFormOnWire(t *testing.T) {
	cases := []struct {
		form WireForm
		want WireType
	}{
		{WireVarint, WireTypeVarint},
		{WireZigZag, WireTypeVarint},
		{WireFixed32, WireTypeFixed32},
		{WireFixed64, WireTypeFixed64},
		{WireLengthDelimited, WireTypeLengthDelimited},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.form.OnWire(), "form %s", c.form)
	}
}

func TestTypeKindClassification(t *testing.T) {
	assert.True(t, KindInt32.IsIntegerScalar())
	assert.False(t, KindBool.IsIntegerScalar())
	assert.True(t, KindBool.IsNumeric())
	assert.True(t, KindFloat64.IsNumeric())
	assert.False(t, KindString.IsNumeric())

	assert.True(t, KindString.IsLengthDelimitedElement())
	assert.True(t, KindMessage.IsLengthDelimitedElement())
	assert.False(t, KindInt32.IsLengthDelimitedElement())
}

func TestMessageAllTagNumbers(t *testing.T) {
	base := &Message{QualifiedName: "demo.Base"}
	sub := &Message{QualifiedName: "demo.Sub", Base: base}
	base.Fields = []*Field{
		{TagNumber: 1, Name: "name", Kind: KindString, WireForm: WireLengthDelimited},
	}
	base.Derived = []PolymorphismEdge{{TagNumber: 100, Type: sub}}

	tags := base.AllTagNumbers()
	require.Len(t, tags, 2)
	assert.Contains(t, tags, int32(1))
	assert.Contains(t, tags, int32(100))
	assert.True(t, base.IsPolymorphic())
	assert.False(t, sub.IsPolymorphic())
}

func TestSchemaLookup(t *testing.T) {
	m := &Message{QualifiedName: "demo.Widget"}
	s := New([]*Message{m})
	got, ok := s.Lookup("demo.Widget")
	require.True(t, ok)
	assert.Same(t, m, got)

	_, ok = s.Lookup("demo.Missing")
	assert.False(t, ok)
	assert.Len(t, s.Messages(), 1)
}
