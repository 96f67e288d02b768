// Copyright 2024 tobyzxj
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobyzxj/boxon/bitio"
	"github.com/tobyzxj/boxon/codec"
	"github.com/tobyzxj/boxon/engine"
	"github.com/tobyzxj/boxon/eval"
	"github.com/tobyzxj/boxon/template"
)

func newEngine() (*engine.Engine, *template.Registry, *eval.Govaluate) {
	tpls := template.NewRegistry()
	codecs := codec.NewRegistry()
	ev := eval.NewGovaluate()
	return engine.New(codecs, ev), tpls, ev
}

// HeaderChecksumMessage is end-to-end scenario 1: a fixed header with a
// trailing CRC-16/CCITT-FALSE over the bytes between the header and the
// checksum field itself.
type HeaderChecksumMessage struct {
	_              template.HeaderMarker `boxonHeader:"start=2B41434B,charset=UTF-8"`
	DeviceTypeCode byte                  `boxon:"kind=integer,byteOrder=BE"`
	MessageLen     byte                  `boxon:"kind=integer,byteOrder=BE"`
	PayloadWord    uint16                `boxon:"kind=integer,byteOrder=BE"`
	CRC            uint16                `boxon:"kind=checksum,byteOrder=BE,algorithm=CRC16-CCITT-FALSE,initial=0xFFFF,skipStart=4,skipEnd=2"`
}

func TestFixedHeaderTrailingChecksumScenario(t *testing.T) {
	eng, tpls, ev := newEngine()
	tpl, err := tpls.Build(HeaderChecksumMessage{})
	require.NoError(t, err)

	value := &HeaderChecksumMessage{DeviceTypeCode: 0x46, MessageLen: 6, PayloadWord: 0x1234}
	w := bitio.NewWriter()
	require.NoError(t, eng.EncodeTemplate(w, tpl, template.NewContext(ev, nil), value))
	out := w.Flush()

	require.Len(t, out, 10)
	assert.Equal(t, []byte{0x2B, 0x41, 0x43, 0x4B, 0x46, 0x06, 0x12, 0x34}, out[:8])

	rd := bitio.NewReader(out)
	decoded, err := eng.DecodeTemplate(rd, tpl, template.NewContext(ev, nil))
	require.NoError(t, err)
	msg := decoded.(*HeaderChecksumMessage)
	assert.EqualValues(t, 0x46, msg.DeviceTypeCode)
	assert.EqualValues(t, 6, msg.MessageLen)
	assert.EqualValues(t, 0x1234, msg.PayloadWord)
	assert.Equal(t, 10, rd.Position())

	reEncoded := bitio.NewWriter()
	require.NoError(t, eng.EncodeTemplate(reEncoded, tpl, template.NewContext(ev, nil), msg))
	assert.Equal(t, out, reEncoded.Flush())
}

func TestChecksumMismatchIsDetected(t *testing.T) {
	eng, tpls, ev := newEngine()
	tpl, err := tpls.Build(HeaderChecksumMessage{})
	require.NoError(t, err)

	value := &HeaderChecksumMessage{DeviceTypeCode: 0x46, MessageLen: 6, PayloadWord: 0x1234}
	w := bitio.NewWriter()
	require.NoError(t, eng.EncodeTemplate(w, tpl, template.NewContext(ev, nil), value))
	out := w.Flush()
	out[6] ^= 0xFF // corrupt a payload byte inside the checksummed range

	rd := bitio.NewReader(out)
	_, err = eng.DecodeTemplate(rd, tpl, template.NewContext(ev, nil))
	assert.Error(t, err)
}

// TestChecksumExclusionSymmetry is P6: mutating a byte outside
// [skipStart, totalBytes-skipEnd) must not change the checksum value, even
// though it is still part of the message the engine decodes.
func TestChecksumExclusionSymmetry(t *testing.T) {
	eng, tpls, ev := newEngine()
	tpl, err := tpls.Build(HeaderChecksumMessage{})
	require.NoError(t, err)

	value := &HeaderChecksumMessage{DeviceTypeCode: 0x46, MessageLen: 6, PayloadWord: 0x1234}
	w := bitio.NewWriter()
	require.NoError(t, eng.EncodeTemplate(w, tpl, template.NewContext(ev, nil), value))
	out := w.Flush()

	mutated := append([]byte(nil), out...)
	mutated[0] ^= 0xFF // header byte, outside the checksummed range

	original, err := codec.ComputeChecksum(tpl.ChecksumField, out)
	require.NoError(t, err)
	afterMutation, err := codec.ComputeChecksum(tpl.ChecksumField, mutated)
	require.NoError(t, err)
	assert.Equal(t, original, afterMutation)
}

// ConditionalFieldMessage is end-to-end scenario 4.
type ConditionalFieldMessage struct {
	Mask  byte   `boxon:"kind=integer,byteOrder=BE"`
	Value uint16 `boxon:"kind=integer,byteOrder=BE,condition=(Mask & 4) != 0"`
}

func TestConditionalFieldScenario(t *testing.T) {
	eng, tpls, ev := newEngine()
	tpl, err := tpls.Build(ConditionalFieldMessage{})
	require.NoError(t, err)

	rd := bitio.NewReader([]byte{0x04, 0x12, 0x34})
	decoded, err := eng.DecodeTemplate(rd, tpl, template.NewContext(ev, nil))
	require.NoError(t, err)
	msg := decoded.(*ConditionalFieldMessage)
	assert.EqualValues(t, 4, msg.Mask)
	assert.EqualValues(t, 0x1234, msg.Value)
	assert.Equal(t, 3, rd.Position())

	rd2 := bitio.NewReader([]byte{0x00})
	decoded2, err := eng.DecodeTemplate(rd2, tpl, template.NewContext(ev, nil))
	require.NoError(t, err)
	msg2 := decoded2.(*ConditionalFieldMessage)
	assert.EqualValues(t, 0, msg2.Mask)
	assert.EqualValues(t, 0, msg2.Value)
	assert.Equal(t, 1, rd2.Position())
}

// TestConditionalFieldIsZeroCostOnEncode is P3: a false condition writes no
// bits for that field.
func TestConditionalFieldIsZeroCostOnEncode(t *testing.T) {
	eng, tpls, ev := newEngine()
	tpl, err := tpls.Build(ConditionalFieldMessage{})
	require.NoError(t, err)

	w := bitio.NewWriter()
	require.NoError(t, eng.EncodeTemplate(w, tpl, template.NewContext(ev, nil), &ConditionalFieldMessage{Mask: 0}))
	assert.Equal(t, []byte{0x00}, w.Flush())
}

type VariantElemA struct {
	X byte `boxon:"kind=integer,byteOrder=BE"`
}

type VariantElemB struct {
	Y uint16 `boxon:"kind=integer,byteOrder=BE"`
}

type PolymorphicArrayMessage struct {
	N        byte          `boxon:"kind=integer,byteOrder=BE"`
	Elements []interface{} `boxon:"kind=arrayObjects,count=N,selector=variantElemSelector"`
}

// TestPolymorphicArrayElementScenario is end-to-end scenario 5.
func TestPolymorphicArrayElementScenario(t *testing.T) {
	eng, tpls, ev := newEngine()

	tplA, err := tpls.Build(VariantElemA{})
	require.NoError(t, err)
	tplB, err := tpls.Build(VariantElemB{})
	require.NoError(t, err)

	tpls.RegisterSelector("variantElemSelector", &template.VariantSelector{
		PrefixBits: 8,
		Alternatives: []template.VariantAlternative{
			{Condition: "prefix==1", PrefixValue: 1, Template: tplA},
			{Condition: "prefix==2", PrefixValue: 2, Template: tplB},
		},
	})

	tpl, err := tpls.Build(PolymorphicArrayMessage{})
	require.NoError(t, err)

	input := []byte{0x02, 0x01, 0x0A, 0x02, 0x00, 0xFF}
	rd := bitio.NewReader(input)
	decoded, err := eng.DecodeTemplate(rd, tpl, template.NewContext(ev, nil))
	require.NoError(t, err)
	msg := decoded.(*PolymorphicArrayMessage)
	require.Len(t, msg.Elements, 2)
	a, ok := msg.Elements[0].(*VariantElemA)
	require.True(t, ok)
	assert.EqualValues(t, 10, a.X)
	b, ok := msg.Elements[1].(*VariantElemB)
	require.True(t, ok)
	assert.EqualValues(t, 255, b.Y)

	w := bitio.NewWriter()
	require.NoError(t, eng.EncodeTemplate(w, tpl, template.NewContext(ev, nil), msg))
	assert.Equal(t, input, w.Flush())
}

// EvaluatedFieldMessage is end-to-end scenario 6.
type EvaluatedFieldMessage struct {
	MessageHeader string `boxon:"kind=stringFixed,byteSize=4,charset=UTF-8"`
	Buffered      bool   `boxon:"kind=evaluate,value=hasBPrefix(MessageHeader)"`
}

func TestEvaluatedFieldScenario(t *testing.T) {
	tpls := template.NewRegistry()
	codecs := codec.NewRegistry()
	ev := eval.NewGovaluate()
	ev.Register("hasBPrefix", func(args ...interface{}) (interface{}, error) {
		s, _ := args[0].(string)
		return strings.HasPrefix(s, "+B"), nil
	})
	eng := engine.New(codecs, ev)

	tpl, err := tpls.Build(EvaluatedFieldMessage{})
	require.NoError(t, err)

	rd := bitio.NewReader([]byte{0x2B, 0x42, 0x31, 0x32, 0xFF})
	decoded, err := eng.DecodeTemplate(rd, tpl, template.NewContext(ev, nil))
	require.NoError(t, err)
	msg := decoded.(*EvaluatedFieldMessage)
	assert.Equal(t, "+B12", msg.MessageHeader)
	assert.True(t, msg.Buffered)
	assert.Equal(t, 4, rd.Position())

	w := bitio.NewWriter()
	require.NoError(t, eng.EncodeTemplate(w, tpl, template.NewContext(ev, nil), msg))
	assert.Equal(t, []byte{0x2B, 0x42, 0x31, 0x32}, w.Flush())
}

// BitmapIntoIntegerMessage targets a Bitmap binding at a plain unsigned
// integer field instead of a []bool, folding the bit set through
// typeconv.BitmapToInt/IntToBitmap rather than handing back raw bits.
type BitmapIntoIntegerMessage struct {
	Flags uint16 `boxon:"kind=bitmap,bitSize=12,bitOrder=BE"`
}

func TestBitmapDecodesIntoIntegerField(t *testing.T) {
	eng, tpls, ev := newEngine()
	tpl, err := tpls.Build(BitmapIntoIntegerMessage{})
	require.NoError(t, err)

	// 12 bits 1010_1100_1101 == 0xACD, padded out to 2 bytes.
	rd := bitio.NewReader([]byte{0xAC, 0xD0})
	decoded, err := eng.DecodeTemplate(rd, tpl, template.NewContext(ev, nil))
	require.NoError(t, err)
	msg := decoded.(*BitmapIntoIntegerMessage)
	assert.EqualValues(t, 0xACD, msg.Flags)

	w := bitio.NewWriter()
	require.NoError(t, eng.EncodeTemplate(w, tpl, template.NewContext(ev, nil), msg))
	assert.Equal(t, []byte{0xAC, 0xD0}, w.Flush())
}

// WideIntegerMessage is an Integer-of-bits binding wider than 64 bits read
// into a plain sized field: the register is read as a big.Int and narrowed
// with typeconv.CastBigToWidth (decode) / widened back to a big.Int before
// writing (encode).
type WideIntegerMessage struct {
	Narrow uint64 `boxon:"kind=integerBits,bitSize=72,byteOrder=BE"`
}

func TestIntegerBitsWiderThan64NarrowsToField(t *testing.T) {
	eng, tpls, ev := newEngine()
	tpl, err := tpls.Build(WideIntegerMessage{})
	require.NoError(t, err)

	// 9 bytes: low 8 bytes are 0x00000000_89ABCDEF once the leading 0x01
	// byte (bit 64 and up) is discarded by the 64-bit narrowing.
	input := []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x89, 0xAB, 0xCD, 0xEF}
	rd := bitio.NewReader(input)
	decoded, err := eng.DecodeTemplate(rd, tpl, template.NewContext(ev, nil))
	require.NoError(t, err)
	msg := decoded.(*WideIntegerMessage)
	assert.EqualValues(t, 0x89ABCDEF, msg.Narrow)

	w := bitio.NewWriter()
	require.NoError(t, eng.EncodeTemplate(w, tpl, template.NewContext(ev, nil), msg))
	out := w.Flush()
	require.Len(t, out, 9)
	assert.EqualValues(t, 0x89ABCDEF, new(big.Int).SetBytes(out).Uint64())
}

// TypedArrayMessage exercises the array-of-primitives `type` attribute: it
// must agree with the slice element's Go width.
type TypedArrayMessage struct {
	N        byte     `boxon:"kind=integer,byteOrder=BE"`
	Readings []uint16 `boxon:"kind=arrayPrimitives,count=N,byteOrder=BE,type=short"`
}

func TestArrayPrimitivesTypeAttributeMatchesFieldWidth(t *testing.T) {
	eng, tpls, ev := newEngine()
	tpl, err := tpls.Build(TypedArrayMessage{})
	require.NoError(t, err)

	rd := bitio.NewReader([]byte{0x02, 0x00, 0x01, 0x00, 0x02})
	decoded, err := eng.DecodeTemplate(rd, tpl, template.NewContext(ev, nil))
	require.NoError(t, err)
	msg := decoded.(*TypedArrayMessage)
	assert.Equal(t, []uint16{1, 2}, msg.Readings)
}
