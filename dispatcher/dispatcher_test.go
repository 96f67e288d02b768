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

package dispatcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobyzxj/boxon/bitio"
	"github.com/tobyzxj/boxon/codec"
	"github.com/tobyzxj/boxon/dispatcher"
	"github.com/tobyzxj/boxon/engine"
	"github.com/tobyzxj/boxon/eval"
	"github.com/tobyzxj/boxon/template"
)

func newDispatcher() (*dispatcher.Dispatcher, *engine.Engine, *template.Registry) {
	tpls := template.NewRegistry()
	codecs := codec.NewRegistry()
	ev := eval.NewGovaluate()
	eng := engine.New(codecs, ev)
	return dispatcher.New(eng), eng, tpls
}

type ShortHeaderMsg struct {
	_     template.HeaderMarker `boxonHeader:"start=01,charset=UTF-8"`
	Value byte                  `boxon:"kind=integer,byteOrder=BE"`
}

type LongHeaderMsg struct {
	_     template.HeaderMarker `boxonHeader:"start=0102,charset=UTF-8"`
	Value byte                  `boxon:"kind=integer,byteOrder=BE"`
}

// TestLongestHeaderMatchWins is P4: given overlapping start sequences A and
// A++B, an input beginning with A++B dispatches to the longer template.
func TestLongestHeaderMatchWins(t *testing.T) {
	d, _, tpls := newDispatcher()
	shortTpl, err := tpls.Build(ShortHeaderMsg{})
	require.NoError(t, err)
	longTpl, err := tpls.Build(LongHeaderMsg{})
	require.NoError(t, err)
	require.NoError(t, d.Register(shortTpl))
	require.NoError(t, d.Register(longTpl))

	messages, errs := d.ParseAll([]byte{0x01, 0x02, 0x05})
	assert.Empty(t, errs)
	require.Len(t, messages, 1)
	msg, ok := messages[0].(*LongHeaderMsg)
	require.True(t, ok)
	assert.EqualValues(t, 5, msg.Value)
}

func TestRegisterRejectsCollidingStart(t *testing.T) {
	d, _, tpls := newDispatcher()
	tplA, err := tpls.Build(ShortHeaderMsg{})
	require.NoError(t, err)

	type DuplicateHeaderMsg struct {
		_     template.HeaderMarker `boxonHeader:"start=01,charset=UTF-8"`
		Value byte                  `boxon:"kind=integer,byteOrder=BE"`
	}
	tplB, err := tpls.Build(DuplicateHeaderMsg{})
	require.NoError(t, err)

	require.NoError(t, d.Register(tplA))
	assert.Error(t, d.Register(tplB))
}

type ChecksumMsg struct {
	_     template.HeaderMarker `boxonHeader:"start=AA,charset=UTF-8"`
	Value byte                  `boxon:"kind=integer,byteOrder=BE"`
	CRC   uint32                `boxon:"kind=checksum,byteOrder=BE,algorithm=CRC32,skipStart=1,skipEnd=4"`
}

// TestDispatcherIsolatesPerMessageErrors is P9: a corrupted message among a
// concatenation of messages yields its own error and does not prevent a
// later valid message from decoding.
func TestDispatcherIsolatesPerMessageErrors(t *testing.T) {
	d, eng, tpls := newDispatcher()
	tpl, err := tpls.Build(ChecksumMsg{})
	require.NoError(t, err)
	require.NoError(t, d.Register(tpl))

	ctx := template.NewContext(eval.NewGovaluate(), nil)
	w := bitio.NewWriter()
	require.NoError(t, eng.EncodeTemplate(w, tpl, ctx, &ChecksumMsg{Value: 7}))
	valid := w.Flush()

	corrupted := append([]byte(nil), valid...)
	last := len(corrupted) - 1
	if corrupted[last] == 0x00 {
		corrupted[last] = 0x01
	} else {
		corrupted[last] = 0x00
	}

	data := append(append([]byte{}, corrupted...), valid...)
	messages, errs := d.ParseAll(data)

	assert.NotEmpty(t, errs)
	require.Len(t, messages, 1)
	msg, ok := messages[0].(*ChecksumMsg)
	require.True(t, ok)
	assert.EqualValues(t, 7, msg.Value)
}

func TestComposeRoundTrip(t *testing.T) {
	d, eng, tpls := newDispatcher()
	tpl, err := tpls.Build(ChecksumMsg{})
	require.NoError(t, err)
	require.NoError(t, d.Register(tpl))

	out, err := d.Compose(&ChecksumMsg{Value: 9})
	require.NoError(t, err)

	ctx := template.NewContext(eval.NewGovaluate(), nil)
	rd := bitio.NewReader(out)
	decoded, err := eng.DecodeTemplate(rd, tpl, ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 9, decoded.(*ChecksumMsg).Value)
}

func TestRegisterRequiresHeader(t *testing.T) {
	d, _, _ := newDispatcher()
	tpl := &template.Template{Name: "noHeader", TargetType: nil}
	assert.Error(t, d.Register(tpl))
}
