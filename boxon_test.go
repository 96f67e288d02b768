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

package boxon_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobyzxj/boxon"
	"github.com/tobyzxj/boxon/template"
)

// PingMessage and PongMessage share a dispatcher so ParseAll must pick the
// registered template whose header actually matches each message in a
// concatenated stream.
type PingMessage struct {
	_      template.HeaderMarker `boxonHeader:"start=50494E47,charset=UTF-8"` // "PING"
	Seq    byte                  `boxon:"kind=integer,byteOrder=BE"`
}

type PongMessage struct {
	_   template.HeaderMarker `boxonHeader:"start=504F4E47,charset=UTF-8"` // "PONG"
	Ack byte                  `boxon:"kind=integer,byteOrder=BE"`
}

func TestBoxonRegisterComposeAndParseAll(t *testing.T) {
	b := boxon.New()
	_, err := b.RegisterMessage(PingMessage{})
	require.NoError(t, err)
	_, err = b.RegisterMessage(PongMessage{})
	require.NoError(t, err)

	ping, err := b.Compose(&PingMessage{Seq: 1})
	require.NoError(t, err)
	pong, err := b.Compose(&PongMessage{Ack: 1})
	require.NoError(t, err)

	stream := append(append([]byte{}, ping...), pong...)
	messages, errs := b.ParseAll(stream)
	assert.Empty(t, errs)
	require.Len(t, messages, 2)

	p1, ok := messages[0].(*PingMessage)
	require.True(t, ok)
	assert.EqualValues(t, 1, p1.Seq)
	p2, ok := messages[1].(*PongMessage)
	require.True(t, ok)
	assert.EqualValues(t, 1, p2.Ack)
}

func TestBoxonRegisterMessageRejectsNonStruct(t *testing.T) {
	b := boxon.New()
	_, err := b.RegisterMessage(42)
	assert.Error(t, err)
}
