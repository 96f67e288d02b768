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

package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeKnownAlgorithms(t *testing.T) {
	data := []byte{0x46, 0x06, 0x12, 0x34}

	_, width, err := Compute(CRC16CCITTFalse, data, 0xFFFF)
	require.NoError(t, err)
	assert.Equal(t, 16, width)

	v32, width32, err := Compute(CRC32IEEE, data, 0)
	require.NoError(t, err)
	assert.Equal(t, 32, width32)
	assert.NotZero(t, v32)
}

func TestComputeUnknownAlgorithm(t *testing.T) {
	_, _, err := Compute("nonsense", []byte{1}, 0)
	assert.Error(t, err)
}

// TestExcludeRangeSymmetry is the basis of P6: a checksum computed with a
// range excluded must not change when bytes outside that range change.
func TestExcludeRangeSymmetry(t *testing.T) {
	a := []byte{0x01, 0xAA, 0x02, 0x03}
	b := []byte{0x01, 0xBB, 0x02, 0x03}

	ra := ExcludeRange(a, 1, 1)
	rb := ExcludeRange(b, 1, 1)
	assert.Equal(t, ra, rb)

	va, _, err := Compute(CRC32IEEE, ra, 0)
	require.NoError(t, err)
	vb, _, err := Compute(CRC32IEEE, rb, 0)
	require.NoError(t, err)
	assert.Equal(t, va, vb)
}

func TestExcludeRangeOutOfBoundsReturnsUnchanged(t *testing.T) {
	data := []byte{1, 2, 3}
	assert.Equal(t, data, ExcludeRange(data, 5, 1))
	assert.Equal(t, data, ExcludeRange(data, 0, -1))
}

func TestRegisterCustomAlgorithm(t *testing.T) {
	Register("sum8", func(data []byte, initial uint64) (uint64, int) {
		s := initial
		for _, b := range data {
			s += uint64(b)
		}
		return s & 0xFF, 8
	})
	v, width, err := Compute("sum8", []byte{1, 2, 3}, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, width)
	assert.EqualValues(t, 6, v)
}

// TestInitialSeedsTheRegisterNotTheOutput grounds the fix for the bug where
// initial was added to Sum16()'s result: a CRC seed changes every byte's
// contribution to the final register, not just the last bit pattern added
// on top, so two different seeds must not differ by exactly their own
// difference (the signature of a linear post-addition).
func TestInitialSeedsTheRegisterNotTheOutput(t *testing.T) {
	data := []byte{0x46, 0x06, 0x12, 0x34}

	zero, _, err := Compute(CRC16CCITTFalse, data, 0x0000)
	require.NoError(t, err)
	seeded, _, err := Compute(CRC16CCITTFalse, data, 0xFFFF)
	require.NoError(t, err)

	assert.NotEqual(t, zero, seeded)
	assert.NotEqual(t, (zero+0xFFFF)&0xFFFF, seeded, "initial must not be a post-hoc addition to the unseeded result")
}
