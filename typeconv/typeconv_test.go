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

package typeconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestFitsRange is P7: bit-width range validation.
func TestFitsRange(t *testing.T) {
	assert.True(t, FitsUnsigned(0, 5))
	assert.True(t, FitsUnsigned(31, 5))
	assert.False(t, FitsUnsigned(32, 5))

	assert.True(t, FitsSigned(-16, 5))
	assert.True(t, FitsSigned(15, 5))
	assert.False(t, FitsSigned(16, 5))
	assert.False(t, FitsSigned(-17, 5))
}

func TestSignExtendAndTruncate(t *testing.T) {
	assert.EqualValues(t, -1, SignExtend(0x1F, 5))
	assert.EqualValues(t, 15, SignExtend(0x0F, 5))
	assert.EqualValues(t, 0x1F, TruncateToWidth(-1, 5))
}

func TestIntToBitmapRoundTrip(t *testing.T) {
	be := IntToBitmap(20, 5, true)
	assert.EqualValues(t, 20, BitmapToInt(be, true))

	le := IntToBitmap(7, 3, false)
	assert.EqualValues(t, 7, BitmapToInt(le, false))
}

func TestIsKnownTypeName(t *testing.T) {
	assert.True(t, IsKnownTypeName(TypeByte))
	assert.True(t, IsKnownTypeName(TypeLongW))
	assert.False(t, IsKnownTypeName("nonsense"))
}

func TestBitLen(t *testing.T) {
	assert.Equal(t, 1, BitLen(0))
	assert.Equal(t, 1, BitLen(1))
	assert.Equal(t, 8, BitLen(0xFF))
}
