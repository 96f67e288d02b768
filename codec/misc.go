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

package codec

import (
	"github.com/tobyzxj/boxon/bitio"
	"github.com/tobyzxj/boxon/boxonerr"
	"github.com/tobyzxj/boxon/checksum"
	"github.com/tobyzxj/boxon/template"
)

// skipProc is the Skip binding (§4.5): consumes no field, produces no
// value to set.
type skipProc struct{}

func (skipProc) Decode(rd *bitio.Reader, b *template.Binding, ctx *template.Context, reg *Registry) (interface{}, error) {
	if b.HasSkipBitSize {
		n, err := evalInt(ctx, b.BitSizeExpr, b.FieldName)
		if err != nil {
			return nil, err
		}
		return nil, rd.SkipBits(n)
	}
	_, err := rd.ReadTextUntilTerminator(b.Terminator, "US-ASCII", b.ConsumeTerminator)
	return nil, err
}

func (skipProc) Encode(w *bitio.Writer, b *template.Binding, ctx *template.Context, reg *Registry, value interface{}) error {
	if b.HasSkipBitSize {
		n, err := evalInt(ctx, b.BitSizeExpr, b.FieldName)
		if err != nil {
			return err
		}
		w.SkipBits(n)
		return nil
	}
	if b.ConsumeTerminator {
		w.WriteBytes([]byte{b.Terminator})
	}
	return nil
}

// evaluateProc is the Evaluate binding (§4.5): decode assigns
// eval(valueExpression) after the main walk and consumes no bytes; encode
// is a no-op since the field is derived, not persisted. Like checksumProc,
// the engine routes evaluated fields outside the ordinary per-binding walk
// (they live in Template.EvaluatedFields, not Template.Fields) and calls
// the evaluator directly; this Proc exists for registry completeness and
// direct callers.
type evaluateProc struct{}

func (evaluateProc) Decode(rd *bitio.Reader, b *template.Binding, ctx *template.Context, reg *Registry) (interface{}, error) {
	return ctx.Eval(b.ValueExpr)
}

func (evaluateProc) Encode(w *bitio.Writer, b *template.Binding, ctx *template.Context, reg *Registry, value interface{}) error {
	return nil
}

// checksumProc is the Checksum binding (§4.5). The template engine treats
// checksum specially (it is not part of the ordinary field walk, see §4.6
// step 6), but a Proc is still registered here so the codec registry
// honors C5's "maps every binding kind" contract for direct callers.
type checksumProc struct{}

func (checksumProc) Decode(rd *bitio.Reader, b *template.Binding, ctx *template.Context, reg *Registry) (interface{}, error) {
	return rd.ReadUnsignedBits(b.ChecksumWidth, b.ByteOrder)
}

func (checksumProc) Encode(w *bitio.Writer, b *template.Binding, ctx *template.Context, reg *Registry, value interface{}) error {
	u, err := toUint64(value, b.FieldName)
	if err != nil {
		return err
	}
	return w.WriteUnsignedBits(u, b.ChecksumWidth, b.ByteOrder)
}

// VerifyChecksum computes the checksum over data's exclusion-adjusted
// range and compares it with recorded, returning a DecodeError on mismatch
// (§4.5 Checksum, P6).
func VerifyChecksum(b *template.Binding, data []byte, recorded uint64) error {
	n := len(data)
	if b.SkipStart+b.SkipEnd > n {
		return boxonerr.Decode(b.FieldName, "checksum exclusion range exceeds message length")
	}
	region := checksum.ExcludeRange(data, n-b.SkipEnd, b.SkipEnd)
	region = checksum.ExcludeRange(region, 0, b.SkipStart)
	computed, _, err := checksum.Compute(b.Algorithm, region, b.InitialValue)
	if err != nil {
		return err
	}
	if computed != recorded {
		return boxonerr.Decode(b.FieldName, "checksum mismatch: computed 0x%x, recorded 0x%x", computed, recorded)
	}
	return nil
}

// ComputeChecksum computes the checksum over data's exclusion-adjusted
// range for back-patching on encode.
func ComputeChecksum(b *template.Binding, data []byte) (uint64, error) {
	n := len(data)
	region := checksum.ExcludeRange(data, n-b.SkipEnd, b.SkipEnd)
	region = checksum.ExcludeRange(region, 0, b.SkipStart)
	v, _, err := checksum.Compute(b.Algorithm, region, b.InitialValue)
	return v, err
}
