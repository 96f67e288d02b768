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

package template

import "github.com/tobyzxj/boxon/boxonerr"

// ResolveConverter picks the effective Converter for a binding: if a
// ConverterChooser is attached, the first alternative whose condition
// evaluates true wins, falling back to the chooser's default; otherwise
// the binding's own Converter (possibly nil, meaning identity) applies.
func (ctx *Context) ResolveConverter(b *Binding) (*Converter, error) {
	if b.ChooserObj == nil {
		return b.Converter, nil
	}
	for _, alt := range b.ChooserObj.Alternatives {
		ok, err := ctx.EvalBool(alt.Condition, nil)
		if err != nil {
			return nil, err
		}
		if ok {
			return alt.Converter, nil
		}
	}
	return b.ChooserObj.Default, nil
}

// DecodeConvertValidate applies the binding's converter (decode direction)
// then its validator to a freshly-read raw value, in that order (§3 I3).
func DecodeConvertValidate(ctx *Context, b *Binding, raw interface{}) (interface{}, error) {
	conv, err := ctx.ResolveConverter(b)
	if err != nil {
		return nil, err
	}
	val := raw
	if conv != nil && conv.Decode != nil {
		val, err = conv.Decode(raw)
		if err != nil {
			return nil, boxonerr.CodecWrap(b.FieldName, err, "converter decode failed")
		}
	}
	if b.ValidatorFn != nil {
		ok, err := b.ValidatorFn(val)
		if err != nil {
			return nil, boxonerr.CodecWrap(b.FieldName, err, "validator failed")
		}
		if !ok {
			return nil, boxonerr.Codec(b.FieldName, "value failed validation")
		}
	}
	return val, nil
}

// EncodeConvertValidate validates the user-visible value, then applies the
// binding's converter (encode direction) to obtain the raw wire value,
// again validator-before-converter on the encode side (§3 I3).
func EncodeConvertValidate(ctx *Context, b *Binding, value interface{}) (interface{}, error) {
	if b.ValidatorFn != nil {
		ok, err := b.ValidatorFn(value)
		if err != nil {
			return nil, boxonerr.CodecWrap(b.FieldName, err, "validator failed")
		}
		if !ok {
			return nil, boxonerr.Codec(b.FieldName, "value failed validation")
		}
	}
	conv, err := ctx.ResolveConverter(b)
	if err != nil {
		return nil, err
	}
	raw := value
	if conv != nil && conv.Encode != nil {
		raw, err = conv.Encode(value)
		if err != nil {
			return nil, boxonerr.CodecWrap(b.FieldName, err, "converter encode failed")
		}
	}
	return raw, nil
}
