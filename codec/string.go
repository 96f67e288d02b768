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
	"github.com/tobyzxj/boxon/charset"
	"github.com/tobyzxj/boxon/template"
)

// stringFixedProc is the String (fixed) binding (§4.5).
type stringFixedProc struct{}

func (stringFixedProc) Decode(rd *bitio.Reader, b *template.Binding, ctx *template.Context, reg *Registry) (interface{}, error) {
	n, err := evalInt(ctx, b.ByteSizeExpr, b.FieldName)
	if err != nil {
		return nil, err
	}
	raw, err := rd.ReadText(n, b.Charset)
	if err != nil {
		return nil, err
	}
	return template.DecodeConvertValidate(ctx, b, raw)
}

// Encode writes min(len(value), byteSize) bytes of text, per §4.5 String
// (fixed): truncation on overflow, no automatic padding on underflow.
func (stringFixedProc) Encode(w *bitio.Writer, b *template.Binding, ctx *template.Context, reg *Registry, value interface{}) error {
	n, err := evalInt(ctx, b.ByteSizeExpr, b.FieldName)
	if err != nil {
		return err
	}
	raw, err := template.EncodeConvertValidate(ctx, b, value)
	if err != nil {
		return err
	}
	s, ok := raw.(string)
	if !ok {
		return typeMismatch(b.FieldName, "string", raw)
	}
	encoded, err := charset.Encode(b.Charset, s)
	if err != nil {
		return err
	}
	if len(encoded) > n {
		encoded = encoded[:n]
	}
	w.WriteBytes(encoded)
	return nil
}

// stringTermProc is the String (terminated) binding (§4.5).
type stringTermProc struct{}

func (stringTermProc) Decode(rd *bitio.Reader, b *template.Binding, ctx *template.Context, reg *Registry) (interface{}, error) {
	raw, err := rd.ReadTextUntilTerminator(b.Terminator, b.Charset, b.ConsumeTerminator)
	if err != nil {
		return nil, err
	}
	return template.DecodeConvertValidate(ctx, b, raw)
}

func (stringTermProc) Encode(w *bitio.Writer, b *template.Binding, ctx *template.Context, reg *Registry, value interface{}) error {
	raw, err := template.EncodeConvertValidate(ctx, b, value)
	if err != nil {
		return err
	}
	s, ok := raw.(string)
	if !ok {
		return typeMismatch(b.FieldName, "string", raw)
	}
	if b.ConsumeTerminator {
		return w.WriteTextThenByte(s, b.Charset, b.Terminator)
	}
	return w.WriteText(s, b.Charset)
}
