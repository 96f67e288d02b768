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
	"reflect"

	"github.com/tobyzxj/boxon/bitio"
	"github.com/tobyzxj/boxon/template"
)

// floatProc is the Floating binding (§4.5): IEEE-754 reinterpretation of a
// 32- or 64-bit integer read in the declared byte order.
type floatProc struct{}

func (floatProc) Decode(rd *bitio.Reader, b *template.Binding, ctx *template.Context, reg *Registry) (interface{}, error) {
	var raw interface{}
	var err error
	if b.TargetType.Kind() == reflect.Float32 {
		raw, err = rd.ReadFloat32(b.ByteOrder)
	} else {
		raw, err = rd.ReadFloat64(b.ByteOrder)
	}
	if err != nil {
		return nil, err
	}
	return template.DecodeConvertValidate(ctx, b, raw)
}

func (floatProc) Encode(w *bitio.Writer, b *template.Binding, ctx *template.Context, reg *Registry, value interface{}) error {
	raw, err := template.EncodeConvertValidate(ctx, b, value)
	if err != nil {
		return err
	}
	f, err := toFloat64(raw, b.FieldName)
	if err != nil {
		return err
	}
	if b.TargetType.Kind() == reflect.Float32 {
		return w.WriteFloat32(float32(f), b.ByteOrder)
	}
	return w.WriteFloat64(f, b.ByteOrder)
}
