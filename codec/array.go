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
	"github.com/tobyzxj/boxon/boxonerr"
	"github.com/tobyzxj/boxon/template"
)

// arrayObjectsProc is the Array-of-objects binding (§4.5).
type arrayObjectsProc struct{}

func (arrayObjectsProc) Decode(rd *bitio.Reader, b *template.Binding, ctx *template.Context, reg *Registry) (interface{}, error) {
	n, err := evalInt(ctx, b.CountExpr, b.FieldName)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, boxonerr.Codec(b.FieldName, "negative array count %d", n)
	}
	elemType := b.TargetType.Elem()
	out := reflect.MakeSlice(b.TargetType, n, n)
	for i := 0; i < n; i++ {
		tpl, err := decodeVariant(rd, b.Selector, ctx, b.ObjectTemplate, b.FieldName)
		if err != nil {
			return nil, err
		}
		elem, err := reg.Engine.DecodeTemplate(rd, tpl, ctx)
		if err != nil {
			return nil, err
		}
		if err := assignElem(out, i, elem, elemType, b.FieldName); err != nil {
			return nil, err
		}
	}
	return template.DecodeConvertValidate(ctx, b, out.Interface())
}

func (arrayObjectsProc) Encode(w *bitio.Writer, b *template.Binding, ctx *template.Context, reg *Registry, value interface{}) error {
	n, err := evalInt(ctx, b.CountExpr, b.FieldName)
	if err != nil {
		return err
	}
	raw, err := template.EncodeConvertValidate(ctx, b, value)
	if err != nil {
		return err
	}
	sv := reflect.ValueOf(raw)
	if sv.Kind() != reflect.Slice {
		return typeMismatch(b.FieldName, "slice", raw)
	}
	if sv.Len() != n {
		return boxonerr.Codec(b.FieldName, "array length %d does not match declared count %d", sv.Len(), n)
	}
	for i := 0; i < sv.Len(); i++ {
		elem := sv.Index(i).Interface()
		tpl, err := encodeVariant(w, b.Selector, b.ObjectTemplate, elem, b.FieldName)
		if err != nil {
			return err
		}
		if err := reg.Engine.EncodeTemplate(w, tpl, ctx, elem); err != nil {
			return err
		}
	}
	return nil
}

func assignElem(slice reflect.Value, i int, decoded interface{}, elemType reflect.Type, field string) error {
	dv := reflect.ValueOf(decoded)
	for dv.Kind() == reflect.Ptr && elemType.Kind() != reflect.Ptr && elemType.Kind() != reflect.Interface {
		if dv.IsNil() {
			break
		}
		dv = dv.Elem()
	}
	if !dv.IsValid() {
		return boxonerr.Codec(field, "decoded element %d is invalid", i)
	}
	if !dv.Type().AssignableTo(elemType) {
		if dv.Type().ConvertibleTo(elemType) {
			dv = dv.Convert(elemType)
		} else {
			return boxonerr.Codec(field, "decoded element %d of type %s not assignable to %s", i, dv.Type(), elemType)
		}
	}
	slice.Index(i).Set(dv)
	return nil
}

// arrayPrimitivesProc is the Array-of-primitives binding (§4.5).
type arrayPrimitivesProc struct{}

func (arrayPrimitivesProc) Decode(rd *bitio.Reader, b *template.Binding, ctx *template.Context, reg *Registry) (interface{}, error) {
	n, err := evalInt(ctx, b.CountExpr, b.FieldName)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, boxonerr.Codec(b.FieldName, "negative array count %d", n)
	}
	elemType := b.TargetType.Elem()
	width, err := fixedWidth(elemType, b.FieldName)
	if err != nil {
		return nil, err
	}
	signed := isSignedKind(elemType)
	out := reflect.MakeSlice(b.TargetType, n, n)
	for i := 0; i < n; i++ {
		var ev reflect.Value
		if signed {
			v, err := rd.ReadSigned(width, b.ByteOrder)
			if err != nil {
				return nil, err
			}
			ev = reflect.ValueOf(v).Convert(elemType)
		} else {
			v, err := rd.ReadUnsignedBits(width, b.ByteOrder)
			if err != nil {
				return nil, err
			}
			ev = reflect.ValueOf(v).Convert(elemType)
		}
		out.Index(i).Set(ev)
	}
	return template.DecodeConvertValidate(ctx, b, out.Interface())
}

func (arrayPrimitivesProc) Encode(w *bitio.Writer, b *template.Binding, ctx *template.Context, reg *Registry, value interface{}) error {
	n, err := evalInt(ctx, b.CountExpr, b.FieldName)
	if err != nil {
		return err
	}
	raw, err := template.EncodeConvertValidate(ctx, b, value)
	if err != nil {
		return err
	}
	sv := reflect.ValueOf(raw)
	if sv.Kind() != reflect.Slice {
		return typeMismatch(b.FieldName, "slice", raw)
	}
	if sv.Len() != n {
		return boxonerr.Codec(b.FieldName, "array length %d does not match declared count %d", sv.Len(), n)
	}
	elemType := b.TargetType.Elem()
	width, err := fixedWidth(elemType, b.FieldName)
	if err != nil {
		return err
	}
	signed := isSignedKind(elemType)
	for i := 0; i < sv.Len(); i++ {
		elem := sv.Index(i).Interface()
		if signed {
			v, err := toInt64(elem, b.FieldName)
			if err != nil {
				return err
			}
			if err := w.WriteSigned(v, width, b.ByteOrder); err != nil {
				return err
			}
		} else {
			v, err := toUint64(elem, b.FieldName)
			if err != nil {
				return err
			}
			if err := w.WriteUnsignedBits(v, width, b.ByteOrder); err != nil {
				return err
			}
		}
	}
	return nil
}
