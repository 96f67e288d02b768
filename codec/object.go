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

// decodeVariant reads the selector's prefix (exactly once, P5) and resolves
// the concrete template to recurse into. A nil selector means the binding
// is monomorphic and fallback is used directly.
func decodeVariant(rd *bitio.Reader, sel *template.VariantSelector, ctx *template.Context, fallback *template.Template, field string) (*template.Template, error) {
	if sel == nil {
		if fallback == nil {
			return nil, boxonerr.Template(field, "object binding has neither selector nor concrete template")
		}
		return fallback, nil
	}
	var prefixVal uint64
	var prefixPtr *uint64
	if sel.PrefixBits > 0 {
		u, err := rd.ReadUnsignedBits(sel.PrefixBits, bitio.BigEndian)
		if err != nil {
			return nil, err
		}
		prefixVal = u
		prefixPtr = &prefixVal
	}
	for _, alt := range sel.Alternatives {
		ok, err := ctx.EvalBool(alt.Condition, prefixPtr)
		if err != nil {
			return nil, err
		}
		if ok {
			return alt.Template, nil
		}
	}
	if sel.Default != nil {
		return sel.Default.Template, nil
	}
	return nil, boxonerr.Decode(field, "no variant alternative matched prefix %v", prefixPtr)
}

// encodeVariant picks the alternative whose template's target type matches
// value's concrete type, writes its prefix (if any), and returns the
// template to recurse into for the body.
func encodeVariant(w *bitio.Writer, sel *template.VariantSelector, fallback *template.Template, value interface{}, field string) (*template.Template, error) {
	if sel == nil {
		if fallback == nil {
			return nil, boxonerr.Template(field, "object binding has neither selector nor concrete template")
		}
		return fallback, nil
	}
	vt := concreteType(value)
	for _, alt := range sel.Alternatives {
		if alt.Template != nil && alt.Template.TargetType == vt {
			if sel.PrefixBits > 0 {
				if err := w.WriteUnsignedBits(alt.PrefixValue, sel.PrefixBits, bitio.BigEndian); err != nil {
					return nil, err
				}
			}
			return alt.Template, nil
		}
	}
	if sel.Default != nil {
		if sel.PrefixBits > 0 {
			if err := w.WriteUnsignedBits(sel.Default.PrefixValue, sel.PrefixBits, bitio.BigEndian); err != nil {
				return nil, err
			}
		}
		return sel.Default.Template, nil
	}
	return nil, boxonerr.Encode(field, "value of type %s matches no variant alternative", vt)
}

func concreteType(value interface{}) reflect.Type {
	t := reflect.TypeOf(value)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// objectProc is the Object binding (§4.5).
type objectProc struct{}

func (objectProc) Decode(rd *bitio.Reader, b *template.Binding, ctx *template.Context, reg *Registry) (interface{}, error) {
	tpl, err := decodeVariant(rd, b.Selector, ctx, b.ObjectTemplate, b.FieldName)
	if err != nil {
		return nil, err
	}
	nested, err := reg.Engine.DecodeTemplate(rd, tpl, ctx)
	if err != nil {
		return nil, err
	}
	return template.DecodeConvertValidate(ctx, b, nested)
}

func (objectProc) Encode(w *bitio.Writer, b *template.Binding, ctx *template.Context, reg *Registry, value interface{}) error {
	raw, err := template.EncodeConvertValidate(ctx, b, value)
	if err != nil {
		return err
	}
	tpl, err := encodeVariant(w, b.Selector, b.ObjectTemplate, raw, b.FieldName)
	if err != nil {
		return err
	}
	return reg.Engine.EncodeTemplate(w, tpl, ctx, raw)
}
