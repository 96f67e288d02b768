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

// Package engine implements the template engine (C7): the orchestration of
// a single message's decode or encode over its template's ordered fields,
// including condition short-circuiting, evaluated fields and checksum
// reservation/verification.
package engine

import (
	"reflect"

	"github.com/tobyzxj/boxon/bitio"
	"github.com/tobyzxj/boxon/boxonerr"
	"github.com/tobyzxj/boxon/codec"
	"github.com/tobyzxj/boxon/eval"
	"github.com/tobyzxj/boxon/reflectfield"
	"github.com/tobyzxj/boxon/template"
)

// Engine walks one template at a time; it carries no per-decode state of
// its own beyond the instance under construction and the evaluator
// bindings scoped to that instance (§4.6 "State").
type Engine struct {
	Codecs    *codec.Registry
	Evaluator eval.Evaluator
}

// New builds an Engine and wires it into codecs as the DI-injected
// TemplateEngine collaborator (§4.4), so Object/Array-of-objects codecs can
// recurse without codecs importing this package.
func New(codecs *codec.Registry, evaluator eval.Evaluator) *Engine {
	e := &Engine{Codecs: codecs, Evaluator: evaluator}
	codecs.Engine = e
	return e
}

func childContext(parent *template.Context, evaluator eval.Evaluator, root interface{}) *template.Context {
	ctx := template.NewContext(evaluator, root)
	if parent != nil {
		for k, v := range parent.Named {
			ctx.Named[k] = v
		}
	}
	return ctx
}

// DecodeTemplate runs the 7-step decode algorithm of §4.6 against tpl at
// rd's current position, returning the populated (or record-constructed)
// instance.
func (e *Engine) DecodeTemplate(rd *bitio.Reader, tpl *template.Template, parentCtx *template.Context) (interface{}, error) {
	start := rd.Position()

	if len(tpl.Header.Start) > 0 {
		matched, length := tpl.Header.MatchesAt(rd.Bytes(), start)
		if !matched {
			return nil, boxonerr.Decode(tpl.Name, "header start not matched at byte %d", start)
		}
		if _, err := rd.ReadBytes(length); err != nil {
			return nil, err
		}
	}

	instanceVal, instancePtr := reflectfield.NewMutable(tpl.TargetType)
	ctx := childContext(parentCtx, e.Evaluator, instancePtr)

	var positional []interface{}
	for _, b := range tpl.Fields {
		if b.Condition != "" {
			ok, err := ctx.EvalBool(b.Condition, nil)
			if err != nil {
				return nil, err
			}
			if !ok {
				if b.IsPrimary() {
					positional = append(positional, reflect.Zero(b.TargetType).Interface())
				}
				continue
			}
		}
		proc, err := e.Codecs.Lookup(b.Kind)
		if err != nil {
			return nil, err
		}
		val, err := proc.Decode(rd, b, ctx, e.Codecs)
		if err != nil {
			return nil, boxonerr.DecodeWrap(b.FieldName, err, "decoding field %q", b.FieldName)
		}
		if !b.IsPrimary() {
			continue
		}
		if err := reflectfield.Set(instanceVal, b.FieldIndex, val); err != nil {
			return nil, err
		}
		positional = append(positional, val)
	}

	if len(tpl.Header.End) > 0 {
		end, err := rd.ReadBytes(len(tpl.Header.End))
		if err != nil {
			return nil, err
		}
		if !bytesEqual(end, tpl.Header.End) {
			return nil, boxonerr.Decode(tpl.Name, "end marker mismatch")
		}
	}

	for _, b := range tpl.EvaluatedFields {
		val, err := ctx.Eval(b.ValueExpr)
		if err != nil {
			return nil, boxonerr.DecodeWrap(b.FieldName, err, "evaluating field %q", b.FieldName)
		}
		if err := reflectfield.Set(instanceVal, b.FieldIndex, val); err != nil {
			return nil, err
		}
	}

	if tpl.ChecksumField != nil {
		b := tpl.ChecksumField
		recorded, err := rd.ReadUnsignedBits(b.ChecksumWidth, b.ByteOrder)
		if err != nil {
			return nil, err
		}
		if err := reflectfield.Set(instanceVal, b.FieldIndex, recorded); err != nil {
			return nil, err
		}
		region := rd.Bytes()[start:rd.Position()]
		if err := codec.VerifyChecksum(b, region, recorded); err != nil {
			return nil, err
		}
		positional = append(positional, recorded)
	}

	if !tpl.Immutable {
		return instancePtr, nil
	}
	rc, ok := reflect.New(tpl.TargetType).Interface().(template.RecordConstructor)
	if !ok {
		return nil, boxonerr.Template(tpl.Name, "marked immutable but does not implement RecordConstructor")
	}
	built, err := rc.FromFields(positional)
	if err != nil {
		return nil, boxonerr.DecodeWrap(tpl.Name, err, "record construction failed")
	}
	return built, nil
}

// EncodeTemplate is the strict inverse of DecodeTemplate (§4.6): the
// checksum slot is reserved after every field and the end marker have been
// written, then back-patched. The checksum therefore always sits at the end
// of the message, wherever its field is declared in the struct; decode
// likewise reads it last.
func (e *Engine) EncodeTemplate(w *bitio.Writer, tpl *template.Template, parentCtx *template.Context, value interface{}) error {
	start := w.Position()

	if len(tpl.Header.Start) > 0 {
		w.WriteBytes(tpl.Header.Start[0])
	}

	instanceVal := reflect.ValueOf(value)
	for instanceVal.Kind() == reflect.Ptr {
		instanceVal = instanceVal.Elem()
	}
	ctx := childContext(parentCtx, e.Evaluator, value)

	for _, b := range tpl.Fields {
		if b.Condition != "" {
			ok, err := ctx.EvalBool(b.Condition, nil)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}
		proc, err := e.Codecs.Lookup(b.Kind)
		if err != nil {
			return err
		}
		var fieldVal interface{}
		if b.IsPrimary() {
			fieldVal = reflectfield.Get(instanceVal, b.FieldIndex)
		}
		if err := proc.Encode(w, b, ctx, e.Codecs, fieldVal); err != nil {
			return boxonerr.EncodeWrap(b.FieldName, err, "encoding field %q", b.FieldName)
		}
	}

	if len(tpl.Header.End) > 0 {
		w.WriteBytes(tpl.Header.End)
	}

	if tpl.ChecksumField != nil {
		b := tpl.ChecksumField
		fieldOffset := w.Position()
		w.SkipBits(b.ChecksumWidth)
		region := w.Bytes()[start:]
		computed, err := codec.ComputeChecksum(b, region)
		if err != nil {
			return err
		}
		patch := bitio.NewWriter()
		if err := patch.WriteUnsignedBits(computed, b.ChecksumWidth, b.ByteOrder); err != nil {
			return err
		}
		if err := w.PatchBytes(fieldOffset, patch.Flush()); err != nil {
			return err
		}
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
