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

// Package codec implements the codec registry (C5) and the default
// binding codecs (C6): the per-kind read/write procedures the template
// engine dispatches to.
package codec

import (
	"github.com/tobyzxj/boxon/bitio"
	"github.com/tobyzxj/boxon/boxonerr"
	"github.com/tobyzxj/boxon/template"
)

// TemplateEngine is the DI slot a codec uses to recurse into a nested
// template (Object, Array-of-objects) without the codec package importing
// the engine package (which itself imports codec) (§4.4).
type TemplateEngine interface {
	DecodeTemplate(rd *bitio.Reader, tpl *template.Template, ctx *template.Context) (interface{}, error)
	EncodeTemplate(w *bitio.Writer, tpl *template.Template, ctx *template.Context, value interface{}) error
}

// Proc is the read/write contract every binding-kind codec implements
// (§4.4): decode consumes bits from rd and returns the field's raw value;
// encode serializes value onto w.
type Proc interface {
	Decode(rd *bitio.Reader, b *template.Binding, ctx *template.Context, reg *Registry) (interface{}, error)
	Encode(w *bitio.Writer, b *template.Binding, ctx *template.Context, reg *Registry, value interface{}) error
}

// Registry maps a binding kind to its Proc. The default set covers every
// kind in §3; Register lets user code add or override one. Engine is an
// injected collaborator filled in after construction, never captured by a
// Proc at registration time.
type Registry struct {
	procs  map[template.Kind]Proc
	Engine TemplateEngine
}

// NewRegistry returns a Registry pre-populated with the default codec for
// every binding kind.
func NewRegistry() *Registry {
	r := &Registry{procs: make(map[template.Kind]Proc)}
	r.registerDefaults()
	return r
}

// Register installs (or overrides) the Proc for kind.
func (r *Registry) Register(kind template.Kind, p Proc) {
	r.procs[kind] = p
}

// Lookup resolves kind to its Proc.
func (r *Registry) Lookup(kind template.Kind) (Proc, error) {
	p, ok := r.procs[kind]
	if !ok {
		return nil, boxonerr.Codec("", "no codec registered for kind %q", kind)
	}
	return p, nil
}

func (r *Registry) registerDefaults() {
	r.procs[template.KindIntegerBits] = integerBitsProc{}
	r.procs[template.KindInteger] = integerProc{}
	r.procs[template.KindFloat] = floatProc{}
	r.procs[template.KindBitmap] = bitmapProc{}
	r.procs[template.KindStringFixed] = stringFixedProc{}
	r.procs[template.KindStringTerm] = stringTermProc{}
	r.procs[template.KindObject] = objectProc{}
	r.procs[template.KindArrayObjects] = arrayObjectsProc{}
	r.procs[template.KindArrayPrimitives] = arrayPrimitivesProc{}
	r.procs[template.KindSkip] = skipProc{}
	r.procs[template.KindChecksum] = checksumProc{}
	r.procs[template.KindEvaluate] = evaluateProc{}
}

func evalInt(ctx *template.Context, expr string, field string) (int, error) {
	v, err := ctx.Eval(expr)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, boxonerr.Codec(field, "expression %q did not evaluate to a number", expr)
	}
}
