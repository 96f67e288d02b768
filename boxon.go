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

// Package boxon ties the template registry, the codec registry, the
// expression evaluator and the message dispatcher together into the one
// entry point user code constructs.
package boxon

import (
	"github.com/tobyzxj/boxon/codec"
	"github.com/tobyzxj/boxon/dispatcher"
	"github.com/tobyzxj/boxon/engine"
	"github.com/tobyzxj/boxon/eval"
	"github.com/tobyzxj/boxon/template"
)

// Boxon is a configured codec engine instance: its own template registry,
// codec registry, evaluator and dispatcher. Multiple instances may coexist
// (e.g. with different registered converters) without sharing state.
type Boxon struct {
	Templates  *template.Registry
	Codecs     *codec.Registry
	Evaluator  eval.Evaluator
	Engine     *engine.Engine
	Dispatcher *dispatcher.Dispatcher
}

// New constructs a Boxon with the default codec registry and the
// govaluate-backed evaluator.
func New() *Boxon {
	return NewWithEvaluator(eval.NewGovaluate())
}

// NewWithEvaluator constructs a Boxon with a caller-supplied Evaluator,
// letting the concrete expression language be swapped per §9 "Expression
// evaluator as interface abstraction".
func NewWithEvaluator(evaluator eval.Evaluator) *Boxon {
	tpls := template.NewRegistry()
	codecs := codec.NewRegistry()
	e := engine.New(codecs, evaluator)
	return &Boxon{
		Templates:  tpls,
		Codecs:     codecs,
		Evaluator:  evaluator,
		Engine:     e,
		Dispatcher: dispatcher.New(e),
	}
}

// RegisterMessage builds the template for sample's type and registers it
// with the dispatcher as a top-level message class.
func (b *Boxon) RegisterMessage(sample interface{}) (*template.Template, error) {
	tpl, err := b.Templates.Build(sample)
	if err != nil {
		return nil, err
	}
	if err := b.Dispatcher.Register(tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// ParseAll scans data for registered message headers and decodes every
// message found, returning successes and per-message errors in parallel
// (§4.7).
func (b *Boxon) ParseAll(data []byte) ([]interface{}, []dispatcher.MessageError) {
	return b.Dispatcher.ParseAll(data)
}

// Compose encodes value using the template registered for its concrete
// type.
func (b *Boxon) Compose(value interface{}) ([]byte, error) {
	return b.Dispatcher.Compose(value)
}
