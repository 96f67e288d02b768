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

// Package eval implements the expression-evaluator abstraction (C3): the
// engine depends only on the Evaluator interface, never on a concrete
// expression language, so the default govaluate-backed implementation can
// be swapped for another without touching template or codec code.
package eval

import (
	"sync"

	"github.com/casbin/govaluate"

	"github.com/tobyzxj/boxon/boxonerr"
)

// SelfKey is the reserved context name bound to the root object being
// decoded or encoded (§4.3).
const SelfKey = "#self"

// PrefixKey is the reserved context name bound to the raw prefix bits
// consumed by a variant selector before an alternative is chosen (§4.4).
const PrefixKey = "prefix"

// Evaluator is the interface every condition, bitSize, count,
// converterChooser predicate and evaluate-binding expression is run through
// (converters themselves are Go functions, not expressions). A concrete implementation
// is free to compile, cache or JIT expressions as it sees fit.
type Evaluator interface {
	// Eval evaluates expr against the variable bindings in ctx.
	Eval(expr string, ctx map[string]interface{}) (interface{}, error)
	// Register installs a named function callable from expressions.
	Register(name string, fn govaluate.ExpressionFunction)
}

// Govaluate is the default Evaluator, backed by
// github.com/casbin/govaluate. Compiled expressions are cached per string
// so repeated evaluation of the same binding's condition/converter across
// many decode calls does not re-parse it.
type Govaluate struct {
	mu        sync.RWMutex
	cache     map[string]*govaluate.EvaluableExpression
	functions map[string]govaluate.ExpressionFunction
}

// NewGovaluate returns a ready-to-use govaluate-backed Evaluator.
func NewGovaluate() *Govaluate {
	return &Govaluate{
		cache:     make(map[string]*govaluate.EvaluableExpression),
		functions: make(map[string]govaluate.ExpressionFunction),
	}
}

// Register installs fn under name for later use inside expressions.
func (g *Govaluate) Register(name string, fn govaluate.ExpressionFunction) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.functions[name] = fn
	// invalidate cache entries so previously compiled expressions pick up
	// the new function table on next compile.
	g.cache = make(map[string]*govaluate.EvaluableExpression)
}

func (g *Govaluate) compile(expr string) (*govaluate.EvaluableExpression, error) {
	g.mu.RLock()
	e, ok := g.cache[expr]
	g.mu.RUnlock()
	if ok {
		return e, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.cache[expr]; ok {
		return e, nil
	}
	parsed, err := govaluate.NewEvaluableExpressionWithFunctions(expr, g.functions)
	if err != nil {
		return nil, err
	}
	g.cache[expr] = parsed
	return parsed, nil
}

// Eval compiles (or reuses a compiled) expr and evaluates it against ctx.
func (g *Govaluate) Eval(expr string, ctx map[string]interface{}) (interface{}, error) {
	parsed, err := g.compile(expr)
	if err != nil {
		return nil, boxonerr.AnnotationWrap("", err, "invalid expression %q", expr)
	}
	result, err := parsed.Evaluate(ctx)
	if err != nil {
		return nil, boxonerr.CodecWrap("", err, "expression %q failed to evaluate", expr)
	}
	return result, nil
}

// Bool evaluates expr and coerces the result to bool, as required for
// condition and converterChooser predicates (§4.2).
func Bool(e Evaluator, expr string, ctx map[string]interface{}) (bool, error) {
	v, err := e.Eval(expr, ctx)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, boxonerr.Codec("", "expression %q did not evaluate to a boolean", expr)
	}
	return b, nil
}
