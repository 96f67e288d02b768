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

import (
	"reflect"
	"sync"

	"github.com/tobyzxj/boxon/boxonerr"
)

// Registry is the template cache plus the side tables a struct tag can
// only reference by name: converters, validators, choosers and variant
// selectors. Templates are built once and cached by reflect.Type (§3
// Lifecycle); the registry itself is safe for concurrent read-only use
// once construction is finished.
type Registry struct {
	mu sync.RWMutex

	byType map[reflect.Type]*Template
	byName map[string]*Template

	converters map[string]*Converter
	validators map[string]Validator
	choosers   map[string]*Chooser
	selectors  map[string]*VariantSelector
}

// NewRegistry returns an empty Registry ready for Build calls.
func NewRegistry() *Registry {
	return &Registry{
		byType:     make(map[reflect.Type]*Template),
		byName:     make(map[string]*Template),
		converters: make(map[string]*Converter),
		validators: make(map[string]Validator),
		choosers:   make(map[string]*Chooser),
		selectors:  make(map[string]*VariantSelector),
	}
}

// RegisterConverter installs a named Converter, referenceable from a field
// tag's converter= attribute.
func (r *Registry) RegisterConverter(name string, c *Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[name] = c
}

// RegisterValidator installs a named Validator.
func (r *Registry) RegisterValidator(name string, v Validator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[name] = v
}

// RegisterChooser installs a named Chooser.
func (r *Registry) RegisterChooser(name string, c *Chooser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.choosers[name] = c
}

// RegisterSelector installs a named VariantSelector, referenceable from an
// Object or Array-of-objects binding's selector= attribute.
func (r *Registry) RegisterSelector(name string, s *VariantSelector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selectors[name] = s
}

func (r *Registry) converter(name string) (*Converter, error) {
	if name == "" {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.converters[name]
	if !ok {
		return nil, boxonerr.Annotation("", "unknown converter %q", name)
	}
	return c, nil
}

func (r *Registry) validator(name string) (Validator, error) {
	if name == "" {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.validators[name]
	if !ok {
		return nil, boxonerr.Annotation("", "unknown validator %q", name)
	}
	return v, nil
}

func (r *Registry) chooser(name string) (*Chooser, error) {
	if name == "" {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.choosers[name]
	if !ok {
		return nil, boxonerr.Annotation("", "unknown chooser %q", name)
	}
	return c, nil
}

func (r *Registry) selector(name string) (*VariantSelector, error) {
	if name == "" {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.selectors[name]
	if !ok {
		return nil, boxonerr.Annotation("", "unknown selector %q", name)
	}
	return s, nil
}

// Lookup returns the already-built template for t, if any.
func (r *Registry) Lookup(t reflect.Type) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.byType[t]
	return tpl, ok
}

// LookupByName returns the already-built template registered under name.
func (r *Registry) LookupByName(name string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.byName[name]
	return tpl, ok
}

// Templates returns every template built so far, nested ones included.
func (r *Registry) Templates() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Template, 0, len(r.byType))
	for _, tpl := range r.byType {
		out = append(out, tpl)
	}
	return out
}
