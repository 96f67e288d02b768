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

// Package dispatcher implements the multi-message dispatcher (C8):
// scanning a byte stream for the longest-matching registered header and
// parsing concatenated messages with per-message error isolation.
package dispatcher

import (
	"reflect"

	"github.com/tobyzxj/boxon/bitio"
	"github.com/tobyzxj/boxon/boxonerr"
	"github.com/tobyzxj/boxon/engine"
	"github.com/tobyzxj/boxon/template"
)

// MessageError pairs a per-message decode failure with the byte offset at
// which the failing message's header was found, for the parallel error
// sequence ParseAll returns (§4.7, P9). The failing bytes themselves are not
// copied into it.
type MessageError struct {
	Offset int
	Err    error
}

// Dispatcher holds the set of templates eligible for header-based
// selection, distinct from every template the registry has built (nested
// Object templates are never dispatch candidates).
type Dispatcher struct {
	engine    *engine.Engine
	templates []*template.Template
}

// New returns an empty Dispatcher bound to e.
func New(e *engine.Engine) *Dispatcher {
	return &Dispatcher{engine: e}
}

// Register adds tpl as a dispatch candidate. tpl must declare a non-empty
// header (I1); registering two templates with an identical start sequence
// and header charset is a configuration error.
func (d *Dispatcher) Register(tpl *template.Template) error {
	if len(tpl.Header.Start) == 0 {
		return boxonerr.Template(tpl.Name, "dispatcher requires a non-empty header start")
	}
	for _, existing := range d.templates {
		if existing.Header.Charset != tpl.Header.Charset {
			continue
		}
		for _, s1 := range existing.Header.Start {
			for _, s2 := range tpl.Header.Start {
				if bytesEqual(s1, s2) {
					return boxonerr.Template(tpl.Name, "start sequence %x collides with template %s", s1, existing.Name)
				}
			}
		}
	}
	d.templates = append(d.templates, tpl)
	return nil
}

// ParseAll scans data linearly (§4.7): at each offset it finds the
// longest-matching header among registered templates, invokes the engine,
// and on failure advances by one byte to keep scanning (P9).
func (d *Dispatcher) ParseAll(data []byte) (messages []interface{}, errs []MessageError) {
	p := 0
	for p < len(data) {
		tpl, matchLen := d.longestMatch(data, p)
		if tpl == nil {
			p++
			continue
		}
		rd := bitio.NewReader(data[:])
		rd.SetPosition(p)
		ctx := template.NewContext(d.engine.Evaluator, nil)
		msg, err := d.engine.DecodeTemplate(rd, tpl, ctx)
		if err != nil {
			errs = append(errs, MessageError{Offset: p, Err: err})
			p++
			continue
		}
		messages = append(messages, msg)
		if rd.Position() <= p {
			p += matchLen
		} else {
			p = rd.Position()
		}
	}
	return messages, errs
}

func (d *Dispatcher) longestMatch(data []byte, p int) (*template.Template, int) {
	var best *template.Template
	bestLen := 0
	for _, tpl := range d.templates {
		matched, length := tpl.Header.MatchesAt(data, p)
		if matched && length > bestLen {
			best = tpl
			bestLen = length
		}
	}
	return best, bestLen
}

// Compose locates the template registered for value's concrete type and
// invokes the engine's encode.
func (d *Dispatcher) Compose(value interface{}) ([]byte, error) {
	t := reflect.TypeOf(value)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for _, tpl := range d.templates {
		if tpl.TargetType == t {
			w := bitio.NewWriter()
			ctx := template.NewContext(d.engine.Evaluator, nil)
			if err := d.engine.EncodeTemplate(w, tpl, ctx, value); err != nil {
				return nil, err
			}
			return w.Flush(), nil
		}
	}
	return nil, boxonerr.Template(t.Name(), "no registered template for type %s", t)
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
