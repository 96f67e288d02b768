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

	"github.com/tobyzxj/boxon/eval"
)

// Context is the mapping handed to the evaluator for every condition,
// bitSize, count and value expression: the partially decoded root object
// under dotted-path access, the reserved "#self" and "prefix" names, and
// any user-registered named values (§3 Context, §6).
type Context struct {
	Evaluator eval.Evaluator
	Root      interface{}
	Named     map[string]interface{}
}

// NewContext creates a Context bound to root for the duration of one
// decode or encode pass.
func NewContext(e eval.Evaluator, root interface{}) *Context {
	return &Context{Evaluator: e, Root: root, Named: make(map[string]interface{})}
}

func (c *Context) vars() map[string]interface{} {
	vars := make(map[string]interface{}, len(c.Named)+2)
	for k, v := range c.Named {
		vars[k] = v
	}
	flattenFields(c.Root, vars)
	vars[eval.SelfKey] = c.Root
	return vars
}

// flattenFields exposes each exported field of root (if it is a struct or
// pointer to struct) under its Go field name, so expressions can reference
// "Mask" directly rather than "#self.Mask". Every exported field is exposed,
// including fields not yet decoded, which read as their zero value; a
// forward reference is not detected or reported.
func flattenFields(root interface{}, vars map[string]interface{}) {
	if root == nil {
		return
	}
	v := reflect.ValueOf(root)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		vars[f.Name] = numericAsFloat64(v.Field(i))
	}
}

// numericAsFloat64 normalizes integer-kinded fields to float64, the only
// numeric type govaluate's arithmetic and bitwise operators accept; other
// kinds (string, bool, slice, struct) pass through untouched.
func numericAsFloat64(v reflect.Value) interface{} {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	default:
		return v.Interface()
	}
}

// EvalBool evaluates expr (a condition or converterChooser predicate)
// against the context, with prefix additionally bound under eval.PrefixKey
// when non-nil.
func (c *Context) EvalBool(expr string, prefix *uint64) (bool, error) {
	vars := c.vars()
	if prefix != nil {
		vars[eval.PrefixKey] = float64(*prefix)
	}
	return eval.Bool(c.Evaluator, expr, vars)
}

// Eval evaluates an arbitrary-valued expression (bitSize, count, value)
// against the context.
func (c *Context) Eval(expr string) (interface{}, error) {
	return c.Evaluator.Eval(expr, c.vars())
}
