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

// Package reflectfield implements reflective field access for the engine
// (C9): allocating a mutable instance and setting fields by index path, or
// reading them back for encode, independent of whether the concrete type
// is exported from user code.
package reflectfield

import (
	"reflect"

	"github.com/tobyzxj/boxon/boxonerr"
)

// NewMutable allocates a zero-value, addressable instance of t (following
// one level of pointer indirection if t is itself a pointer type) and
// returns both the addressable reflect.Value and the interface{} to hand
// back to the caller.
func NewMutable(t reflect.Type) (reflect.Value, interface{}) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	ptr := reflect.New(t)
	return ptr.Elem(), ptr.Interface()
}

// Set assigns value to the field at index (a dotted field-index path as
// produced by reflect.Type.Field) on the addressable struct value root.
func Set(root reflect.Value, index []int, value interface{}) error {
	field := root.FieldByIndex(index)
	if !field.CanSet() {
		return boxonerr.Codec("", "field at index %v is not settable", index)
	}
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	if v.Type().AssignableTo(field.Type()) {
		field.Set(v)
		return nil
	}
	if v.Type().ConvertibleTo(field.Type()) {
		field.Set(v.Convert(field.Type()))
		return nil
	}
	return boxonerr.Codec("", "cannot assign %s to field of type %s", v.Type(), field.Type())
}

// Get reads the field at index off of a struct value (addressable or not).
func Get(root reflect.Value, index []int) interface{} {
	return root.FieldByIndex(index).Interface()
}

// Deref follows pointer indirections down to the underlying struct value,
// allocating as it goes when allocate is true.
func Deref(v reflect.Value, allocate bool) reflect.Value {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			if !allocate || !v.CanSet() {
				return v
			}
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}
	return v
}
