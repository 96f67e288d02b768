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

// Package template holds the parsed, immutable representation of a message
// class (C4): its header, its ordered field bindings, its evaluated fields
// and its optional checksum field.
package template

import (
	"reflect"

	"github.com/tobyzxj/boxon/bitio"
)

// Kind discriminates the binding sum type (§9 "binding as tagged variant").
type Kind string

const (
	KindIntegerBits     Kind = "integerBits"
	KindInteger         Kind = "integer"
	KindFloat           Kind = "float"
	KindBitmap          Kind = "bitmap"
	KindStringFixed     Kind = "stringFixed"
	KindStringTerm      Kind = "stringTerminated"
	KindObject          Kind = "object"
	KindArrayObjects    Kind = "arrayObjects"
	KindArrayPrimitives Kind = "arrayPrimitives"
	KindSkip            Kind = "skip"
	KindChecksum        Kind = "checksum"
	KindEvaluate        Kind = "evaluate"
)

// Converter is a two-sided inverse pair mediating between the raw wire
// value and the user-visible field value (§3 Converter). A nil Converter is
// the identity.
type Converter struct {
	Decode func(raw interface{}) (interface{}, error)
	Encode func(value interface{}) (interface{}, error)
}

// Validator is a pure predicate on the converted, user-visible value. A nil
// Validator is always true.
type Validator func(value interface{}) (bool, error)

// ChooserAlternative is one (condition, converter) arm of a ConverterChooser.
type ChooserAlternative struct {
	Condition string
	Converter *Converter
}

// Chooser selects a Converter at runtime from a list of predicate-guarded
// alternatives, falling back to Default when none match (§3 Converter).
type Chooser struct {
	Alternatives []ChooserAlternative
	Default      *Converter
}

// VariantAlternative is one (condition, prefixValue, template) arm of a
// VariantSelector (§3 Variant-selector).
type VariantAlternative struct {
	Condition   string
	PrefixValue uint64
	Template    *Template
}

// VariantSelector picks a concrete variant for a polymorphic Object or
// array-of-objects element: a prefix read of PrefixBits bits (0 means none)
// followed by evaluating each alternative's Condition in declared order.
type VariantSelector struct {
	PrefixBits   int
	Alternatives []VariantAlternative
	Default      *VariantAlternative
}

// Binding is the parsed, per-field description of one wire binding. It
// holds the common attributes (condition/converter/validator/chooser) plus
// every kind-specific attribute; Kind says which subset applies, mirroring
// a sum type without the boilerplate of per-kind wrapper structs.
type Binding struct {
	Kind       Kind
	FieldName  string
	FieldIndex []int
	TargetType reflect.Type

	Condition     string
	ConverterName string
	ValidatorName string
	ChooserName   string
	Converter     *Converter
	ValidatorFn   Validator
	ChooserObj    *Chooser

	// Integer-of-bits / Fixed-width integer / Bitmap
	BitSizeExpr string
	ByteOrder   bitio.ByteOrder
	BitOrder    bitio.ByteOrder

	// String fixed / terminated
	ByteSizeExpr      string
	Charset           string
	Terminator        byte
	ConsumeTerminator bool

	// Object / Array-of-objects
	ObjectTypeName string
	ObjectTemplate *Template
	SelectorName   string
	Selector       *VariantSelector

	// Array-of-objects / Array-of-primitives
	CountExpr    string
	ElemTypeName string

	// Skip
	HasSkipBitSize bool
	HasSkipTerm    bool

	// Checksum
	ChecksumWidth     int
	SkipStart         int
	SkipEnd           int
	Algorithm         string
	InitialValue      uint64

	// Evaluate
	ValueExpr string
}

// IsPrimary reports whether the binding occupies a declared struct field
// slot (as opposed to Skip, which has no associated field).
func (b *Binding) IsPrimary() bool {
	return b.Kind != KindSkip
}
