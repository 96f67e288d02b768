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

	"github.com/hashicorp/go-multierror"

	"github.com/tobyzxj/boxon/bitio"
	"github.com/tobyzxj/boxon/boxonerr"
	"github.com/tobyzxj/boxon/charset"
	"github.com/tobyzxj/boxon/typeconv"
)

// HeaderMarker is embedded (as a zero-size, typically blank-named field)
// in a message struct to carry the class-level header attributes via the
// "boxonHeader" tag, e.g.:
//
//	_ template.HeaderMarker `boxonHeader:"start=2B4143,charset=UTF-8"`
type HeaderMarker struct{}

var headerMarkerType = reflect.TypeOf(HeaderMarker{})

// RecordConstructor is implemented by immutable, record-like value types
// (§4.8, §9): the engine collects decoded field values into a positional
// tuple (in declared field order) and calls FromFields instead of
// allocating and setting fields one at a time.
type RecordConstructor interface {
	FromFields(values []interface{}) (interface{}, error)
}

// Template is the built, immutable descriptor of one message class (§3).
type Template struct {
	Name       string
	TargetType reflect.Type
	Immutable  bool

	Header          Header
	Fields          []*Binding
	EvaluatedFields []*Binding
	ChecksumField   *Binding
}

// Build parses sample's type (a struct or pointer to struct carrying
// "boxon"/"boxonHeader" tags) into a Template, caching the result by type
// identity. Building the same type twice returns the cached value (§3
// Lifecycle). Object and array-of-objects fields whose Go field type is a
// concrete struct are resolved recursively; the shell is registered before
// recursion so mutually-referring templates do not infinite-loop (§9
// "cyclic template references").
func (r *Registry) Build(sample interface{}) (*Template, error) {
	t := reflect.TypeOf(sample)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, boxonerr.Template("", "boxon: %v is not a struct type", t)
	}
	if tpl, ok := r.Lookup(t); ok {
		return tpl, nil
	}

	tpl := &Template{TargetType: t, Name: t.Name()}
	_, isRecord := reflect.New(t).Interface().(RecordConstructor)
	tpl.Immutable = isRecord

	r.mu.Lock()
	r.byType[t] = tpl
	if tpl.Name != "" {
		r.byName[tpl.Name] = tpl
	}
	r.mu.Unlock()

	if err := r.resolveTemplate(tpl, t); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (r *Registry) resolveTemplate(tpl *Template, t reflect.Type) error {
	var errs *multierror.Error
	sawChecksum := false

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type == headerMarkerType {
			h, err := r.parseHeader(f)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			tpl.Header = h
			continue
		}
		tagStr, ok := f.Tag.Lookup(TagKey)
		if !ok {
			continue
		}
		b, err := r.resolveField(f, tagStr)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		switch b.Kind {
		case KindEvaluate:
			tpl.EvaluatedFields = append(tpl.EvaluatedFields, b)
		case KindChecksum:
			if sawChecksum {
				errs = multierror.Append(errs, boxonerr.Template(f.Name, "at most one checksum field is allowed"))
				continue
			}
			sawChecksum = true
			tpl.ChecksumField = b
		default:
			tpl.Fields = append(tpl.Fields, b)
		}
	}

	return errs.ErrorOrNil()
}

func (r *Registry) parseHeader(f reflect.StructField) (Header, error) {
	attrs := parseTag(f.Tag.Get(HeaderTagKey))
	startAttr := attrs["start"]
	if startAttr == "" {
		return Header{}, boxonerr.Template(f.Name, "header requires at least one start sequence")
	}
	cs := attrs["charset"]
	if cs == "" {
		cs = charset.DefaultCS
	}
	if !charset.IsKnown(cs) {
		return Header{}, boxonerr.Annotation(f.Name, "unknown header charset %q", cs)
	}
	var starts [][]byte
	for _, s := range splitTop(startAttr, ';') {
		b := parseHexBytes(s)
		if b == nil {
			return Header{}, boxonerr.Annotation(f.Name, "malformed start sequence %q", s)
		}
		starts = append(starts, b)
	}
	h := Header{Start: starts, Charset: cs}
	if end, ok := attrs["end"]; ok && end != "" {
		h.End = parseHexBytes(end)
	}
	return h, nil
}

func splitTop(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func (r *Registry) resolveField(f reflect.StructField, tagStr string) (*Binding, error) {
	attrs := parseTag(tagStr)
	kind := Kind(attrs["kind"])
	b := &Binding{
		Kind:          kind,
		FieldName:     f.Name,
		FieldIndex:    f.Index,
		TargetType:    f.Type,
		Condition:     attrs["condition"],
		ConverterName: attrs["converter"],
		ValidatorName: attrs["validator"],
		ChooserName:   attrs["chooser"],
	}
	conv, err := r.converter(b.ConverterName)
	if err != nil {
		return nil, err
	}
	b.Converter = conv
	valid, err := r.validator(b.ValidatorName)
	if err != nil {
		return nil, err
	}
	b.ValidatorFn = valid
	chooser, err := r.chooser(b.ChooserName)
	if err != nil {
		return nil, err
	}
	b.ChooserObj = chooser

	byteOrder := bitio.BigEndian
	if attrs["byteOrder"] == "LE" {
		byteOrder = bitio.LittleEndian
	}
	bitOrder := bitio.BigEndian
	if attrs["bitOrder"] == "LE" {
		bitOrder = bitio.LittleEndian
	}

	switch kind {
	case KindIntegerBits:
		b.BitSizeExpr = attrs["bitSize"]
		b.ByteOrder = byteOrder
		if b.BitSizeExpr == "" {
			return nil, boxonerr.Template(f.Name, "integerBits requires bitSize")
		}
	case KindInteger:
		b.ByteOrder = byteOrder
	case KindFloat:
		b.ByteOrder = byteOrder
		if f.Type.Kind() != reflect.Float32 && f.Type.Kind() != reflect.Float64 {
			return nil, boxonerr.Template(f.Name, "float binding requires a float32/float64 field")
		}
	case KindBitmap:
		b.BitSizeExpr = attrs["bitSize"]
		b.BitOrder = bitOrder
		if b.BitSizeExpr == "" {
			return nil, boxonerr.Template(f.Name, "bitmap requires bitSize")
		}
	case KindStringFixed:
		b.ByteSizeExpr = attrs["byteSize"]
		b.Charset = defaultCharset(attrs["charset"])
		if b.ByteSizeExpr == "" {
			return nil, boxonerr.Template(f.Name, "stringFixed requires byteSize")
		}
		if !charset.IsKnown(b.Charset) {
			return nil, boxonerr.Annotation(f.Name, "unknown charset %q", b.Charset)
		}
	case KindStringTerm:
		b.Charset = defaultCharset(attrs["charset"])
		t, ok := parseHexByte(attrs["terminator"])
		if !ok {
			if len(attrs["terminatorChar"]) == 1 {
				t = attrs["terminatorChar"][0]
			} else {
				return nil, boxonerr.Template(f.Name, "stringTerminated requires terminator or terminatorChar")
			}
		}
		b.Terminator = t
		b.ConsumeTerminator = attrs["consumeTerminator"] == "true"
		if !charset.IsKnown(b.Charset) {
			return nil, boxonerr.Annotation(f.Name, "unknown charset %q", b.Charset)
		}
	case KindObject:
		if err := r.resolveObjectBinding(b, f.Type, attrs); err != nil {
			return nil, err
		}
	case KindArrayObjects:
		if f.Type.Kind() != reflect.Slice {
			return nil, boxonerr.Template(f.Name, "arrayObjects requires a slice field")
		}
		b.CountExpr = attrs["count"]
		if b.CountExpr == "" {
			return nil, boxonerr.Template(f.Name, "arrayObjects requires count")
		}
		if err := r.resolveObjectBinding(b, f.Type.Elem(), attrs); err != nil {
			return nil, err
		}
	case KindArrayPrimitives:
		if f.Type.Kind() != reflect.Slice {
			return nil, boxonerr.Template(f.Name, "arrayPrimitives requires a slice field")
		}
		b.CountExpr = attrs["count"]
		if b.CountExpr == "" {
			return nil, boxonerr.Template(f.Name, "arrayPrimitives requires count")
		}
		b.ByteOrder = byteOrder
		if typeName := attrs["type"]; typeName != "" {
			if !typeconv.IsKnownTypeName(typeName) {
				return nil, boxonerr.Template(f.Name, "unknown primitive type %q", typeName)
			}
			b.ElemTypeName = typeName
			if declared := typeconv.WidthOf[typeName]; declared != 0 {
				if actual := fieldBitWidth(f.Type.Elem()); actual != 0 && actual != declared {
					return nil, boxonerr.Annotation(f.Name, "type=%s declares %d bits but field element %s is %d bits", typeName, declared, f.Type.Elem(), actual)
				}
			}
		}
	case KindSkip:
		if bs, ok := attrs["bitSize"]; ok && bs != "" {
			b.BitSizeExpr = bs
			b.HasSkipBitSize = true
		} else if t, ok := parseHexByte(attrs["terminator"]); ok {
			b.Terminator = t
			b.HasSkipTerm = true
			b.ConsumeTerminator = attrs["consumeTerminator"] == "true"
		} else {
			return nil, boxonerr.Template(f.Name, "skip requires bitSize or terminator")
		}
	case KindChecksum:
		b.ByteOrder = byteOrder
		skipStart, err := parseUintAttr(f.Name, attrs["skipStart"])
		if err != nil {
			return nil, err
		}
		b.SkipStart = int(skipStart)
		skipEnd, err := parseUintAttr(f.Name, attrs["skipEnd"])
		if err != nil {
			return nil, err
		}
		b.SkipEnd = int(skipEnd)
		b.Algorithm = attrs["algorithm"]
		initial, err := parseUintAttr(f.Name, attrs["initial"])
		if err != nil {
			return nil, err
		}
		b.InitialValue = initial
		if b.Algorithm == "" {
			return nil, boxonerr.Template(f.Name, "checksum requires algorithm")
		}
		b.ChecksumWidth = fieldBitWidth(f.Type)
		if b.ChecksumWidth == 0 {
			return nil, boxonerr.Template(f.Name, "checksum target must be an unsigned integer field")
		}
		if initial != 0 && typeconv.BitLen(initial) > b.ChecksumWidth {
			return nil, boxonerr.Template(f.Name, "initial value %#x does not fit in a %d-bit checksum register", initial, b.ChecksumWidth)
		}
	case KindEvaluate:
		b.ValueExpr = attrs["value"]
		if b.ValueExpr == "" {
			return nil, boxonerr.Template(f.Name, "evaluate requires value expression")
		}
	default:
		return nil, boxonerr.Annotation(f.Name, "unknown binding kind %q", kind)
	}
	return b, nil
}

func defaultCharset(cs string) string {
	if cs == "" {
		return charset.DefaultCS
	}
	return cs
}

func fieldBitWidth(t reflect.Type) int {
	switch t.Kind() {
	case reflect.Uint8, reflect.Int8:
		return 8
	case reflect.Uint16, reflect.Int16:
		return 16
	case reflect.Uint32, reflect.Int32, reflect.Float32:
		return 32
	case reflect.Uint64, reflect.Uint, reflect.Int64, reflect.Int, reflect.Float64:
		return 64
	}
	return 0
}

func (r *Registry) resolveObjectBinding(b *Binding, elemType reflect.Type, attrs map[string]string) error {
	b.SelectorName = attrs["selector"]
	if b.SelectorName != "" {
		sel, err := r.selector(b.SelectorName)
		if err != nil {
			return err
		}
		b.Selector = sel
		return nil
	}
	for elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}
	if elemType.Kind() != reflect.Struct {
		return boxonerr.Template(b.FieldName, "object binding with no selector requires a concrete struct element type")
	}
	tpl, err := r.Build(reflect.New(elemType).Interface())
	if err != nil {
		return err
	}
	b.ObjectTemplate = tpl
	return nil
}
