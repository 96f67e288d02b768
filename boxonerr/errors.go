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

// Package boxonerr defines the error taxonomy shared by every layer of the
// codec engine: build-time errors (Annotation, Template) and runtime errors
// (Codec, Decode, Encode, BufferUnderflow).
package boxonerr

import (
	"errors"
	"fmt"
)

// Kind labels a failure with the short taxonomy name from the error model.
type Kind string

const (
	KindAnnotation      Kind = "Annotation"
	KindTemplate        Kind = "Template"
	KindCodec           Kind = "Codec"
	KindDecode          Kind = "Decode"
	KindEncode          Kind = "Encode"
	KindBufferUnderflow Kind = "BufferUnderflow"
)

// Error is the common shape for every taxonomy member: a kind label, the
// field name when one is available, a human message and an optional cause.
type Error struct {
	Kind  Kind
	Field string
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Field != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: field %q: %s: %v", e.Kind, e.Field, e.Msg, e.Cause)
		}
		return fmt.Sprintf("%s: field %q: %s", e.Kind, e.Field, e.Msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, &boxonerr.Error{Kind: boxonerr.KindAnnotation})
// match any *Error of that kind; a non-empty Field on the target must match
// too.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	if other.Field != "" && other.Field != e.Field {
		return false
	}
	return e.Kind == other.Kind
}

func newf(kind Kind, field string, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Field: field, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// Annotation builds an AnnotationError: template-build-time malformation.
func Annotation(field string, format string, args ...interface{}) *Error {
	return newf(KindAnnotation, field, nil, format, args...)
}

// AnnotationWrap is Annotation with a wrapped cause.
func AnnotationWrap(field string, cause error, format string, args ...interface{}) *Error {
	return newf(KindAnnotation, field, cause, format, args...)
}

// Template builds a TemplateError: a required slot missing/inconsistent at build time.
func Template(field string, format string, args ...interface{}) *Error {
	return newf(KindTemplate, field, nil, format, args...)
}

// Codec builds a CodecError: runtime mismatch inside a single binding.
func Codec(field string, format string, args ...interface{}) *Error {
	return newf(KindCodec, field, nil, format, args...)
}

// CodecWrap is Codec with a wrapped cause.
func CodecWrap(field string, cause error, format string, args ...interface{}) *Error {
	return newf(KindCodec, field, cause, format, args...)
}

// Decode builds a DecodeError: runtime decoding failure of a whole template.
func Decode(field string, format string, args ...interface{}) *Error {
	return newf(KindDecode, field, nil, format, args...)
}

// DecodeWrap is Decode with a wrapped cause.
func DecodeWrap(field string, cause error, format string, args ...interface{}) *Error {
	return newf(KindDecode, field, cause, format, args...)
}

// Encode builds an EncodeError: runtime encoding failure.
func Encode(field string, format string, args ...interface{}) *Error {
	return newf(KindEncode, field, nil, format, args...)
}

// EncodeWrap is Encode with a wrapped cause.
func EncodeWrap(field string, cause error, format string, args ...interface{}) *Error {
	return newf(KindEncode, field, cause, format, args...)
}

// BufferUnderflow marks the reader running off the end of the buffer.
func BufferUnderflow(field string, format string, args ...interface{}) *Error {
	return newf(KindBufferUnderflow, field, nil, format, args...)
}

// IsKind reports whether err (or something it wraps) is a boxonerr.Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
