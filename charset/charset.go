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

// Package charset transcodes text bindings (§4.5 String) to and from their
// declared wire charset, using golang.org/x/text's encoding tables rather
// than hand-rolled transcoding tables.
package charset

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/tobyzxj/boxon/boxonerr"
)

// Names recognized by the charset attribute on string bindings.
const (
	UTF8      = "UTF-8"
	ASCII     = "US-ASCII"
	ISO88591  = "ISO-8859-1"
	UTF16BE   = "UTF-16BE"
	UTF16LE   = "UTF-16LE"
	DefaultCS = UTF8
)

var table = map[string]encoding.Encoding{
	ISO88591: charmap.ISO8859_1,
	UTF16BE:  unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	UTF16LE:  unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
}

// Decode converts raw wire bytes in the named charset to a Go string.
// UTF-8 and US-ASCII pass through unchanged since both are subsets of Go's
// native string representation for the byte ranges this engine emits.
func Decode(name string, raw []byte) (string, error) {
	switch name {
	case "", UTF8, ASCII:
		return string(raw), nil
	}
	enc, ok := table[name]
	if !ok {
		return "", boxonerr.Annotation("", "unknown charset %q", name)
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", boxonerr.DecodeWrap("", err, "charset %s decode failed", name)
	}
	return string(out), nil
}

// Encode converts a Go string to raw wire bytes in the named charset.
func Encode(name string, s string) ([]byte, error) {
	switch name {
	case "", UTF8, ASCII:
		return []byte(s), nil
	}
	enc, ok := table[name]
	if !ok {
		return nil, boxonerr.Annotation("", "unknown charset %q", name)
	}
	out, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, boxonerr.EncodeWrap("", err, "charset %s encode failed", name)
	}
	return out, nil
}

// IsKnown reports whether name is a recognized charset identifier.
func IsKnown(name string) bool {
	switch name {
	case "", UTF8, ASCII, ISO88591, UTF16BE, UTF16LE:
		return true
	}
	return false
}
