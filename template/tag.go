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
	"strconv"
	"strings"

	"github.com/tobyzxj/boxon/boxonerr"
)

// TagKey is the struct tag key carrying a field's declarative binding
// metadata, e.g. `boxon:"kind=integerBits,bitSize=5,byteOrder=BE"`.
const TagKey = "boxon"

// HeaderTagKey annotates the sentinel field carrying class-level header
// metadata, e.g. `boxonHeader:"start=2B4143,charset=UTF-8"`.
const HeaderTagKey = "boxonHeader"

func parseTag(tag string) map[string]string {
	out := make(map[string]string)
	if tag == "" {
		return out
	}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 1 {
			out[kv[0]] = "true"
			continue
		}
		out[kv[0]] = kv[1]
	}
	return out
}

// parseUintAttr parses a tag attribute as an unsigned integer, base 0 so
// hex literals (e.g. the reserved CRC seeds 0x0000/0xFFFF from §6) and plain
// decimal both work. A missing attribute yields 0 with no error; a malformed
// one is reported rather than silently defaulting.
func parseUintAttr(fieldName, s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, boxonerr.Annotation(fieldName, "malformed integer attribute %q: %v", s, err)
	}
	return v, nil
}

func parseHexByte(s string) (byte, bool) {
	if s == "" {
		return 0, false
	}
	s = strings.TrimPrefix(s, "0x")
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, false
	}
	return byte(v), true
}

func parseHexBytes(s string) []byte {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 || s == "" {
		return nil
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil
		}
		out[i] = byte(v)
	}
	return out
}
