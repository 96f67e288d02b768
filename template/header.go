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

// Header is the class-level header description (§6): one or more start
// byte sequences, an optional end marker, and the charset used to
// interpret header strings as bytes.
type Header struct {
	Start   [][]byte
	End     []byte
	Charset string
}

// LongestStart returns the length in bytes of the longest start sequence.
func (h Header) LongestStart() int {
	n := 0
	for _, s := range h.Start {
		if len(s) > n {
			n = len(s)
		}
	}
	return n
}

// ShortestStart returns the length in bytes of the shortest start sequence.
func (h Header) ShortestStart() int {
	n := -1
	for _, s := range h.Start {
		if n == -1 || len(s) < n {
			n = len(s)
		}
	}
	if n == -1 {
		return 0
	}
	return n
}

// MatchesAt reports whether one of h.Start matches data at offset p, and
// returns the length of the matching sequence (0 if none match).
func (h Header) MatchesAt(data []byte, p int) (matched bool, length int) {
	for _, s := range h.Start {
		if p+len(s) > len(data) {
			continue
		}
		if bytesEqual(data[p:p+len(s)], s) && len(s) > length {
			matched = true
			length = len(s)
		}
	}
	return matched, length
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
