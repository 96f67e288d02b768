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

// Package checksum implements the Checksum binding's algorithms (§4.5): a
// name-keyed registry of pluggable functions, each reducing an excluded byte
// range to a fixed-width unsigned value.
package checksum

import (
	"hash/crc32"

	"github.com/GiterLab/crc16"

	"github.com/tobyzxj/boxon/boxonerr"
)

// Func computes a checksum over data, seeding the algorithm's register with
// initial, and returns the result plus the bit width of the result (8, 16 or
// 32). initial seeds the computation itself, not the returned value: a CRC
// is not linear in its seed, so initial must reach the register before the
// first byte is folded in, not be added to the final output.
type Func func(data []byte, initial uint64) (value uint64, width int)

// Names recognized by the algorithm attribute on checksum bindings.
const (
	CRC16CCITTFalse = "CRC16-CCITT-FALSE"
	CRC16Modbus     = "CRC16-MODBUS"
	CRC32IEEE       = "CRC32"
)

// crc16Func seeds base's Init field with initial before building the table,
// so initial steers the register the library seeds the computation with
// instead of being tacked onto Sum16()'s output afterward.
func crc16Func(base crc16.Params) Func {
	return func(data []byte, initial uint64) (uint64, int) {
		params := base
		params.Init = uint16(initial)
		h := crc16.New(crc16.MakeTable(params))
		h.Write(data)
		return uint64(h.Sum16()), 16
	}
}

var registry = map[string]Func{
	CRC16CCITTFalse: crc16Func(crc16.CRC16_CCITT_FALSE),
	CRC16Modbus:     crc16Func(crc16.CRC16_MODBUS),
	// CRC32 always starts from the standard IEEE register value; initial is
	// ignored.
	CRC32IEEE: func(data []byte, initial uint64) (uint64, int) {
		return uint64(crc32.ChecksumIEEE(data)), 32
	},
}

// Register installs a custom checksum algorithm under name, letting callers
// extend the registry beyond the built-in CRC family.
func Register(name string, fn Func) {
	registry[name] = fn
}

// Lookup resolves an algorithm name to its Func.
func Lookup(name string) (Func, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, boxonerr.Annotation("", "unknown checksum algorithm %q", name)
	}
	return fn, nil
}

// Compute applies the named algorithm to data, seeded with initial
// (typically 0 or 0xFFFF per the Checksum binding's initial attribute), and
// masks the result to the algorithm's declared width.
func Compute(name string, data []byte, initial uint64) (value uint64, width int, err error) {
	fn, err := Lookup(name)
	if err != nil {
		return 0, 0, err
	}
	v, w := fn(data, initial)
	mask := (uint64(1) << uint(w)) - 1
	return v & mask, w, nil
}

// ExcludeRange returns a copy of data with the byte range [off,off+n)
// removed, used to compute a checksum over a message with its own checksum
// field excised so encode and decode see the same input (§4.5 Checksum
// exclusion symmetry, P6).
func ExcludeRange(data []byte, off, n int) []byte {
	if off < 0 || n < 0 || off+n > len(data) {
		return data
	}
	out := make([]byte, 0, len(data)-n)
	out = append(out, data[:off]...)
	out = append(out, data[off+n:]...)
	return out
}
