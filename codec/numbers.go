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

package codec

import (
	"math/big"
	"reflect"

	"github.com/tobyzxj/boxon/boxonerr"
	"github.com/tobyzxj/boxon/typeconv"
)

var bigIntType = reflect.TypeOf((*big.Int)(nil))

func isBigIntType(t reflect.Type) bool {
	return t == bigIntType
}

func isSignedKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsignedIntKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func toUint64(v interface{}, field string) (uint64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(rv.Int()), nil
	}
	return 0, boxonerr.Codec(field, "value of type %T is not a numeric integer", v)
}

func toInt64(v interface{}, field string) (int64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	}
	return 0, boxonerr.Codec(field, "value of type %T is not a numeric integer", v)
}

func toFloat64(v interface{}, field string) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, boxonerr.Codec(field, "value of type %T is not a float", v)
}

func toBigInt(v interface{}, field string) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		return n, nil
	case int64:
		return big.NewInt(n), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	}
	return nil, boxonerr.Codec(field, "value of type %T is not a big.Int", v)
}

func fixedWidth(t reflect.Type, field string) (int, error) {
	switch t.Kind() {
	case reflect.Int8, reflect.Uint8:
		return 8, nil
	case reflect.Int16, reflect.Uint16:
		return 16, nil
	case reflect.Int32, reflect.Uint32:
		return 32, nil
	case reflect.Int64, reflect.Uint64, reflect.Int, reflect.Uint:
		return 64, nil
	}
	return 0, boxonerr.Template(field, "fixed-width integer binding requires an integer field, got %s", t)
}

// twosComplementMagnitude returns the n-bit two's-complement magnitude of v
// as an unsigned big.Int, the encode-side inverse of
// typeconv.CastBigToWidth's decode-side narrowing: used when an
// Integer-of-bits binding's bitSize exceeds 64 but its target field is a
// plain sized integer rather than *big.Int.
func twosComplementMagnitude(v int64, n int) *big.Int {
	if v >= 0 {
		return big.NewInt(v)
	}
	wrap := new(big.Int).Lsh(big.NewInt(1), uint(n))
	return wrap.Add(wrap, big.NewInt(v))
}

func checkRange(u uint64, n int, signed bool, field string) error {
	if signed {
		if !typeconv.FitsSigned(int64(u), n) {
			return boxonerr.Encode(field, "value %d does not fit in %d signed bits", int64(u), n)
		}
		return nil
	}
	if !typeconv.FitsUnsigned(u, n) {
		return boxonerr.Encode(field, "value %d does not fit in %d unsigned bits", u, n)
	}
	return nil
}
