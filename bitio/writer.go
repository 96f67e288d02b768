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

package bitio

import (
	"math"
	"math/big"

	"github.com/tobyzxj/boxon/boxonerr"
	"github.com/tobyzxj/boxon/charset"
	"github.com/tobyzxj/boxon/typeconv"
)

// Writer accumulates bits into a growable byte buffer, mirroring Reader's
// bit-ordering contract exactly so Write*(Read*(x)) round-trips.
type Writer struct {
	buf    []byte
	bitIdx int // 0..7, bits already written into the last byte of buf
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Position returns the number of whole bytes committed so far.
func (w *Writer) Position() int {
	if w.bitIdx == 0 {
		return len(w.buf)
	}
	return len(w.buf) - 1
}

func (w *Writer) writeBit(b bool) {
	if w.bitIdx == 0 {
		w.buf = append(w.buf, 0)
	}
	if b {
		w.buf[len(w.buf)-1] |= 1 << uint(7-w.bitIdx)
	}
	w.bitIdx++
	if w.bitIdx == 8 {
		w.bitIdx = 0
	}
}

// WriteBits appends bits in stream order (bits[0] written first).
func (w *Writer) WriteBits(b Bitmap) {
	for _, bit := range b {
		w.writeBit(bit)
	}
}

func (w *Writer) writeMagnitude(by []byte, n int, order ByteOrder) {
	if order == LittleEndian {
		by = reverseBytes(by)
	}
	bits := bytesToBitsBE(by)
	// by has ceil(n/8) bytes; drop the zero-padding bits on the MSB side so
	// only the n requested bits are emitted, the algebraic inverse of
	// bitsToBytesBE's padding in the reader.
	pad := len(bits) - n
	w.WriteBits(bits[pad:])
}

// WriteUnsignedBits writes the low n bits (1 <= n <= 64) of v.
func (w *Writer) WriteUnsignedBits(v uint64, n int, order ByteOrder) error {
	if n < 1 || n > 64 {
		return boxonerr.Annotation("", "bit size %d out of range [1,64]", n)
	}
	by := new(big.Int).SetUint64(v).Bytes()
	by = leftPad(by, (n+7)/8)
	w.writeMagnitude(by, n, order)
	return nil
}

// WriteSigned truncates v to width bits (two's complement) and writes it.
func (w *Writer) WriteSigned(v int64, width int, order ByteOrder) error {
	return w.WriteUnsignedBits(typeconv.TruncateToWidth(v, width), width, order)
}

// WriteBigUnsigned writes an arbitrary-precision magnitude as n bits.
func (w *Writer) WriteBigUnsigned(v *big.Int, n int, order ByteOrder) error {
	if v.Sign() < 0 {
		return boxonerr.Annotation("", "negative magnitude not representable")
	}
	by := leftPad(v.Bytes(), (n+7)/8)
	w.writeMagnitude(by, n, order)
	return nil
}

func leftPad(by []byte, size int) []byte {
	if len(by) >= size {
		return by[len(by)-size:]
	}
	out := make([]byte, size)
	copy(out[size-len(by):], by)
	return out
}

// WriteFloat32 writes v's IEEE-754 bit pattern as 32 bits.
func (w *Writer) WriteFloat32(v float32, order ByteOrder) error {
	return w.WriteUnsignedBits(uint64(math.Float32bits(v)), 32, order)
}

// WriteFloat64 writes v's IEEE-754 bit pattern as 64 bits.
func (w *Writer) WriteFloat64(v float64, order ByteOrder) error {
	return w.WriteUnsignedBits(math.Float64bits(v), 64, order)
}

// WriteBytes appends raw bytes, bit-aligned or not.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteBits(bytesToBitsBE(b))
}

// WriteText encodes s in the named charset and writes it verbatim.
func (w *Writer) WriteText(s string, charsetName string) error {
	raw, err := charset.Encode(charsetName, s)
	if err != nil {
		return err
	}
	w.WriteBytes(raw)
	return nil
}

// WriteTextThenByte writes s followed by a single terminator byte t.
func (w *Writer) WriteTextThenByte(s string, charsetName string, t byte) error {
	if err := w.WriteText(s, charsetName); err != nil {
		return err
	}
	w.WriteBytes([]byte{t})
	return nil
}

// SkipBits advances n zero-filled bits, used for padding/skip bindings.
func (w *Writer) SkipBits(n int) {
	w.WriteBits(make(Bitmap, n))
}

// PatchBytes overwrites len(raw) whole bytes starting at byte offset off
// with raw, used to back-patch a reserved checksum field once the remainder
// of the message has been serialized. off is a whole-byte offset.
func (w *Writer) PatchBytes(off int, raw []byte) error {
	if off < 0 || off+len(raw) > len(w.buf) {
		return boxonerr.Encode("", "patch range [%d,%d) out of bounds (len=%d)", off, off+len(raw), len(w.buf))
	}
	copy(w.buf[off:off+len(raw)], raw)
	return nil
}

// Flush pads the final partial byte with zero bits and returns the
// accumulated buffer. The Writer remains usable afterward.
func (w *Writer) Flush() []byte {
	if w.bitIdx != 0 {
		w.bitIdx = 0
	}
	return w.buf
}

// Bytes returns the buffer accumulated so far without forcing alignment.
func (w *Writer) Bytes() []byte {
	return w.buf
}
