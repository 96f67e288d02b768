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

import "fmt"

// Describe renders a human-readable layout of the template, for
// diagnostics and logging: header, each field binding in declared order,
// the evaluated fields and the checksum field, if any.
func (t *Template) Describe() string {
	if t == nil {
		return "nil"
	}
	out := fmt.Sprintf("Template %s (target=%s)\n", t.Name, t.TargetType)
	out += fmt.Sprintf("  header: start=%s charset=%s end=%s\n", hexSeqs(t.Header.Start), t.Header.Charset, hexBytes(t.Header.End))
	for _, b := range t.Fields {
		out += fmt.Sprintf("  %s\n", describeBinding(b))
	}
	for _, b := range t.EvaluatedFields {
		out += fmt.Sprintf("  evaluate %s = %q\n", b.FieldName, b.ValueExpr)
	}
	if t.ChecksumField != nil {
		b := t.ChecksumField
		out += fmt.Sprintf("  checksum %s algorithm=%s width=%d skip=[%d,%d]\n", b.FieldName, b.Algorithm, b.ChecksumWidth, b.SkipStart, b.SkipEnd)
	}
	return out
}

func describeBinding(b *Binding) string {
	cond := ""
	if b.Condition != "" {
		cond = fmt.Sprintf(" condition=%q", b.Condition)
	}
	switch b.Kind {
	case KindIntegerBits:
		return fmt.Sprintf("%s: integerBits bitSize=%q byteOrder=%s%s", b.FieldName, b.BitSizeExpr, b.ByteOrder, cond)
	case KindInteger:
		return fmt.Sprintf("%s: integer(%s) byteOrder=%s%s", b.FieldName, b.TargetType, b.ByteOrder, cond)
	case KindFloat:
		return fmt.Sprintf("%s: float(%s) byteOrder=%s%s", b.FieldName, b.TargetType, b.ByteOrder, cond)
	case KindBitmap:
		return fmt.Sprintf("%s: bitmap bitSize=%q bitOrder=%s%s", b.FieldName, b.BitSizeExpr, b.BitOrder, cond)
	case KindStringFixed:
		return fmt.Sprintf("%s: string(fixed) byteSize=%q charset=%s%s", b.FieldName, b.ByteSizeExpr, b.Charset, cond)
	case KindStringTerm:
		return fmt.Sprintf("%s: string(terminated) terminator=0x%02x consume=%v charset=%s%s", b.FieldName, b.Terminator, b.ConsumeTerminator, b.Charset, cond)
	case KindObject:
		return fmt.Sprintf("%s: object selector=%q%s", b.FieldName, b.SelectorName, cond)
	case KindArrayObjects:
		return fmt.Sprintf("%s: array(objects) count=%q selector=%q%s", b.FieldName, b.CountExpr, b.SelectorName, cond)
	case KindArrayPrimitives:
		return fmt.Sprintf("%s: array(primitives) count=%q byteOrder=%s%s", b.FieldName, b.CountExpr, b.ByteOrder, cond)
	case KindSkip:
		if b.HasSkipBitSize {
			return fmt.Sprintf("skip bitSize=%q", b.BitSizeExpr)
		}
		return fmt.Sprintf("skip terminator=0x%02x consume=%v", b.Terminator, b.ConsumeTerminator)
	default:
		return fmt.Sprintf("%s: %s%s", b.FieldName, b.Kind, cond)
	}
}

func hexSeqs(seqs [][]byte) string {
	out := ""
	for i, s := range seqs {
		if i > 0 {
			out += "|"
		}
		out += hexBytes(s)
	}
	return out
}

func hexBytes(b []byte) string {
	if len(b) == 0 {
		return "-"
	}
	return fmt.Sprintf("% 02X", b)
}
