// Copyright 2024 The Brokenfuse Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ftypes

import (
	"strings"
)

// OpType is a 4-bit set over {R,W,L,M} used to filter which effects a
// given request triggers. Letters are matched one bit per character,
// case-insensitively; an unknown letter rejects the whole string.
type OpType uint8

const (
	OpRead OpType = 1 << iota
	OpWrite
	OpLock
	OpMeta
)

var opTypeLetters = []struct {
	bit    OpType
	letter byte
}{
	{OpRead, 'R'},
	{OpWrite, 'W'},
	{OpLock, 'L'},
	{OpMeta, 'M'},
}

// ParseOpType parses the concatenation-of-letters textual form of an
// OpType, e.g. "RW". An empty string yields the empty set. Unknown
// letters return EINVAL.
func ParseOpType(s string) (OpType, error) {
	var out OpType
	for _, r := range strings.ToUpper(s) {
		found := false
		for _, e := range opTypeLetters {
			if byte(r) == e.letter {
				out |= e.bit
				found = true
				break
			}
		}
		if !found {
			return 0, EINVAL
		}
	}
	return out, nil
}

// String renders the OpType back to its textual form, in declaration
// order (R, W, L, M).
func (o OpType) String() string {
	var b strings.Builder
	for _, e := range opTypeLetters {
		if o&e.bit != 0 {
			b.WriteByte(e.letter)
		}
	}
	return b.String()
}

// Intersects reports whether o and other share at least one bit.
func (o OpType) Intersects(other OpType) bool {
	return o&other != 0
}
