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

package effect

import "github.com/dranikpg/brokenfuse/internal/ftypes"

// fieldsMarshaler is implemented by every concrete effect kind so a
// DefinedEffect can serialize itself back to JSON without a type switch.
type fieldsMarshaler interface {
	MarshalFields() map[string]any
}

// DefinedEffect is a named, op-filtered wrapper around a concrete Effect.
// Within a Group, Name is unique; Op filters which request OpTypes reach
// the wrapped effect at all.
type DefinedEffect struct {
	Name   string
	Op     ftypes.OpType
	Effect Effect
}

// Matches reports whether the defined effect should even be consulted
// for the given request OpType.
func (de *DefinedEffect) Matches(reqOp ftypes.OpType) bool {
	return de.Op.Intersects(reqOp)
}

// toJSON renders the defined effect's own fields merged with its op
// mask, matching spec §4.3's serialization contract.
func (de *DefinedEffect) toJSON() map[string]any {
	var fields map[string]any
	if m, ok := de.Effect.(fieldsMarshaler); ok {
		fields = m.MarshalFields()
	} else {
		fields = map[string]any{}
	}
	fields["op"] = de.Op.String()
	return fields
}
