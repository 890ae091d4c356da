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

import "encoding/json"

// Group is the per-inode, name-unique, insertion-ordered collection of
// DefinedEffects the engine walks. Ported from original_source's
// EffectGroup (add-replaces-by-name, retain-based remove); no internal
// locking, matching spec §5's single-threaded-dispatcher invariant.
type Group struct {
	effects []*DefinedEffect
}

// Add appends de, first removing any existing entry with the same name
// so the group stays a set by name with insertion order preserved.
func (g *Group) Add(de *DefinedEffect) {
	g.Remove(de.Name)
	g.effects = append(g.effects, de)
}

// Remove drops the entry named name, if any.
func (g *Group) Remove(name string) {
	out := g.effects[:0]
	for _, de := range g.effects {
		if de.Name != name {
			out = append(out, de)
		}
	}
	g.effects = out
}

// Clear empties the group.
func (g *Group) Clear() {
	g.effects = nil
}

// All returns the group's DefinedEffects in insertion order. Callers
// must not mutate the returned slice.
func (g *Group) All() []*DefinedEffect {
	return g.effects
}

// Len reports the number of defined effects in the group.
func (g *Group) Len() int {
	return len(g.effects)
}

// Serialize renders the group as a JSON array, one object per defined
// effect, merging each effect's own fields with {"op": "<letters>"}.
func (g *Group) Serialize() ([]byte, error) {
	out := make([]map[string]any, 0, len(g.effects))
	for _, de := range g.effects {
		out = append(out, de.toJSON())
	}
	return json.Marshal(out)
}
