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

// Delay always delays the request by a fixed duration, regardless of
// which op triggered it. Ported from original_source's effect/detail.rs
// Delay, generalized from a hardcoded 1s sleep to a configurable
// duration_ms per spec §4.2.
type Delay struct {
	DurationMs uint64 `mapstructure:"duration_ms"`
}

var _ Effect = (*Delay)(nil)

func (d *Delay) Apply(ctx *Context) Result {
	return Delayed(d.DurationMs)
}

func (d *Delay) MarshalFields() map[string]any {
	return map[string]any{"duration_ms": d.DurationMs}
}
