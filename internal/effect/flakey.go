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

// condition discriminates Flakey's three mutually-exclusive trigger
// shapes (spec §4.2).
type condition int

const (
	condAlways condition = iota
	condProb
	condInterval
)

// Flakey fires an error according to one of three condition shapes:
// always, a fixed probability, or an availability interval gated by the
// wall clock.
type Flakey struct {
	cond condition

	always bool

	prob float32

	availMs, unavailMs uint64

	Errno ftypes.Errno
}

var _ Effect = (*Flakey)(nil)

func (f *Flakey) Apply(ctx *Context) Result {
	var fire bool
	switch f.cond {
	case condAlways:
		fire = f.always
	case condProb:
		fire = ctx.Rand.Float64() <= float64(f.prob)
	case condInterval:
		period := f.availMs + f.unavailMs
		now := uint64(ctx.Now().UnixMilli())
		fire = now%period <= f.availMs
	}
	if fire {
		return Err(f.Errno)
	}
	return Ack()
}

func (f *Flakey) MarshalFields() map[string]any {
	out := map[string]any{"errno": int(f.Errno)}
	switch f.cond {
	case condAlways:
		out["always"] = f.always
	case condProb:
		out["prob"] = f.prob
	case condInterval:
		out["avail_ms"] = f.availMs
		out["unavail_ms"] = f.unavailMs
	}
	return out
}
