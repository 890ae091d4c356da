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

// Package engine walks an inode's climb path evaluating the effects
// attached to each ancestor, child-first, accumulating delay and
// stopping at the first error.
package engine

import (
	"github.com/dranikpg/brokenfuse/internal/effect"
	"github.com/dranikpg/brokenfuse/internal/ftree"
	"github.com/dranikpg/brokenfuse/internal/ftypes"
)

// Outcome is the engine's verdict for one request: the accumulated
// delay in milliseconds, and the first error encountered, if any. Err
// is nil when every evaluated effect acked.
type Outcome struct {
	SleepMs uint64
	Err     *ftypes.Errno
}

// Evaluate walks path (innermost/child first, root last) evaluating
// every defined effect whose op mask intersects ctx.Op's type, in
// per-node insertion order. The Context's Origin field is set to each
// node's inode before its effects are consulted. Must be called BEFORE
// the caller mutates storage, per the corrected write-path semantics:
// an error return leaves storage untouched.
func Evaluate(path []*ftree.Node, ctx *effect.Context) Outcome {
	var sleepMs uint64
	reqOp := ctx.Op.OpType()

	for _, node := range path {
		ctx.Origin = node.Attr.Ino
		group := node.Effects
		if group == nil {
			continue
		}
		for _, de := range group.All() {
			if !de.Matches(reqOp) {
				continue
			}
			res := de.Effect.Apply(ctx)
			switch res.Tag {
			case effect.ResultAck:
				continue
			case effect.ResultDelay:
				sleepMs += res.DelayMs
			case effect.ResultError:
				errno := res.Errno
				return Outcome{SleepMs: sleepMs, Err: &errno}
			}
		}
	}
	return Outcome{SleepMs: sleepMs}
}
