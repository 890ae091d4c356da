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

const writeOpType = ftypes.OpWrite

// MaxSize caps the aggregate size of every regular file under the
// inode it is attached to. Only writes that would grow the target are
// checked; the cap is evaluated against the scope rooted at ctx.Origin,
// not the whole mount (spec §4.2).
type MaxSize struct {
	Limit uint64 `mapstructure:"limit"`
}

var _ Effect = (*MaxSize)(nil)

func (m *MaxSize) Apply(ctx *Context) Result {
	if !ctx.Op.Kind.Intersects(writeOpType) {
		return Ack()
	}

	needGrow := uint64(0)
	if end := ctx.Op.End(); uint64(end) > ctx.TargetSize {
		needGrow = uint64(end) - ctx.TargetSize
	}
	if needGrow == 0 {
		return Ack()
	}

	var total uint64
	ctx.Tree.WalkSubtreeFiles(ctx.Origin, func(fi FileInfo) {
		total += fi.Size
	})

	if total+needGrow > m.Limit {
		return Err(ftypes.ENOSPC)
	}
	return Ack()
}

func (m *MaxSize) MarshalFields() map[string]any {
	return map[string]any{"limit": m.Limit}
}
