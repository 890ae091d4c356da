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

import (
	"sync"

	"github.com/dranikpg/brokenfuse/internal/ftypes"
)

// Quota is a strictly-accumulating write/read-volume budget: unlike
// MaxSize it never shrinks with the live file size (spec §4.2's
// observation). Each applicable op aligns its length up and adds it to a
// running total; once the total reaches Volume, every further op fails.
type Quota struct {
	Volume uint64 `mapstructure:"volume"`
	Align  uint64 `mapstructure:"align"`

	mu      sync.Mutex
	current uint64
}

var _ Effect = (*Quota)(nil)

func (q *Quota) Apply(ctx *Context) Result {
	if !ctx.Op.Kind.Intersects(readWriteOpType) {
		return Ack()
	}

	align := q.Align
	if align == 0 {
		align = 1
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	length := uint64(ctx.Op.Len)
	aligned := ((length + align - 1) / align) * align
	q.current += aligned

	if q.current >= q.Volume {
		return Err(ftypes.EDQUOT)
	}
	return Ack()
}

func (q *Quota) MarshalFields() map[string]any {
	q.mu.Lock()
	defer q.mu.Unlock()
	return map[string]any{"volume": q.Volume, "align": q.Align}
}
