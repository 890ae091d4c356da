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
	"sort"
	"sync"

	"github.com/dranikpg/brokenfuse/internal/ftypes"
)

// readWriteOpType is the R|W mask HeatMap and Quota restrict themselves
// to; other ops are no-ops for both.
const readWriteOpType = ftypes.OpRead | ftypes.OpWrite

// heatRange is the alignment-cropped (offset, length) key hits accumulate
// under.
type heatRange struct {
	offset uint64
	length uint64
}

// HeatMap records an access heatmap keyed by alignment-cropped byte
// ranges. Apply always returns Ack; the map is read back through
// MarshalFields, which renders it as a compact depth sequence rather than
// raw hit counts (spec §4.2's "Display" algorithm).
type HeatMap struct {
	Align uint64 `mapstructure:"align"`

	mu   sync.Mutex
	hits map[heatRange]uint64
}

var _ Effect = (*HeatMap)(nil)

func (h *HeatMap) Apply(ctx *Context) Result {
	if !ctx.Op.Kind.Intersects(readWriteOpType) {
		return Ack()
	}

	offset := ctx.Op.Offset
	length := ctx.Op.Len
	if offset < 0 {
		offset = 0
	}
	if uint64(offset) > ctx.TargetSize {
		offset = int64(ctx.TargetSize)
	}
	if uint64(offset)+uint64(length) > ctx.TargetSize {
		length = int64(ctx.TargetSize) - offset
	}
	if length < 0 {
		length = 0
	}

	align := h.Align
	if align == 0 {
		align = 1
	}
	alignedOffset := (uint64(offset) / align) * align
	end := uint64(offset) + uint64(length)
	alignedEnd := ((end + align - 1) / align) * align
	alignedLen := alignedEnd - alignedOffset

	h.mu.Lock()
	if h.hits == nil {
		h.hits = make(map[heatRange]uint64)
	}
	h.hits[heatRange{alignedOffset, alignedLen}]++
	h.mu.Unlock()

	return Ack()
}

// heatPoint is one (offset, depth) record in the rendered sequence.
type heatPoint struct {
	Offset uint64 `json:"offset"`
	Depth  int64  `json:"depth"`
}

func (h *HeatMap) MarshalFields() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()

	type event struct {
		pos   uint64
		delta int64
	}
	events := make([]event, 0, 2*len(h.hits))
	for r, count := range h.hits {
		events = append(events, event{r.offset, int64(count)})
		events = append(events, event{r.offset + r.length, -int64(count)})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].pos < events[j].pos })

	var points []heatPoint
	depth := int64(0)
	i := 0
	for i < len(events) {
		pos := events[i].pos
		for i < len(events) && events[i].pos == pos {
			depth += events[i].delta
			i++
		}
		if len(points) > 0 && points[len(points)-1].Offset == pos {
			points[len(points)-1].Depth = depth
		} else {
			points = append(points, heatPoint{Offset: pos, Depth: depth})
		}
	}

	return map[string]any{"align": h.Align, "hits": points}
}
