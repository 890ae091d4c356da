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

package storage

import "github.com/dranikpg/brokenfuse/internal/ftypes"

// Ram is an in-memory byte buffer backend. Ported from original_source's
// RamStorage: reads crop to the buffer's current bounds, writes grow the
// buffer to fit.
type Ram struct {
	buf []byte
}

var _ Storage = (*Ram)(nil)

// NewRam creates an empty in-memory buffer.
func NewRam() *Ram {
	return &Ram{}
}

func (r *Ram) Len() int64 {
	return int64(len(r.buf))
}

func (r *Ram) ReadAt(p []byte, off int64) (int, error) {
	start := off
	if start > int64(len(r.buf)) {
		start = int64(len(r.buf))
	}
	end := start + int64(len(p))
	if end > int64(len(r.buf)) {
		end = int64(len(r.buf))
	}
	if start >= end {
		return 0, nil
	}
	return copy(p, r.buf[start:end]), nil
}

func (r *Ram) WriteAt(data []byte, off int64) (int, error) {
	end := off + int64(len(data))
	if end > int64(len(r.buf)) {
		grown := make([]byte, end)
		copy(grown, r.buf)
		r.buf = grown
	}
	return copy(r.buf[off:end], data), nil
}

func (r *Ram) Close() error {
	r.buf = nil
	return nil
}

// RamFactory creates Ram-backed storage for every inode. It is the
// default factory, used unless the CLI selects the "file" backend.
type RamFactory struct{}

var _ Factory = RamFactory{}

func (RamFactory) Create(ftypes.Ino) (Storage, error) {
	return NewRam(), nil
}
