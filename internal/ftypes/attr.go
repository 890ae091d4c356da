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
	"os"
	"time"
)

// Kind identifies what an inode's Item holds.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindSymlink
)

// Attr is the POSIX-like metadata carried by every inode slot.
type Attr struct {
	Ino     Ino
	Size    uint64
	Blocks  uint64
	Atime   time.Time
	Mtime   time.Time
	Ctime   time.Time
	Crtime  time.Time
	Kind    Kind
	Perm    os.FileMode
	Nlink   uint32
	Uid     uint32
	Gid     uint32
	Blksize uint32
}

// DefaultBlksize matches the value original_source's fresh_attr hardcodes.
const DefaultBlksize = 512

// TouchAccess updates Atime to now.
func (a *Attr) TouchAccess(now time.Time) {
	a.Atime = now
}

// TouchModify updates Mtime and Ctime to now.
func (a *Attr) TouchModify(now time.Time) {
	a.Mtime = now
	a.Ctime = now
}

// RecomputeBlocks recomputes Blocks from Size using the attr's own Blksize,
// mirroring original_source's util.rs AttrOps::dir_balance.
func (a *Attr) RecomputeBlocks() {
	if a.Blksize == 0 {
		a.Blksize = DefaultBlksize
	}
	a.Blocks = a.Size/uint64(a.Blksize) + 1
}
