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

// Package ftree is the in-memory inode tree: a dense slab of inode slots
// with a free-list, parent pointers, directory children and hard-link
// counts. It owns the slot lifecycle (create/link/unlink/rename) and the
// climb-to-root iterator the effect engine walks.
package ftree

import (
	"github.com/dranikpg/brokenfuse/internal/effect"
	"github.com/dranikpg/brokenfuse/internal/ftypes"
	"github.com/dranikpg/brokenfuse/internal/storage"
)

// Item is the discriminated union an inode's slot holds: a Dir, a File,
// or a Symlink.
type Item interface {
	isItem()
}

// dirEntry is one (child inode, name) pair in a directory's ordered
// child list.
type dirEntry struct {
	ino  ftypes.Ino
	name string
}

// Dir is a directory's payload: an ordered list of (child_ino, name),
// looked up linearly with case-sensitive byte comparison.
type Dir struct {
	entries []dirEntry
}

func (*Dir) isItem() {}

// Lookup returns the child inode registered under name, if any.
func (d *Dir) Lookup(name string) (ftypes.Ino, bool) {
	for _, e := range d.entries {
		if e.name == name {
			return e.ino, true
		}
	}
	return 0, false
}

// DirEntry is one (child inode, name) pair returned by Dir.List.
type DirEntry struct {
	Ino  ftypes.Ino
	Name string
}

// List returns the directory's entries in insertion order. Callers must
// not mutate the returned slice.
func (d *Dir) List() []DirEntry {
	out := make([]DirEntry, len(d.entries))
	for i, e := range d.entries {
		out[i] = DirEntry{Ino: e.ino, Name: e.name}
	}
	return out
}

func (d *Dir) add(ino ftypes.Ino, name string) {
	d.entries = append(d.entries, dirEntry{ino, name})
}

func (d *Dir) remove(name string) bool {
	for i, e := range d.entries {
		if e.name == name {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of entries in the directory.
func (d *Dir) Len() int {
	return len(d.entries)
}

// FileStats are the five monotonic counters a File inode accumulates:
// reads, read volume, writes, write volume, and errors.
type FileStats struct {
	Reads       uint64 `json:"reads"`
	ReadVolume  uint64 `json:"read_volume"`
	Writes      uint64 `json:"writes"`
	WriteVolume uint64 `json:"write_volume"`
	Errors      uint64 `json:"errors"`
}

// File is a regular file's payload: a byte-storage backend plus its
// FileStats block.
type File struct {
	Storage storage.Storage
	Stats   FileStats
}

func (*File) isItem() {}

// Symlink is a symlink's payload: the target path text.
type Symlink struct {
	Target string
}

func (*Symlink) isItem() {}

// Node is one inode slot. The root's Parent equals its own Ino, forming
// the climb iterator's self-loop terminator.
type Node struct {
	Parent  ftypes.Ino
	Attr    ftypes.Attr
	Item    Item
	Effects *effect.Group
}
