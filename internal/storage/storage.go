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

// Package storage provides the pluggable byte-storage backends a File
// inode owns: an in-memory buffer and a pass-through regular file. Both
// implement the same narrow Storage contract so the dispatcher and the
// tree never need to know which one backs a given inode.
package storage

import "github.com/dranikpg/brokenfuse/internal/ftypes"

// Storage is the byte-storage contract a File inode owns.
type Storage interface {
	// Len returns the current size in bytes.
	Len() int64

	// ReadAt reads up to len(p) bytes starting at off, returning what was
	// read. Reads past the end of the stored content return fewer bytes
	// than requested with no error, matching original_source's RamStorage
	// crop-on-read semantics.
	ReadAt(p []byte, off int64) (n int, err error)

	// WriteAt writes data at off, growing the backing store if needed.
	WriteAt(data []byte, off int64) (n int, err error)

	// Close releases any resources (e.g. the backing file) held by the
	// storage. It is called when the owning inode's slot is reclaimed.
	Close() error
}

// Factory creates a fresh Storage for a newly allocated file inode.
type Factory interface {
	Create(ino ftypes.Ino) (Storage, error)
}
