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

// Package ftypes holds the value types shared by the inode tree, the
// effect engine, and the FUSE dispatcher: inode identifiers, errno
// values, POSIX-like attributes, and the operation descriptor effects
// are filtered against. The directory/file/symlink payloads live in
// package ftree.
package ftypes

import "syscall"

// Ino identifies one inode slot in the tree's slab. It is dense: a live
// Ino is always a valid index into the tree's backing slice.
type Ino uint64

// RootIno is the inode of the mount's root directory. Its Parent field
// equals RootIno itself, forming the climb iterator's terminator.
const RootIno Ino = 1

// Errno is the POSIX error code vocabulary used throughout the core. It
// is a plain alias for syscall.Errno so tree/effect/engine code returns
// ordinary Go errors rather than inventing a parallel error type.
type Errno = syscall.Errno

// Default and named errno values used by the core.
const (
	EIO    = syscall.EIO
	ENOENT = syscall.ENOENT
	EEXIST = syscall.EEXIST
	EINVAL = syscall.EINVAL
	ENOSPC = syscall.ENOSPC
	EDQUOT = syscall.EDQUOT
)
