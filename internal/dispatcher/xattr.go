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

package dispatcher

import (
	"context"
	"syscall"

	"github.com/dranikpg/brokenfuse/internal/ftypes"
	"github.com/dranikpg/brokenfuse/internal/xattr"
	"github.com/jacobsa/fuse/fuseops"
)

func (fs *FileSystem) GetXattr(ctx context.Context, op *fuseops.GetXattrOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	value, err := xattr.Get(fs.tree, ftypes.Ino(op.Inode), op.Name)
	if err != nil {
		return err
	}
	op.BytesRead = len(value)
	if len(op.Dst) == 0 {
		return nil
	}
	if len(op.Dst) < len(value) {
		return syscall.ERANGE
	}
	copy(op.Dst, value)
	return nil
}

func (fs *FileSystem) SetXattr(ctx context.Context, op *fuseops.SetXattrOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return xattr.Set(fs.tree, ftypes.Ino(op.Inode), op.Name, op.Value)
}

func (fs *FileSystem) ListXattr(ctx context.Context, op *fuseops.ListXattrOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	node := fs.tree.Get(ftypes.Ino(op.Inode))
	if node == nil {
		return ftypes.ENOENT
	}

	names := []string{"bf.ino", "bf.effect", "bf.effect/self", "bf.effect/all"}
	if _, err := xattr.Get(fs.tree, ftypes.Ino(op.Inode), "bf.stats"); err == nil {
		names = append(names, "bf.stats")
	}

	var size int
	for _, n := range names {
		size += len(n) + 1
	}
	op.BytesRead = size
	if len(op.Dst) == 0 {
		return nil
	}
	if len(op.Dst) < size {
		return syscall.ERANGE
	}
	pos := 0
	for _, n := range names {
		pos += copy(op.Dst[pos:], n)
		op.Dst[pos] = 0
		pos++
	}
	return nil
}

func (fs *FileSystem) RemoveXattr(ctx context.Context, op *fuseops.RemoveXattrOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return xattr.Remove(fs.tree, ftypes.Ino(op.Inode), op.Name)
}
