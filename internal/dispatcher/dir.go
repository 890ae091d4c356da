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

	"github.com/dranikpg/brokenfuse/internal/effect"
	"github.com/dranikpg/brokenfuse/internal/ftree"
	"github.com/dranikpg/brokenfuse/internal/ftypes"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
)

func (fs *FileSystem) MkDir(ctx context.Context, op *fuseops.MkDirOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ino, node, err := fs.tree.Create(ftypes.Ino(op.Parent), op.Name)
	if err != nil {
		return err
	}
	ts := fs.now()
	node.Attr.Kind = ftypes.KindDir
	node.Attr.Perm = op.Mode
	node.Attr.Nlink = 2
	node.Attr.Blksize = ftypes.DefaultBlksize
	node.Attr.Atime, node.Attr.Mtime, node.Attr.Ctime, node.Attr.Crtime = ts, ts, ts, ts
	node.Item = &ftree.Dir{}
	node.Effects = &effect.Group{}

	op.Entry.Child = fuseops.InodeID(ino)
	op.Entry.Attributes = attrFor(node)
	op.Entry.AttributesExpiration = fs.farFuture()
	op.Entry.EntryExpiration = fs.farFuture()
	return nil
}

func (fs *FileSystem) RmDir(ctx context.Context, op *fuseops.RmDirOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent := fs.tree.Get(ftypes.Ino(op.Parent))
	if parent == nil {
		return ftypes.ENOENT
	}
	dir, ok := parent.Item.(*ftree.Dir)
	if !ok {
		return ftypes.ENOENT
	}
	childIno, ok := dir.Lookup(op.Name)
	if !ok {
		return ftypes.ENOENT
	}
	child := fs.tree.Get(childIno)
	if child == nil {
		return ftypes.ENOENT
	}
	if childDir, ok := child.Item.(*ftree.Dir); !ok || childDir.Len() != 0 {
		return ftypes.EINVAL
	}
	// A directory's Nlink of 2 includes its own "." entry, which goes
	// away with it; drop it so the Unlink below reclaims the slot.
	child.Attr.Nlink = 1

	return fs.tree.Unlink(ftypes.Ino(op.Parent), op.Name)
}

func (fs *FileSystem) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	node := fs.tree.Get(ftypes.Ino(op.Inode))
	if node == nil {
		return ftypes.ENOENT
	}
	if _, ok := node.Item.(*ftree.Dir); !ok {
		return ftypes.ENOENT
	}

	handle := fs.allocHandle()
	fs.dirHandles[handle] = ftypes.Ino(op.Inode)
	op.Handle = handle
	return nil
}

func (fs *FileSystem) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ino, ok := fs.dirHandles[op.Handle]
	if !ok {
		return ftypes.EINVAL
	}
	node := fs.tree.Get(ino)
	if node == nil {
		return ftypes.ENOENT
	}
	dir, ok := node.Item.(*ftree.Dir)
	if !ok {
		return ftypes.ENOENT
	}

	entries := dir.List()
	op.BytesRead = 0
	for i := int(op.Offset); i < len(entries); i++ {
		e := entries[i]
		child := fs.tree.Get(e.Ino)
		typ := fuseutil.DT_File
		if child != nil {
			switch child.Attr.Kind {
			case ftypes.KindDir:
				typ = fuseutil.DT_Directory
			case ftypes.KindSymlink:
				typ = fuseutil.DT_Link
			}
		}
		n := fuseutil.WriteDirent(op.Dst[op.BytesRead:], fuseutil.Dirent{
			Offset: fuseops.DirOffset(i + 1),
			Inode:  fuseops.InodeID(e.Ino),
			Name:   e.Name,
			Type:   typ,
		})
		if n == 0 {
			break
		}
		op.BytesRead += n
	}
	return nil
}

func (fs *FileSystem) ReleaseDirHandle(ctx context.Context, op *fuseops.ReleaseDirHandleOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	delete(fs.dirHandles, op.Handle)
	return nil
}
