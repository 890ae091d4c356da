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

	"github.com/dranikpg/brokenfuse/internal/deferred"
	"github.com/dranikpg/brokenfuse/internal/effect"
	"github.com/dranikpg/brokenfuse/internal/engine"
	"github.com/dranikpg/brokenfuse/internal/ftree"
	"github.com/dranikpg/brokenfuse/internal/ftypes"
	"github.com/jacobsa/fuse/fuseops"
)

func (fs *FileSystem) CreateFile(ctx context.Context, op *fuseops.CreateFileOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ino, node, err := fs.tree.Create(ftypes.Ino(op.Parent), op.Name)
	if err != nil {
		return err
	}
	backing, err := fs.storage.Create(ino)
	if err != nil {
		return err
	}
	ts := fs.now()
	node.Attr.Kind = ftypes.KindFile
	node.Attr.Perm = op.Mode
	node.Attr.Nlink = 1
	node.Attr.Blksize = ftypes.DefaultBlksize
	node.Attr.Atime, node.Attr.Mtime, node.Attr.Ctime, node.Attr.Crtime = ts, ts, ts, ts
	node.Item = &ftree.File{Storage: backing}
	node.Effects = &effect.Group{}

	handle := fs.allocHandle()
	fs.fileHandles[handle] = ino

	op.Entry.Child = fuseops.InodeID(ino)
	op.Entry.Attributes = attrFor(node)
	op.Entry.AttributesExpiration = fs.farFuture()
	op.Entry.EntryExpiration = fs.farFuture()
	op.Handle = handle
	return nil
}

func (fs *FileSystem) CreateSymlink(ctx context.Context, op *fuseops.CreateSymlinkOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ino, node, err := fs.tree.Create(ftypes.Ino(op.Parent), op.Name)
	if err != nil {
		return err
	}
	ts := fs.now()
	node.Attr.Kind = ftypes.KindSymlink
	node.Attr.Perm = 0o777
	node.Attr.Nlink = 1
	node.Attr.Size = uint64(len(op.Target))
	node.Attr.Blksize = ftypes.DefaultBlksize
	node.Attr.Atime, node.Attr.Mtime, node.Attr.Ctime, node.Attr.Crtime = ts, ts, ts, ts
	node.Item = &ftree.Symlink{Target: op.Target}
	node.Effects = &effect.Group{}

	op.Entry.Child = fuseops.InodeID(ino)
	op.Entry.Attributes = attrFor(node)
	op.Entry.AttributesExpiration = fs.farFuture()
	op.Entry.EntryExpiration = fs.farFuture()
	return nil
}

func (fs *FileSystem) CreateLink(ctx context.Context, op *fuseops.CreateLinkOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	target := ftypes.Ino(op.Target)
	if err := fs.tree.Link(target, ftypes.Ino(op.Parent), op.Name); err != nil {
		return err
	}
	node := fs.tree.Get(target)
	op.Entry.Child = op.Target
	op.Entry.Attributes = attrFor(node)
	op.Entry.AttributesExpiration = fs.farFuture()
	op.Entry.EntryExpiration = fs.farFuture()
	return nil
}

func (fs *FileSystem) Rename(ctx context.Context, op *fuseops.RenameOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.tree.Rename(
		ftypes.Ino(op.OldParent), op.OldName,
		ftypes.Ino(op.NewParent), op.NewName,
	)
}

func (fs *FileSystem) Unlink(ctx context.Context, op *fuseops.UnlinkOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.tree.Unlink(ftypes.Ino(op.Parent), op.Name)
}

func (fs *FileSystem) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	node := fs.tree.Get(ftypes.Ino(op.Inode))
	if node == nil {
		return ftypes.ENOENT
	}
	if _, ok := node.Item.(*ftree.File); !ok {
		return ftypes.ENOENT
	}

	handle := fs.allocHandle()
	fs.fileHandles[handle] = ftypes.Ino(op.Inode)
	op.Handle = handle
	op.KeepPageCache = true
	return nil
}

func (fs *FileSystem) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ino := ftypes.Ino(op.Inode)
	node := fs.tree.Get(ino)
	if node == nil {
		return ftypes.ENOENT
	}
	file, ok := node.Item.(*ftree.File)
	if !ok {
		return ftypes.ENOENT
	}

	reqOp := ftypes.ReadOp(op.Offset, int64(len(op.Dst)))
	outcome := fs.evaluate(ino, node.Attr.Size, reqOp)
	if outcome.Err != nil {
		file.Stats.Errors++
		return fs.awaitOutcome(outcome)
	}

	n, err := file.Storage.ReadAt(op.Dst, op.Offset)
	op.BytesRead = n
	if err != nil {
		file.Stats.Errors++
		return err
	}

	node.Attr.TouchAccess(fs.now())
	file.Stats.Reads++
	file.Stats.ReadVolume += uint64(n)
	return fs.awaitOutcome(outcome)
}

func (fs *FileSystem) WriteFile(ctx context.Context, op *fuseops.WriteFileOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ino := ftypes.Ino(op.Inode)
	node := fs.tree.Get(ino)
	if node == nil {
		return ftypes.ENOENT
	}
	file, ok := node.Item.(*ftree.File)
	if !ok {
		return ftypes.ENOENT
	}

	// Per the corrected write path, effects are evaluated BEFORE the
	// storage mutation and filtered on the request's actual OpType, so a
	// failing effect leaves storage untouched.
	reqOp := ftypes.WriteOp(op.Offset, int64(len(op.Data)))
	outcome := fs.evaluate(ino, node.Attr.Size, reqOp)
	if outcome.Err != nil {
		file.Stats.Errors++
		return fs.awaitOutcome(outcome)
	}

	n, err := file.Storage.WriteAt(op.Data, op.Offset)
	if err != nil {
		file.Stats.Errors++
		return err
	}

	if end := op.Offset + int64(n); uint64(end) > node.Attr.Size {
		node.Attr.Size = uint64(end)
	}
	node.Attr.RecomputeBlocks()
	node.Attr.TouchModify(fs.now())
	file.Stats.Writes++
	file.Stats.WriteVolume += uint64(n)
	return fs.awaitOutcome(outcome)
}

func (fs *FileSystem) FlushFile(ctx context.Context, op *fuseops.FlushFileOp) error {
	return nil
}

func (fs *FileSystem) ReleaseFileHandle(ctx context.Context, op *fuseops.ReleaseFileHandleOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	delete(fs.fileHandles, op.Handle)
	return nil
}

func (fs *FileSystem) ReadSymlink(ctx context.Context, op *fuseops.ReadSymlinkOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	node := fs.tree.Get(ftypes.Ino(op.Inode))
	if node == nil {
		return ftypes.ENOENT
	}
	link, ok := node.Item.(*ftree.Symlink)
	if !ok {
		return ftypes.ENOENT
	}
	op.Target = link.Target
	return nil
}

func (fs *FileSystem) Fallocate(ctx context.Context, op *fuseops.FallocateOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	node := fs.tree.Get(ftypes.Ino(op.Inode))
	if node == nil {
		return ftypes.ENOENT
	}
	file, ok := node.Item.(*ftree.File)
	if !ok {
		return ftypes.ENOENT
	}

	end := op.Offset + op.Length
	if end > node.Attr.Size {
		if _, err := file.Storage.WriteAt(make([]byte, 0), int64(end)); err != nil {
			return err
		}
		node.Attr.Size = end
		node.Attr.RecomputeBlocks()
	}
	node.Attr.TouchModify(fs.now())
	return nil
}

// awaitOutcome blocks the calling per-op goroutine until outcome's
// accumulated delay has elapsed, then returns its error (nil on
// success), using the same inline-vs-goroutine split as every other
// deferred reply.
func (fs *FileSystem) awaitOutcome(outcome engine.Outcome) error {
	done := make(chan error, 1)
	deferred.Reply(outcome.SleepMs, func() {
		if outcome.Err != nil {
			done <- *outcome.Err
		} else {
			done <- nil
		}
	})
	return <-done
}
