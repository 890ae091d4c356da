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

// Package dispatcher adapts the inode tree, effect engine and storage
// backends to github.com/jacobsa/fuse's FileSystem interface. It is the
// kernel<->userspace protocol adapter: one struct, one method per op,
// serialized by a single mutex so the tree and engine see one request
// at a time, matching the single-threaded scheduling model.
package dispatcher

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dranikpg/brokenfuse/internal/effect"
	"github.com/dranikpg/brokenfuse/internal/engine"
	"github.com/dranikpg/brokenfuse/internal/ftree"
	"github.com/dranikpg/brokenfuse/internal/ftypes"
	"github.com/dranikpg/brokenfuse/internal/storage"
	"github.com/dranikpg/brokenfuse/internal/telemetry"
	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
)

// FileSystem implements fuse.FileSystem. Every method takes a context
// and a single *fuseops.XxxOp and returns an error; the op's output
// fields are filled in on success. Unimplemented methods fall back to
// fuseutil.NotImplementedFileSystem's ENOSYS.
type FileSystem struct {
	fuseutil.NotImplementedFileSystem

	mu      sync.Mutex
	tree    *ftree.Tree
	storage storage.Factory
	rand    *rand.Rand
	now     func() time.Time
	logger  *slog.Logger
	metrics *telemetry.Recorder

	dirHandles  map[fuseops.HandleID]ftypes.Ino
	fileHandles map[fuseops.HandleID]ftypes.Ino
	nextHandle  fuseops.HandleID
}

// New builds a FileSystem backed by tree, minting new file storage
// through factory. logger and metrics may be nil; a nil metrics
// recorder is treated as a no-op sink.
func New(tree *ftree.Tree, factory storage.Factory, logger *slog.Logger, metrics *telemetry.Recorder) *FileSystem {
	return &FileSystem{
		tree:        tree,
		storage:     factory,
		rand:        rand.New(rand.NewPCG(1, 2)),
		now:         time.Now,
		logger:      logger,
		metrics:     metrics,
		dirHandles:  make(map[fuseops.HandleID]ftypes.Ino),
		fileHandles: make(map[fuseops.HandleID]ftypes.Ino),
	}
}

var _ fuse.FileSystem = (*FileSystem)(nil)

func (fs *FileSystem) Init(ctx context.Context, op *fuseops.InitOp) error {
	return nil
}

func (fs *FileSystem) allocHandle() fuseops.HandleID {
	fs.nextHandle++
	return fs.nextHandle
}

// attrFor converts a tree node's Attr into the wire InodeAttributes.
func attrFor(node *ftree.Node) fuseops.InodeAttributes {
	a := node.Attr
	return fuseops.InodeAttributes{
		Size:   a.Size,
		Nlink:  a.Nlink,
		Mode:   a.Perm,
		Atime:  a.Atime,
		Mtime:  a.Mtime,
		Ctime:  a.Ctime,
		Crtime: a.Crtime,
		Uid:    a.Uid,
		Gid:    a.Gid,
	}
}

// farFuture is used as the cache-expiration time for responses: the
// dispatcher never spontaneously mutates metadata the kernel hasn't
// asked to change, so the kernel may cache it indefinitely.
func (fs *FileSystem) farFuture() time.Time {
	return fs.now().Add(365 * 24 * time.Hour)
}

func (fs *FileSystem) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
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

	op.Entry.Child = fuseops.InodeID(childIno)
	op.Entry.Attributes = attrFor(child)
	op.Entry.AttributesExpiration = fs.farFuture()
	op.Entry.EntryExpiration = fs.farFuture()
	return nil
}

func (fs *FileSystem) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	node := fs.tree.Get(ftypes.Ino(op.Inode))
	if node == nil {
		return ftypes.ENOENT
	}
	op.Attributes = attrFor(node)
	op.AttributesExpiration = fs.farFuture()
	return nil
}

func (fs *FileSystem) SetInodeAttributes(ctx context.Context, op *fuseops.SetInodeAttributesOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	node := fs.tree.Get(ftypes.Ino(op.Inode))
	if node == nil {
		return ftypes.ENOENT
	}

	if op.Mode != nil {
		node.Attr.Perm = *op.Mode
	}
	if op.Size != nil {
		if _, ok := node.Item.(*ftree.File); !ok {
			return ftypes.EINVAL
		}
		node.Attr.Size = *op.Size
		node.Attr.RecomputeBlocks()
	}
	ts := fs.now()
	if op.Atime != nil {
		node.Attr.Atime = *op.Atime
	}
	if op.Mtime != nil {
		node.Attr.Mtime = *op.Mtime
	}
	node.Attr.Ctime = ts

	op.Attributes = attrFor(node)
	op.AttributesExpiration = fs.farFuture()
	return nil
}

func (fs *FileSystem) ForgetInode(ctx context.Context, op *fuseops.ForgetInodeOp) error {
	// Lifecycle is driven entirely by Nlink reaching zero in Unlink/RmDir;
	// the kernel's lookup-count bookkeeping has no further effect here.
	return nil
}

func (fs *FileSystem) StatFS(ctx context.Context, op *fuseops.StatFSOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	op.BlockSize = ftypes.DefaultBlksize
	op.Blocks = 1 << 30
	op.BlocksFree = 1 << 30
	op.BlocksAvailable = 1 << 30
	op.Inodes = uint64(fs.tree.Count())
	op.InodesFree = 1 << 20
	return nil
}

// climbContext builds the per-request effect evaluation environment
// for target, with Op left for the caller to fill in.
func (fs *FileSystem) climbContext(target ftypes.Ino, targetSize uint64) *effect.Context {
	return &effect.Context{
		Target:     target,
		TargetSize: targetSize,
		Tree:       fs.tree,
		Rand:       fs.rand,
		Now:        fs.now,
	}
}

// evaluate runs the engine over target's climb path for op, recording
// the outcome to telemetry if present. Must be called before the
// caller performs any storage mutation for the same request.
func (fs *FileSystem) evaluate(target ftypes.Ino, targetSize uint64, reqOp ftypes.Op) engine.Outcome {
	ctx := fs.climbContext(target, targetSize)
	ctx.Op = reqOp
	path := fs.tree.Climb(target)
	outcome := engine.Evaluate(path, ctx)
	if fs.metrics != nil {
		fs.metrics.RecordOp(reqOp.Kind, outcome)
	}
	return outcome
}
