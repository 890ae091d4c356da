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
	"testing"

	"github.com/dranikpg/brokenfuse/internal/ftree"
	"github.com/dranikpg/brokenfuse/internal/ftypes"
	"github.com/dranikpg/brokenfuse/internal/storage"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS() *FileSystem {
	return New(ftree.New(), storage.RamFactory{}, nil, nil)
}

func TestCreateFileThenLookUpFindsIt(t *testing.T) {
	fs := newTestFS()
	ctx := context.Background()

	createOp := &fuseops.CreateFileOp{
		Parent: fuseops.InodeID(ftypes.RootIno),
		Name:   "hello.txt",
		Mode:   0o644,
	}
	require.NoError(t, fs.CreateFile(ctx, createOp))
	assert.NotZero(t, createOp.Handle)
	assert.NotZero(t, createOp.Entry.Child)

	lookupOp := &fuseops.LookUpInodeOp{
		Parent: fuseops.InodeID(ftypes.RootIno),
		Name:   "hello.txt",
	}
	require.NoError(t, fs.LookUpInode(ctx, lookupOp))
	assert.Equal(t, createOp.Entry.Child, lookupOp.Entry.Child)
}

func TestWriteThenReadFileRoundTrips(t *testing.T) {
	fs := newTestFS()
	ctx := context.Background()

	createOp := &fuseops.CreateFileOp{Parent: fuseops.InodeID(ftypes.RootIno), Name: "f", Mode: 0o644}
	require.NoError(t, fs.CreateFile(ctx, createOp))
	ino := createOp.Entry.Child

	writeOp := &fuseops.WriteFileOp{Inode: ino, Data: []byte("payload"), Offset: 0}
	require.NoError(t, fs.WriteFile(ctx, writeOp))

	attrOp := &fuseops.GetInodeAttributesOp{Inode: ino}
	require.NoError(t, fs.GetInodeAttributes(ctx, attrOp))
	assert.EqualValues(t, len("payload"), attrOp.Attributes.Size)

	readOp := &fuseops.ReadFileOp{Inode: ino, Dst: make([]byte, 7), Offset: 0}
	require.NoError(t, fs.ReadFile(ctx, readOp))
	assert.Equal(t, 7, readOp.BytesRead)
	assert.Equal(t, "payload", string(readOp.Dst[:readOp.BytesRead]))
}

func TestReadFileMissingInodeIsENOENT(t *testing.T) {
	fs := newTestFS()
	readOp := &fuseops.ReadFileOp{Inode: 999, Dst: make([]byte, 4)}
	assert.Equal(t, ftypes.ENOENT, fs.ReadFile(context.Background(), readOp))
}

func TestMkDirThenReadDirListsEntry(t *testing.T) {
	fs := newTestFS()
	ctx := context.Background()

	mkdirOp := &fuseops.MkDirOp{Parent: fuseops.InodeID(ftypes.RootIno), Name: "sub", Mode: 0o755}
	require.NoError(t, fs.MkDir(ctx, mkdirOp))

	openOp := &fuseops.OpenDirOp{Inode: fuseops.InodeID(ftypes.RootIno)}
	require.NoError(t, fs.OpenDir(ctx, openOp))

	readOp := &fuseops.ReadDirOp{Handle: openOp.Handle, Offset: 0, Dst: make([]byte, 4096)}
	require.NoError(t, fs.ReadDir(ctx, readOp))
	assert.Greater(t, readOp.BytesRead, 0)
}

func TestRmDirOnNonEmptyDirFails(t *testing.T) {
	fs := newTestFS()
	ctx := context.Background()

	mkdirOp := &fuseops.MkDirOp{Parent: fuseops.InodeID(ftypes.RootIno), Name: "sub", Mode: 0o755}
	require.NoError(t, fs.MkDir(ctx, mkdirOp))

	createOp := &fuseops.CreateFileOp{Parent: mkdirOp.Entry.Child, Name: "f", Mode: 0o644}
	require.NoError(t, fs.CreateFile(ctx, createOp))

	rmOp := &fuseops.RmDirOp{Parent: fuseops.InodeID(ftypes.RootIno), Name: "sub"}
	assert.Equal(t, ftypes.EINVAL, fs.RmDir(ctx, rmOp))
}

func TestUnlinkThenLookUpIsENOENT(t *testing.T) {
	fs := newTestFS()
	ctx := context.Background()

	createOp := &fuseops.CreateFileOp{Parent: fuseops.InodeID(ftypes.RootIno), Name: "f", Mode: 0o644}
	require.NoError(t, fs.CreateFile(ctx, createOp))

	unlinkOp := &fuseops.UnlinkOp{Parent: fuseops.InodeID(ftypes.RootIno), Name: "f"}
	require.NoError(t, fs.Unlink(ctx, unlinkOp))

	lookupOp := &fuseops.LookUpInodeOp{Parent: fuseops.InodeID(ftypes.RootIno), Name: "f"}
	assert.Equal(t, ftypes.ENOENT, fs.LookUpInode(ctx, lookupOp))
}

func TestRenameMovesEntryToNewParent(t *testing.T) {
	fs := newTestFS()
	ctx := context.Background()

	mkdirOp := &fuseops.MkDirOp{Parent: fuseops.InodeID(ftypes.RootIno), Name: "dst", Mode: 0o755}
	require.NoError(t, fs.MkDir(ctx, mkdirOp))

	createOp := &fuseops.CreateFileOp{Parent: fuseops.InodeID(ftypes.RootIno), Name: "f", Mode: 0o644}
	require.NoError(t, fs.CreateFile(ctx, createOp))

	renameOp := &fuseops.RenameOp{
		OldParent: fuseops.InodeID(ftypes.RootIno), OldName: "f",
		NewParent: mkdirOp.Entry.Child, NewName: "moved",
	}
	require.NoError(t, fs.Rename(ctx, renameOp))

	lookupOp := &fuseops.LookUpInodeOp{Parent: mkdirOp.Entry.Child, Name: "moved"}
	require.NoError(t, fs.LookUpInode(ctx, lookupOp))
	assert.Equal(t, createOp.Entry.Child, lookupOp.Entry.Child)
}

func TestStatFSReportsInodeCount(t *testing.T) {
	fs := newTestFS()
	op := &fuseops.StatFSOp{}
	require.NoError(t, fs.StatFS(context.Background(), op))
	assert.EqualValues(t, 2, op.Inodes, "slot 0 is reserved so a fresh tree's slab holds root plus one unused slot")
}
