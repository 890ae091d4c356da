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

package ftree

import (
	"testing"
	"time"

	"github.com/dranikpg/brokenfuse/internal/effect"
	"github.com/dranikpg/brokenfuse/internal/ftypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewRootIsSelfParented(t *testing.T) {
	tree := New()
	root := tree.Get(ftypes.RootIno)
	require.NotNil(t, root)
	assert.Equal(t, ftypes.RootIno, root.Parent)
	assert.Equal(t, ftypes.RootIno, root.Attr.Ino)
	assert.Equal(t, ftypes.KindDir, root.Attr.Kind)
}

func TestCreateSetsInoAndRegistersEntry(t *testing.T) {
	tree := NewWithClock(fixedClock(time.Unix(1000, 0)))

	ino, node, err := tree.Create(ftypes.RootIno, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, ino, node.Attr.Ino)

	root := tree.Get(ftypes.RootIno)
	dir := root.Item.(*Dir)
	got, ok := dir.Lookup("a.txt")
	require.True(t, ok)
	assert.Equal(t, ino, got)
}

func TestCreateDuplicateNameFails(t *testing.T) {
	tree := New()
	_, _, err := tree.Create(ftypes.RootIno, "dup")
	require.NoError(t, err)

	_, _, err = tree.Create(ftypes.RootIno, "dup")
	assert.ErrorIs(t, err, ftypes.EEXIST)
}

func TestUnlinkReclaimsInoForReuse(t *testing.T) {
	tree := New()
	ino, node, err := tree.Create(ftypes.RootIno, "f")
	require.NoError(t, err)
	node.Attr.Nlink = 1
	node.Item = &File{}

	require.NoError(t, tree.Unlink(ftypes.RootIno, "f"))
	assert.Nil(t, tree.Get(ino))

	ino2, _, err := tree.Create(ftypes.RootIno, "g")
	require.NoError(t, err)
	assert.Equal(t, ino, ino2, "freed slot should be reused LIFO")
}

func TestLinkIncrementsNlink(t *testing.T) {
	tree := New()
	ino, node, err := tree.Create(ftypes.RootIno, "f")
	require.NoError(t, err)
	node.Attr.Nlink = 1
	node.Item = &File{}

	require.NoError(t, tree.Link(ino, ftypes.RootIno, "f2"))
	assert.EqualValues(t, 2, node.Attr.Nlink)

	require.NoError(t, tree.Unlink(ftypes.RootIno, "f"))
	assert.NotNil(t, tree.Get(ino), "node should survive while one link remains")
	assert.EqualValues(t, 1, node.Attr.Nlink)

	require.NoError(t, tree.Unlink(ftypes.RootIno, "f2"))
	assert.Nil(t, tree.Get(ino))
}

func TestRenameMovesEntryBetweenDirectories(t *testing.T) {
	tree := New()
	dino, _, err := tree.Create(ftypes.RootIno, "dir")
	require.NoError(t, err)
	dnode := tree.Get(dino)
	dnode.Item = &Dir{}

	fino, _, err := tree.Create(ftypes.RootIno, "f")
	require.NoError(t, err)

	require.NoError(t, tree.Rename(ftypes.RootIno, "f", dino, "f2"))

	root := tree.Get(ftypes.RootIno)
	_, ok := root.Item.(*Dir).Lookup("f")
	assert.False(t, ok)

	got, ok := dnode.Item.(*Dir).Lookup("f2")
	require.True(t, ok)
	assert.Equal(t, fino, got)
}

func TestClimbIsChildFirstAndTerminatesAtRoot(t *testing.T) {
	tree := New()
	dino, _, err := tree.Create(ftypes.RootIno, "dir")
	require.NoError(t, err)
	dnode := tree.Get(dino)
	dnode.Item = &Dir{}

	fino, _, err := tree.Create(dino, "f")
	require.NoError(t, err)

	path := tree.Climb(fino)
	require.Len(t, path, 3)
	assert.Equal(t, fino, path[0].Attr.Ino)
	assert.Equal(t, dino, path[1].Attr.Ino)
	assert.Equal(t, ftypes.RootIno, path[2].Attr.Ino)
}

func TestWalkSubtreeFilesVisitsNestedRegularFiles(t *testing.T) {
	tree := New()
	dino, _, err := tree.Create(ftypes.RootIno, "dir")
	require.NoError(t, err)
	tree.Get(dino).Item = &Dir{}

	fino, fnode, err := tree.Create(dino, "f")
	require.NoError(t, err)
	fnode.Item = &File{}
	fnode.Attr.Size = 42

	var seen []ftypes.Ino
	tree.WalkSubtreeFiles(ftypes.RootIno, func(fi effect.FileInfo) {
		seen = append(seen, fi.Ino)
	})
	assert.Contains(t, seen, fino)
}
