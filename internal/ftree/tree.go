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
	"sync"
	"time"

	"github.com/dranikpg/brokenfuse/internal/effect"
	"github.com/dranikpg/brokenfuse/internal/ftypes"
)

// Tree is a dense slab of inode slots plus a free-list of vacated
// indices. A present slot at index i always satisfies
// nodes[i].Attr.Ino == ftypes.Ino(i). Mutation is guarded by mu as
// defensive depth; the dispatcher is expected to serialize calls (spec
// §5), so the lock is never contended in normal operation.
type Tree struct {
	mu    sync.Mutex
	nodes []*Node
	free  []ftypes.Ino

	// now is the wall clock used to stamp mtime/ctime; overridable for
	// deterministic tests, matching the teacher's own dependency-injected
	// clock pattern (jacobsa/timeutil.Clock).
	now func() time.Time
}

// New creates a tree containing only the root directory.
func New() *Tree {
	return NewWithClock(time.Now)
}

// NewWithClock creates a tree whose timestamps come from now.
func NewWithClock(now func() time.Time) *Tree {
	t := &Tree{now: now}
	root := &Node{
		Parent: ftypes.RootIno,
		Attr: ftypes.Attr{
			Ino:     ftypes.RootIno,
			Kind:    ftypes.KindDir,
			Perm:    0o755,
			Nlink:   2,
			Blksize: ftypes.DefaultBlksize,
		},
		Item:    &Dir{},
		Effects: &effect.Group{},
	}
	ts := now()
	root.Attr.Atime, root.Attr.Mtime, root.Attr.Ctime, root.Attr.Crtime = ts, ts, ts, ts

	// Slots below RootIno are never used; this keeps Ino(i) == index
	// true for every present slot without a reserved zero entry needing
	// special-casing elsewhere.
	t.nodes = make([]*Node, ftypes.RootIno+1)
	t.nodes[ftypes.RootIno] = root
	return t
}

// Get returns the node at ino, or nil if the slot is empty or out of
// range.
func (t *Tree) Get(ino ftypes.Ino) *Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(ino)
}

func (t *Tree) get(ino ftypes.Ino) *Node {
	if int(ino) >= len(t.nodes) {
		return nil
	}
	return t.nodes[ino]
}

// Count returns the number of slots in the slab (present and free).
func (t *Tree) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes)
}

// Climb returns the node path from ino up to the root, innermost first,
// inclusive of both ends. It terminates early if any slot on the path is
// vacant.
func (t *Tree) Climb(ino ftypes.Ino) []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()

	var path []*Node
	cur := ino
	for {
		node := t.get(cur)
		if node == nil {
			break
		}
		path = append(path, node)
		if node.Parent == cur {
			break
		}
		cur = node.Parent
	}
	return path
}

// allocate reserves the most recently freed slot (the free-list is a
// stack), extending the slab if the free-list is empty. The returned slot is nil; the caller fills it in.
func (t *Tree) allocate() ftypes.Ino {
	if n := len(t.free); n > 0 {
		ino := t.free[n-1]
		t.free = t.free[:n-1]
		return ino
	}
	ino := ftypes.Ino(len(t.nodes))
	t.nodes = append(t.nodes, nil)
	return ino
}

func (t *Tree) deallocate(ino ftypes.Ino) {
	t.nodes[ino] = nil
	t.free = append(t.free, ino)
}

// dirOf returns parent's Dir payload, or ENOENT if parent is missing or
// not a directory.
func (t *Tree) dirOf(parent ftypes.Ino) (*Node, *Dir, error) {
	node := t.get(parent)
	if node == nil {
		return nil, nil, ftypes.ENOENT
	}
	dir, ok := node.Item.(*Dir)
	if !ok {
		return nil, nil, ftypes.ENOENT
	}
	return node, dir, nil
}

// Create allocates a new slot, wires it into parent's directory under
// name, and returns the new inode's id and its empty Node for the caller
// to populate (Attr/Item/Effects). On failure after slot allocation the
// slot is returned to the free-list before the error propagates.
func (t *Tree) Create(parent ftypes.Ino, name string) (ftypes.Ino, *Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pnode, dir, err := t.dirOf(parent)
	if err != nil {
		return 0, nil, err
	}
	if _, exists := dir.Lookup(name); exists {
		return 0, nil, ftypes.EEXIST
	}

	ino := t.allocate()
	node := &Node{Parent: parent, Effects: &effect.Group{}}
	node.Attr.Ino = ino
	if err := t.addEntry(pnode, dir, ino, name); err != nil {
		t.deallocate(ino)
		return 0, nil, err
	}
	t.nodes[ino] = node
	return ino, node, nil
}

func (t *Tree) addEntry(pnode *Node, dir *Dir, ino ftypes.Ino, name string) error {
	if _, exists := dir.Lookup(name); exists {
		return ftypes.EEXIST
	}
	dir.add(ino, name)
	ts := t.now()
	pnode.Attr.Mtime = ts
	pnode.Attr.Ctime = ts
	pnode.Attr.Size = uint64(dir.Len())
	return nil
}

// Link adds a new directory entry pointing at an existing inode and
// increments its hard-link count.
func (t *Tree) Link(ino ftypes.Ino, newParent ftypes.Ino, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	node := t.get(ino)
	if node == nil {
		return ftypes.ENOENT
	}
	pnode, dir, err := t.dirOf(newParent)
	if err != nil {
		return err
	}
	if err := t.addEntry(pnode, dir, ino, name); err != nil {
		return err
	}
	node.Attr.Nlink++
	node.Attr.Ctime = t.now()
	return nil
}

// Unlink removes the (parent, name) entry and decrements the target's
// nlink. The slot is reclaimed once nlink reaches zero, releasing its
// storage.
func (t *Tree) Unlink(parent ftypes.Ino, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	pnode, dir, err := t.dirOf(parent)
	if err != nil {
		return err
	}
	ino, ok := dir.Lookup(name)
	if !ok {
		return ftypes.ENOENT
	}
	node := t.get(ino)
	if node == nil {
		return ftypes.ENOENT
	}

	dir.remove(name)
	ts := t.now()
	pnode.Attr.Mtime = ts
	pnode.Attr.Ctime = ts
	pnode.Attr.Size = uint64(dir.Len())

	if node.Attr.Nlink > 0 {
		node.Attr.Nlink--
	}
	node.Attr.Ctime = ts

	if node.Attr.Nlink == 0 {
		if f, ok := node.Item.(*File); ok && f.Storage != nil {
			f.Storage.Close()
		}
		t.deallocate(ino)
	}
	return nil
}

// Rename atomically removes the (oldParent, oldName) entry and inserts
// it under (newParent, newName). If the insert step fails, the original
// entry is restored (its slot is still allocated, so re-insertion always
// succeeds). Overwriting an existing target is not supported.
func (t *Tree) Rename(oldParent ftypes.Ino, oldName string, newParent ftypes.Ino, newName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	opnode, odir, err := t.dirOf(oldParent)
	if err != nil {
		return err
	}
	ino, ok := odir.Lookup(oldName)
	if !ok {
		return ftypes.ENOENT
	}

	npnode, ndir, err := t.dirOf(newParent)
	if err != nil {
		return err
	}
	if _, exists := ndir.Lookup(newName); exists {
		return ftypes.EEXIST
	}

	odir.remove(oldName)
	ts := t.now()
	opnode.Attr.Mtime = ts
	opnode.Attr.Ctime = ts
	opnode.Attr.Size = uint64(odir.Len())

	if err := t.addEntry(npnode, ndir, ino, newName); err != nil {
		// Restore the original entry; the slot is still allocated so this
		// cannot itself fail for the same reason.
		odir.add(ino, oldName)
		opnode.Attr.Size = uint64(odir.Len())
		return err
	}

	node := t.get(ino)
	node.Parent = newParent
	return nil
}

// WalkSubtreeFiles implements effect.TreeView: it invokes fn for every
// present regular-file inode in the subtree rooted at origin, inclusive.
func (t *Tree) WalkSubtreeFiles(origin ftypes.Ino, fn func(effect.FileInfo)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.walk(origin, fn)
}

func (t *Tree) walk(ino ftypes.Ino, fn func(effect.FileInfo)) {
	node := t.get(ino)
	if node == nil {
		return
	}
	switch item := node.Item.(type) {
	case *File:
		fn(effect.FileInfo{Ino: ino, Size: node.Attr.Size})
	case *Dir:
		for _, e := range item.entries {
			t.walk(e.ino, fn)
		}
	}
}
