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

package effect

import (
	"math/rand/v2"
	"time"

	"github.com/dranikpg/brokenfuse/internal/ftypes"
)

// FileInfo is the minimal view of a regular file an effect needs when
// summarizing a subtree (MaxSize's aggregate cap). It deliberately
// excludes directories and symlinks, matching spec §4.2's "summing
// attr.size over every present regular file".
type FileInfo struct {
	Ino  ftypes.Ino
	Size uint64
}

// TreeView is the narrow slice of the inode tree an effect may consult.
// It is satisfied by *ftree.Tree without effect importing ftree, keeping
// the dependency one-directional (ftree -> effect, never the reverse).
type TreeView interface {
	// WalkSubtreeFiles invokes fn for every present regular-file inode in
	// the subtree rooted at origin, inclusive.
	WalkSubtreeFiles(origin ftypes.Ino, fn func(FileInfo))
}

// Context is the per-request evaluation environment passed to every
// Effect.Apply call along the climb path.
type Context struct {
	// Op is the current operation descriptor.
	Op ftypes.Op

	// Origin is the inode the currently-evaluating effect is attached to.
	Origin ftypes.Ino

	// Target is the inode the user operation actually hits. Origin and
	// Target differ whenever an ancestor's effect fires on a descendant.
	Target ftypes.Ino

	// TargetSize is the target file's current size, needed by MaxSize's
	// need_grow computation and HeatMap's crop-to-bounds step.
	TargetSize uint64

	// Tree gives MaxSize access to the subtree rooted at Origin.
	Tree TreeView

	// Rand is the context's RNG, used by Flakey's probabilistic mode.
	Rand *rand.Rand

	// Now returns the current wall-clock time, used by Flakey's interval
	// mode. Injected so tests can control it; production wires time.Now.
	Now func() time.Time
}
