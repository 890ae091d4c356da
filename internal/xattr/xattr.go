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

// Package xattr translates the reserved bf.* extended-attribute
// namespace into operations against an inode's effect group: reading
// identity/stats/effect state, and defining or removing effects.
package xattr

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dranikpg/brokenfuse/internal/effect"
	"github.com/dranikpg/brokenfuse/internal/ftree"
	"github.com/dranikpg/brokenfuse/internal/ftypes"
)

const (
	nameIno         = "bf.ino"
	nameStats       = "bf.stats"
	nameEffect      = "bf.effect"
	nameEffectSelf  = "bf.effect/self"
	nameEffectAll   = "bf.effect/all"
	effectKindPrefix = "bf.effect."
)

// Get dispatches a getxattr request. Any name outside the bf.*
// namespace table yields ENOENT.
func Get(tree *ftree.Tree, ino ftypes.Ino, name string) ([]byte, error) {
	node := tree.Get(ino)
	if node == nil {
		return nil, ftypes.ENOENT
	}

	switch name {
	case nameIno:
		return []byte(strconv.FormatUint(uint64(ino), 10)), nil

	case nameStats:
		f, ok := node.Item.(*ftree.File)
		if !ok {
			return nil, ftypes.ENOENT
		}
		return json.Marshal(f.Stats)

	case nameEffect, nameEffectSelf:
		return node.Effects.Serialize()

	case nameEffectAll:
		return serializeAll(tree, ino)

	default:
		return nil, ftypes.ENOENT
	}
}

// Set dispatches a setxattr request. Only bf.effect.<kind> is
// writable; any other name yields ENOENT. A malformed value refuses
// the write and leaves the group unchanged.
func Set(tree *ftree.Tree, ino ftypes.Ino, name string, value []byte) error {
	node := tree.Get(ino)
	if node == nil {
		return ftypes.ENOENT
	}

	kind, ok := strings.CutPrefix(name, effectKindPrefix)
	if !ok || kind == "" {
		return ftypes.ENOENT
	}

	de, err := effect.Create(kind, value)
	if err != nil {
		return err
	}
	node.Effects.Add(de)
	return nil
}

// Remove dispatches a removexattr request. bf.effect clears the whole
// group; bf.effect.<kind> removes just that named effect, if present.
// Any other name yields ENOENT.
func Remove(tree *ftree.Tree, ino ftypes.Ino, name string) error {
	node := tree.Get(ino)
	if node == nil {
		return ftypes.ENOENT
	}

	if name == nameEffect {
		node.Effects.Clear()
		return nil
	}

	kind, ok := strings.CutPrefix(name, effectKindPrefix)
	if !ok || kind == "" {
		return ftypes.ENOENT
	}
	node.Effects.Remove(kind)
	return nil
}

// serializeAll concatenates the node's own group array with every
// ancestor's, child-first, per the bf.effect/all contract.
func serializeAll(tree *ftree.Tree, ino ftypes.Ino) ([]byte, error) {
	path := tree.Climb(ino)
	all := make([]map[string]any, 0, len(path))
	for _, node := range path {
		blob, err := node.Effects.Serialize()
		if err != nil {
			return nil, err
		}
		var part []map[string]any
		if err := json.Unmarshal(blob, &part); err != nil {
			return nil, err
		}
		all = append(all, part...)
	}
	return json.Marshal(all)
}
