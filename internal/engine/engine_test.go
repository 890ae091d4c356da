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

package engine

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/dranikpg/brokenfuse/internal/effect"
	"github.com/dranikpg/brokenfuse/internal/ftree"
	"github.com/dranikpg/brokenfuse/internal/ftypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constEffect struct {
	result effect.Result
	calls  *int
}

func (c constEffect) Apply(ctx *effect.Context) effect.Result {
	if c.calls != nil {
		*c.calls++
	}
	return c.result
}

func newContext(target ftypes.Ino, op ftypes.OpType) *effect.Context {
	return &effect.Context{
		Op:   ftypes.Op{Kind: op},
		Tree: ftree.New(),
		Rand: rand.New(rand.NewPCG(1, 2)),
		Now:  time.Now,
	}
}

func TestEvaluateNoEffectsIsAck(t *testing.T) {
	tree := ftree.New()
	out := Evaluate(tree.Climb(ftypes.RootIno), newContext(ftypes.RootIno, ftypes.OpRead))
	assert.Zero(t, out.SleepMs)
	assert.Nil(t, out.Err)
}

func TestEvaluateAccumulatesDelayAcrossAncestors(t *testing.T) {
	tree := ftree.New()
	dino, _, err := tree.Create(ftypes.RootIno, "dir")
	require.NoError(t, err)
	tree.Get(dino).Item = &ftree.Dir{}
	tree.Get(dino).Effects.Add(&effect.DefinedEffect{
		Name: "delay", Op: ftypes.OpRead | ftypes.OpWrite,
		Effect: constEffect{result: effect.Delayed(10)},
	})

	fino, fnode, err := tree.Create(dino, "f")
	require.NoError(t, err)
	fnode.Effects.Add(&effect.DefinedEffect{
		Name: "delay", Op: ftypes.OpRead | ftypes.OpWrite,
		Effect: constEffect{result: effect.Delayed(5)},
	})

	out := Evaluate(tree.Climb(fino), newContext(fino, ftypes.OpRead))
	assert.EqualValues(t, 15, out.SleepMs)
	assert.Nil(t, out.Err)
}

func TestEvaluateShortCircuitsOnFirstError(t *testing.T) {
	tree := ftree.New()
	dino, _, err := tree.Create(ftypes.RootIno, "dir")
	require.NoError(t, err)
	dnode := tree.Get(dino)
	dnode.Item = &ftree.Dir{}
	dnode.Effects.Add(&effect.DefinedEffect{
		Name: "flakey", Op: ftypes.OpRead | ftypes.OpWrite,
		Effect: constEffect{result: effect.Err(ftypes.EIO)},
	})

	fino, fnode, err := tree.Create(dino, "f")
	require.NoError(t, err)
	var laterCalls int
	fnode.Effects.Add(&effect.DefinedEffect{
		Name: "delay", Op: ftypes.OpRead | ftypes.OpWrite,
		Effect: constEffect{result: effect.Delayed(100), calls: &laterCalls},
	})

	out := Evaluate(tree.Climb(fino), newContext(fino, ftypes.OpRead))
	require.NotNil(t, out.Err)
	assert.Equal(t, ftypes.EIO, *out.Err)
	// The child's own effect evaluates before the ancestor's (child-first
	// climb order), so it still contributed its delay before the
	// ancestor's error short-circuited the walk.
	assert.EqualValues(t, 100, out.SleepMs)
}

func TestEvaluateFiltersByRequestOpType(t *testing.T) {
	tree := ftree.New()
	fino, fnode, err := tree.Create(ftypes.RootIno, "f")
	require.NoError(t, err)
	fnode.Effects.Add(&effect.DefinedEffect{
		Name: "writeonly", Op: ftypes.OpWrite,
		Effect: constEffect{result: effect.Err(ftypes.EIO)},
	})

	out := Evaluate(tree.Climb(fino), newContext(fino, ftypes.OpRead))
	assert.Nil(t, out.Err, "a write-only effect must not fire on a read request")
}
