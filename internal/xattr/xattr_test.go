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

package xattr

import (
	"encoding/json"
	"testing"

	"github.com/dranikpg/brokenfuse/internal/ftree"
	"github.com/dranikpg/brokenfuse/internal/ftypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInoReturnsDecimalText(t *testing.T) {
	tree := ftree.New()
	ino, _, err := tree.Create(ftypes.RootIno, "f")
	require.NoError(t, err)

	got, err := Get(tree, ino, "bf.ino")
	require.NoError(t, err)
	assert.Equal(t, "2", string(got))
}

func TestGetUnknownNameIsENOENT(t *testing.T) {
	tree := ftree.New()
	_, err := Get(tree, ftypes.RootIno, "bf.nonsense")
	assert.ErrorIs(t, err, ftypes.ENOENT)
}

func TestGetStatsOnDirectoryIsENOENT(t *testing.T) {
	tree := ftree.New()
	_, err := Get(tree, ftypes.RootIno, "bf.stats")
	assert.ErrorIs(t, err, ftypes.ENOENT)
}

func TestSetThenGetEffectRoundTrips(t *testing.T) {
	tree := ftree.New()
	ino, _, err := tree.Create(ftypes.RootIno, "f")
	require.NoError(t, err)

	require.NoError(t, Set(tree, ino, "bf.effect.delay", []byte(`{"op":"RW","duration_ms":50}`)))

	got, err := Get(tree, ino, "bf.effect")
	require.NoError(t, err)

	var parsed []map[string]any
	require.NoError(t, json.Unmarshal(got, &parsed))
	require.Len(t, parsed, 1)
	assert.Equal(t, "RW", parsed[0]["op"])
	assert.EqualValues(t, 50, parsed[0]["duration_ms"])
}

func TestSetRejectsNonEffectName(t *testing.T) {
	tree := ftree.New()
	ino, _, err := tree.Create(ftypes.RootIno, "f")
	require.NoError(t, err)

	err = Set(tree, ino, "bf.ino", []byte(`{}`))
	assert.ErrorIs(t, err, ftypes.ENOENT)
}

func TestRemoveClearsWholeGroup(t *testing.T) {
	tree := ftree.New()
	ino, _, err := tree.Create(ftypes.RootIno, "f")
	require.NoError(t, err)
	require.NoError(t, Set(tree, ino, "bf.effect.delay", []byte(`{"op":"R","duration_ms":1}`)))

	require.NoError(t, Remove(tree, ino, "bf.effect"))

	got, err := Get(tree, ino, "bf.effect")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(got))
}

func TestEffectAllConcatenatesChildFirst(t *testing.T) {
	tree := ftree.New()
	require.NoError(t, Set(tree, ftypes.RootIno, "bf.effect.delay", []byte(`{"op":"R","duration_ms":1}`)))

	ino, _, err := tree.Create(ftypes.RootIno, "f")
	require.NoError(t, err)
	require.NoError(t, Set(tree, ino, "bf.effect.flakey", []byte(`{"op":"R","always":true}`)))

	got, err := Get(tree, ino, "bf.effect/all")
	require.NoError(t, err)

	var parsed []map[string]any
	require.NoError(t, json.Unmarshal(got, &parsed))
	require.Len(t, parsed, 2)
	// The file's own group comes first (child-first), then the root's.
	_, childHasAlways := parsed[0]["always"]
	assert.True(t, childHasAlways, "file's flakey effect should be listed before the root's delay effect")
	_, rootHasDuration := parsed[1]["duration_ms"]
	assert.True(t, rootHasDuration)
}
