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

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRamWriteGrowsBuffer(t *testing.T) {
	r := NewRam()
	n, err := r.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.EqualValues(t, 5, r.Len())
}

func TestRamReadCropsToBounds(t *testing.T) {
	r := NewRam()
	_, err := r.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)

	buf := make([]byte, 10)
	n, err := r.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "a read past the end should return fewer bytes, not an error")
	assert.Equal(t, "llo", string(buf[:n]))
}

func TestRamReadBeyondEndReturnsZero(t *testing.T) {
	r := NewRam()
	buf := make([]byte, 4)
	n, err := r.ReadAt(buf, 100)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRamWriteAtOffsetGrowsWithZeroGap(t *testing.T) {
	r := NewRam()
	_, err := r.WriteAt(nil, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 10, r.Len())
}

func TestRamFactoryCreatesIndependentBuffers(t *testing.T) {
	f := RamFactory{}
	a, err := f.Create(2)
	require.NoError(t, err)
	b, err := f.Create(3)
	require.NoError(t, err)

	_, err = a.WriteAt([]byte("x"), 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, b.Len())
}
