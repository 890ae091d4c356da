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

package telemetry

import (
	"testing"

	"github.com/dranikpg/brokenfuse/internal/engine"
	"github.com/dranikpg/brokenfuse/internal/ftypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersInstrumentsWithoutError(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	require.NotNil(t, r)
}

func TestRecordOpOnNilRecorderIsANoOp(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordOp(ftypes.OpRead, engine.Outcome{SleepMs: 5})
	})
}

func TestRecordOpAcceptsSuccessAndFailureOutcomes(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	errno := ftypes.EIO
	assert.NotPanics(t, func() {
		r.RecordOp(ftypes.OpRead, engine.Outcome{SleepMs: 3})
		r.RecordOp(ftypes.OpWrite, engine.Outcome{Err: &errno})
	})
}
