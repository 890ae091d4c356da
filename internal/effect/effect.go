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

// Package effect implements the fault-injection rule taxonomy: Delay,
// Flakey, MaxSize, HeatMap and Quota, each a concrete type satisfying the
// polymorphic Effect interface, plus the named/op-filtered wrapper
// (DefinedEffect) and per-inode collection (Group) the engine walks.
package effect

import "github.com/dranikpg/brokenfuse/internal/ftypes"

// Kind names one of the five concrete effect implementations. Kind
// strings are canonical: DefinedEffect.Name is always one of these,
// regardless of the case the xattr request used.
type Kind string

const (
	KindDelay   Kind = "delay"
	KindFlakey  Kind = "flakey"
	KindMaxSize Kind = "maxsize"
	KindHeatMap Kind = "heatmap"
	KindQuota   Kind = "quota"
)

// ResultTag discriminates the three shapes an Effect.Apply can return.
type ResultTag int

const (
	ResultAck ResultTag = iota
	ResultError
	ResultDelay
)

// Result is the outcome of evaluating a single effect against a Context.
type Result struct {
	Tag       ResultTag
	Errno     ftypes.Errno
	DelayMs   uint64
}

// Ack is the "no-op, proceed" result.
func Ack() Result { return Result{Tag: ResultAck} }

// Err wraps an errno as an Error result.
func Err(errno ftypes.Errno) Result { return Result{Tag: ResultError, Errno: errno} }

// Delayed wraps a millisecond delay as a Delay result.
func Delayed(ms uint64) Result { return Result{Tag: ResultDelay, DelayMs: ms} }

// Effect is the single polymorphic operation every effect kind
// implements: given the current request's Context, decide whether to let
// it through, delay it, or fail it.
type Effect interface {
	Apply(ctx *Context) Result
}
