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

// Package deferred delivers a FUSE op's reply no sooner than the
// engine's accumulated delay, without parking the dispatch goroutine
// on every request: short delays sleep inline, longer ones hand off to
// a background goroutine so the dispatcher stays free to serve other
// ops while a slow one is "in flight".
package deferred

import "time"

// goroutineThresholdMs is the cutoff above which Reply hands the sleep
// off to a background goroutine instead of blocking the caller.
const goroutineThresholdMs = 5

// Reply invokes deliver no sooner than sleepMs milliseconds from now.
// sleepMs == 0 invokes deliver immediately, on the caller's goroutine.
// 0 < sleepMs < 5 sleeps inline then invokes. sleepMs >= 5 spawns a
// worker goroutine and returns immediately, so the caller is free to
// pick up the next request.
func Reply(sleepMs uint64, deliver func()) {
	switch {
	case sleepMs == 0:
		deliver()
	case sleepMs < goroutineThresholdMs:
		time.Sleep(time.Duration(sleepMs) * time.Millisecond)
		deliver()
	default:
		go func() {
			time.Sleep(time.Duration(sleepMs) * time.Millisecond)
			deliver()
		}()
	}
}
