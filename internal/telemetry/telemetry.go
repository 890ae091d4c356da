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

// Package telemetry records engine evaluation outcomes as OpenTelemetry
// metrics: accumulated delay, op counts by type, and errors by errno.
package telemetry

import (
	"context"
	"errors"
	"strconv"

	"github.com/dranikpg/brokenfuse/internal/engine"
	"github.com/dranikpg/brokenfuse/internal/ftypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var defaultDelayDistribution = metric.WithExplicitBucketBoundaries(
	1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500, 650, 800, 1000, 2000, 5000,
)

var engineMeter = otel.Meter("brokenfuse/engine")

// Recorder holds the instruments the engine reports its evaluation
// outcomes through. The zero value is not usable; construct with New.
type Recorder struct {
	opCount    metric.Int64Counter
	errorCount metric.Int64Counter
	delay      metric.Float64Histogram
}

// New registers the engine's instruments against the global meter
// provider.
func New() (*Recorder, error) {
	opCount, err1 := engineMeter.Int64Counter(
		"engine/op_count",
		metric.WithDescription("The cumulative number of requests evaluated by the effect engine, by op type."),
	)
	errorCount, err2 := engineMeter.Int64Counter(
		"engine/error_count",
		metric.WithDescription("The cumulative number of requests an effect failed, by errno."),
	)
	delay, err3 := engineMeter.Float64Histogram(
		"engine/delay_ms",
		metric.WithDescription("The cumulative distribution of accumulated per-request delay."),
		metric.WithUnit("ms"),
		defaultDelayDistribution,
	)

	if err := errors.Join(err1, err2, err3); err != nil {
		return nil, err
	}

	return &Recorder{opCount: opCount, errorCount: errorCount, delay: delay}, nil
}

// RecordOp reports one engine.Evaluate outcome for a request of the
// given op type.
func (r *Recorder) RecordOp(op ftypes.OpType, outcome engine.Outcome) {
	if r == nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("op", op.String()))

	r.opCount.Add(ctx, 1, attrs)
	if outcome.SleepMs > 0 {
		r.delay.Record(ctx, float64(outcome.SleepMs), attrs)
	}
	if outcome.Err != nil {
		r.errorCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op.String()),
			attribute.String("errno", strconv.Itoa(int(*outcome.Err))),
		))
	}
}
