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
	"context"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// InstallProvider builds an SDK meter provider backed by a manual reader
// and registers it as the process-wide default, so the instruments New
// creates actually aggregate instead of being discarded by the no-op
// provider otel falls back to when nothing is registered. It returns the
// reader so a caller can pull a point-in-time Snapshot.
func InstallProvider() *sdkmetric.ManualReader {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	return reader
}

// Snapshot collects every metric point the reader has accumulated so
// far. There is no remote exporter wired in, so nothing leaves the
// process on its own; runMount does not keep the reader, so the mount
// command itself never takes a snapshot.
func Snapshot(reader *sdkmetric.ManualReader) (metricdata.ResourceMetrics, error) {
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	return rm, err
}
