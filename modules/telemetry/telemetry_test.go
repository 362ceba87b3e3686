// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestHTTPMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := newHTTPMetrics(mp.Meter("test"))
	require.NoError(t, err)

	m.RecordRequest(context.Background(), "GET", "GET /v1/players/{playerId}/stats", 200, 20*time.Millisecond, 64)
	m.RecordRequest(context.Background(), "GET", "GET /v1/players/{playerId}/stats", 200, 10*time.Millisecond, 0)

	data := collect(t, reader)

	requests := data["http_server_requests_total"].(metricdata.Sum[int64])
	require.Len(t, requests.DataPoints, 1)
	assert.Equal(t, int64(2), requests.DataPoints[0].Value)
	route, ok := requests.DataPoints[0].Attributes.Value("http.route")
	require.True(t, ok)
	assert.Equal(t, "GET /v1/players/{playerId}/stats", route.AsString())

	size := data["http_server_response_size"].(metricdata.Histogram[int64])
	require.Len(t, size.DataPoints, 1)
	assert.Equal(t, uint64(1), size.DataPoints[0].Count)
}

func TestPayoutMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := newPayoutMetrics(mp.Meter("test"))
	require.NoError(t, err)

	m.RecordRun(context.Background(), "ok", 3, 120, 1)
	m.RecordRun(context.Background(), "skipped", 0, 0, 0)

	data := collect(t, reader)

	runs := data["payout_runs_total"].(metricdata.Sum[int64])
	assert.Len(t, runs.DataPoints, 2)

	paid := data["payout_buzz_total"].(metricdata.Sum[int64])
	require.Len(t, paid.DataPoints, 1)
	assert.Equal(t, int64(120), paid.DataPoints[0].Value)

	failed := data["payout_failures_total"].(metricdata.Sum[int64])
	require.Len(t, failed.DataPoints, 1)
	assert.Equal(t, int64(1), failed.DataPoints[0].Value)
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		in    Mode
		agent bool
		want  Mode
	}{
		{in: "", agent: false, want: ModeManual},
		{in: ModeDetect, agent: true, want: ModeAuto},
		{in: ModeManual, agent: true, want: ModeManual},
		{in: ModeAuto, agent: false, want: ModeAuto},
	}
	for _, tt := range tests {
		got, err := resolveMode(tt.in, tt.agent)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "mode %q agent %v", tt.in, tt.agent)
	}

	_, err := resolveMode("sidecar", false)
	assert.Error(t, err)
}

func TestOTLPProtocol(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_PROTOCOL", "grpc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "")

	assert.Equal(t, "grpc", otlpProtocol("METRICS"))
	assert.Equal(t, "http/protobuf", otlpProtocol("TRACES"))
}

func TestBuildSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOffSampler", buildSampler(0).Description())
	assert.Equal(t, "AlwaysOnSampler", buildSampler(1).Description())
	assert.Contains(t, buildSampler(0.5).Description(), "TraceIDRatioBased")
}

func TestInitRequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), Config{})
	assert.Error(t, err)
}
