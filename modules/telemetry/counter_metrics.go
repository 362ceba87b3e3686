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
	"strings"

	"neworder/modules/counter"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var _ counter.Observer = (*CounterMetrics)(nil)

// CounterMetrics records counter populations and changes per counter key.
type CounterMetrics struct {
	populations metric.Int64Counter
	changes     metric.Int64Counter
	delta       metric.Int64Counter
}

func NewCounterMetrics(serviceName string) (*CounterMetrics, error) {
	return newCounterMetrics(otel.Meter(serviceName))
}

func newCounterMetrics(meter metric.Meter) (*CounterMetrics, error) {
	populations, err := meter.Int64Counter(
		"counter_populations_total",
		metric.WithDescription("Entities seeded from the source of truth on a cache miss"),
		metric.WithUnit("{entity}"),
	)
	if err != nil {
		return nil, err
	}

	changes, err := meter.Int64Counter(
		"counter_changes_total",
		metric.WithDescription("Increments and decrements applied"),
		metric.WithUnit("{change}"),
	)
	if err != nil {
		return nil, err
	}

	delta, err := meter.Int64Counter(
		"counter_delta_total",
		metric.WithDescription("Absolute amount added or subtracted"),
	)
	if err != nil {
		return nil, err
	}

	return &CounterMetrics{populations: populations, changes: changes, delta: delta}, nil
}

func (m *CounterMetrics) Populated(ctx context.Context, key string, _ int64) {
	m.populations.Add(ctx, 1, metric.WithAttributes(attribute.String("counter_key", keyFamily(key))))
}

func (m *CounterMetrics) Changed(ctx context.Context, key string, delta int64) {
	direction := "increment"
	if delta < 0 {
		direction = "decrement"
		delta = -delta
	}
	attrs := metric.WithAttributes(
		attribute.String("counter_key", keyFamily(key)),
		attribute.String("direction", direction),
	)
	m.changes.Add(ctx, 1, attrs)
	m.delta.Add(ctx, delta, attrs)
}

// keyFamily folds per-entity keys such as NEW_ORDER:RATINGS:42 into
// NEW_ORDER:RATINGS:* to bound attribute cardinality.
func keyFamily(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i < 0 || i == len(key)-1 {
		return key
	}
	for _, r := range key[i+1:] {
		if r < '0' || r > '9' {
			return key
		}
	}
	return key[:i+1] + "*"
}
