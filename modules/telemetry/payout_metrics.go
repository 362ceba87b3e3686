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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PayoutMetrics tracks buzz payout runs.
type PayoutMetrics struct {
	runs    metric.Int64Counter
	paid    metric.Int64Counter
	players metric.Int64Counter
	failed  metric.Int64Counter
}

func NewPayoutMetrics(serviceName string) (*PayoutMetrics, error) {
	return newPayoutMetrics(otel.Meter(serviceName))
}

func newPayoutMetrics(meter metric.Meter) (*PayoutMetrics, error) {
	runs, err := meter.Int64Counter("payout_runs_total",
		metric.WithDescription("Payout runs by outcome"),
		metric.WithUnit("{run}"))
	if err != nil {
		return nil, err
	}
	paid, err := meter.Int64Counter("payout_buzz_total",
		metric.WithDescription("Buzz transferred to players"))
	if err != nil {
		return nil, err
	}
	players, err := meter.Int64Counter("payout_players_total",
		metric.WithDescription("Players paid"),
		metric.WithUnit("{player}"))
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter("payout_failures_total",
		metric.WithDescription("Players whose transfer failed and kept their balance"),
		metric.WithUnit("{player}"))
	if err != nil {
		return nil, err
	}
	return &PayoutMetrics{runs: runs, paid: paid, players: players, failed: failed}, nil
}

// RecordRun records a finished run. outcome is "ok", "skipped" or "error".
func (m *PayoutMetrics) RecordRun(ctx context.Context, outcome string, players int, total int64, failed int) {
	m.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if players > 0 {
		m.players.Add(ctx, int64(players))
	}
	if total > 0 {
		m.paid.Add(ctx, total)
	}
	if failed > 0 {
		m.failed.Add(ctx, int64(failed))
	}
}
