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

// Package jobs runs periodic New Order work under a distributed lock.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"neworder/core/neworder/domain"
	"neworder/modules/db/redis/locking"
)

// Executor runs a task while holding the named lock.
type Executor interface {
	Execute(ctx context.Context, cfg locking.LockConfiguration, task locking.TaskFunc) error
}

type Payouter interface {
	Payout(ctx context.Context) (*domain.PayoutRun, error)
}

// RunRecorder receives the outcome of every tick.
type RunRecorder interface {
	RecordRun(ctx context.Context, outcome string, players int, total int64, failed int)
}

// PayoutJob pays out blessed buzz once per interval on a single node.
type PayoutJob struct {
	app      Payouter
	exec     Executor
	lock     locking.LockConfiguration
	interval time.Duration
	metrics  RunRecorder
}

type JobOption func(*PayoutJob)

func WithRunRecorder(r RunRecorder) JobOption {
	return func(j *PayoutJob) {
		j.metrics = r
	}
}

func NewPayoutJob(app Payouter, exec Executor, interval time.Duration, lock locking.LockConfiguration, opts ...JobOption) *PayoutJob {
	if lock.Name == "" {
		lock.Name = "buzz-payout"
	}
	j := &PayoutJob{app: app, exec: exec, lock: lock, interval: interval}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run ticks until ctx is done. A non-positive interval disables the job.
func (j *PayoutJob) Run(ctx context.Context) {
	if j.interval <= 0 {
		slog.InfoContext(ctx, "buzz payout job disabled")
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Tick(ctx)
		}
	}
}

// Tick runs one payout if this node wins the lock.
func (j *PayoutJob) Tick(ctx context.Context) {
	var run *domain.PayoutRun
	err := j.exec.Execute(ctx, j.lock, func(lockCtx context.Context) error {
		var err error
		run, err = j.app.Payout(lockCtx)
		return err
	})

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, locking.ErrLockNotAcquired):
		outcome = "skipped"
		slog.DebugContext(ctx, "buzz payout held by another node", slog.String("lock", j.lock.Name))
	default:
		outcome = "error"
		slog.ErrorContext(ctx, "buzz payout failed", slog.Any("error", err))
	}

	if j.metrics == nil {
		return
	}
	if run == nil {
		run = &domain.PayoutRun{}
	}
	j.metrics.RecordRun(ctx, outcome, run.Players, run.Total, run.Failed)
}

// LocalExecutor runs tasks without a distributed lock, for single node setups.
type LocalExecutor struct{}

func (LocalExecutor) Execute(ctx context.Context, cfg locking.LockConfiguration, task locking.TaskFunc) error {
	if cfg.LockAtMostFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.LockAtMostFor)
		defer cancel()
	}
	return task(ctx)
}
