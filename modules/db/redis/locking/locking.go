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

package locking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"neworder/modules/clock"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidislock"
)

type TaskFunc func(ctx context.Context) error

// LockConfiguration bounds one locked task.
//
// LockAtMostFor becomes the task context deadline. LockAtLeastFor keeps the
// lock after an early return, so nodes with skewed tickers do not run the
// same interval twice.
type LockConfiguration struct {
	Name           string
	LockAtMostFor  time.Duration
	LockAtLeastFor time.Duration
}

var (
	// ErrLockNotAcquired means another node holds the lock.
	ErrLockNotAcquired      = errors.New("locking: lock not acquired")
	ErrInvalidConfiguration = errors.New("locking: invalid lock configuration")
)

// NewLocker builds a rueidislock.Locker over the same deployment as opt.
// keyMajority is 1 for a single Redis node.
func NewLocker(opt rueidis.ClientOption, keyPrefix string, keyMajority int32) (rueidislock.Locker, error) {
	if keyMajority <= 0 {
		keyMajority = 1
	}
	locker, err := rueidislock.NewLocker(rueidislock.LockerOption{
		ClientOption: opt,
		KeyPrefix:    keyPrefix,
		KeyMajority:  keyMajority,
	})
	if err != nil {
		return nil, fmt.Errorf("locking: new locker: %w", err)
	}
	return locker, nil
}

// LockingTaskExecutor runs tasks so that at most one node executes a given
// lock name at a time.
type LockingTaskExecutor struct {
	locker rueidislock.Locker
	logger *slog.Logger
	clock  clock.Clock

	// false tries once and returns ErrLockNotAcquired
	waitForLock    bool
	acquireTimeout time.Duration
	namePrefix     string
}

type Option func(*LockingTaskExecutor)

func WithLogger(l *slog.Logger) Option {
	return func(e *LockingTaskExecutor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithWaitForLock makes Execute block until the lock frees up.
func WithWaitForLock(wait bool) Option {
	return func(e *LockingTaskExecutor) {
		e.waitForLock = wait
	}
}

// WithAcquireTimeout bounds the wait when WithWaitForLock is set.
func WithAcquireTimeout(d time.Duration) Option {
	return func(e *LockingTaskExecutor) {
		e.acquireTimeout = d
	}
}

// WithNamePrefix prepends prefix to every lock name.
func WithNamePrefix(prefix string) Option {
	return func(e *LockingTaskExecutor) {
		e.namePrefix = prefix
	}
}

func WithClock(c clock.Clock) Option {
	return func(e *LockingTaskExecutor) {
		if c != nil {
			e.clock = c
		}
	}
}

func NewLockingTaskExecutor(locker rueidislock.Locker, opts ...Option) *LockingTaskExecutor {
	e := &LockingTaskExecutor{
		locker: locker,
		logger: slog.Default(),
		clock:  clock.RealClockProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Execute runs task while holding cfg.Name. The lock is released when
// Execute returns, after LockAtLeastFor has elapsed since the task started
// unless ctx is cancelled or the lock is lost first.
func (e *LockingTaskExecutor) Execute(ctx context.Context, cfg LockConfiguration, task TaskFunc) error {
	if task == nil {
		return errors.New("locking: task must not be nil")
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	name := e.namePrefix + cfg.Name
	log := e.logger.With(slog.String("lock.name", name))

	lockCtx, release, err := e.acquire(ctx, name)
	if err != nil {
		return err
	}
	defer release()

	taskCtx, cancel := lockCtx, context.CancelFunc(func() {})
	if cfg.LockAtMostFor > 0 {
		taskCtx, cancel = context.WithTimeout(lockCtx, cfg.LockAtMostFor)
	}
	defer cancel()

	started := e.clock.Now()
	err = task(taskCtx)
	log.DebugContext(ctx, "locking: task finished",
		slog.Duration("task.duration", e.clock.Now().Sub(started)),
		slog.Any("task.error", err))

	if cfg.LockAtLeastFor > 0 {
		e.holdUntil(ctx, lockCtx, started.Add(cfg.LockAtLeastFor))
	}
	return err
}

func (e *LockingTaskExecutor) acquire(ctx context.Context, name string) (context.Context, context.CancelFunc, error) {
	if !e.waitForLock {
		lockCtx, release, err := e.locker.TryWithContext(ctx, name)
		switch {
		case err == nil:
			return lockCtx, release, nil
		case errors.Is(err, rueidislock.ErrNotLocked):
			return nil, nil, ErrLockNotAcquired
		default:
			return nil, nil, fmt.Errorf("locking: try-acquire %q: %w", name, err)
		}
	}

	acquireCtx := ctx
	if e.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, e.acquireTimeout)
		defer cancel()
	}

	lockCtx, release, err := e.locker.WithContext(acquireCtx, name)
	switch {
	case err == nil:
		return lockCtx, release, nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return nil, nil, err
	default:
		return nil, nil, fmt.Errorf("locking: acquire %q: %w", name, err)
	}
}

// holdUntil blocks until the deadline, the caller giving up, or the lock
// being lost, whichever comes first.
func (e *LockingTaskExecutor) holdUntil(ctx, lockCtx context.Context, until time.Time) {
	wait := until.Sub(e.clock.Now())
	if wait <= 0 {
		return
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	case <-lockCtx.Done():
	}
}

func validateConfig(cfg LockConfiguration) error {
	switch {
	case cfg.Name == "":
		return fmt.Errorf("%w: lock name must not be empty", ErrInvalidConfiguration)
	case cfg.LockAtMostFor < 0, cfg.LockAtLeastFor < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfiguration)
	case cfg.LockAtMostFor > 0 && cfg.LockAtLeastFor > cfg.LockAtMostFor:
		return fmt.Errorf("%w: lockAtLeastFor (%s) > lockAtMostFor (%s)",
			ErrInvalidConfiguration, cfg.LockAtLeastFor, cfg.LockAtMostFor)
	}
	return nil
}
