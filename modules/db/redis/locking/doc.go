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

// Package locking runs scheduled tasks under a rueidislock distributed lock so
// that at most one node executes a task per interval.
//
// Typical wiring for a periodic job:
//
//	opt, _ := redis.ClientOption(cfg.Redis)
//	locker, _ := locking.NewLocker(opt, "neworder:locks", 1)
//	defer locker.Close()
//
//	exec := locking.NewLockingTaskExecutor(locker,
//		locking.WithLogger(slog.Default()),
//		locking.WithNamePrefix("neworder:"),
//	)
//
//	job := locking.LockConfiguration{
//		Name:           "payout",
//		LockAtMostFor:  2 * time.Minute,
//		LockAtLeastFor: 30 * time.Second,
//	}
//
//	err := exec.Execute(ctx, job, func(ctx context.Context) error {
//		_, err := svc.Payout(ctx)
//		return err
//	})
//	if errors.Is(err, locking.ErrLockNotAcquired) {
//		// another node runs it this round
//	}
package locking
