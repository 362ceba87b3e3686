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

// Package ratelimit decides whether a caller may proceed within a time
// window. Storage is pluggable through CounterStore.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidLimit = errors.New("ratelimit: limit and window must be positive")

type (
	LimiterFactory func(limit int64, window time.Duration) RateLimiter

	// RateLimiter enforces time based limits such as 100 requests per minute.
	RateLimiter interface {
		Allow(ctx context.Context, key Key) (Result, error)
	}

	// Key identifies the caller, e.g. a remote IP or a player id.
	Key string

	Result struct {
		Allowed       bool
		Remaining     int64
		RetryAfter    time.Duration // zero when allowed
		Limit         int64
		Window        time.Duration
		WindowResetIn time.Duration
	}

	// CounterStore holds one counter per key and window. Implementations only
	// need increment-with-expiry and read.
	CounterStore interface {
		// Incr increments key and keeps it alive for at least ttl.
		Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
		// Get returns the value at key, 0 when missing.
		Get(ctx context.Context, key string) (int64, error)
	}
)
