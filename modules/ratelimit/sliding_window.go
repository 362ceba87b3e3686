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

package ratelimit

import (
	"context"
	"math"
	"math/bits"
	"strconv"
	"time"

	"neworder/modules/clock"
)

var _ RateLimiter = (*SlidingWindowRateLimiter)(nil)

// SlidingWindowRateLimiter approximates a sliding window with two fixed
// windows: the current count plus the previous count weighted by how much of
// the previous window still overlaps.
type SlidingWindowRateLimiter struct {
	clock   clock.Clock
	counter CounterStore
	prefix  string

	limit  uint64
	window time.Duration
}

func SlidingWindowFactory(clock clock.Clock, counter CounterStore, keyPrefix string) LimiterFactory {
	return func(limit int64, window time.Duration) RateLimiter {
		return &SlidingWindowRateLimiter{
			clock:   clock,
			counter: counter,
			prefix:  keyPrefix,
			limit:   uint64(max(limit, 0)),
			window:  window,
		}
	}
}

func (s *SlidingWindowRateLimiter) Allow(ctx context.Context, key Key) (Result, error) {
	if s.limit == 0 || s.window <= 0 {
		return Result{}, ErrInvalidLimit
	}

	nowNs := s.clock.Now().UnixNano()
	windowNs := s.window.Nanoseconds()
	idx := nowNs / windowNs

	current, err := s.counter.Incr(ctx, s.windowKey(key, idx), 2*s.window)
	if err != nil {
		return Result{}, err
	}
	previous, err := s.counter.Get(ctx, s.windowKey(key, idx-1))
	if err != nil {
		return Result{}, err
	}

	elapsed := min(max(nowNs-idx*windowNs, 0), windowNs)
	resetIn := s.window - time.Duration(elapsed)

	// usage and limit are both scaled by the window length so the comparison
	// stays in integers
	usage := weightedUsage(uint64(max(current, 0)), uint64(max(previous, 0)), uint64(windowNs), uint64(windowNs-elapsed))
	budget := mul128(s.limit, uint64(windowNs))
	used := usage.ceilDiv(uint64(windowNs))

	res := Result{
		Allowed:       !budget.less(usage),
		Limit:         int64(s.limit),
		Window:        s.window,
		WindowResetIn: resetIn,
	}
	if used < s.limit {
		res.Remaining = int64(s.limit - used)
	}
	if !res.Allowed {
		res.RetryAfter = resetIn
	}
	return res, nil
}

func (s *SlidingWindowRateLimiter) windowKey(key Key, idx int64) string {
	return s.prefix + ":" + string(key) + ":" + strconv.FormatInt(idx, 10)
}

type uint128 struct{ hi, lo uint64 }

func mul128(a, b uint64) uint128 {
	hi, lo := bits.Mul64(a, b)
	return uint128{hi, lo}
}

func (u uint128) add(v uint128) uint128 {
	lo, carry := bits.Add64(u.lo, v.lo, 0)
	hi, _ := bits.Add64(u.hi, v.hi, carry)
	return uint128{hi, lo}
}

func (u uint128) less(v uint128) bool {
	return u.hi < v.hi || (u.hi == v.hi && u.lo < v.lo)
}

// ceilDiv saturates at MaxUint64 when the quotient does not fit.
func (u uint128) ceilDiv(d uint64) uint64 {
	if u.hi >= d {
		return math.MaxUint64
	}
	q, r := bits.Div64(u.hi, u.lo, d)
	if r != 0 && q != math.MaxUint64 {
		q++
	}
	return q
}

// weightedUsage is current*window + previous*overlap.
func weightedUsage(current, previous, window, overlap uint64) uint128 {
	return mul128(current, window).add(mul128(previous, overlap))
}
