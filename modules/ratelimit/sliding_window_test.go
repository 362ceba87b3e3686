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
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neworder/modules/clock"
)

type mapCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (m *mapCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.counts[key]++
	return m.counts[key], nil
}

func (m *mapCounter) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.counts[key], nil
}

func TestSlidingWindow(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Unix(600, 0))
	store := &mapCounter{counts: map[string]int64{}}
	limiter := SlidingWindowFactory(clk, store, "rl")(2, time.Minute)

	res, err := limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.Remaining)

	res, err = limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)

	res, err = limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Minute, res.RetryAfter)

	// other keys are unaffected
	res, err = limiter.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// two windows later the previous window no longer weighs in
	clk.Advance(150 * time.Second)
	res, err = limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(2), res.Limit)
	assert.Equal(t, 30*time.Second, res.WindowResetIn)
}

func TestSlidingWindowStoreError(t *testing.T) {
	errDown := errors.New("store down")
	store := &mapCounter{counts: map[string]int64{}, err: errDown}
	limiter := SlidingWindowFactory(clock.NewManual(time.Unix(0, 0)), store, "rl")(1, time.Second)

	_, err := limiter.Allow(context.Background(), "k")
	assert.ErrorIs(t, err, errDown)
}

func TestSlidingWindowInvalidLimit(t *testing.T) {
	store := &mapCounter{counts: map[string]int64{}}
	factory := SlidingWindowFactory(clock.NewManual(time.Unix(0, 0)), store, "rl")

	_, err := factory(0, time.Second).Allow(context.Background(), "k")
	assert.ErrorIs(t, err, ErrInvalidLimit)

	_, err = factory(1, 0).Allow(context.Background(), "k")
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestSlidingWindowWeightsPreviousWindow(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Unix(600, 0))
	store := &mapCounter{counts: map[string]int64{}}
	limiter := SlidingWindowFactory(clk, store, "rl")(4, time.Minute)

	for range 4 {
		res, err := limiter.Allow(ctx, "p")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	// halfway through the next window, half of the previous four still count
	clk.Advance(90 * time.Second)
	res, err := limiter.Allow(ctx, "p")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.Remaining)

	res, err = limiter.Allow(ctx, "p")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)

	res, err = limiter.Allow(ctx, "p")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 30*time.Second, res.RetryAfter)
}

func TestUint128CeilDiv(t *testing.T) {
	assert.Equal(t, uint64(3), mul128(5, 1).add(mul128(0, 0)).ceilDiv(2))
	assert.Equal(t, uint64(2), mul128(4, 1).ceilDiv(2))
	assert.Equal(t, uint64(math.MaxUint64), uint128{hi: 5}.ceilDiv(2))
}
