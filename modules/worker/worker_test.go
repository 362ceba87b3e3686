// Copyright 2025 Nguyen Nhat Nguyen
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

package worker

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockingPoolDrainsJobs(t *testing.T) {
	jobs := make([]int64, 100)
	for i := range jobs {
		jobs[i] = int64(i + 1)
	}

	var sum atomic.Int64
	BlockingPool(context.Background(), 4, Feed(jobs), func(_ context.Context, j int64) {
		sum.Add(j)
	})

	assert.Equal(t, int64(5050), sum.Load())
}

func TestBlockingPoolSurvivesPanics(t *testing.T) {
	var done atomic.Int32
	BlockingPool(context.Background(), 2, Feed([]int{1, 2, 3, 4}), func(_ context.Context, j int) {
		if j%2 == 0 {
			panic("even job")
		}
		done.Add(1)
	})

	assert.Equal(t, int32(2), done.Load())
}

func TestBlockingPoolStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// never closed; only cancellation can release the pool
	jobs := make(chan int)
	BlockingPool(ctx, 3, jobs, func(context.Context, int) {
		t.Fatal("no job expected")
	})
}

func TestBlockingPoolDefaultsSize(t *testing.T) {
	var n atomic.Int32
	BlockingPool(context.Background(), 0, Feed([]int{1, 2}), func(context.Context, int) {
		n.Add(1)
	})
	assert.Equal(t, int32(2), n.Load())
}
