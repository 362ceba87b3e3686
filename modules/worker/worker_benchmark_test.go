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
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type entry struct {
	player int64
	amount int64
}

func entries(n int) []entry {
	out := make([]entry, n)
	for i := range out {
		out[i] = entry{player: int64(i), amount: int64(i%97 + 1)}
	}
	return out
}

// BenchmarkPayoutLedger pays into a shared, lock-guarded ledger, the way a
// payout run writes balances for many players at once.
func BenchmarkPayoutLedger(b *testing.B) {
	batch := entries(512)
	for _, size := range []int{1, 4, 16, 64} {
		b.Run(fmt.Sprintf("workers=%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				var mu sync.Mutex
				balances := make(map[int64]int64, len(batch))
				BlockingPool(context.Background(), size, Feed(batch), func(_ context.Context, e entry) {
					mu.Lock()
					balances[e.player] += e.amount
					mu.Unlock()
				})
			}
		})
	}
}

// BenchmarkPayoutRoundTrip models a store call per job. Throughput should
// scale with workers until the simulated latency is hidden.
func BenchmarkPayoutRoundTrip(b *testing.B) {
	batch := entries(64)
	for _, size := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("workers=%d", size), func(b *testing.B) {
			var paid atomic.Int64
			for b.Loop() {
				BlockingPool(context.Background(), size, Feed(batch), func(_ context.Context, e entry) {
					time.Sleep(50 * time.Microsecond)
					paid.Add(e.amount)
				})
			}
			b.ReportMetric(float64(paid.Load())/b.Elapsed().Seconds(), "buzz/s")
		})
	}
}

func BenchmarkFeed(b *testing.B) {
	batch := entries(4096)
	b.ReportAllocs()
	for b.Loop() {
		for range Feed(batch) {
		}
	}
}
