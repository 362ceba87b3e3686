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

package counter

import (
	"context"
	"time"
)

type (
	// HashStore covers the field→integer map primitives of the backing store.
	//
	// Lookups report a missing field with ok == false rather than an error.
	HashStore interface {
		HSet(ctx context.Context, key, field string, value int64) error
		// HSetNX writes the field only if it does not exist yet and
		// reports whether this call created it.
		HSetNX(ctx context.Context, key, field string, value int64) (bool, error)
		HGet(ctx context.Context, key, field string) (value int64, ok bool, err error)
		HGetAll(ctx context.Context, key string) (map[string]int64, error)
		HDel(ctx context.Context, key, field string) error
		HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)
		// HExpire sets a TTL on a single field (Redis >= 7.4 HEXPIRE).
		HExpire(ctx context.Context, key, field string, ttl time.Duration) error
		HExists(ctx context.Context, key, field string) (bool, error)
	}

	// SortedSetStore covers the score-ranked primitives of the backing store.
	SortedSetStore interface {
		ZAdd(ctx context.Context, key, member string, score float64) error
		// ZAddNX adds the member only if absent and reports whether it was added.
		ZAddNX(ctx context.Context, key, member string, score float64) (bool, error)
		ZScore(ctx context.Context, key, member string) (score float64, ok bool, err error)
		ZIncrBy(ctx context.Context, key, member string, delta float64) (float64, error)
		ZRem(ctx context.Context, key, member string) error
		ZRangeWithScores(ctx context.Context, key string, r ScoreRange) ([]ScoredMember, error)
	}

	// Store is the key-value backing store every counter persists into.
	Store interface {
		HashStore
		SortedSetStore

		Del(ctx context.Context, key string) error
		Expire(ctx context.Context, key string, ttl time.Duration) error
	}

	// ScoreRange selects members with Min <= score <= Max, ordered ascending
	// or, with Rev, descending, then skips Offset and keeps at most Count.
	// A negative Count keeps everything.
	//
	// Max and Min accept the Redis score syntax ("+inf", "-inf", "10").
	ScoreRange struct {
		Max    string
		Min    string
		Rev    bool
		Offset int64
		Count  int64
	}

	ScoredMember struct {
		Member string
		Score  float64
	}
)
