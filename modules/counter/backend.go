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
	"errors"
	"math"
	"time"
)

// populateAttempts bounds the NX write when the member vanishes between a
// lost NX write and the re-read. Every seeded member carries a TTL.
const populateAttempts = 2

var errPopulateRace = errors.New("counter: member removed while being populated")

// backend maps counter operations onto one family of store primitives.
type backend interface {
	get(ctx context.Context, key, member string) (int64, bool, error)
	// populate seeds member with value unless another writer already did.
	// It returns the value now stored and whether this call seeded it.
	populate(ctx context.Context, key, member string, value int64, ttl time.Duration) (int64, bool, error)
	add(ctx context.Context, key, member string, delta int64) (int64, error)
	all(ctx context.Context, key string, limit int) ([]Entry, error)
	exists(ctx context.Context, key, member string) (bool, error)
	remove(ctx context.Context, key, member string) error
	drop(ctx context.Context, key string) error
}

var (
	_ backend = hashBackend{}
	_ backend = sortedSetBackend{}
)

type hashBackend struct {
	store Store
}

func (b hashBackend) get(ctx context.Context, key, member string) (int64, bool, error) {
	return b.store.HGet(ctx, key, member)
}

func (b hashBackend) populate(ctx context.Context, key, member string, value int64, ttl time.Duration) (int64, bool, error) {
	for range populateAttempts {
		created, err := b.store.HSetNX(ctx, key, member, value)
		if err != nil {
			return 0, false, err
		}
		if created {
			if err := b.store.HExpire(ctx, key, member, ttl); err != nil {
				return 0, false, err
			}
			return value, true, nil
		}

		stored, ok, err := b.store.HGet(ctx, key, member)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return stored, false, nil
		}
		// the winner's field expired or was reset before the re-read
	}
	return 0, false, errPopulateRace
}

func (b hashBackend) add(ctx context.Context, key, member string, delta int64) (int64, error) {
	return b.store.HIncrBy(ctx, key, member, delta)
}

func (b hashBackend) all(ctx context.Context, key string, limit int) ([]Entry, error) {
	fields, err := b.store.HGetAll(ctx, key)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, min(len(fields), limit))
	for id, count := range fields {
		if len(entries) == limit {
			break
		}
		entries = append(entries, Entry{ID: id, Count: count})
	}
	return entries, nil
}

func (b hashBackend) exists(ctx context.Context, key, member string) (bool, error) {
	return b.store.HExists(ctx, key, member)
}

func (b hashBackend) remove(ctx context.Context, key, member string) error {
	return b.store.HDel(ctx, key, member)
}

func (b hashBackend) drop(ctx context.Context, key string) error {
	return b.store.Del(ctx, key)
}

type sortedSetBackend struct {
	store Store
}

func (b sortedSetBackend) get(ctx context.Context, key, member string) (int64, bool, error) {
	score, ok, err := b.store.ZScore(ctx, key, member)
	if err != nil || !ok {
		return 0, ok, err
	}
	return scoreToCount(score), true, nil
}

func (b sortedSetBackend) populate(ctx context.Context, key, member string, value int64, ttl time.Duration) (int64, bool, error) {
	for range populateAttempts {
		added, err := b.store.ZAddNX(ctx, key, member, float64(value))
		if err != nil {
			return 0, false, err
		}
		if added {
			if err := b.store.Expire(ctx, key, ttl); err != nil {
				return 0, false, err
			}
			return value, true, nil
		}

		stored, ok, err := b.get(ctx, key, member)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return stored, false, nil
		}
	}
	return 0, false, errPopulateRace
}

func (b sortedSetBackend) add(ctx context.Context, key, member string, delta int64) (int64, error) {
	score, err := b.store.ZIncrBy(ctx, key, member, float64(delta))
	if err != nil {
		return 0, err
	}
	return scoreToCount(score), nil
}

func (b sortedSetBackend) all(ctx context.Context, key string, limit int) ([]Entry, error) {
	members, err := b.store.ZRangeWithScores(ctx, key, ScoreRange{
		Max:    "+inf",
		Min:    "-inf",
		Rev:    true,
		Offset: 0,
		Count:  int64(limit),
	})
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(members))
	for i, m := range members {
		entries[i] = Entry{ID: m.Member, Count: scoreToCount(m.Score)}
	}
	return entries, nil
}

func (b sortedSetBackend) exists(ctx context.Context, key, member string) (bool, error) {
	_, ok, err := b.store.ZScore(ctx, key, member)
	return ok, err
}

func (b sortedSetBackend) remove(ctx context.Context, key, member string) error {
	return b.store.ZRem(ctx, key, member)
}

func (b sortedSetBackend) drop(ctx context.Context, key string) error {
	return b.store.Del(ctx, key)
}

// scoreToCount converts a sorted-set score back to an integer count.
// Counters only ever write integral scores.
func scoreToCount(score float64) int64 {
	return int64(math.Round(score))
}
