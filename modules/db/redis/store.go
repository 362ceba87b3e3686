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

package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"neworder/modules/counter"

	"github.com/redis/rueidis"
)

var _ counter.Store = (*CounterStore)(nil)

// CounterStore implements counter.Store on top of a rueidis.Client.
//
// Every method is a single command so it is safe against cluster deployments.
type CounterStore struct {
	client rueidis.Client
	prefix string
}

type CounterStoreOption func(*CounterStore)

// WithStoreKeyPrefix scopes all counter keys under a prefix.
func WithStoreKeyPrefix(prefix string) CounterStoreOption {
	return func(s *CounterStore) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" && !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		s.prefix = prefix
	}
}

func NewCounterStore(client rueidis.Client, opts ...CounterStoreOption) *CounterStore {
	s := &CounterStore{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *CounterStore) key(raw string) string {
	return s.prefix + raw
}

// seconds rounds ttl up to whole seconds, Redis rejects a zero TTL.
func seconds(ttl time.Duration) int64 {
	sec := int64((ttl + time.Second - 1) / time.Second)
	if sec <= 0 {
		sec = 1
	}
	return sec
}

func (s *CounterStore) HSet(ctx context.Context, key, field string, value int64) error {
	cmd := s.client.B().Hset().Key(s.key(key)).FieldValue().FieldValue(field, strconv.FormatInt(value, 10)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis counter store HSET: %w", err)
	}
	return nil
}

func (s *CounterStore) HSetNX(ctx context.Context, key, field string, value int64) (bool, error) {
	cmd := s.client.B().Hsetnx().Key(s.key(key)).Field(field).Value(strconv.FormatInt(value, 10)).Build()
	created, err := s.client.Do(ctx, cmd).AsBool()
	if err != nil {
		return false, fmt.Errorf("redis counter store HSETNX: %w", err)
	}
	return created, nil
}

func (s *CounterStore) HGet(ctx context.Context, key, field string) (int64, bool, error) {
	cmd := s.client.B().Hget().Key(s.key(key)).Field(field).Build()
	v, err := s.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis counter store HGET: %w", err)
	}
	return v, true, nil
}

func (s *CounterStore) HGetAll(ctx context.Context, key string) (map[string]int64, error) {
	cmd := s.client.B().Hgetall().Key(s.key(key)).Build()
	m, err := s.client.Do(ctx, cmd).AsIntMap()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return map[string]int64{}, nil
		}
		return nil, fmt.Errorf("redis counter store HGETALL: %w", err)
	}
	return m, nil
}

func (s *CounterStore) HDel(ctx context.Context, key, field string) error {
	cmd := s.client.B().Hdel().Key(s.key(key)).Field(field).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis counter store HDEL: %w", err)
	}
	return nil
}

func (s *CounterStore) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	cmd := s.client.B().Hincrby().Key(s.key(key)).Field(field).Increment(delta).Build()
	v, err := s.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("redis counter store HINCRBY: %w", err)
	}
	return v, nil
}

// HExpire requires Redis >= 7.4.
func (s *CounterStore) HExpire(ctx context.Context, key, field string, ttl time.Duration) error {
	cmd := s.client.B().Hexpire().Key(s.key(key)).Seconds(seconds(ttl)).Fields().Numfields(1).Field(field).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis counter store HEXPIRE: %w", err)
	}
	return nil
}

func (s *CounterStore) HExists(ctx context.Context, key, field string) (bool, error) {
	cmd := s.client.B().Hexists().Key(s.key(key)).Field(field).Build()
	ok, err := s.client.Do(ctx, cmd).AsBool()
	if err != nil {
		return false, fmt.Errorf("redis counter store HEXISTS: %w", err)
	}
	return ok, nil
}

func (s *CounterStore) ZAdd(ctx context.Context, key, member string, score float64) error {
	cmd := s.client.B().Zadd().Key(s.key(key)).ScoreMember().ScoreMember(score, member).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis counter store ZADD: %w", err)
	}
	return nil
}

func (s *CounterStore) ZAddNX(ctx context.Context, key, member string, score float64) (bool, error) {
	cmd := s.client.B().Zadd().Key(s.key(key)).Nx().ScoreMember().ScoreMember(score, member).Build()
	added, err := s.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return false, fmt.Errorf("redis counter store ZADD NX: %w", err)
	}
	return added == 1, nil
}

func (s *CounterStore) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	cmd := s.client.B().Zscore().Key(s.key(key)).Member(member).Build()
	score, err := s.client.Do(ctx, cmd).AsFloat64()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis counter store ZSCORE: %w", err)
	}
	return score, true, nil
}

func (s *CounterStore) ZIncrBy(ctx context.Context, key, member string, delta float64) (float64, error) {
	cmd := s.client.B().Zincrby().Key(s.key(key)).Increment(delta).Member(member).Build()
	score, err := s.client.Do(ctx, cmd).AsFloat64()
	if err != nil {
		return 0, fmt.Errorf("redis counter store ZINCRBY: %w", err)
	}
	return score, nil
}

func (s *CounterStore) ZRem(ctx context.Context, key, member string) error {
	cmd := s.client.B().Zrem().Key(s.key(key)).Member(member).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis counter store ZREM: %w", err)
	}
	return nil
}

// ZRangeWithScores issues ZRANGE key start stop BYSCORE [REV] LIMIT offset count WITHSCORES.
// With REV the range starts at the maximum.
func (s *CounterStore) ZRangeWithScores(ctx context.Context, key string, r counter.ScoreRange) ([]counter.ScoredMember, error) {
	k := s.key(key)

	var cmd rueidis.Completed
	if r.Rev {
		cmd = s.client.B().Zrange().Key(k).Min(r.Max).Max(r.Min).Byscore().Rev().
			Limit(r.Offset, r.Count).Withscores().Build()
	} else {
		cmd = s.client.B().Zrange().Key(k).Min(r.Min).Max(r.Max).Byscore().
			Limit(r.Offset, r.Count).Withscores().Build()
	}

	scores, err := s.client.Do(ctx, cmd).AsZScores()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return []counter.ScoredMember{}, nil
		}
		return nil, fmt.Errorf("redis counter store ZRANGE: %w", err)
	}

	members := make([]counter.ScoredMember, len(scores))
	for i, z := range scores {
		members[i] = counter.ScoredMember{Member: z.Member, Score: z.Score}
	}
	return members, nil
}

func (s *CounterStore) Del(ctx context.Context, key string) error {
	cmd := s.client.B().Del().Key(s.key(key)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis counter store DEL: %w", err)
	}
	return nil
}

func (s *CounterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	cmd := s.client.B().Expire().Key(s.key(key)).Seconds(seconds(ttl)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis counter store EXPIRE: %w", err)
	}
	return nil
}

// HealthCheck pings the server, for readiness probes.
func (s *CounterStore) HealthCheck(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}
