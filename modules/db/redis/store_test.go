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
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"neworder/modules/counter"
)

func newMockStore(t *testing.T) (*mock.Client, *CounterStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	return client, NewCounterStore(client, WithStoreKeyPrefix("test"))
}

func TestCounterStoreHash(t *testing.T) {
	ctx := context.Background()
	client, store := newMockStore(t)

	client.EXPECT().Do(ctx, mock.Match("HGET", "test:NEW_ORDER:EXP", "7")).
		Return(mock.Result(mock.RedisNil()))
	client.EXPECT().Do(ctx, mock.Match("HSETNX", "test:NEW_ORDER:EXP", "7", "0")).
		Return(mock.Result(mock.RedisInt64(1)))
	client.EXPECT().Do(ctx, mock.Match("HEXPIRE", "test:NEW_ORDER:EXP", "86400", "FIELDS", "1", "7")).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(1))))
	client.EXPECT().Do(ctx, mock.Match("HINCRBY", "test:NEW_ORDER:EXP", "7", "-3")).
		Return(mock.Result(mock.RedisInt64(-3)))
	client.EXPECT().Do(ctx, mock.Match("HGETALL", "test:NEW_ORDER:EXP")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("7"), mock.RedisString("-3"))))

	_, ok, err := store.HGet(ctx, "NEW_ORDER:EXP", "7")
	require.NoError(t, err)
	assert.False(t, ok)

	created, err := store.HSetNX(ctx, "NEW_ORDER:EXP", "7", 0)
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, store.HExpire(ctx, "NEW_ORDER:EXP", "7", 24*time.Hour))

	v, err := store.HIncrBy(ctx, "NEW_ORDER:EXP", "7", -3)
	require.NoError(t, err)
	assert.Equal(t, int64(-3), v)

	all, err := store.HGetAll(ctx, "NEW_ORDER:EXP")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"7": -3}, all)
}

func TestCounterStoreSortedSet(t *testing.T) {
	ctx := context.Background()
	client, store := newMockStore(t)

	client.EXPECT().Do(ctx, mock.Match("ZADD", "test:NEW_ORDER:FERVOR", "NX", "0", "a")).
		Return(mock.Result(mock.RedisInt64(0)))
	client.EXPECT().Do(ctx, mock.Match("ZSCORE", "test:NEW_ORDER:FERVOR", "a")).
		Return(mock.Result(mock.RedisString("12")))
	client.EXPECT().Do(ctx, mock.Match("ZINCRBY", "test:NEW_ORDER:FERVOR", "2", "a")).
		Return(mock.Result(mock.RedisString("14")))
	client.EXPECT().Do(ctx, mock.Match("ZRANGE", "test:NEW_ORDER:FERVOR", "+inf", "-inf", "BYSCORE", "REV", "LIMIT", "0", "2", "WITHSCORES")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString("b"), mock.RedisString("30"),
			mock.RedisString("a"), mock.RedisString("14"),
		)))
	client.EXPECT().Do(ctx, mock.Match("EXPIRE", "test:NEW_ORDER:FERVOR", "604800")).
		Return(mock.Result(mock.RedisInt64(1)))

	added, err := store.ZAddNX(ctx, "NEW_ORDER:FERVOR", "a", 0)
	require.NoError(t, err)
	assert.False(t, added)

	score, ok, err := store.ZScore(ctx, "NEW_ORDER:FERVOR", "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 12.0, score)

	score, err = store.ZIncrBy(ctx, "NEW_ORDER:FERVOR", "a", 2)
	require.NoError(t, err)
	assert.Equal(t, 14.0, score)

	members, err := store.ZRangeWithScores(ctx, "NEW_ORDER:FERVOR", counter.ScoreRange{
		Max: "+inf", Min: "-inf", Rev: true, Count: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []counter.ScoredMember{{Member: "b", Score: 30}, {Member: "a", Score: 14}}, members)

	require.NoError(t, store.Expire(ctx, "NEW_ORDER:FERVOR", 7*24*time.Hour))
}

func TestCounterStoreErrors(t *testing.T) {
	ctx := context.Background()
	client, store := newMockStore(t)
	errDown := errors.New("connection refused")

	client.EXPECT().Do(ctx, mock.Match("ZSCORE", "test:K", "a")).
		Return(mock.ErrorResult(errDown))
	client.EXPECT().Do(ctx, mock.Match("DEL", "test:K")).
		Return(mock.ErrorResult(errDown))

	_, _, err := store.ZScore(ctx, "K", "a")
	assert.ErrorIs(t, err, errDown)

	err = store.Del(ctx, "K")
	assert.ErrorIs(t, err, errDown)
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, int64(1), seconds(0))
	assert.Equal(t, int64(1), seconds(10*time.Millisecond))
	assert.Equal(t, int64(2), seconds(1500*time.Millisecond))
	assert.Equal(t, int64(86400), seconds(24*time.Hour))
}
