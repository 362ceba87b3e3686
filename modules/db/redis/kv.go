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
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"neworder/modules/db"

	"github.com/redis/rueidis"
)

var (
	_ db.KV = (*RedisKV)(nil)

	//go:embed atomic_set.lua
	atomicSetLua string

	// GET the previous value, then SET with an optional EX in one round-trip.
	//
	//   - KEYS[1] = full key
	//   - ARGV[1] = serialized value
	//   - ARGV[2] = TTL in seconds, empty for none
	luaAtomicSet = rueidis.NewLuaScript(atomicSetLua)
)

// RedisKV is a rueidis-backed db.KV used for small snapshots such as the
// last payout run.
type RedisKV struct {
	client rueidis.Client

	// prefix is empty or ends with ":".
	prefix string

	// ttl is applied on every AtomicSet when > 0.
	ttl time.Duration
}

type RedisKVOption func(*RedisKV)

// WithKeyPrefix scopes all keys under a prefix.
// Example: WithKeyPrefix("neworder:dev") stores "payout:last" as "neworder:dev:payout:last".
func WithKeyPrefix(prefix string) RedisKVOption {
	return func(k *RedisKV) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" && !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		k.prefix = prefix
	}
}

// WithDefaultTTL expires every written key after ttl. A value <= 0 means no TTL.
func WithDefaultTTL(ttl time.Duration) RedisKVOption {
	return func(k *RedisKV) {
		k.ttl = ttl
	}
}

func NewRedisKV(client rueidis.Client, opts ...RedisKVOption) *RedisKV {
	kv := &RedisKV{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(kv)
		}
	}
	return kv
}

func (k *RedisKV) key(raw string) string {
	return k.prefix + raw
}

// AtomicGet returns the raw []byte stored at key, or (nil, nil) when missing.
func (k *RedisKV) AtomicGet(ctx context.Context, key string) (any, error) {
	bs, err := k.client.Do(ctx, k.client.B().Get().Key(k.key(key)).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis kv: AtomicGet %q failed: %w", key, err)
	}
	return bs, nil
}

// AtomicSet stores value and returns the previous raw []byte, or nil if none.
func (k *RedisKV) AtomicSet(ctx context.Context, key string, value any) (any, error) {
	serialized, err := encodeValue(value)
	if err != nil {
		return nil, fmt.Errorf("redis kv: encode value for key %q: %w", key, err)
	}

	ttlArg := ""
	if k.ttl > 0 {
		ttlArg = strconv.FormatInt(seconds(k.ttl), 10)
	}

	bs, err := luaAtomicSet.Exec(ctx, k.client, []string{k.key(key)}, []string{serialized, ttlArg}).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis kv: AtomicSet %q failed: %w", key, err)
	}
	return bs, nil
}

// encodeValue serializes a value into a Redis string.
//
//   - string → as-is
//   - []byte → BinaryString (no extra alloc)
//   - everything else → JSON
func encodeValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", errors.New("redis kv: nil values are not allowed")
	case string:
		return x, nil
	case []byte:
		return rueidis.BinaryString(x), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return rueidis.BinaryString(b), nil
	}
}
