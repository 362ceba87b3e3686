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

package db

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSONKV wraps a KV and transparently JSON-encodes/decodes values of type T.
//
//	kv := redis.NewRedisKV(client, redis.WithKeyPrefix("neworder"))
//	runs := NewJSONKV[domain.PayoutRun](kv)
//	prev, _ := runs.Set(ctx, "payout:last", run)
//	last, _ := runs.Get(ctx, "payout:last")
type JSONKV[T any] struct {
	KV
}

func NewJSONKV[T any](kv KV) JSONKV[T] {
	return JSONKV[T]{KV: kv}
}

// Get returns the decoded value at key, nil when missing.
func (j JSONKV[T]) Get(ctx context.Context, key string) (*T, error) {
	raw, err := j.KV.AtomicGet(ctx, key)
	if err != nil {
		return nil, err
	}
	return decode[T](key, raw)
}

// Set atomically sets key to value and returns the previous value, if any.
func (j JSONKV[T]) Set(ctx context.Context, key string, value T) (*T, error) {
	prev, err := j.KV.AtomicSet(ctx, key, value)
	if err != nil {
		return nil, err
	}
	return decode[T](key, prev)
}

func decode[T any](key string, raw any) (*T, error) {
	if raw == nil {
		return nil, nil
	}

	var bs []byte
	switch x := raw.(type) {
	case []byte:
		bs = x
	case string:
		bs = []byte(x)
	default:
		return nil, fmt.Errorf("jsonkv: expected []byte for key %q, got %T", key, raw)
	}

	var v T
	if err := json.Unmarshal(bs, &v); err != nil {
		return nil, fmt.Errorf("jsonkv: decode %q: %w", key, err)
	}
	return &v, nil
}
