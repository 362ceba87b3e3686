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

// Package counter implements named counters that live in a key-value store
// and are lazily seeded from a source of truth on first read.
//
// A counter is bound to a single store key. Unordered counters keep one hash
// field per entity with a per-field TTL; ordered counters keep one sorted-set
// member per entity and expire as a whole.
package counter

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ID is the set of entity identifier types a counter accepts.
type ID interface {
	~int | ~int32 | ~int64 | ~string
}

// FetchFunc computes the authoritative count of an entity that has no entry
// in the store yet.
type FetchFunc[K ID] func(ctx context.Context, id K) (int64, error)

// Entry is one entity and its current count.
type Entry struct {
	ID    string
	Count int64
}

// Counter is a counter bound to one store key.
//
// Safe for concurrent use; all consistency is delegated to the store.
type Counter[K ID] struct {
	key      string
	fetch    FetchFunc[K]
	backend  backend
	ttl      time.Duration
	ordered  bool
	logger   *slog.Logger
	observer Observer
}

// New builds a counter over store at key. It performs no I/O.
//
// New panics on an empty key, a nil store or a nil fetch function.
func New[K ID](store Store, key string, fetch FetchFunc[K], opts ...Option) *Counter[K] {
	if store == nil {
		panic("counter: nil store")
	}
	if key == "" {
		panic("counter: empty key")
	}
	if fetch == nil {
		panic("counter: nil fetch function")
	}

	cfg := config{
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var b backend = hashBackend{store: store}
	if cfg.ordered {
		b = sortedSetBackend{store: store}
	}

	return &Counter[K]{
		key:      key,
		fetch:    fetch,
		backend:  b,
		ttl:      cfg.ttl,
		ordered:  cfg.ordered,
		logger:   cfg.logger.With(slog.String("counter", key)),
		observer: cfg.observer,
	}
}

// Constant returns a FetchFunc that always reports n.
func Constant[K ID](n int64) FetchFunc[K] {
	return func(context.Context, K) (int64, error) {
		return n, nil
	}
}

func (c *Counter[K]) Key() string {
	return c.key
}

func (c *Counter[K]) IsOrdered() bool {
	return c.ordered
}

func (c *Counter[K]) TTL() time.Duration {
	return c.ttl
}

// GetCount returns the current count of id. An entity without an entry is
// populated from the fetch function, stored with the counter TTL and returned.
func (c *Counter[K]) GetCount(ctx context.Context, id K) (int64, error) {
	member := fmt.Sprint(id)

	v, ok, err := c.backend.get(ctx, c.key, member)
	if err != nil {
		return 0, fmt.Errorf("counter %s get %s: %w", c.key, member, err)
	}
	if ok {
		return v, nil
	}

	fetched, err := c.fetch(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("counter %s fetch %s: %w", c.key, member, err)
	}

	stored, won, err := c.backend.populate(ctx, c.key, member, fetched, c.ttl)
	if err != nil {
		return 0, fmt.Errorf("counter %s populate %s: %w", c.key, member, err)
	}
	if won {
		c.logger.DebugContext(ctx, "counter populated",
			slog.String("id", member), slog.Int64("value", stored))
		if c.observer != nil {
			c.observer.Populated(ctx, c.key, stored)
		}
	}

	return stored, nil
}

// Increment adds |value| to the count of id and returns the new total.
// The entity is populated first when it has no entry.
func (c *Counter[K]) Increment(ctx context.Context, id K, value int64) (int64, error) {
	return c.add(ctx, id, abs(value))
}

// Decrement subtracts |value| from the count of id and returns the new total.
// The result may go below zero.
func (c *Counter[K]) Decrement(ctx context.Context, id K, value int64) (int64, error) {
	return c.add(ctx, id, -abs(value))
}

func (c *Counter[K]) add(ctx context.Context, id K, delta int64) (int64, error) {
	if _, err := c.GetCount(ctx, id); err != nil {
		return 0, err
	}

	member := fmt.Sprint(id)
	total, err := c.backend.add(ctx, c.key, member, delta)
	if err != nil {
		return 0, fmt.Errorf("counter %s add %s: %w", c.key, member, err)
	}
	if c.observer != nil {
		c.observer.Changed(ctx, c.key, delta)
	}

	return total, nil
}

// GetAll returns up to limit entity ids. Ordered counters return them by
// descending count; unordered counters return them in store order.
// A limit <= 0 means DefaultLimit.
func (c *Counter[K]) GetAll(ctx context.Context, limit int) ([]string, error) {
	entries, err := c.GetAllWithCounts(ctx, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids, nil
}

// GetAllWithCounts is GetAll with the count of each entity attached.
func (c *Counter[K]) GetAllWithCounts(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	entries, err := c.backend.all(ctx, c.key, limit)
	if err != nil {
		return nil, fmt.Errorf("counter %s get all: %w", c.key, err)
	}
	return entries, nil
}

// Exists reports whether id currently has an entry. It never populates.
func (c *Counter[K]) Exists(ctx context.Context, id K) (bool, error) {
	member := fmt.Sprint(id)

	ok, err := c.backend.exists(ctx, c.key, member)
	if err != nil {
		return false, fmt.Errorf("counter %s exists %s: %w", c.key, member, err)
	}
	return ok, nil
}

// Reset removes the entry of id. The next read repopulates it.
func (c *Counter[K]) Reset(ctx context.Context, id K) error {
	member := fmt.Sprint(id)

	if err := c.backend.remove(ctx, c.key, member); err != nil {
		return fmt.Errorf("counter %s reset %s: %w", c.key, member, err)
	}
	return nil
}

// ResetAll deletes the whole counter key.
func (c *Counter[K]) ResetAll(ctx context.Context) error {
	if err := c.backend.drop(ctx, c.key); err != nil {
		return fmt.Errorf("counter %s reset all: %w", c.key, err)
	}
	return nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
