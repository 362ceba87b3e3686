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

// Package memstore is an in-process counter.Store with Redis expiry and
// ordering semantics. Entries expire lazily on access.
package memstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"neworder/modules/clock"
	"neworder/modules/counter"
)

// ErrWrongType is returned when a key is used as both a hash and a sorted set.
var ErrWrongType = errors.New("memstore: operation against a key holding the wrong kind of value")

var _ counter.Store = (*Store)(nil)

type hashField struct {
	value    int64
	expireAt time.Time
}

type entry struct {
	hash     map[string]hashField
	zset     map[string]float64
	expireAt time.Time
}

type Store struct {
	mu    sync.Mutex
	clock clock.Clock
	keys  map[string]*entry
}

type Option func(*Store)

func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		clock: clock.RealClockProvider(),
		keys:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func expired(at, now time.Time) bool {
	return !at.IsZero() && !now.Before(at)
}

// lookup returns the live entry for key, evicting it or its stale fields.
// Callers hold s.mu.
func (s *Store) lookup(key string) *entry {
	e, ok := s.keys[key]
	if !ok {
		return nil
	}

	now := s.clock.Now()
	if expired(e.expireAt, now) {
		delete(s.keys, key)
		return nil
	}
	for f, hf := range e.hash {
		if expired(hf.expireAt, now) {
			delete(e.hash, f)
		}
	}
	if e.hash != nil && len(e.hash) == 0 {
		delete(s.keys, key)
		return nil
	}
	return e
}

func (s *Store) hash(key string, create bool) (map[string]hashField, error) {
	e := s.lookup(key)
	if e == nil {
		if !create {
			return nil, nil
		}
		e = &entry{hash: make(map[string]hashField)}
		s.keys[key] = e
	}
	if e.hash == nil {
		return nil, ErrWrongType
	}
	return e.hash, nil
}

func (s *Store) zset(key string, create bool) (map[string]float64, error) {
	e := s.lookup(key)
	if e == nil {
		if !create {
			return nil, nil
		}
		e = &entry{zset: make(map[string]float64)}
		s.keys[key] = e
	}
	if e.zset == nil {
		return nil, ErrWrongType
	}
	return e.zset, nil
}

func (s *Store) HSet(_ context.Context, key, field string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.hash(key, true)
	if err != nil {
		return err
	}
	// HSET keeps an existing field TTL.
	hf := h[field]
	hf.value = value
	h[field] = hf
	return nil
}

func (s *Store) HSetNX(_ context.Context, key, field string, value int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.hash(key, true)
	if err != nil {
		return false, err
	}
	if _, ok := h[field]; ok {
		return false, nil
	}
	h[field] = hashField{value: value}
	return true, nil
}

func (s *Store) HGet(_ context.Context, key, field string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.hash(key, false)
	if err != nil {
		return 0, false, err
	}
	hf, ok := h[field]
	return hf.value, ok, nil
}

func (s *Store) HGetAll(_ context.Context, key string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.hash(key, false)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(h))
	for f, hf := range h {
		out[f] = hf.value
	}
	return out, nil
}

func (s *Store) HDel(_ context.Context, key, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.hash(key, false)
	if err != nil || h == nil {
		return err
	}
	delete(h, field)
	if len(h) == 0 {
		delete(s.keys, key)
	}
	return nil
}

func (s *Store) HIncrBy(_ context.Context, key, field string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.hash(key, true)
	if err != nil {
		return 0, err
	}
	hf := h[field]
	hf.value += delta
	h[field] = hf
	return hf.value, nil
}

func (s *Store) HExpire(_ context.Context, key, field string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.hash(key, false)
	if err != nil || h == nil {
		return err
	}
	hf, ok := h[field]
	if !ok {
		return nil
	}
	hf.expireAt = s.clock.Now().Add(ttl)
	h[field] = hf
	return nil
}

func (s *Store) HExists(_ context.Context, key, field string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.hash(key, false)
	if err != nil {
		return false, err
	}
	_, ok := h[field]
	return ok, nil
}

func (s *Store) ZAdd(_ context.Context, key, member string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, err := s.zset(key, true)
	if err != nil {
		return err
	}
	z[member] = score
	return nil
}

func (s *Store) ZAddNX(_ context.Context, key, member string, score float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, err := s.zset(key, true)
	if err != nil {
		return false, err
	}
	if _, ok := z[member]; ok {
		return false, nil
	}
	z[member] = score
	return true, nil
}

func (s *Store) ZScore(_ context.Context, key, member string) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, err := s.zset(key, false)
	if err != nil {
		return 0, false, err
	}
	score, ok := z[member]
	return score, ok, nil
}

func (s *Store) ZIncrBy(_ context.Context, key, member string, delta float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, err := s.zset(key, true)
	if err != nil {
		return 0, err
	}
	z[member] += delta
	return z[member], nil
}

func (s *Store) ZRem(_ context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, err := s.zset(key, false)
	if err != nil || z == nil {
		return err
	}
	delete(z, member)
	if len(z) == 0 {
		delete(s.keys, key)
	}
	return nil
}

func (s *Store) ZRangeWithScores(_ context.Context, key string, r counter.ScoreRange) ([]counter.ScoredMember, error) {
	lower, err := parseScore(r.Min)
	if err != nil {
		return nil, err
	}
	upper, err := parseScore(r.Max)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	z, err := s.zset(key, false)
	if err != nil {
		return nil, err
	}

	members := make([]counter.ScoredMember, 0, len(z))
	for m, score := range z {
		if score >= lower && score <= upper {
			members = append(members, counter.ScoredMember{Member: m, Score: score})
		}
	}
	slices.SortFunc(members, func(a, b counter.ScoredMember) int {
		if c := cmp.Compare(a.Score, b.Score); c != 0 {
			return c
		}
		return strings.Compare(a.Member, b.Member)
	})
	if r.Rev {
		slices.Reverse(members)
	}

	if r.Offset >= int64(len(members)) {
		return []counter.ScoredMember{}, nil
	}
	members = members[max(r.Offset, 0):]
	if r.Count >= 0 && r.Count < int64(len(members)) {
		members = members[:r.Count]
	}
	return members, nil
}

func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys, key)
	return nil
}

func (s *Store) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(key)
	if e == nil {
		return nil
	}
	e.expireAt = s.clock.Now().Add(ttl)
	return nil
}

// parseScore understands the ZRANGE bound syntax used by counters.
// Exclusive "(" bounds are not supported.
func parseScore(s string) (float64, error) {
	switch s {
	case "+inf", "inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("memstore: invalid score bound %q: %w", s, err)
	}
	return f, nil
}
