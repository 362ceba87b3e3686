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

package domain

import (
	"context"
	"strconv"
	"time"

	"neworder/modules/counter"
)

const (
	KeyCorrectJudgements = "NEW_ORDER:JUDGEMENTS:CORRECT"
	KeyAllJudgements     = "NEW_ORDER:JUDGEMENTS:ALL"
	KeyFervor            = "NEW_ORDER:FERVOR"
	KeySmites            = "NEW_ORDER:SMITES"
	KeyBlessedBuzz       = "NEW_ORDER:BUZZ"
	KeyExp               = "NEW_ORDER:EXP"
	KeyQueuesPrefix      = "NEW_ORDER:QUEUES:"
	KeyRatingsPrefix     = "NEW_ORDER:RATINGS:"

	FervorTTL  = 7 * 24 * time.Hour
	QueueTTL   = 7 * 24 * time.Hour
	RatingsTTL = 24 * time.Hour
)

// Counters holds every New Order counter over one store.
type Counters struct {
	CorrectJudgements *counter.Counter[int64]
	AllJudgements     *counter.Counter[int64]
	Fervor            *counter.Counter[int64]
	Smites            *counter.Counter[int64]
	BlessedBuzz       *counter.Counter[int64]
	Exp               *counter.Counter[int64]

	// Pools holds the image queues per rank, index 0 is shard 1.
	Pools map[Rank][]*counter.Counter[int64]

	store   counter.Store
	ratings RatingSource
	opts    []counter.Option
}

// NewCounters builds the counters over store. Shared options such as a logger
// or an observer apply to every counter. A nil ratings source makes every
// image rating tally start at 0.
func NewCounters(store counter.Store, ratings RatingSource, opts ...counter.Option) *Counters {
	zero := counter.Constant[int64](0)
	with := func(extra ...counter.Option) []counter.Option {
		return append(append([]counter.Option{}, opts...), extra...)
	}

	c := &Counters{
		CorrectJudgements: counter.New(store, KeyCorrectJudgements, zero, with()...),
		AllJudgements:     counter.New(store, KeyAllJudgements, zero, with()...),
		Fervor:            counter.New(store, KeyFervor, zero, with(counter.Ordered(), counter.WithTTL(FervorTTL))...),
		Smites:            counter.New(store, KeySmites, zero, with()...),
		BlessedBuzz:       counter.New(store, KeyBlessedBuzz, zero, with()...),
		Exp:               counter.New(store, KeyExp, zero, with()...),
		Pools:             make(map[Rank][]*counter.Counter[int64], len(Ranks)),
		store:             store,
		ratings:           ratings,
		opts:              opts,
	}

	for _, rank := range Ranks {
		shards := make([]*counter.Counter[int64], rank.Shards())
		for i := range shards {
			shards[i] = counter.New(store, PoolKey(rank, i+1), zero,
				with(counter.Ordered(), counter.WithTTL(QueueTTL))...)
		}
		c.Pools[rank] = shards
	}

	return c
}

// PoolKey returns the key of a queue shard, e.g. NEW_ORDER:QUEUES:Knight2.
func PoolKey(rank Rank, shard int) string {
	return KeyQueuesPrefix + string(rank) + strconv.Itoa(shard)
}

func ImageRatingsKey(imageID int64) string {
	return KeyRatingsPrefix + strconv.FormatInt(imageID, 10)
}

// Pool returns the queue shard of rank, shard is 1-based.
func (c *Counters) Pool(rank Rank, shard int) (*counter.Counter[int64], error) {
	shards, ok := c.Pools[rank]
	if !ok {
		return nil, ErrUnknownRank
	}
	if shard < 1 || shard > len(shards) {
		return nil, ErrInvalidData
	}
	return shards[shard-1], nil
}

// PlayerCounters returns every counter keyed by player id.
func (c *Counters) PlayerCounters() []*counter.Counter[int64] {
	return []*counter.Counter[int64]{
		c.CorrectJudgements, c.AllJudgements, c.Fervor, c.Smites, c.BlessedBuzz, c.Exp,
	}
}

// ImageRatings returns the rating tallies of one image, keyed by composite
// rating id "<Rank>-<nsfwLevel>". Tallies are seeded from the ratings source.
func (c *Counters) ImageRatings(imageID int64) *counter.Counter[string] {
	return counter.New(c.store, ImageRatingsKey(imageID), c.countRatings(imageID),
		append(append([]counter.Option{}, c.opts...), counter.Ordered(), counter.WithTTL(RatingsTTL))...)
}

// countRatings treats a malformed rating id as a 0 tally and skips the query.
func (c *Counters) countRatings(imageID int64) counter.FetchFunc[string] {
	return func(ctx context.Context, ratingID string) (int64, error) {
		rank, level, ok := parseRatingID(ratingID)
		if !ok || c.ratings == nil {
			return 0, nil
		}
		return c.ratings.CountRatings(ctx, imageID, rank, level)
	}
}
