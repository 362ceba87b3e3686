package domain

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strconv"

	"neworder/modules/counter"
)

// EnqueueImage adds priority to the image in its rank queue and returns the
// new priority. Images spread over shards by id. A priority <= 0 counts as 1.
func (app *Application) EnqueueImage(ctx context.Context, rank Rank, imageID, priority int64) (int64, error) {
	pool, err := app.poolOf(rank, imageID)
	if err != nil {
		return 0, err
	}
	if priority <= 0 {
		priority = 1
	}
	n, err := pool.Increment(ctx, imageID, priority)
	if err != nil {
		return 0, unhandled(ctx, "enqueue image", err)
	}
	return n, nil
}

// ImageQueue merges every shard of the rank queue, highest priority first.
func (app *Application) ImageQueue(ctx context.Context, rank Rank, limit int) ([]Standing, error) {
	if !rank.Valid() {
		return nil, ErrUnknownRank
	}
	if limit < 0 {
		return nil, ErrInvalidData
	}
	if limit == 0 {
		limit = counter.DefaultLimit
	}

	var merged []Standing
	for _, pool := range app.counters.Pools[rank] {
		entries, err := pool.GetAllWithCounts(ctx, limit)
		if err != nil {
			return nil, unhandled(ctx, "image queue", err)
		}
		merged = append(merged, standings(entries)...)
	}

	slices.SortStableFunc(merged, func(a, b Standing) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(imageOrder(a.ID), imageOrder(b.ID))
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

func (app *Application) DequeueImage(ctx context.Context, rank Rank, imageID int64) error {
	pool, err := app.poolOf(rank, imageID)
	if err != nil {
		return err
	}
	if err := pool.Reset(ctx, imageID); err != nil {
		return unhandled(ctx, "dequeue image", err)
	}
	return nil
}

// ImageRatings returns the tally of ratingID ("<Rank>-<nsfwLevel>") for an
// image. Malformed rating ids read as 0.
func (app *Application) ImageRatings(ctx context.Context, imageID int64, ratingID string) (int64, error) {
	if imageID <= 0 {
		return 0, ErrInvalidData
	}
	n, err := app.counters.ImageRatings(imageID).GetCount(ctx, ratingID)
	if err != nil {
		return 0, unhandled(ctx, "image ratings", err)
	}
	return n, nil
}

func (app *Application) poolOf(rank Rank, imageID int64) (*counter.Counter[int64], error) {
	if !rank.Valid() {
		return nil, ErrUnknownRank
	}
	if imageID <= 0 {
		return nil, ErrInvalidData
	}
	return app.counters.Pool(rank, rank.shardOf(imageID))
}

// imageOrder parses a queued image id for tie-breaks; unparsable ids sort last.
func imageOrder(id string) int64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return math.MaxInt64
	}
	return n
}
