package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	RankAcolyte Rank = "Acolyte"
	RankKnight  Rank = "Knight"
	RankTemplar Rank = "Templar"
	RankGod     Rank = "God"
)

// Rank is a moderator tier. Every rank owns its own sharded image queue.
type Rank string

// Ranks lists every rank, lowest first.
var Ranks = []Rank{RankAcolyte, RankKnight, RankTemplar, RankGod}

// NsfwLevels are the browsing-level bit flags an image can be rated at.
var NsfwLevels = []int{1, 2, 4, 8, 16, 32}

func ParseRank(s string) (Rank, error) {
	r := Rank(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRank, s)
	}
	return r, nil
}

func (r Rank) Valid() bool {
	return slices.Contains(Ranks, r)
}

// Shards returns the number of queue shards of the rank, 0 for unknown ranks.
func (r Rank) Shards() int {
	switch r {
	case RankAcolyte, RankKnight, RankTemplar:
		return 3
	case RankGod:
		return 1
	}
	return 0
}

// shardOf maps an image to its 1-based queue shard.
func (r Rank) shardOf(imageID int64) int {
	return int(imageID%int64(r.Shards())) + 1
}

func ValidNsfwLevel(level int) bool {
	return slices.Contains(NsfwLevels, level)
}

// RatingID builds the composite "<Rank>-<nsfwLevel>" id of an image rating tally.
func RatingID(rank Rank, nsfwLevel int) string {
	return string(rank) + "-" + strconv.Itoa(nsfwLevel)
}

// parseRatingID reports false for anything but a known rank and level.
func parseRatingID(id string) (Rank, int, bool) {
	rank, level, ok := strings.Cut(id, "-")
	if !ok {
		return "", 0, false
	}
	r := Rank(rank)
	if !r.Valid() {
		return "", 0, false
	}
	n, err := strconv.Atoi(level)
	if err != nil || !ValidNsfwLevel(n) {
		return "", 0, false
	}
	return r, n, true
}
