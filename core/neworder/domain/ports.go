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

	"github.com/gofrs/uuid/v5"
)

// RatingSource is the system of record for image ratings.
type RatingSource interface {
	// CountRatings counts the ratings an image received from moderators of
	// rank at the given NSFW level.
	CountRatings(ctx context.Context, imageID int64, rank Rank, nsfwLevel int) (int64, error)
}

// BuzzPayer credits banked buzz to a player.
//
// Implementations must be idempotent per (runID, playerID) so a retried run
// never pays a player twice.
type BuzzPayer interface {
	PayBuzz(ctx context.Context, runID uuid.UUID, playerID int64, amount int64) error
}

// PayoutRecorder keeps the summary of the most recent payout run.
type PayoutRecorder interface {
	SaveRun(ctx context.Context, run PayoutRun) error
	// LastRun returns nil when no run was recorded yet.
	LastRun(ctx context.Context) (*PayoutRun, error)
}
