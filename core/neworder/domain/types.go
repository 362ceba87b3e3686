package domain

import (
	"time"

	"neworder/modules/clock"

	"github.com/gofrs/uuid/v5"
)

type (
	Application struct {
		counters *Counters
		payer    BuzzPayer
		recorder PayoutRecorder
		clock    clock.Clock

		payoutWorkers   int
		payoutBatchSize int
	}

	// Judgement is one moderator verdict on an image.
	Judgement struct {
		PlayerID  int64
		ImageID   int64
		Rank      Rank
		NsfwLevel int
		Correct   bool

		// Exp and Fervor default to 1 when zero. Fervor is only granted for
		// correct judgements.
		Exp    int64
		Fervor int64
	}

	PlayerStats struct {
		PlayerID          int64 `json:"playerId"`
		CorrectJudgements int64 `json:"correctJudgements"`
		AllJudgements     int64 `json:"allJudgements"`
		Fervor            int64 `json:"fervor"`
		Smites            int64 `json:"smites"`
		BlessedBuzz       int64 `json:"blessedBuzz"`
		Exp               int64 `json:"exp"`
	}

	// Standing is one entry of a ranking, a player on the leaderboard or an
	// image in a queue.
	Standing struct {
		ID    string `json:"id"`
		Count int64  `json:"count"`
	}

	// PayoutRun summarizes one buzz payout.
	PayoutRun struct {
		ID        uuid.UUID `json:"id"`
		StartedAt time.Time `json:"startedAt"`
		Players   int       `json:"players"`
		Total     int64     `json:"total"`
		Failed    int       `json:"failed"`
	}
)

// V versions a run for HTTP caching.
func (r *PayoutRun) V() string {
	return r.ID.String()
}
