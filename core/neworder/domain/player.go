package domain

import (
	"context"

	"neworder/modules/counter"
)

// RecordJudgement books one judgement: every judgement counts and earns exp,
// correct ones also count as correct and earn fervor. The image rating tally
// of the judged rank and level goes up by one.
func (app *Application) RecordJudgement(ctx context.Context, j Judgement) (*PlayerStats, error) {
	if j.PlayerID <= 0 || j.ImageID <= 0 || j.Exp < 0 || j.Fervor < 0 {
		return nil, ErrInvalidData
	}
	if !j.Rank.Valid() {
		return nil, ErrUnknownRank
	}
	if !ValidNsfwLevel(j.NsfwLevel) {
		return nil, ErrInvalidData
	}

	exp := orOne(j.Exp)
	c := app.counters

	if _, err := c.AllJudgements.Increment(ctx, j.PlayerID, 1); err != nil {
		return nil, unhandled(ctx, "record judgement", err)
	}
	if _, err := c.Exp.Increment(ctx, j.PlayerID, exp); err != nil {
		return nil, unhandled(ctx, "record judgement", err)
	}
	if j.Correct {
		if _, err := c.CorrectJudgements.Increment(ctx, j.PlayerID, 1); err != nil {
			return nil, unhandled(ctx, "record judgement", err)
		}
		if _, err := c.Fervor.Increment(ctx, j.PlayerID, orOne(j.Fervor)); err != nil {
			return nil, unhandled(ctx, "record judgement", err)
		}
	}
	if _, err := c.ImageRatings(j.ImageID).Increment(ctx, RatingID(j.Rank, j.NsfwLevel), 1); err != nil {
		return nil, unhandled(ctx, "record judgement", err)
	}

	return app.PlayerStats(ctx, j.PlayerID)
}

// PlayerStats reads every counter of a player, populating missing ones.
func (app *Application) PlayerStats(ctx context.Context, playerID int64) (*PlayerStats, error) {
	if playerID <= 0 {
		return nil, ErrInvalidData
	}

	c := app.counters
	stats := &PlayerStats{PlayerID: playerID}
	for _, f := range []struct {
		counter *counter.Counter[int64]
		dst     *int64
	}{
		{c.CorrectJudgements, &stats.CorrectJudgements},
		{c.AllJudgements, &stats.AllJudgements},
		{c.Fervor, &stats.Fervor},
		{c.Smites, &stats.Smites},
		{c.BlessedBuzz, &stats.BlessedBuzz},
		{c.Exp, &stats.Exp},
	} {
		v, err := f.counter.GetCount(ctx, playerID)
		if err != nil {
			return nil, unhandled(ctx, "player stats", err)
		}
		*f.dst = v
	}
	return stats, nil
}

func (app *Application) Smite(ctx context.Context, playerID int64) (int64, error) {
	if playerID <= 0 {
		return 0, ErrInvalidData
	}
	n, err := app.counters.Smites.Increment(ctx, playerID, 1)
	if err != nil {
		return 0, unhandled(ctx, "smite", err)
	}
	return n, nil
}

// Cleanse lifts one smite. The count never goes below zero.
func (app *Application) Cleanse(ctx context.Context, playerID int64) (int64, error) {
	if playerID <= 0 {
		return 0, ErrInvalidData
	}
	current, err := app.counters.Smites.GetCount(ctx, playerID)
	if err != nil {
		return 0, unhandled(ctx, "cleanse", err)
	}
	if current <= 0 {
		return current, nil
	}
	n, err := app.counters.Smites.Decrement(ctx, playerID, 1)
	if err != nil {
		return 0, unhandled(ctx, "cleanse", err)
	}
	return n, nil
}

// BlessBuzz banks amount of buzz for the next payout.
func (app *Application) BlessBuzz(ctx context.Context, playerID, amount int64) (int64, error) {
	if playerID <= 0 || amount <= 0 {
		return 0, ErrInvalidData
	}
	n, err := app.counters.BlessedBuzz.Increment(ctx, playerID, amount)
	if err != nil {
		return 0, unhandled(ctx, "bless buzz", err)
	}
	return n, nil
}

// ResetPlayer drops every counter entry of a player. Banked buzz is lost.
func (app *Application) ResetPlayer(ctx context.Context, playerID int64) error {
	if playerID <= 0 {
		return ErrInvalidData
	}
	for _, c := range app.counters.PlayerCounters() {
		if err := c.Reset(ctx, playerID); err != nil {
			return unhandled(ctx, "reset player", err)
		}
	}
	return nil
}

// Leaderboard returns the top players by fervor.
func (app *Application) Leaderboard(ctx context.Context, limit int) ([]Standing, error) {
	if limit < 0 {
		return nil, ErrInvalidData
	}
	entries, err := app.counters.Fervor.GetAllWithCounts(ctx, limit)
	if err != nil {
		return nil, unhandled(ctx, "leaderboard", err)
	}
	return standings(entries), nil
}

func standings(entries []counter.Entry) []Standing {
	out := make([]Standing, len(entries))
	for i, e := range entries {
		out[i] = Standing{ID: e.ID, Count: e.Count}
	}
	return out
}

func orOne(v int64) int64 {
	if v == 0 {
		return 1
	}
	return v
}
