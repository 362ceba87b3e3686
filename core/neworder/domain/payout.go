package domain

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"neworder/modules/counter"
	"neworder/modules/worker"

	"github.com/gofrs/uuid/v5"
)

// Payout pays out banked buzz of up to the configured batch of players.
//
// Each positive balance is taken off the counter first and then paid through
// the BuzzPayer, so buzz blessed while the run is in flight stays banked for
// the next run and a balance is never paid twice. A failed payment gives the
// amount back and counts as failed.
func (app *Application) Payout(ctx context.Context) (*PayoutRun, error) {
	if app.payer == nil {
		return nil, ErrInvalidData
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, unhandled(ctx, "payout", err)
	}
	run := &PayoutRun{ID: id, StartedAt: app.clock.Now().UTC()}
	logger := slog.With(slog.String("run_id", id.String()))

	entries, err := app.counters.BlessedBuzz.GetAllWithCounts(ctx, app.payoutBatchSize)
	if err != nil {
		return nil, unhandled(ctx, "payout", err)
	}

	var mu sync.Mutex
	worker.BlockingPool(ctx, app.payoutWorkers, worker.Feed(entries), func(ctx context.Context, e counter.Entry) {
		paid, err := app.payOne(ctx, id, e)
		if err != nil {
			logger.WarnContext(ctx, "buzz payout failed", slog.String("player_id", e.ID), slog.Any("error", err))
		}

		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			run.Failed++
		case paid > 0:
			run.Players++
			run.Total += paid
		}
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "buzz payout finished",
		slog.Int("players", run.Players), slog.Int64("total", run.Total), slog.Int("failed", run.Failed))

	if app.recorder != nil {
		if err := app.recorder.SaveRun(ctx, *run); err != nil {
			return run, unhandled(ctx, "payout", err)
		}
	}
	return run, nil
}

func (app *Application) payOne(ctx context.Context, runID uuid.UUID, e counter.Entry) (int64, error) {
	if e.Count <= 0 {
		return 0, nil
	}
	playerID, err := strconv.ParseInt(e.ID, 10, 64)
	if err != nil {
		return 0, err
	}
	if _, err := app.counters.BlessedBuzz.Decrement(ctx, playerID, e.Count); err != nil {
		return 0, err
	}
	if err := app.payer.PayBuzz(ctx, runID, playerID, e.Count); err != nil {
		if _, refundErr := app.counters.BlessedBuzz.Increment(context.WithoutCancel(ctx), playerID, e.Count); refundErr != nil {
			slog.ErrorContext(ctx, "buzz refund failed, balance lost",
				slog.String("run_id", runID.String()), slog.Int64("player_id", playerID),
				slog.Int64("amount", e.Count), slog.Any("error", refundErr))
			return 0, errors.Join(err, refundErr)
		}
		return 0, err
	}
	return e.Count, nil
}

// LastPayout returns the summary of the most recent payout run.
func (app *Application) LastPayout(ctx context.Context) (*PayoutRun, error) {
	if app.recorder == nil {
		return nil, ErrPayoutNotFound
	}
	run, err := app.recorder.LastRun(ctx)
	if err != nil {
		return nil, unhandled(ctx, "last payout", err)
	}
	if run == nil {
		return nil, ErrPayoutNotFound
	}
	return run, nil
}
