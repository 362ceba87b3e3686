package domain

import (
	"context"
	"errors"
	"log/slog"

	"neworder/modules/clock"
)

const (
	DefaultPayoutWorkers   = 4
	DefaultPayoutBatchSize = 500
)

type AppOption func(*Application)

func WithClock(c clock.Clock) AppOption {
	return func(app *Application) {
		if c != nil {
			app.clock = c
		}
	}
}

// WithPayout sizes the payout run. Values <= 0 keep the defaults.
func WithPayout(workers, batchSize int) AppOption {
	return func(app *Application) {
		if workers > 0 {
			app.payoutWorkers = workers
		}
		if batchSize > 0 {
			app.payoutBatchSize = batchSize
		}
	}
}

// NewApp wires the application. payer and recorder may be nil when the node
// never runs payouts.
func NewApp(counters *Counters, payer BuzzPayer, recorder PayoutRecorder, opts ...AppOption) *Application {
	app := &Application{
		counters:        counters,
		payer:           payer,
		recorder:        recorder,
		clock:           clock.RealClockProvider(),
		payoutWorkers:   DefaultPayoutWorkers,
		payoutBatchSize: DefaultPayoutBatchSize,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

func (app *Application) Counters() *Counters {
	return app.counters
}

// unhandled logs err and hides it behind ErrUnhandled unless it already is a
// domain error.
func unhandled(ctx context.Context, op string, err error) error {
	if errors.Is(err, ErrInvalidData) || errors.Is(err, ErrUnknownRank) || errors.Is(err, ErrPayoutNotFound) {
		return err
	}
	slog.ErrorContext(ctx, "unexpected error", slog.String("op", op), slog.Any("error", err))
	return errors.Join(ErrUnhandled, err)
}
