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

package pg

import (
	"context"
	"fmt"
	"time"

	"neworder/core/neworder/domain"
	"neworder/modules/db"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
)

var _ domain.BuzzPayer = (*BuzzLedger)(nil)

const payTimeout = 5 * time.Second

// BuzzLedger books payouts on the primary and adds them to the player's
// balance in the same transaction. A (run, player) pair is booked at most
// once, so replaying a run is harmless.
type BuzzLedger struct {
	table string
	pool  db.TxManager
}

const upsertBalance = `INSERT INTO ` + BuzzBalancesTable + ` AS b (player_id, paid, last_run_id)
VALUES ($1, $2, $3)
ON CONFLICT (player_id) DO UPDATE
SET paid = b.paid + EXCLUDED.paid, last_run_id = EXCLUDED.last_run_id, updated_at = now()`

func NewBuzzLedger(pool db.TxManager) *BuzzLedger {
	return &BuzzLedger{table: BuzzPayoutsTable, pool: pool}
}

func (l *BuzzLedger) PayBuzz(ctx context.Context, runID uuid.UUID, playerID int64, amount int64) error {
	insert := psql.Insert(
		im.Into(l.table, "run_id", "player_id", "amount"),
		im.Values(psql.Arg(runID), psql.Arg(playerID), psql.Arg(amount)),
		im.OnConflict("run_id", "player_id").DoNothing(),
	)

	err := l.pool.WithTimeoutTx(ctx, payTimeout, func(ctx context.Context, q db.Querier) error {
		res, err := bob.Exec(ctx, q, insert)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			// already booked by an earlier attempt of this run
			return nil
		}
		_, err = q.ExecContext(ctx, upsertBalance, playerID, amount, runID)
		return err
	})
	if err != nil {
		return fmt.Errorf("book buzz payout of player %d: %w", playerID, wrapError(err))
	}
	return nil
}
