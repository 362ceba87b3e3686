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
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"neworder/core/neworder/domain"
	"neworder/modules/db"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stephenafamo/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingExec captures the statements bob sends and answers with err.
type recordingExec struct {
	queries []string
	args    [][]any
	err     error
	// affected is reported for every exec
	affected int64
}

func (e *recordingExec) record(query string, args []any) {
	e.queries = append(e.queries, query)
	e.args = append(e.args, args)
}

func (e *recordingExec) QueryContext(_ context.Context, query string, args ...any) (scan.Rows, error) {
	e.record(query, args)
	return nil, e.err
}

func (e *recordingExec) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	e.record(query, args)
	if e.err != nil {
		return nil, e.err
	}
	return driver.RowsAffected(e.affected), nil
}

type fakePool struct {
	exec *recordingExec
	txs  *int
}

func (p fakePool) Reader() db.Querier { return p.exec }
func (p fakePool) Writer() db.Querier { return p.exec }

func (p fakePool) WithTx(ctx context.Context, fn db.TxFn) error {
	if p.txs != nil {
		*p.txs++
	}
	return fn(ctx, p.exec)
}

func (p fakePool) WithTimeoutTx(ctx context.Context, _ time.Duration, fn db.TxFn) error {
	return p.WithTx(ctx, fn)
}

func TestRatingReaderQuery(t *testing.T) {
	errDown := errors.New("replica down")
	exec := &recordingExec{err: errDown}
	reader := NewRatingReader(fakePool{exec: exec})

	_, err := reader.CountRatings(context.Background(), 42, domain.RankKnight, 4)
	require.ErrorIs(t, err, errDown)

	require.Len(t, exec.queries, 1)
	query := exec.queries[0]
	assert.Contains(t, query, "COUNT(*)")
	assert.Contains(t, query, ImageRatingsTable)
	assert.Contains(t, query, `"image_id" = $1`)
	assert.Contains(t, query, `"rank" = $2`)
	assert.Contains(t, query, `"nsfw_level" = $3`)
	assert.Equal(t, []any{int64(42), "Knight", 4}, exec.args[0])
}

func TestBuzzLedgerInsert(t *testing.T) {
	exec := &recordingExec{affected: 1}
	txs := 0
	ledger := NewBuzzLedger(fakePool{exec: exec, txs: &txs})
	runID := uuid.Must(uuid.NewV7())

	require.NoError(t, ledger.PayBuzz(context.Background(), runID, 7, 120))
	assert.Equal(t, 1, txs)
	require.Len(t, exec.queries, 2)

	insert := exec.queries[0]
	assert.Contains(t, insert, "INSERT INTO")
	assert.Contains(t, insert, BuzzPayoutsTable)
	assert.Contains(t, insert, "ON CONFLICT")
	assert.Contains(t, insert, "DO NOTHING")
	assert.Equal(t, []any{runID, int64(7), int64(120)}, exec.args[0])

	assert.Contains(t, exec.queries[1], BuzzBalancesTable)
	assert.Equal(t, []any{int64(7), int64(120), runID}, exec.args[1])
}

func TestBuzzLedgerReplaySkipsBalance(t *testing.T) {
	exec := &recordingExec{affected: 0}
	ledger := NewBuzzLedger(fakePool{exec: exec})

	require.NoError(t, ledger.PayBuzz(context.Background(), uuid.Must(uuid.NewV7()), 7, 120))
	assert.Len(t, exec.queries, 1)
}

func TestBuzzLedgerConstraint(t *testing.T) {
	exec := &recordingExec{err: &pgconn.PgError{Code: "23514"}}
	ledger := NewBuzzLedger(fakePool{exec: exec})

	err := ledger.PayBuzz(context.Background(), uuid.Must(uuid.NewV7()), 7, 0)
	assert.ErrorIs(t, err, ErrConstraint)

	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)
}
