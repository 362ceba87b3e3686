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

// Package pg keeps the New Order systems of record in Postgres: the image
// ratings behind the rating tallies, and the buzz payout ledger with its
// per-player balances.
package pg

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	ImageRatingsTable = "image_ratings"
	BuzzPayoutsTable  = "buzz_payouts"
	BuzzBalancesTable = "buzz_balances"
)

// ErrConstraint reports a row rejected by a table constraint.
var ErrConstraint = errors.New("pg: constraint violation")

// wrapError maps driver errors to package errors, keeping the cause.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23514", "23502": // check_violation, not_null_violation
			return errors.Join(ErrConstraint, err)
		}
	}
	return err
}
