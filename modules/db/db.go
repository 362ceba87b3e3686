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

// Package db declares the storage ports shared by the Postgres and Redis
// adapters.
package db

import (
	"context"
	"time"

	"github.com/stephenafamo/bob"
)

type (
	TxFn func(ctx context.Context, q Querier) error

	// Querier is satisfied by both bob.DB and bob.Tx.
	Querier interface {
		bob.Executor
	}

	ConnectionPool interface {
		HealthManager
		ConnectionManager
		MigrationManager
		TxManager

		Shutdown(context.Context) error
	}

	HealthManager interface {
		// HealthCheck reports whether the primary answers within ctx.
		HealthCheck(ctx context.Context) error
	}

	ConnectionManager interface {
		// Writer is the primary.
		Writer() Querier

		ReaderConnectionManager
	}

	ReaderConnectionManager interface {
		// Reader picks a replica, or the primary when none is configured.
		// Rating counts tolerate replica lag since tallies are only seeded once.
		Reader() Querier
	}

	// MigrationManager applies the schema migrations shipped with the binary.
	MigrationManager interface {
		MigrateUp() error
		MigrateDown() error
	}

	// TxManager runs fn in a read-write transaction on the primary, committing
	// when fn returns nil.
	TxManager interface {
		WithTx(ctx context.Context, fn TxFn) error
		WithTimeoutTx(ctx context.Context, timeout time.Duration, fn TxFn) error
	}

	// KV stores opaque values; AtomicSet returns the value it replaced.
	// A missing key reads as (nil, nil).
	KV interface {
		AtomicGet(context.Context, string) (any, error)
		AtomicSet(context.Context, string, any) (any, error)
	}
)
