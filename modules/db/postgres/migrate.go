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

package postgres

import (
	"embed"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/amacneil/dbmate/v2/pkg/dbmate"
	_ "github.com/amacneil/dbmate/v2/pkg/driver/postgres"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func newMigrator(u *url.URL) *dbmate.DB {
	m := dbmate.New(u)
	m.FS = migrationsFS
	m.MigrationsDir = []string{"migrations"}
	m.AutoDumpSchema = false
	m.Log = io.Discard
	return m
}

func migrateUp(u *url.URL) error {
	if u == nil {
		return fmt.Errorf("postgres: migrate up: no database url")
	}
	if err := newMigrator(u).Migrate(); err != nil {
		return fmt.Errorf("postgres: migrate up: %w", err)
	}
	slog.Info("postgres: migrations applied", slog.String("host", u.Host))
	return nil
}

func migrateDown(u *url.URL) error {
	if u == nil {
		return fmt.Errorf("postgres: migrate down: no database url")
	}
	if err := newMigrator(u).Rollback(); err != nil {
		return fmt.Errorf("postgres: migrate down: %w", err)
	}
	slog.Info("postgres: rolled back latest migration", slog.String("host", u.Host))
	return nil
}

// Migrations lists the embedded migration file names in apply order.
func Migrations() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
