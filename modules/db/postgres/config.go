package postgres

import (
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type (
	// Note: For env parsing to work, we must export all struct fields
	PostgresConfig struct {
		WriteConfig PoolConfig   `envPrefix:"PRIMARY_"`
		ReadConfigs []PoolConfig `envPrefix:"REPLICA_"`

		// MigrateOnStart applies pending migrations against the primary at boot.
		MigrateOnStart bool `env:"MIGRATE_ON_START" envDefault:"true"`
	}

	PoolConfig struct {
		Host         string `env:"HOST"     envDefault:"localhost"`
		Port         uint16 `env:"PORT"     envDefault:"5432"`
		User         string `env:"USER"     envDefault:"postgres"`
		Password     string `env:"PASSWORD" envDefault:"postgres"`
		Database     string `env:"DATABASE" envDefault:"postgres"`
		SSLMode      string `env:"SSL_MODE" envDefault:"disable"`
		PoolMaxConns int    `env:"POOL_MAX_CONNS" envDefault:"5"`

		// Shown in pg_stat_activity.
		ApplicationName string `env:"APPLICATION_NAME" envDefault:"neworder"`
		// Zero keeps the server default.
		StatementTimeout time.Duration `env:"STATEMENT_TIMEOUT" envDefault:"5s"`
	}

	PgxConfigOption func(cfg *pgxpool.Config)

	PostgresOptions struct {
		WriterOptions []PgxConfigOption
		ReaderOptions []PgxConfigOption
	}
)

// WithPgBouncerSimpleProtocol disables server-side prepared statements, which
// PgBouncer in transaction pooling mode cannot route.
func WithPgBouncerSimpleProtocol() PgxConfigOption {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
}

// withSessionParams applies the PoolConfig session settings.
func withSessionParams(c *PoolConfig) PgxConfigOption {
	return func(cfg *pgxpool.Config) {
		params := cfg.ConnConfig.RuntimeParams
		if c.ApplicationName != "" {
			params["application_name"] = c.ApplicationName
		}
		if c.StatementTimeout > 0 {
			params["statement_timeout"] = strconv.FormatInt(c.StatementTimeout.Milliseconds(), 10)
		}
	}
}
