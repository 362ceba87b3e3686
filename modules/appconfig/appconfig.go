package appconfig

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"neworder/modules/db/postgres"
	"neworder/modules/db/redis"
	"neworder/modules/middleware/ratelimit"
	"neworder/modules/telemetry"

	"github.com/caarlos0/env/v11"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	Env      string     `env:"ENV" envDefault:"dev"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	// --- core infra ----
	Redis    redis.RedisConfig       `envPrefix:"REDIS_"`
	Postgres postgres.PostgresConfig `envPrefix:"POSTGRES_"`

	// --- counters and jobs ----
	Counter CounterConfig `envPrefix:"COUNTER_"`
	Payout  PayoutConfig  `envPrefix:"PAYOUT_"`

	// --- http ----
	HTTP      HTTPConfig               `envPrefix:"HTTP_"`
	RateLimit ratelimit.RestHTTPConfig `envPrefix:"RATE_LIMIT_"`

	// --- otel ----
	// since it has special naming conventions, we do not use prefix here
	Otel telemetry.Config
}

type CounterConfig struct {
	// Store is "redis" or "memory"; memory keeps counters in-process.
	Store     string `env:"STORE" envDefault:"redis"`
	KeyPrefix string `env:"KEY_PREFIX"`
}

type PayoutConfig struct {
	// Interval of zero disables the scheduled payout.
	Interval       time.Duration `env:"INTERVAL" envDefault:"1h"`
	Workers        int           `env:"WORKERS" envDefault:"4"`
	BatchSize      int           `env:"BATCH_SIZE" envDefault:"500"`
	LockAtMostFor  time.Duration `env:"LOCK_AT_MOST_FOR" envDefault:"10m"`
	LockAtLeastFor time.Duration `env:"LOCK_AT_LEAST_FOR" envDefault:"30s"`
}

type HTTPConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

var ErrInvalidConfig = errors.New("appconfig: invalid configuration")

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(c *Config) error {
	var errs []error

	switch c.Counter.Store {
	case StoreRedis, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("COUNTER_STORE must be %q or %q, got %q", StoreRedis, StoreMemory, c.Counter.Store))
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 1<<16-1 {
		errs = append(errs, fmt.Errorf("HTTP_PORT out of range: %d", c.HTTP.Port))
	}

	p := c.Payout
	if p.Interval < 0 {
		errs = append(errs, errors.New("PAYOUT_INTERVAL must not be negative"))
	}
	if p.Workers <= 0 || p.BatchSize <= 0 {
		errs = append(errs, errors.New("PAYOUT_WORKERS and PAYOUT_BATCH_SIZE must be positive"))
	}
	if p.LockAtLeastFor > p.LockAtMostFor {
		errs = append(errs, errors.New("PAYOUT_LOCK_AT_LEAST_FOR exceeds PAYOUT_LOCK_AT_MOST_FOR"))
	}

	// in-process counters are not shared between replicas
	if c.Env == "prod" && c.Counter.Store == StoreMemory {
		errs = append(errs, errors.New("COUNTER_STORE=memory is not allowed in prod"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
