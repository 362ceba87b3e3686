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

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"neworder/core/neworder/adapters/cache"
	"neworder/core/neworder/adapters/jobs"
	persistence "neworder/core/neworder/adapters/persistence/pg"
	"neworder/core/neworder/adapters/rest"
	"neworder/core/neworder/domain"
	"neworder/modules/appconfig"
	"neworder/modules/clock"
	"neworder/modules/counter"
	"neworder/modules/counter/memstore"
	"neworder/modules/db/postgres"
	"neworder/modules/db/redis"
	redis_counter "neworder/modules/db/redis/counter"
	"neworder/modules/db/redis/locking"
	"neworder/modules/middleware"
	"neworder/modules/middleware/ratelimit"
	"neworder/modules/oapi"
	rl "neworder/modules/ratelimit"
	"neworder/modules/server"
	"neworder/modules/services"
	"neworder/modules/telemetry"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidislock"
)

func main() {
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	// cancel the context when these signals occur
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer cancel()

	// manual dependency injections, imo there's no need to over-engineer with DI frameworks like Fx or Wire
	clk := clock.RealClock{}

	// --- application config ----
	appConfig, err := appconfig.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", slog.Any("error", err))
		exitCode = 1
		return
	}
	slog.SetLogLoggerLevel(appConfig.LogLevel)

	otelShutdown, err := telemetry.Init(ctx, appConfig.Otel)
	if err != nil {
		slog.ErrorContext(ctx, "telemetry not properly configured", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := otelShutdown(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "telemetry shutdown error", slog.Any("error", err))
		}
	}()

	// --- infrastructure ---

	connectionPool, err := postgres.New(
		ctx,
		&appConfig.Postgres,
		postgres.PostgresOptions{
			// assuming writer connection does not pass through pgBouncer,
			// so we can apply server-side prepared statements
			ReaderOptions: []postgres.PgxConfigOption{
				postgres.WithPgBouncerSimpleProtocol(),
			},
		},
	)
	if err != nil {
		slog.ErrorContext(ctx, "database error", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := connectionPool.Shutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "database shutdown error", slog.Any("error", err))
		}
	}()

	if err = connectionPool.HealthCheck(ctx); err != nil {
		slog.ErrorContext(ctx, "database health check failed", slog.Any("error", err))
		exitCode = 1
		return
	}

	if appConfig.Postgres.MigrateOnStart {
		if err := connectionPool.MigrateUp(); err != nil {
			slog.ErrorContext(ctx, "database migration failed", slog.Any("error", err))
			exitCode = 1
			return
		}
	}

	checks := []rest.HealthCheck{
		connectionPool.HealthCheck,
	}

	counterOpts := []counter.Option{counter.WithLogger(slog.Default())}
	if counterMetrics, err := telemetry.NewCounterMetrics(appConfig.Otel.ServiceName); err != nil {
		slog.WarnContext(ctx, "failed to initialize counter metrics, continuing without metrics", slog.Any("error", err))
	} else {
		counterOpts = append(counterOpts, counter.WithObserver(counterMetrics))
	}

	var (
		store          counter.Store
		recorder       domain.PayoutRecorder
		executor       jobs.Executor = jobs.LocalExecutor{}
		globalHandlers []func(http.Handler) http.Handler
	)

	mux := http.NewServeMux()

	httpMetrics, err := telemetry.NewHTTPMetrics(appConfig.Otel.ServiceName)
	if err != nil {
		slog.WarnContext(ctx, "failed to initialize HTTP metrics, continuing without metrics", slog.Any("error", err))
		httpMetrics = nil
	}
	globalHandlers = append(globalHandlers, middleware.Telemetry(httpMetrics, mux))

	switch appConfig.Counter.Store {
	case appconfig.StoreMemory:
		slog.WarnContext(ctx, "counters kept in process memory, rate limiting and payout locking disabled")
		store = memstore.New(memstore.WithClock(clk))

	default:
		redisClient, err := redis.NewRueidisClient(ctx, appConfig.Redis)
		if err != nil {
			slog.ErrorContext(ctx, "redis not properly setup", slog.Any("error", err))
			exitCode = 1
			return
		}
		defer redisClient.Close()

		redisStore := redis.NewCounterStore(redisClient, redis.WithStoreKeyPrefix(appConfig.Counter.KeyPrefix))
		store = redisStore
		checks = append(checks, redisStore.HealthCheck)

		recorder = cache.NewPayoutRecorder(
			redis.NewRedisKV(redisClient, redis.WithKeyPrefix(appConfig.Otel.ServiceName)))

		locker, err := newLocker(appConfig)
		if err != nil {
			slog.ErrorContext(ctx, "payout locker not properly setup", slog.Any("error", err))
			exitCode = 1
			return
		}
		defer locker.Close()
		executor = locking.NewLockingTaskExecutor(locker, locking.WithLogger(slog.Default()))

		rateLimit, err := newRateLimit(clk, redisClient, appConfig, mux)
		if err != nil {
			slog.ErrorContext(ctx, "ratelimit config not properly parsed", slog.Any("error", err))
			exitCode = 1
			return
		}
		globalHandlers = append(globalHandlers, rateLimit)
	}
	globalHandlers = append(globalHandlers, middleware.RecoverWithProblem())

	// --- application layer ---

	app := domain.NewApp(
		domain.NewCounters(store, persistence.NewRatingReader(connectionPool), counterOpts...),
		persistence.NewBuzzLedger(connectionPool),
		recorder,
		domain.WithClock(clk),
		domain.WithPayout(appConfig.Payout.Workers, appConfig.Payout.BatchSize),
	)

	newOrderSvc := services.NewNewOrderAPIService(
		rest.NewNewOrderAPI(app, checks...),
		oapi.Specs,
		oapi.NewOrderSpec,
	)

	srv, err := server.New(
		appConfig.HTTP.Host, appConfig.HTTP.Port,
		server.WithTimeouts(server.Timeouts{
			Read:     appConfig.HTTP.ReadTimeout,
			Write:    appConfig.HTTP.WriteTimeout,
			Idle:     appConfig.HTTP.IdleTimeout,
			Shutdown: appConfig.HTTP.ShutdownTimeout,
		}),
		server.WithMux(mux),
		server.WithServices(newOrderSvc),
		server.WithGlobalMiddlewares(globalHandlers...),
	)
	if err != nil {
		slog.ErrorContext(ctx, "init server error", slog.Any("error", err))
		exitCode = 1
		return
	}

	var jobOpts []jobs.JobOption
	if payoutMetrics, err := telemetry.NewPayoutMetrics(appConfig.Otel.ServiceName); err != nil {
		slog.WarnContext(ctx, "failed to initialize payout metrics, continuing without metrics", slog.Any("error", err))
	} else {
		jobOpts = append(jobOpts, jobs.WithRunRecorder(payoutMetrics))
	}

	payoutJob := jobs.NewPayoutJob(app, executor, appConfig.Payout.Interval, locking.LockConfiguration{
		Name:           "buzz-payout",
		LockAtMostFor:  appConfig.Payout.LockAtMostFor,
		LockAtLeastFor: appConfig.Payout.LockAtLeastFor,
	}, jobOpts...)

	var wg sync.WaitGroup
	wg.Go(func() { payoutJob.Run(ctx) })
	defer wg.Wait()

	if err := srv.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "running server error", slog.Any("error", err))
		cancel()
		exitCode = 1
		return
	}
}

// newLocker opens a dedicated rueidislock client on the configured deployment.
func newLocker(cfg *appconfig.Config) (rueidislock.Locker, error) {
	opt, err := redis.ClientOption(cfg.Redis)
	if err != nil {
		return nil, err
	}
	return locking.NewLocker(opt, cfg.Otel.ServiceName+":locks", cfg.Redis.LockKeyMajority)
}

func newRateLimit(
	clk clock.Clock,
	client rueidis.Client,
	cfg *appconfig.Config,
	mux *http.ServeMux,
) (func(http.Handler) http.Handler, error) {
	routeInfo := ratelimit.MuxRouteInfo(mux)
	keyStrategies := map[ratelimit.KeyStrategyId]ratelimit.KeyFunc{
		ratelimit.RemoteIpKeyStrategy: ratelimit.RemoteIpKeyFunc,
		ratelimit.RouteIpKeyStrategy:  ratelimit.RouteIpKeyFunc(routeInfo),
	}

	slog.Debug("app rate limit config", slog.Any("rate_limit_config", cfg.RateLimit))

	prefix := cfg.Otel.ServiceName + ":rl"
	rtp, err := ratelimit.ParsePolicy(
		rl.SlidingWindowFactory(clk, redis_counter.NewRedisCounterStore(client, prefix), "sw"),
		&cfg.RateLimit,
		routeInfo,
		keyStrategies,
	)
	if err != nil {
		return nil, err
	}
	return ratelimit.NewRateLimitMiddleware(rtp), nil
}
