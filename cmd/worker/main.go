// Package main is the entry point for the Academy Insight Hub worker.
//
// The worker runs the background jobs without serving the API:
// - Monthly risk snapshot persistence (first day of each month)
// - Watchlist cache warming on an interval
//
// Deployments that run the API server with SCHEDULER_ENABLED=true do
// not need a separate worker; this binary exists for setups that want
// the jobs isolated from request traffic.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hakwon-hub/academy-insight-hub/config"
	"github.com/hakwon-hub/academy-insight-hub/internal/application/command"
	"github.com/hakwon-hub/academy-insight-hub/internal/application/query"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/risk"
	"github.com/hakwon-hub/academy-insight-hub/internal/infrastructure/persistence/postgres"
	"github.com/hakwon-hub/academy-insight-hub/internal/infrastructure/persistence/redis"
	"github.com/hakwon-hub/academy-insight-hub/internal/infrastructure/scheduler"
	"github.com/hakwon-hub/academy-insight-hub/internal/infrastructure/scheduler/jobs"
	"github.com/hakwon-hub/academy-insight-hub/pkg/circuitbreaker"
	"github.com/hakwon-hub/academy-insight-hub/pkg/logger"
	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	logOpts := logger.DefaultOptions()
	logOpts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	log := logger.New(logOpts)

	log.Info("starting Academy Insight Hub worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version))

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	var dbConn *postgres.Connection
	if cfg.Database.URL != "" {
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	} else {
		dbConn, err = postgres.NewConnection(ctx, postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Database:        cfg.Database.Name,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			SSLMode:         cfg.Database.SSLMode,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
			ConnectTimeout:  cfg.Database.ConnectTimeout,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()
	log.Info("database connection established")

	// The worker also needs a current schema; migrations are idempotent.
	if cfg.Database.RunMigrations {
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var watchlistCache *redis.WatchlistCache
	var invalidator command.ResultInvalidator

	if !cfg.Redis.Disabled {
		cache, err := redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			PoolTimeout:  cfg.Redis.PoolTimeout,
		})
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		} else {
			defer cache.Close()
			watchlistCache = redis.NewWatchlistCache(cache, log)
			invalidator = watchlistCache
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. WIRING
	// ─────────────────────────────────────────────────────────────────────────
	scorer, err := risk.NewScorer(cfg.Analytics.RiskConfig())
	if err != nil {
		return fmt.Errorf("invalid risk configuration: %w", err)
	}

	studentRepo := postgres.NewStudentRepository(dbConn)
	learningRepo := postgres.NewLearningRepository(dbConn)
	snapshotRepo := postgres.NewSnapshotRepository(dbConn)

	onBreakerChange := func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()))
	}
	storageBreaker := circuitbreaker.StorageBreaker(onBreakerChange)

	var wlCache query.WatchlistCache
	if watchlistCache != nil {
		wlCache = watchlistCache
	}
	getWatchlist := query.NewGetWatchlistHandler(studentRepo, learningRepo, scorer, wlCache, storageBreaker, log)
	saveSnapshot := command.NewSaveSnapshotHandler(studentRepo, learningRepo, snapshotRepo, scorer, invalidator, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{
		Logger:   log,
		Timezone: timeutil.SeoulTZ,
	})

	snapshotJob := jobs.NewMonthlySnapshotJob(saveSnapshot, nil, log, jobs.MonthlySnapshotConfig{
		Timeout: cfg.Scheduler.SnapshotTimeout,
	})
	if err := sched.Register(snapshotJob, scheduler.NewMonthlySchedule(
		cfg.Scheduler.SnapshotDay,
		cfg.Scheduler.SnapshotHour,
		cfg.Scheduler.SnapshotMinute,
		timeutil.SeoulTZ,
	)); err != nil {
		return fmt.Errorf("failed to register snapshot job: %w", err)
	}

	refreshJob := jobs.NewRefreshWatchlistJob(getWatchlist, log, jobs.RefreshWatchlistConfig{
		Timeout: cfg.Scheduler.RefreshWatchlistTimeout,
	})
	if err := sched.Register(refreshJob, scheduler.NewIntervalSchedule(
		cfg.Scheduler.RefreshWatchlistInterval,
	)); err != nil {
		return fmt.Errorf("failed to register watchlist refresh job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() { _ = sched.Stop() }()

	for _, info := range sched.ListJobs() {
		log.Info("job registered",
			logger.String("job", info.Name),
			logger.String("schedule", info.Schedule),
			logger.Time("next_run", info.NextRun))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received shutdown signal", logger.String("signal", sig.String()))

	log.Info("shutdown completed")
	return nil
}
