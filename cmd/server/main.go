// Package main is the entry point for the Academy Insight Hub API
// server. It serves the at-risk watchlist, single-student assessments,
// snapshot history and the enrollment funnel over HTTP, and runs the
// background scheduler that keeps snapshots and caches current.
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
	apihttp "github.com/hakwon-hub/academy-insight-hub/internal/interface/http"
	"github.com/hakwon-hub/academy-insight-hub/pkg/circuitbreaker"
	"github.com/hakwon-hub/academy-insight-hub/pkg/logger"
	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"

	"github.com/prometheus/client_golang/prometheus"
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
	_ = godotenv.Load() // .env is optional; real deployments use the environment

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

	log.Info("starting Academy Insight Hub server",
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

	if cfg.Database.RunMigrations {
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional; every cache failure degrades to recomputation)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var watchlistCache *redis.WatchlistCache
	var funnelCache *redis.FunnelCache
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
			redisCache = cache
			defer redisCache.Close()
			watchlistCache = redis.NewWatchlistCache(redisCache, log)
			funnelCache = redis.NewFunnelCache(redisCache, log)
			invalidator = watchlistCache
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. DOMAIN & APPLICATION WIRING
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

	getWatchlist := query.NewGetWatchlistHandler(studentRepo, learningRepo, scorer, cacheOrNil(watchlistCache), storageBreaker, log)
	getAssessment := query.NewGetStudentAssessmentHandler(studentRepo, learningRepo, scorer)
	getHistory := query.NewGetStudentHistoryHandler(snapshotRepo)
	getMonth := query.NewGetMonthSnapshotsHandler(snapshotRepo, log)
	getFunnel := query.NewGetFunnelHandler(studentRepo, funnelCacheOrNil(funnelCache), storageBreaker, log)
	saveSnapshot := command.NewSaveSnapshotHandler(studentRepo, learningRepo, snapshotRepo, scorer, invalidator, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. METRICS
	// ─────────────────────────────────────────────────────────────────────────
	var metrics *apihttp.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = apihttp.NewMetrics(prometheus.DefaultRegisterer)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(scheduler.Config{
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

		if metrics != nil {
			sched.OnJobComplete(func(result scheduler.JobResult) {
				metrics.ObserveJob(result.JobName, result.Duration, result.Error)
				if result.JobName == snapshotJob.Name() {
					if stats := snapshotJob.LastRunStats(); stats != nil {
						metrics.SetSnapshotRows(stats.SnapshotCount)
					}
				}
				if result.JobName == refreshJob.Name() {
					if stats := refreshJob.LastRunStats(); stats != nil {
						metrics.SetWatchlistSkipped(stats.SkippedStudents)
					}
				}
			})
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() { _ = sched.Stop() }()
		log.Info("scheduler started")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	serverConfig := apihttp.DefaultConfig()
	serverConfig.Host = cfg.HTTP.Host
	serverConfig.Port = cfg.HTTP.Port
	serverConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	serverConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	serverConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	serverConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverConfig.OperatorTokenHash = cfg.HTTP.OperatorTokenHash
	serverConfig.EnableMetrics = cfg.Observability.MetricsEnabled

	server := apihttp.NewServer(serverConfig, apihttp.Dependencies{
		GetWatchlistHandler:         getWatchlist,
		GetStudentAssessmentHandler: getAssessment,
		GetStudentHistoryHandler:    getHistory,
		GetMonthSnapshotsHandler:    getMonth,
		GetFunnelHandler:            getFunnel,
		SaveSnapshotHandler:         saveSnapshot,
		DB:                          dbConn,
		Cache:                       redisCache,
		Metrics:                     metrics,
		Logger:                      log,
	})

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", logger.Err(err))
	}

	log.Info("shutdown completed")
	return nil
}

// cacheOrNil keeps the typed nil out of the interface: a missing Redis
// connection must read as "no cache", not a panic on first use.
func cacheOrNil(c *redis.WatchlistCache) query.WatchlistCache {
	if c == nil {
		return nil
	}
	return c
}

func funnelCacheOrNil(c *redis.FunnelCache) query.FunnelCache {
	if c == nil {
		return nil
	}
	return c
}
