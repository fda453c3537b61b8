// Package main is the schema migration tool for Academy Insight Hub.
//
// The server and worker apply pending migrations at startup when
// DB_RUN_MIGRATIONS is set; this binary exists for operating the schema
// by hand - checking what is applied, applying pending migrations from
// a shell, or rolling the last one back after a bad deploy.
//
// Usage:
//
//	migrate           apply all pending migrations
//	migrate -status   print each migration and whether it is applied
//	migrate -rollback roll back the most recently applied migration
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/hakwon-hub/academy-insight-hub/config"
	"github.com/hakwon-hub/academy-insight-hub/internal/infrastructure/persistence/postgres"
	"github.com/hakwon-hub/academy-insight-hub/pkg/logger"
)

func main() {
	status := flag.Bool("status", false, "print migration status and exit")
	rollback := flag.Bool("rollback", false, "roll back the last applied migration")
	flag.Parse()

	if err := run(context.Background(), *status, *rollback); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, status, rollback bool) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logOpts := logger.DefaultOptions()
	logOpts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	log := logger.New(logOpts)

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

	migrator := postgres.NewMigrator(dbConn)

	switch {
	case status:
		migrations, err := migrator.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}
		for _, m := range migrations {
			state := "pending"
			if m.IsApplied {
				state = "applied " + m.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%03d %-24s %s\n", m.Version, m.Name, state)
		}
		return nil

	case rollback:
		if err := migrator.Rollback(ctx); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Info("rolled back last applied migration")
		return nil

	default:
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Info("database schema is up to date")
		return nil
	}
}
