// Package jobs contains the scheduled jobs for Academy Insight Hub.
package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hakwon-hub/academy-insight-hub/internal/application/command"
	"github.com/hakwon-hub/academy-insight-hub/pkg/logger"
	"github.com/hakwon-hub/academy-insight-hub/pkg/retry"
	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MONTHLY SNAPSHOT JOB
// ══════════════════════════════════════════════════════════════════════════════

// MonthlySnapshotJob persists the previous calendar month's risk
// snapshot set. Scheduled for the first day of each month so the
// snapshotted month is complete when it runs; re-running is safe
// because the write replaces the month wholesale.
type MonthlySnapshotJob struct {
	handler *command.SaveSnapshotHandler
	retrier *retry.Retrier
	log     *logger.Logger
	config  MonthlySnapshotConfig
	now     func() time.Time

	lastRunStats atomic.Value // *MonthlySnapshotStats
}

// MonthlySnapshotConfig contains configuration for the monthly snapshot job.
type MonthlySnapshotConfig struct {
	// Timeout is the maximum duration for the job.
	Timeout time.Duration
}

// DefaultMonthlySnapshotConfig returns sensible defaults.
func DefaultMonthlySnapshotConfig() MonthlySnapshotConfig {
	return MonthlySnapshotConfig{
		Timeout: 10 * time.Minute,
	}
}

// MonthlySnapshotStats contains statistics from a snapshot run.
type MonthlySnapshotStats struct {
	StartedAt        time.Time
	CompletedAt      time.Time
	Duration         time.Duration
	Month            string
	SnapshotCount    int
	InsufficientData int
	SkippedStudents  int
	Err              error
}

// NewMonthlySnapshotJob creates the job. retrier may be nil, in which
// case the snapshot retry preset is used.
func NewMonthlySnapshotJob(
	handler *command.SaveSnapshotHandler,
	retrier *retry.Retrier,
	log *logger.Logger,
	config MonthlySnapshotConfig,
) *MonthlySnapshotJob {
	if retrier == nil {
		retrier = retry.SnapshotRetrier()
	}
	return &MonthlySnapshotJob{
		handler: handler,
		retrier: retrier,
		log:     log.With(logger.Component("monthly_snapshot_job")),
		config:  config,
		now:     timeutil.Now,
	}
}

// Name returns the job name.
func (j *MonthlySnapshotJob) Name() string {
	return "monthly_snapshot"
}

// Description returns a human-readable description.
func (j *MonthlySnapshotJob) Description() string {
	return "Persists the previous month's risk snapshot set"
}

// Run executes the snapshot job for the previous calendar month.
func (j *MonthlySnapshotJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	month := timeutil.YearMonthOf(j.now()).Prev()
	stats := &MonthlySnapshotStats{
		StartedAt: startedAt,
		Month:     month.String(),
	}

	j.log.Info("starting monthly snapshot", logger.SnapshotMonth(month.String()))

	var result *command.SaveSnapshotResult
	err := j.retrier.Do(ctx, func(ctx context.Context) error {
		var e error
		result, e = j.handler.Handle(ctx, command.SaveSnapshotCommand{
			Year:  month.Year,
			Month: month.Month,
		})
		return e
	})

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	stats.Err = err
	if result != nil {
		stats.SnapshotCount = result.SnapshotCount
		stats.InsufficientData = result.InsufficientData
		stats.SkippedStudents = len(result.Skipped)
	}
	j.lastRunStats.Store(stats)

	if err != nil {
		return fmt.Errorf("monthly snapshot for %s failed: %w", month, err)
	}

	j.log.Info("monthly snapshot completed",
		logger.SnapshotMonth(month.String()),
		logger.Int("snapshot_count", stats.SnapshotCount),
		logger.Int("insufficient_data", stats.InsufficientData),
		logger.Int("skipped", stats.SkippedStudents),
		logger.Duration("duration", stats.Duration))

	return nil
}

// LastRunStats returns statistics from the last run.
func (j *MonthlySnapshotJob) LastRunStats() *MonthlySnapshotStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*MonthlySnapshotStats)
}
