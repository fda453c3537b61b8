package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hakwon-hub/academy-insight-hub/internal/application/query"
	"github.com/hakwon-hub/academy-insight-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH WATCHLIST JOB
// ══════════════════════════════════════════════════════════════════════════════

// RefreshWatchlistJob recomputes the default watchlist on an interval
// to keep the cache warm, so the dashboard's first morning request
// doesn't pay the full scoring cost.
type RefreshWatchlistJob struct {
	handler *query.GetWatchlistHandler
	log     *logger.Logger
	config  RefreshWatchlistConfig

	lastRunStats atomic.Value // *RefreshWatchlistStats
}

// RefreshWatchlistConfig contains configuration for the refresh job.
type RefreshWatchlistConfig struct {
	// Timeout is the maximum duration for the job.
	Timeout time.Duration
}

// DefaultRefreshWatchlistConfig returns sensible defaults.
func DefaultRefreshWatchlistConfig() RefreshWatchlistConfig {
	return RefreshWatchlistConfig{
		Timeout: 2 * time.Minute,
	}
}

// RefreshWatchlistStats contains statistics from a refresh run.
type RefreshWatchlistStats struct {
	StartedAt       time.Time
	CompletedAt     time.Time
	Duration        time.Duration
	Teachers        int
	SkippedStudents int
	Err             error
}

// NewRefreshWatchlistJob creates the job.
func NewRefreshWatchlistJob(
	handler *query.GetWatchlistHandler,
	log *logger.Logger,
	config RefreshWatchlistConfig,
) *RefreshWatchlistJob {
	return &RefreshWatchlistJob{
		handler: handler,
		log:     log.With(logger.Component("refresh_watchlist_job")),
		config:  config,
	}
}

// Name returns the job name.
func (j *RefreshWatchlistJob) Name() string {
	return "refresh_watchlist"
}

// Description returns a human-readable description.
func (j *RefreshWatchlistJob) Description() string {
	return "Recomputes the default watchlist to keep the cache warm"
}

// Run executes the refresh. Refresh bypasses the handler's cache read
// and overwrites the cached result, so every run recomputes even when
// the previous entry has not expired yet.
func (j *RefreshWatchlistJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	result, err := j.handler.Refresh(ctx)

	stats := &RefreshWatchlistStats{
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
		Err:         err,
	}
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	if result != nil {
		stats.Teachers = len(result.Watchlists)
		stats.SkippedStudents = len(result.Skipped)
	}
	j.lastRunStats.Store(stats)

	if err != nil {
		return fmt.Errorf("watchlist refresh failed: %w", err)
	}

	j.log.Info("watchlist refreshed",
		logger.Int("teachers", stats.Teachers),
		logger.Int("skipped", stats.SkippedStudents),
		logger.Duration("duration", stats.Duration))

	return nil
}

// LastRunStats returns statistics from the last run.
func (j *RefreshWatchlistJob) LastRunStats() *RefreshWatchlistStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RefreshWatchlistStats)
}
