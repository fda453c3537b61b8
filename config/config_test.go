package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.True(t, cfg.IsDevelopment())

	assert.Equal(t, 28, cfg.Analytics.WindowDays)
	assert.Equal(t, 1, cfg.Analytics.MinStudyLogs)
	assert.Equal(t, 3, cfg.Analytics.WatchlistSize)
	assert.Equal(t, 60.0, cfg.Analytics.HighCutoff)
	assert.Equal(t, 35.0, cfg.Analytics.MediumCutoff)

	assert.Equal(t, 1, cfg.Scheduler.SnapshotDay)
	assert.Equal(t, 4, cfg.Scheduler.SnapshotHour)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.SnapshotTimeout)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 120, cfg.HTTP.RateLimitPerMinute)
}

func TestLoad_OverridesFromEnvironment(t *testing.T) {
	t.Setenv("RISK_WINDOW_DAYS", "14")
	t.Setenv("RISK_WATCHLIST_SIZE", "5")
	t.Setenv("RISK_WEIGHT_ATTENDANCE", "0.5")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 14, cfg.Analytics.WindowDays)
	assert.Equal(t, 5, cfg.Analytics.WatchlistSize)
	assert.Equal(t, 0.5, cfg.Analytics.AttendanceWeight)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_RejectsInvertedCutoffs(t *testing.T) {
	t.Setenv("RISK_CUTOFF_HIGH", "20")
	t.Setenv("RISK_CUTOFF_MEDIUM", "35")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "RISK_CUTOFF_HIGH")
}

func TestLoad_RejectsBadSchedule(t *testing.T) {
	t.Setenv("SCHEDULER_SNAPSHOT_DAY", "32")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "SCHEDULER_SNAPSHOT_DAY")
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "HTTP_OPERATOR_TOKEN_HASH")
}

func TestLoad_ProductionWithSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://hub:secret@db:5432/insight_hub?sslmode=require")
	t.Setenv("HTTP_OPERATOR_TOKEN_HASH", "$2a$10$abcdefghijklmnopqrstuv")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestAnalyticsConfig_RiskConfig(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)

	rc := cfg.Analytics.RiskConfig()
	assert.NoError(t, rc.Validate())
	assert.Equal(t, cfg.Analytics.AttendanceWeight, rc.Weights.Attendance)
	assert.Equal(t, cfg.Analytics.HighCutoff, rc.Cutoffs.High)
	assert.Equal(t, cfg.Analytics.WindowDays, rc.WindowDays)
}
