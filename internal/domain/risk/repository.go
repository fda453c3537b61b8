package risk

import (
	"context"

	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotRepository persists monthly risk snapshots.
// Implementations are in infrastructure/persistence.
type SnapshotRepository interface {
	// ReplaceMonth atomically replaces all snapshot rows for the month
	// with the given set (delete-then-insert in one transaction). The
	// insert must not become visible before the delete completes; a
	// partial write must not survive. Calling twice with the same data
	// leaves exactly one row per (student, teacher).
	ReplaceMonth(ctx context.Context, month timeutil.YearMonth, snapshots []*Snapshot) error

	// ListMonth returns all snapshot rows for the month, ordered by
	// teacher then descending composite score. An empty month returns an
	// empty slice, not an error.
	ListMonth(ctx context.Context, month timeutil.YearMonth) ([]*Snapshot, error)

	// ListStudentHistory returns a student's snapshots for the trailing
	// months, newest first, for trend charts.
	ListStudentHistory(ctx context.Context, studentID string, months int) ([]*Snapshot, error)
}
