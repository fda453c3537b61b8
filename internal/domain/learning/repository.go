package learning

import (
	"context"

	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository fetches study and test logs for scoring. Absence of rows
// for a student is valid data, distinct from a query error.
type Repository interface {
	// StudyLogsFor returns study logs for the given students whose Date
	// falls within the window. Results are grouped by student ID; a
	// student with no logs simply has no map entry.
	StudyLogsFor(ctx context.Context, studentIDs []string, window timeutil.Window) (map[string][]*StudyLog, error)

	// TestLogsFor returns test logs for the given students within the
	// window, grouped by student ID.
	TestLogsFor(ctx context.Context, studentIDs []string, window timeutil.Window) (map[string][]*TestLog, error)
}
