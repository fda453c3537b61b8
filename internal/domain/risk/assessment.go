// Package risk contains the at-risk scoring engine: a pure function from a
// student's recent study and test logs to a composite risk score and a
// coarse classification. Zero external dependencies.
package risk

import (
	"fmt"
	"time"

	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RISK LEVEL
// ══════════════════════════════════════════════════════════════════════════════

// Level is the coarse classification of a student's need for intervention.
type Level string

const (
	// LevelLow - signals look healthy.
	LevelLow Level = "low"
	// LevelMedium - worth keeping an eye on.
	LevelMedium Level = "medium"
	// LevelHigh - intervention recommended.
	LevelHigh Level = "high"
	// LevelInsufficient - too few logs in the window to classify.
	// Deliberately distinct from LevelLow: "we don't know" is not "fine".
	LevelInsufficient Level = "insufficient_data"
)

// IsValid checks that the level is one of the enumerated values.
func (l Level) IsValid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh, LevelInsufficient:
		return true
	default:
		return false
	}
}

// IsClassified returns true for the three real risk classes.
func (l Level) IsClassified() bool {
	return l == LevelLow || l == LevelMedium || l == LevelHigh
}

// Severity orders levels for sorting: high > medium > low. Insufficient
// sorts below everything.
func (l Level) Severity() int {
	switch l {
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	case LevelLow:
		return 1
	default:
		return 0
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// AVERAGE (explicit "no data")
// ══════════════════════════════════════════════════════════════════════════════

// Average is a mean with an explicit presence flag. A dimension with no
// logs in the window yields an invalid Average, never a zero - missing
// data must not masquerade as a worst (or best) score.
type Average struct {
	Value float64
	Valid bool
}

// AverageOf computes the mean of the given values, invalid when empty.
func AverageOf(values []float64) Average {
	if len(values) == 0 {
		return Average{}
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return Average{Value: sum / float64(len(values)), Valid: true}
}

// String renders the average for logs, "-" when absent.
func (a Average) String() string {
	if !a.Valid {
		return "-"
	}
	return fmt.Sprintf("%.2f", a.Value)
}

// ══════════════════════════════════════════════════════════════════════════════
// RISK ASSESSMENT
// ══════════════════════════════════════════════════════════════════════════════

// Assessment is the immutable result of scoring one student over one
// evaluation window. Computed on demand, never mutated after creation.
type Assessment struct {
	// StudentID - the assessed student.
	StudentID string

	// Window - the evaluation window the logs were drawn from.
	Window timeutil.Window

	// AttendanceAvg, HomeworkAvg, FocusAvg - means of the ordinal ratings
	// (1-5 scale) over study logs in the window.
	AttendanceAvg Average
	HomeworkAvg   Average
	FocusAvg      Average

	// TestScoreAvg - mean of graded test scores (0-100); ungraded tests
	// are excluded, not counted as zero.
	TestScoreAvg Average

	// CompositeScore - weighted combination of the sub-signals, 0-100.
	// Higher means more at risk. Zero and meaningless when the level is
	// LevelInsufficient.
	CompositeScore float64

	// Level - thresholded classification.
	Level Level

	// StudyLogCount, TestLogCount - how many rows backed the assessment.
	StudyLogCount int
	TestLogCount  int

	// AssessedAt - when the assessment was computed.
	AssessedAt time.Time
}

// Insufficient returns true when the student could not be classified.
func (a *Assessment) Insufficient() bool {
	return a.Level == LevelInsufficient
}

// String returns a compact representation for logging.
func (a *Assessment) String() string {
	return fmt.Sprintf(
		"Assessment{Student: %s, Composite: %.1f, Level: %s, Att: %s, HW: %s, Focus: %s, Test: %s}",
		a.StudentID, a.CompositeScore, a.Level,
		a.AttendanceAvg, a.HomeworkAvg, a.FocusAvg, a.TestScoreAvg,
	)
}
