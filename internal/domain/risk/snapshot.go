package risk

import (
	"fmt"
	"time"

	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RISK SNAPSHOT
// A persisted copy of an assessment, tagged with the student's primary
// teacher and a calendar month. Saved explicitly by an operator (or the
// monthly job); never updated in place - re-saving a month replaces the
// whole set.
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot is one persisted (student, teacher, month) assessment row.
type Snapshot struct {
	// ID - row identifier (UUID).
	ID string

	// StudentID and TeacherID - the snapshotted pair. At most one logical
	// row exists per (student, teacher, year, month); storage enforces it.
	StudentID string
	TeacherID string

	// Month - the calendar month the snapshot belongs to.
	Month timeutil.YearMonth

	// ClassNames - the classes the student attended when snapshotted.
	ClassNames []string

	// Sub-averages at snapshot time; absent dimensions stay absent.
	AttendanceAvg Average
	HomeworkAvg   Average
	FocusAvg      Average
	TestScoreAvg  Average

	// CompositeScore and Level - the classification at snapshot time.
	CompositeScore float64
	Level          Level

	// CreatedAt - when the snapshot row was written.
	CreatedAt time.Time
}

// FromAssessment builds a snapshot row from a live assessment.
func FromAssessment(id string, a *Assessment, teacherID string, classNames []string, month timeutil.YearMonth) *Snapshot {
	return &Snapshot{
		ID:             id,
		StudentID:      a.StudentID,
		TeacherID:      teacherID,
		Month:          month,
		ClassNames:     classNames,
		AttendanceAvg:  a.AttendanceAvg,
		HomeworkAvg:    a.HomeworkAvg,
		FocusAvg:       a.FocusAvg,
		TestScoreAvg:   a.TestScoreAvg,
		CompositeScore: a.CompositeScore,
		Level:          a.Level,
		CreatedAt:      a.AssessedAt,
	}
}

// String returns a compact representation for logging.
func (s *Snapshot) String() string {
	return fmt.Sprintf("Snapshot{Student: %s, Teacher: %s, Month: %s, Level: %s, Composite: %.1f}",
		s.StudentID, s.TeacherID, s.Month, s.Level, s.CompositeScore)
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT DIFF (month-over-month trend)
// ══════════════════════════════════════════════════════════════════════════════

// Transition records one student's level change between two months.
type Transition struct {
	StudentID string
	TeacherID string
	From      Level
	To        Level
}

// Worsened returns true if the student moved to a more severe level.
func (t Transition) Worsened() bool {
	return t.To.Severity() > t.From.Severity()
}

// SnapshotDiff compares two months of snapshots for trend display.
type SnapshotDiff struct {
	// PrevMonth and CurrMonth - the compared months.
	PrevMonth timeutil.YearMonth
	CurrMonth timeutil.YearMonth

	// Transitions - students present in both months whose level changed.
	Transitions []Transition

	// NewlyAtRisk - students at medium or high now, but low, absent, or
	// unclassified last month.
	NewlyAtRisk []*Snapshot

	// Recovered - students at low now that were medium or high last month.
	Recovered []*Snapshot

	// Appeared - students snapshotted now but not last month.
	Appeared []*Snapshot

	// Disappeared - students snapshotted last month but not now.
	Disappeared []*Snapshot
}

// CompareSnapshots diffs two snapshot sets. Keyed by (student, teacher):
// a student moving between teachers shows up as disappeared + appeared.
func CompareSnapshots(prev, curr []*Snapshot) *SnapshotDiff {
	diff := &SnapshotDiff{}
	if len(prev) > 0 {
		diff.PrevMonth = prev[0].Month
	}
	if len(curr) > 0 {
		diff.CurrMonth = curr[0].Month
	}

	type key struct{ student, teacher string }
	prevByKey := make(map[key]*Snapshot, len(prev))
	for _, s := range prev {
		prevByKey[key{s.StudentID, s.TeacherID}] = s
	}

	currKeys := make(map[key]bool, len(curr))
	for _, s := range curr {
		k := key{s.StudentID, s.TeacherID}
		currKeys[k] = true

		old, existed := prevByKey[k]
		if !existed {
			diff.Appeared = append(diff.Appeared, s)
			if atRisk(s.Level) {
				diff.NewlyAtRisk = append(diff.NewlyAtRisk, s)
			}
			continue
		}

		if old.Level != s.Level {
			diff.Transitions = append(diff.Transitions, Transition{
				StudentID: s.StudentID,
				TeacherID: s.TeacherID,
				From:      old.Level,
				To:        s.Level,
			})
		}
		if atRisk(s.Level) && !atRisk(old.Level) {
			diff.NewlyAtRisk = append(diff.NewlyAtRisk, s)
		}
		if s.Level == LevelLow && atRisk(old.Level) {
			diff.Recovered = append(diff.Recovered, s)
		}
	}

	for _, s := range prev {
		if !currKeys[key{s.StudentID, s.TeacherID}] {
			diff.Disappeared = append(diff.Disappeared, s)
		}
	}

	return diff
}

func atRisk(l Level) bool {
	return l == LevelMedium || l == LevelHigh
}

// HasChanges returns true if anything moved between the two months.
func (d *SnapshotDiff) HasChanges() bool {
	return len(d.Transitions) > 0 || len(d.Appeared) > 0 || len(d.Disappeared) > 0
}
