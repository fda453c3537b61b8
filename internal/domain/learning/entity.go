// Package learning contains the study-log and test-log domain model.
// Teachers record one StudyLog per (student, class, date) with ordinal
// ratings, and TestLogs with numeric scores. These rows are the signal
// source for risk scoring. Pure domain layer, zero external dependencies.
package learning

import (
	"fmt"
	"time"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rating is an ordinal teacher rating on a 1-5 scale.
// The zero value never appears in valid data; absence of a log means
// "no signal", not a rating of zero.
type Rating int

// IsValid checks that the rating is an integer in [1,5].
func (r Rating) IsValid() bool {
	return r >= 1 && r <= 5
}

// Score is a nullable test score in [0,100]. The Valid flag keeps a
// missing score distinguishable from a real score of zero.
type Score struct {
	Value float64
	Valid bool
}

// NewScore constructs a present score.
func NewScore(v float64) Score {
	return Score{Value: v, Valid: true}
}

// NoScore is the explicit "not graded" value.
func NoScore() Score {
	return Score{}
}

// InRange checks that a present score lies in [0,100]. An absent score
// is always in range.
func (s Score) InRange() bool {
	if !s.Valid {
		return true
	}
	return s.Value >= 0 && s.Value <= 100
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDY LOG
// ══════════════════════════════════════════════════════════════════════════════

// StudyLog is one teacher-recorded observation of a student in a class
// on a given date.
type StudyLog struct {
	// ID - row identifier.
	ID string

	// StudentID - the observed student.
	StudentID string

	// ClassName - the class in which the observation was made.
	ClassName string

	// Date - the lesson date (Seoul time, day precision).
	Date time.Time

	// Attendance, Homework, Focus - ordinal ratings, each 1-5.
	Attendance Rating
	Homework   Rating
	Focus      Rating

	// Notes - free-text remarks from the teacher.
	Notes string

	// Textbook and Progress - curriculum position fields; carried for the
	// UI, not used in scoring.
	Textbook string
	Progress string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the value-range invariants. A violation is a data
// integrity error: the scorer fails closed for the student instead of
// clamping the value.
func (l *StudyLog) Validate() error {
	if l.StudentID == "" {
		return shared.WrapError("learning", "Validate", shared.ErrDataIntegrity,
			"study log has no student ID", nil)
	}
	if l.Date.IsZero() {
		return shared.ErrLogDateMissing
	}
	if !l.Attendance.IsValid() {
		return ratingError(l, "attendance", int(l.Attendance))
	}
	if !l.Homework.IsValid() {
		return ratingError(l, "homework", int(l.Homework))
	}
	if !l.Focus.IsValid() {
		return ratingError(l, "focus", int(l.Focus))
	}
	return nil
}

func ratingError(l *StudyLog, dimension string, value int) error {
	return shared.WrapError("learning", "Validate", shared.ErrRatingOutOfRange,
		fmt.Sprintf("student %s %s rating %d outside 1-5 on %s",
			l.StudentID, dimension, value, l.Date.Format("2006-01-02")), nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// TEST LOG
// ══════════════════════════════════════════════════════════════════════════════

// TestLog is one recorded test result for a student.
type TestLog struct {
	// ID - row identifier.
	ID string

	// StudentID - the tested student.
	StudentID string

	// ClassName - the class administering the test.
	ClassName string

	// Date - the test date.
	Date time.Time

	// TestType - a free tag like "word-quiz" or "unit-exam".
	TestType string

	// Score - numeric result, nullable: an ungraded test stays on record
	// without contributing to averages.
	Score Score

	CreatedAt time.Time
}

// Validate checks the value-range invariants.
func (t *TestLog) Validate() error {
	if t.StudentID == "" {
		return shared.WrapError("learning", "Validate", shared.ErrDataIntegrity,
			"test log has no student ID", nil)
	}
	if t.Date.IsZero() {
		return shared.ErrLogDateMissing
	}
	if !t.Score.InRange() {
		return shared.WrapError("learning", "Validate", shared.ErrScoreOutOfRange,
			fmt.Sprintf("student %s test score %.1f outside 0-100 on %s",
				t.StudentID, t.Score.Value, t.Date.Format("2006-01-02")), nil)
	}
	return nil
}
