package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

func snap(studentID, teacherID string, month timeutil.YearMonth, level Level) *Snapshot {
	return &Snapshot{
		ID:        "snap-" + studentID,
		StudentID: studentID,
		TeacherID: teacherID,
		Month:     month,
		Level:     level,
	}
}

func TestCompareSnapshots_Transitions(t *testing.T) {
	jan := timeutil.YM(2026, 1)
	feb := timeutil.YM(2026, 2)

	prev := []*Snapshot{
		snap("stu-a", "t-1", jan, LevelLow),
		snap("stu-b", "t-1", jan, LevelHigh),
	}
	curr := []*Snapshot{
		snap("stu-a", "t-1", feb, LevelHigh),
		snap("stu-b", "t-1", feb, LevelHigh),
	}

	diff := CompareSnapshots(prev, curr)
	assert.Equal(t, jan, diff.PrevMonth)
	assert.Equal(t, feb, diff.CurrMonth)

	assert.Len(t, diff.Transitions, 1)
	assert.Equal(t, "stu-a", diff.Transitions[0].StudentID)
	assert.Equal(t, LevelLow, diff.Transitions[0].From)
	assert.Equal(t, LevelHigh, diff.Transitions[0].To)
	assert.True(t, diff.Transitions[0].Worsened())
	assert.True(t, diff.HasChanges())
}

func TestCompareSnapshots_NewlyAtRiskAndRecovered(t *testing.T) {
	jan := timeutil.YM(2026, 1)
	feb := timeutil.YM(2026, 2)

	prev := []*Snapshot{
		snap("stu-a", "t-1", jan, LevelLow),
		snap("stu-b", "t-1", jan, LevelHigh),
		snap("stu-c", "t-1", jan, LevelInsufficient),
	}
	curr := []*Snapshot{
		snap("stu-a", "t-1", feb, LevelMedium),
		snap("stu-b", "t-1", feb, LevelLow),
		snap("stu-c", "t-1", feb, LevelHigh),
	}

	diff := CompareSnapshots(prev, curr)

	// Both the low->medium move and the unclassified->high move count as
	// newly at risk.
	assert.Len(t, diff.NewlyAtRisk, 2)
	assert.Equal(t, "stu-a", diff.NewlyAtRisk[0].StudentID)
	assert.Equal(t, "stu-c", diff.NewlyAtRisk[1].StudentID)

	assert.Len(t, diff.Recovered, 1)
	assert.Equal(t, "stu-b", diff.Recovered[0].StudentID)
}

func TestCompareSnapshots_AppearedAndDisappeared(t *testing.T) {
	jan := timeutil.YM(2026, 1)
	feb := timeutil.YM(2026, 2)

	prev := []*Snapshot{
		snap("stu-gone", "t-1", jan, LevelLow),
	}
	curr := []*Snapshot{
		snap("stu-new", "t-1", feb, LevelHigh),
	}

	diff := CompareSnapshots(prev, curr)

	assert.Len(t, diff.Appeared, 1)
	assert.Equal(t, "stu-new", diff.Appeared[0].StudentID)
	// An at-risk newcomer is also newly at risk.
	assert.Len(t, diff.NewlyAtRisk, 1)

	assert.Len(t, diff.Disappeared, 1)
	assert.Equal(t, "stu-gone", diff.Disappeared[0].StudentID)
	assert.Empty(t, diff.Transitions)
}

func TestCompareSnapshots_KeyedByStudentAndTeacher(t *testing.T) {
	jan := timeutil.YM(2026, 1)
	feb := timeutil.YM(2026, 2)

	// Same student, different teacher: a move, not a transition.
	prev := []*Snapshot{snap("stu-a", "t-1", jan, LevelLow)}
	curr := []*Snapshot{snap("stu-a", "t-2", feb, LevelHigh)}

	diff := CompareSnapshots(prev, curr)
	assert.Empty(t, diff.Transitions)
	assert.Len(t, diff.Appeared, 1)
	assert.Len(t, diff.Disappeared, 1)
}

func TestCompareSnapshots_NoChanges(t *testing.T) {
	jan := timeutil.YM(2026, 1)
	feb := timeutil.YM(2026, 2)

	prev := []*Snapshot{snap("stu-a", "t-1", jan, LevelMedium)}
	curr := []*Snapshot{snap("stu-a", "t-1", feb, LevelMedium)}

	diff := CompareSnapshots(prev, curr)
	assert.False(t, diff.HasChanges())
	assert.Empty(t, diff.NewlyAtRisk)
	assert.Empty(t, diff.Recovered)
}

func TestTransition_Worsened(t *testing.T) {
	assert.True(t, Transition{From: LevelLow, To: LevelMedium}.Worsened())
	assert.True(t, Transition{From: LevelInsufficient, To: LevelLow}.Worsened())
	assert.False(t, Transition{From: LevelHigh, To: LevelMedium}.Worsened())
	assert.False(t, Transition{From: LevelMedium, To: LevelMedium}.Worsened())
}

func TestFromAssessment(t *testing.T) {
	assessedAt := time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC)
	a := &Assessment{
		StudentID:      "stu-1",
		AttendanceAvg:  Average{Value: 4.5, Valid: true},
		HomeworkAvg:    Average{Value: 3.0, Valid: true},
		FocusAvg:       Average{},
		TestScoreAvg:   Average{Value: 88, Valid: true},
		CompositeScore: 42.5,
		Level:          LevelMedium,
		AssessedAt:     assessedAt,
	}

	month := timeutil.YM(2026, 2)
	s := FromAssessment("row-1", a, "t-9", []string{"math-a", "eng-b"}, month)

	assert.Equal(t, "row-1", s.ID)
	assert.Equal(t, "stu-1", s.StudentID)
	assert.Equal(t, "t-9", s.TeacherID)
	assert.Equal(t, month, s.Month)
	assert.Equal(t, []string{"math-a", "eng-b"}, s.ClassNames)
	assert.Equal(t, 42.5, s.CompositeScore)
	assert.Equal(t, LevelMedium, s.Level)
	assert.False(t, s.FocusAvg.Valid)
	assert.Equal(t, assessedAt, s.CreatedAt)
}
