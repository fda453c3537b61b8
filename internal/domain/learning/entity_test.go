package learning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/shared"
)

func validStudyLog() *StudyLog {
	return &StudyLog{
		ID:         "log-1",
		StudentID:  "stu-1",
		ClassName:  "math-a",
		Date:       time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Attendance: 4,
		Homework:   3,
		Focus:      5,
	}
}

func TestStudyLog_Validate(t *testing.T) {
	assert.NoError(t, validStudyLog().Validate())
}

func TestStudyLog_ValidateRejectsOutOfRangeRatings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*StudyLog)
	}{
		{"attendance zero", func(l *StudyLog) { l.Attendance = 0 }},
		{"homework six", func(l *StudyLog) { l.Homework = 6 }},
		{"focus negative", func(l *StudyLog) { l.Focus = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := validStudyLog()
			tc.mutate(l)

			err := l.Validate()
			assert.ErrorIs(t, err, shared.ErrRatingOutOfRange)
			// Out-of-range ratings stay a fail-closed integrity violation.
			assert.True(t, shared.IsDataIntegrity(err))
		})
	}
}

func TestStudyLog_ValidateRequiresDate(t *testing.T) {
	l := validStudyLog()
	l.Date = time.Time{}
	assert.ErrorIs(t, l.Validate(), shared.ErrLogDateMissing)
}

func TestTestLog_Validate(t *testing.T) {
	l := &TestLog{
		ID:        "test-1",
		StudentID: "stu-1",
		ClassName: "math-a",
		Date:      time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC),
		Score:     NewScore(87.5),
	}
	assert.NoError(t, l.Validate())

	// An ungraded test is valid data, not a missing score of zero.
	l.Score = NoScore()
	assert.NoError(t, l.Validate())

	l.Score = NewScore(100.5)
	err := l.Validate()
	assert.ErrorIs(t, err, shared.ErrScoreOutOfRange)
	assert.True(t, shared.IsDataIntegrity(err))

	l.Score = NewScore(-0.5)
	assert.ErrorIs(t, l.Validate(), shared.ErrScoreOutOfRange)
}
