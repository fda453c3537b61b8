package command

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/learning"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/risk"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/shared"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/student"
	"github.com/hakwon-hub/academy-insight-hub/pkg/logger"
	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeStudentRepo struct {
	students []*student.Student
}

func (f *fakeStudentRepo) GetByID(_ context.Context, id student.ID) (*student.Student, error) {
	for _, s := range f.students {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, shared.ErrStudentNotFound
}

func (f *fakeStudentRepo) List(_ context.Context, _ student.Filter) ([]*student.Student, error) {
	return f.students, nil
}

func (f *fakeStudentRepo) ListEnrolled(_ context.Context) ([]*student.Student, error) {
	return f.students, nil
}

type fakeLearningRepo struct {
	study map[string][]*learning.StudyLog
	tests map[string][]*learning.TestLog
}

func (f *fakeLearningRepo) StudyLogsFor(_ context.Context, _ []string, _ timeutil.Window) (map[string][]*learning.StudyLog, error) {
	return f.study, nil
}

func (f *fakeLearningRepo) TestLogsFor(_ context.Context, _ []string, _ timeutil.Window) (map[string][]*learning.TestLog, error) {
	return f.tests, nil
}

type fakeSnapshotRepo struct {
	replaceCalls int
	month        timeutil.YearMonth
	saved        []*risk.Snapshot
}

func (f *fakeSnapshotRepo) ReplaceMonth(_ context.Context, month timeutil.YearMonth, snapshots []*risk.Snapshot) error {
	f.replaceCalls++
	f.month = month
	f.saved = snapshots
	return nil
}

func (f *fakeSnapshotRepo) ListMonth(_ context.Context, month timeutil.YearMonth) ([]*risk.Snapshot, error) {
	if month == f.month {
		return f.saved, nil
	}
	return nil, nil
}

func (f *fakeSnapshotRepo) ListStudentHistory(_ context.Context, _ string, _ int) ([]*risk.Snapshot, error) {
	return nil, nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate(_ context.Context) {
	f.calls++
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixtures
// ─────────────────────────────────────────────────────────────────────────────

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
}

func enrolledStudent(id, teacherID string) *student.Student {
	return &student.Student{
		ID:               student.ID(id),
		Status:           student.StatusEnrolled,
		PrimaryTeacherID: teacherID,
		ClassNames:       []string{"math-a"},
		FirstContactAt:   timeutil.Date(2025, 9, 1),
		EnrolledAt:       timeutil.Date(2025, 9, 15),
	}
}

func febStudyLog(studentID string, day, att, hw, focus int) *learning.StudyLog {
	return &learning.StudyLog{
		ID:         "log-" + studentID,
		StudentID:  studentID,
		ClassName:  "math-a",
		Date:       timeutil.Date(2026, 2, day),
		Attendance: learning.Rating(att),
		Homework:   learning.Rating(hw),
		Focus:      learning.Rating(focus),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestSaveSnapshotHandler_WritesMonth(t *testing.T) {
	scorer, _ := risk.NewScorer(risk.DefaultConfig())

	studentRepo := &fakeStudentRepo{students: []*student.Student{
		enrolledStudent("stu-a", "t-1"),
		enrolledStudent("stu-b", "t-1"),
	}}
	learningRepo := &fakeLearningRepo{
		study: map[string][]*learning.StudyLog{
			"stu-a": {febStudyLog("stu-a", 10, 5, 4, 5)},
			// stu-b has no logs this month.
		},
	}
	snapshotRepo := &fakeSnapshotRepo{}
	invalidator := &fakeInvalidator{}

	h := NewSaveSnapshotHandler(studentRepo, learningRepo, snapshotRepo, scorer, invalidator, quietLogger())

	result, err := h.Handle(context.Background(), SaveSnapshotCommand{Year: 2026, Month: 2})
	assert.NoError(t, err)

	assert.Equal(t, "2026-02", result.Month)
	assert.Equal(t, 2, result.SnapshotCount)
	// The log-less student is snapshotted too, flagged as insufficient.
	assert.Equal(t, 1, result.InsufficientData)
	assert.Empty(t, result.Skipped)

	assert.Equal(t, 1, snapshotRepo.replaceCalls)
	assert.Equal(t, timeutil.YM(2026, 2), snapshotRepo.month)
	assert.Len(t, snapshotRepo.saved, 2)
	assert.Equal(t, 1, invalidator.calls)

	byStudent := make(map[string]*risk.Snapshot)
	for _, s := range snapshotRepo.saved {
		byStudent[s.StudentID] = s
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, "t-1", s.TeacherID)
	}
	assert.Equal(t, risk.LevelLow, byStudent["stu-a"].Level)
	assert.Equal(t, risk.LevelInsufficient, byStudent["stu-b"].Level)
}

func TestSaveSnapshotHandler_SkipsMalformedLogs(t *testing.T) {
	scorer, _ := risk.NewScorer(risk.DefaultConfig())

	studentRepo := &fakeStudentRepo{students: []*student.Student{
		enrolledStudent("stu-good", "t-1"),
		enrolledStudent("stu-bad", "t-1"),
	}}
	learningRepo := &fakeLearningRepo{
		study: map[string][]*learning.StudyLog{
			"stu-good": {febStudyLog("stu-good", 10, 4, 4, 4)},
			"stu-bad":  {febStudyLog("stu-bad", 10, 9, 4, 4)},
		},
	}
	snapshotRepo := &fakeSnapshotRepo{}

	h := NewSaveSnapshotHandler(studentRepo, learningRepo, snapshotRepo, scorer, nil, quietLogger())

	result, err := h.Handle(context.Background(), SaveSnapshotCommand{Year: 2026, Month: 2})
	assert.NoError(t, err)

	assert.Equal(t, 1, result.SnapshotCount)
	assert.Len(t, result.Skipped, 1)
	assert.Equal(t, "stu-bad", result.Skipped[0].StudentID)
	assert.NotEmpty(t, result.Skipped[0].Reason)

	assert.Len(t, snapshotRepo.saved, 1)
	assert.Equal(t, "stu-good", snapshotRepo.saved[0].StudentID)
}

func TestSaveSnapshotHandler_RejectsInvalidMonth(t *testing.T) {
	scorer, _ := risk.NewScorer(risk.DefaultConfig())
	h := NewSaveSnapshotHandler(&fakeStudentRepo{}, &fakeLearningRepo{}, &fakeSnapshotRepo{}, scorer, nil, quietLogger())

	_, err := h.Handle(context.Background(), SaveSnapshotCommand{Year: 1999, Month: 12})
	assert.ErrorIs(t, err, shared.ErrInvalidSnapshotYM)

	_, err = h.Handle(context.Background(), SaveSnapshotCommand{Year: 2026, Month: 13})
	assert.ErrorIs(t, err, shared.ErrInvalidSnapshotYM)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestSaveSnapshotHandler_CancelledContextSkipsWrite(t *testing.T) {
	scorer, _ := risk.NewScorer(risk.DefaultConfig())
	snapshotRepo := &fakeSnapshotRepo{}

	studentRepo := &fakeStudentRepo{students: []*student.Student{enrolledStudent("stu-a", "t-1")}}
	h := NewSaveSnapshotHandler(studentRepo, &fakeLearningRepo{}, snapshotRepo, scorer, nil, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Handle(ctx, SaveSnapshotCommand{Year: 2026, Month: 2})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, snapshotRepo.replaceCalls)
}

func TestSaveSnapshotHandler_EmptyMonthStillReplaces(t *testing.T) {
	scorer, _ := risk.NewScorer(risk.DefaultConfig())
	snapshotRepo := &fakeSnapshotRepo{}

	h := NewSaveSnapshotHandler(&fakeStudentRepo{}, &fakeLearningRepo{}, snapshotRepo, scorer, nil, quietLogger())

	result, err := h.Handle(context.Background(), SaveSnapshotCommand{Year: 2026, Month: 2})
	assert.NoError(t, err)
	assert.Equal(t, 0, result.SnapshotCount)

	// Re-saving with no enrolled students clears the month.
	assert.Equal(t, 1, snapshotRepo.replaceCalls)
	assert.Empty(t, snapshotRepo.saved)
}
