package query

import (
	"context"
	"io"
	"testing"
	"time"

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
	listErr  error
}

func (f *fakeStudentRepo) GetByID(_ context.Context, id student.ID) (*student.Student, error) {
	for _, s := range f.students {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, shared.ErrStudentNotFound
}

func (f *fakeStudentRepo) List(_ context.Context, filter student.Filter) ([]*student.Student, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var matched []*student.Student
	for _, s := range f.students {
		if filter.TeacherID != "" && s.PrimaryTeacherID != filter.TeacherID {
			continue
		}
		matched = append(matched, s)
	}
	return matched, nil
}

func (f *fakeStudentRepo) ListEnrolled(_ context.Context) ([]*student.Student, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
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

type fakeWatchlistCache struct {
	stored *GetWatchlistResult
	gets   int
	sets   int
}

func (f *fakeWatchlistCache) Get(_ context.Context, _, _ int) (*GetWatchlistResult, bool) {
	f.gets++
	if f.stored == nil {
		return nil, false
	}
	return f.stored, true
}

func (f *fakeWatchlistCache) Set(_ context.Context, _, _ int, result *GetWatchlistResult) {
	f.sets++
	f.stored = result
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixtures
// ─────────────────────────────────────────────────────────────────────────────

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
}

func enrolled(id, teacherID, name string) *student.Student {
	return &student.Student{
		ID:               student.ID(id),
		Name:             name,
		Status:           student.StatusEnrolled,
		PrimaryTeacherID: teacherID,
		ClassNames:       []string{"math-a"},
		FirstContactAt:   timeutil.Date(2025, 9, 1),
		EnrolledAt:       timeutil.Date(2025, 9, 15),
	}
}

func recentStudyLog(studentID string, att, hw, focus int) *learning.StudyLog {
	return &learning.StudyLog{
		ID:         "log-" + studentID,
		StudentID:  studentID,
		ClassName:  "math-a",
		Date:       time.Now().AddDate(0, 0, -1),
		Attendance: learning.Rating(att),
		Homework:   learning.Rating(hw),
		Focus:      learning.Rating(focus),
	}
}

func newWatchlistHandler(students *fakeStudentRepo, logs *fakeLearningRepo, cache WatchlistCache) *GetWatchlistHandler {
	scorer, _ := risk.NewScorer(risk.DefaultConfig())
	return NewGetWatchlistHandler(students, logs, scorer, cache, nil, quietLogger())
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestGetWatchlistHandler_TopKPerTeacher(t *testing.T) {
	students := &fakeStudentRepo{students: []*student.Student{
		enrolled("stu-a", "t-1", "Kim"),
		enrolled("stu-b", "t-1", "Lee"),
		enrolled("stu-c", "t-1", "Park"),
		enrolled("stu-d", "t-1", "Choi"),
		enrolled("stu-e", "t-2", "Jung"),
	}}
	logs := &fakeLearningRepo{study: map[string][]*learning.StudyLog{
		"stu-a": {recentStudyLog("stu-a", 1, 1, 1)},
		"stu-b": {recentStudyLog("stu-b", 2, 2, 2)},
		"stu-c": {recentStudyLog("stu-c", 3, 3, 3)},
		"stu-d": {recentStudyLog("stu-d", 5, 5, 5)},
		"stu-e": {recentStudyLog("stu-e", 4, 4, 4)},
	}}

	h := newWatchlistHandler(students, logs, nil)

	result, err := h.Handle(context.Background(), GetWatchlistQuery{})
	assert.NoError(t, err)
	assert.Equal(t, 28, result.WindowDays)
	assert.Equal(t, 3, result.TopK)
	assert.Len(t, result.Watchlists, 2)

	// Teacher 1: worst three of four, most at-risk first.
	t1 := result.Watchlists[0]
	assert.Equal(t, "t-1", t1.TeacherID)
	assert.Len(t, t1.Entries, 3)
	assert.Equal(t, "stu-a", t1.Entries[0].StudentID)
	assert.Equal(t, "Kim", t1.Entries[0].StudentName)
	assert.Equal(t, "stu-b", t1.Entries[1].StudentID)
	assert.Equal(t, "stu-c", t1.Entries[2].StudentID)

	t2 := result.Watchlists[1]
	assert.Equal(t, "t-2", t2.TeacherID)
	assert.Len(t, t2.Entries, 1)
}

func TestGetWatchlistHandler_SkipsMalformedStudents(t *testing.T) {
	students := &fakeStudentRepo{students: []*student.Student{
		enrolled("stu-good", "t-1", "Kim"),
		enrolled("stu-bad", "t-1", "Lee"),
	}}
	logs := &fakeLearningRepo{study: map[string][]*learning.StudyLog{
		"stu-good": {recentStudyLog("stu-good", 2, 2, 2)},
		"stu-bad":  {recentStudyLog("stu-bad", 0, 2, 2)},
	}}

	h := newWatchlistHandler(students, logs, nil)

	result, err := h.Handle(context.Background(), GetWatchlistQuery{})
	assert.NoError(t, err)
	assert.Len(t, result.Skipped, 1)
	assert.Equal(t, "stu-bad", result.Skipped[0].StudentID)
	assert.Len(t, result.Watchlists, 1)
	assert.Len(t, result.Watchlists[0].Entries, 1)
}

func TestGetWatchlistHandler_CachesUnfilteredResult(t *testing.T) {
	students := &fakeStudentRepo{students: []*student.Student{enrolled("stu-a", "t-1", "Kim")}}
	logs := &fakeLearningRepo{study: map[string][]*learning.StudyLog{
		"stu-a": {recentStudyLog("stu-a", 3, 3, 3)},
	}}
	cache := &fakeWatchlistCache{}

	h := newWatchlistHandler(students, logs, cache)

	first, err := h.Handle(context.Background(), GetWatchlistQuery{})
	assert.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	second, err := h.Handle(context.Background(), GetWatchlistQuery{})
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.sets)
}

func TestGetWatchlistHandler_RefreshOverwritesLiveCacheEntry(t *testing.T) {
	students := &fakeStudentRepo{students: []*student.Student{enrolled("stu-a", "t-1", "Kim")}}
	logs := &fakeLearningRepo{study: map[string][]*learning.StudyLog{
		"stu-a": {recentStudyLog("stu-a", 1, 1, 1)},
	}}
	stale := &GetWatchlistResult{WindowDays: 28, TopK: 3}
	cache := &fakeWatchlistCache{stored: stale}

	h := newWatchlistHandler(students, logs, cache)

	// Handle is satisfied by the live entry and computes nothing.
	cached, err := h.Handle(context.Background(), GetWatchlistQuery{})
	assert.NoError(t, err)
	assert.Same(t, stale, cached)

	// Refresh recomputes despite the live entry and replaces it.
	fresh, err := h.Refresh(context.Background())
	assert.NoError(t, err)
	assert.NotSame(t, stale, fresh)
	assert.Len(t, fresh.Watchlists, 1)
	assert.Equal(t, "stu-a", fresh.Watchlists[0].Entries[0].StudentID)

	assert.Equal(t, 1, cache.sets)
	assert.Same(t, fresh, cache.stored)

	// The next read serves the refreshed result.
	after, err := h.Handle(context.Background(), GetWatchlistQuery{})
	assert.NoError(t, err)
	assert.Same(t, fresh, after)
}

func TestGetWatchlistHandler_TeacherFilterBypassesCache(t *testing.T) {
	students := &fakeStudentRepo{students: []*student.Student{
		enrolled("stu-a", "t-1", "Kim"),
		enrolled("stu-b", "t-2", "Lee"),
	}}
	logs := &fakeLearningRepo{study: map[string][]*learning.StudyLog{
		"stu-a": {recentStudyLog("stu-a", 3, 3, 3)},
		"stu-b": {recentStudyLog("stu-b", 3, 3, 3)},
	}}
	cache := &fakeWatchlistCache{}

	h := newWatchlistHandler(students, logs, cache)

	result, err := h.Handle(context.Background(), GetWatchlistQuery{TeacherID: "t-2"})
	assert.NoError(t, err)
	assert.Len(t, result.Watchlists, 1)
	assert.Equal(t, "t-2", result.Watchlists[0].TeacherID)

	// A filtered view must never populate or read the shared cache.
	assert.Equal(t, 0, cache.gets)
	assert.Equal(t, 0, cache.sets)
}

func TestGetWatchlistHandler_ValidatesQuery(t *testing.T) {
	h := newWatchlistHandler(&fakeStudentRepo{}, &fakeLearningRepo{}, nil)

	_, err := h.Handle(context.Background(), GetWatchlistQuery{WindowDays: -1})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), GetWatchlistQuery{WindowDays: 366})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), GetWatchlistQuery{TopK: -1})
	assert.Error(t, err)
}

func TestGetWatchlistHandler_OverridesWindowAndK(t *testing.T) {
	students := &fakeStudentRepo{students: []*student.Student{
		enrolled("stu-a", "t-1", "Kim"),
		enrolled("stu-b", "t-1", "Lee"),
	}}
	logs := &fakeLearningRepo{study: map[string][]*learning.StudyLog{
		"stu-a": {recentStudyLog("stu-a", 1, 1, 1)},
		"stu-b": {recentStudyLog("stu-b", 2, 2, 2)},
	}}

	h := newWatchlistHandler(students, logs, nil)

	result, err := h.Handle(context.Background(), GetWatchlistQuery{WindowDays: 14, TopK: 1})
	assert.NoError(t, err)
	assert.Equal(t, 14, result.WindowDays)
	assert.Equal(t, 1, result.TopK)
	assert.Len(t, result.Watchlists[0].Entries, 1)
	assert.Equal(t, "stu-a", result.Watchlists[0].Entries[0].StudentID)
}

func TestAverageDTO_NullWhenAbsent(t *testing.T) {
	absent := averageDTO(risk.Average{})
	assert.Nil(t, absent.Value)

	present := averageDTO(risk.Average{Value: 4.5, Valid: true})
	assert.NotNil(t, present.Value)
	assert.Equal(t, 4.5, *present.Value)
}
