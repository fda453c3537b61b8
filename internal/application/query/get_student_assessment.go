package query

import (
	"time"

	"context"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/learning"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/risk"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/student"
	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDENT ASSESSMENT QUERY
// Scores a single student on demand, for the student detail view.
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentAssessmentQuery identifies the student and optional window.
type GetStudentAssessmentQuery struct {
	StudentID  string
	WindowDays int // 0 = configured default
}

// GetStudentAssessmentResult is the single-student response.
type GetStudentAssessmentResult struct {
	Assessment  AssessmentDTO `json:"assessment"`
	WindowDays  int           `json:"window_days"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// GetStudentAssessmentHandler handles single-student assessment queries.
type GetStudentAssessmentHandler struct {
	studentRepo  student.Repository
	learningRepo learning.Repository
	scorer       *risk.Scorer
	now          func() time.Time
}

// NewGetStudentAssessmentHandler creates the handler.
func NewGetStudentAssessmentHandler(
	studentRepo student.Repository,
	learningRepo learning.Repository,
	scorer *risk.Scorer,
) *GetStudentAssessmentHandler {
	return &GetStudentAssessmentHandler{
		studentRepo:  studentRepo,
		learningRepo: learningRepo,
		scorer:       scorer,
		now:          time.Now,
	}
}

// Handle executes the query. A data integrity error in the student's
// logs surfaces to the caller here - for a single-student view the
// operator wants to see the bad data, not an empty result.
func (h *GetStudentAssessmentHandler) Handle(ctx context.Context, q GetStudentAssessmentQuery) (*GetStudentAssessmentResult, error) {
	s, err := h.studentRepo.GetByID(ctx, student.ID(q.StudentID))
	if err != nil {
		return nil, err
	}

	windowDays := q.WindowDays
	if windowDays <= 0 {
		windowDays = h.scorer.Config().WindowDays
	}
	window := timeutil.TrailingDays(h.now(), windowDays)

	id := s.ID.String()
	studyLogs, err := h.learningRepo.StudyLogsFor(ctx, []string{id}, window)
	if err != nil {
		return nil, err
	}
	testLogs, err := h.learningRepo.TestLogsFor(ctx, []string{id}, window)
	if err != nil {
		return nil, err
	}

	a, err := h.scorer.Assess(id, studyLogs[id], testLogs[id], window)
	if err != nil {
		return nil, err
	}

	return &GetStudentAssessmentResult{
		Assessment:  assessmentDTO(a, s),
		WindowDays:  windowDays,
		GeneratedAt: h.now().UTC(),
	}, nil
}
