// Package query contains read operations following the CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/learning"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/risk"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/shared"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/student"
	"github.com/hakwon-hub/academy-insight-hub/pkg/circuitbreaker"
	"github.com/hakwon-hub/academy-insight-hub/pkg/logger"
	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET WATCHLIST QUERY
// Scores every enrolled student over the trailing window and returns the
// top-K most at-risk students per teacher. Students with malformed log
// data are excluded and reported, never silently dropped.
// ══════════════════════════════════════════════════════════════════════════════

// GetWatchlistQuery contains the watchlist request parameters.
type GetWatchlistQuery struct {
	// WindowDays overrides the configured evaluation window (0 = default).
	WindowDays int

	// TopK overrides the configured per-teacher watchlist size (0 = default).
	TopK int

	// TeacherID restricts the result to one teacher (empty = all).
	TeacherID string
}

// Validate checks the query parameters.
func (q *GetWatchlistQuery) Validate() error {
	if q.WindowDays < 0 {
		return errors.New("get_watchlist: window_days cannot be negative")
	}
	if q.WindowDays > 365 {
		return errors.New("get_watchlist: window_days cannot exceed 365")
	}
	if q.TopK < 0 {
		return errors.New("get_watchlist: top_k cannot be negative")
	}
	return nil
}

// AverageDTO carries a mean with its presence flag; a null JSON value
// means "no data in window".
type AverageDTO struct {
	Value *float64 `json:"value"`
}

func averageDTO(a risk.Average) AverageDTO {
	if !a.Valid {
		return AverageDTO{}
	}
	v := a.Value
	return AverageDTO{Value: &v}
}

// AssessmentDTO is the wire shape of one student assessment.
type AssessmentDTO struct {
	StudentID      string     `json:"student_id"`
	StudentName    string     `json:"student_name"`
	ClassNames     []string   `json:"class_names"`
	AttendanceAvg  AverageDTO `json:"attendance_avg"`
	HomeworkAvg    AverageDTO `json:"homework_avg"`
	FocusAvg       AverageDTO `json:"focus_avg"`
	TestScoreAvg   AverageDTO `json:"test_score_avg"`
	CompositeScore float64    `json:"composite_score"`
	RiskLevel      string     `json:"risk_level"`
	StudyLogCount  int        `json:"study_log_count"`
	TestLogCount   int        `json:"test_log_count"`
}

// TeacherWatchlistDTO is one teacher's watchlist.
type TeacherWatchlistDTO struct {
	TeacherID string          `json:"teacher_id"`
	Entries   []AssessmentDTO `json:"entries"`
}

// SkippedStudentDTO reports a student excluded from the result and why.
type SkippedStudentDTO struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// GetWatchlistResult is the watchlist response.
type GetWatchlistResult struct {
	Watchlists  []TeacherWatchlistDTO `json:"watchlists"`
	Skipped     []SkippedStudentDTO   `json:"skipped,omitempty"`
	WindowDays  int                   `json:"window_days"`
	TopK        int                   `json:"top_k"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// WatchlistCache caches computed watchlist results.
// Implementations are in infrastructure/persistence/redis. Cache
// failures must degrade to recomputation, never to request failure.
type WatchlistCache interface {
	Get(ctx context.Context, windowDays, topK int) (*GetWatchlistResult, bool)
	Set(ctx context.Context, windowDays, topK int, result *GetWatchlistResult)
}

// GetWatchlistHandler handles watchlist queries.
type GetWatchlistHandler struct {
	studentRepo  student.Repository
	learningRepo learning.Repository
	scorer       *risk.Scorer
	cache        WatchlistCache
	breaker      *circuitbreaker.CircuitBreaker
	log          *logger.Logger
	now          func() time.Time
}

// NewGetWatchlistHandler creates a watchlist query handler. cache may be
// nil (no caching); breaker may be nil (no fail-fast guard).
func NewGetWatchlistHandler(
	studentRepo student.Repository,
	learningRepo learning.Repository,
	scorer *risk.Scorer,
	cache WatchlistCache,
	breaker *circuitbreaker.CircuitBreaker,
	log *logger.Logger,
) *GetWatchlistHandler {
	return &GetWatchlistHandler{
		studentRepo:  studentRepo,
		learningRepo: learningRepo,
		scorer:       scorer,
		cache:        cache,
		breaker:      breaker,
		log:          log.With(logger.Component("get_watchlist")),
		now:          time.Now,
	}
}

// Handle executes the query.
func (h *GetWatchlistHandler) Handle(ctx context.Context, q GetWatchlistQuery) (*GetWatchlistResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	cfg := h.scorer.Config()
	windowDays := q.WindowDays
	if windowDays == 0 {
		windowDays = cfg.WindowDays
	}
	topK := q.TopK
	if topK == 0 {
		topK = cfg.WatchlistSize
	}

	// Cache only the unfiltered result; teacher filtering happens below.
	cacheable := q.TeacherID == "" && h.cache != nil
	if cacheable {
		if cached, ok := h.cache.Get(ctx, windowDays, topK); ok {
			return cached, nil
		}
	}

	result, err := h.compute(ctx, windowDays, topK, q.TeacherID)
	if err != nil {
		return nil, err
	}

	if cacheable {
		h.cache.Set(ctx, windowDays, topK, result)
	}
	return result, nil
}

// Refresh recomputes the default watchlist and overwrites any cached
// copy. The cache warm-up job calls this instead of Handle: a live
// cache entry would satisfy Handle without doing any work, so a refresh
// interval shorter than the cache TTL would never recompute anything.
func (h *GetWatchlistHandler) Refresh(ctx context.Context) (*GetWatchlistResult, error) {
	cfg := h.scorer.Config()

	result, err := h.compute(ctx, cfg.WindowDays, cfg.WatchlistSize, "")
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		h.cache.Set(ctx, cfg.WindowDays, cfg.WatchlistSize, result)
	}
	return result, nil
}

func (h *GetWatchlistHandler) compute(ctx context.Context, windowDays, topK int, teacherID string) (*GetWatchlistResult, error) {
	var students []*student.Student
	err := h.execute(ctx, func(ctx context.Context) error {
		var e error
		if teacherID != "" {
			students, e = h.studentRepo.List(ctx, student.Filter{
				Statuses:  []student.Status{student.StatusEnrolled},
				TeacherID: teacherID,
			})
		} else {
			students, e = h.studentRepo.ListEnrolled(ctx)
		}
		return e
	})
	if err != nil {
		return nil, err
	}

	window := timeutil.TrailingDays(h.now(), windowDays)
	assessed, skipped, err := AssessStudents(ctx, h.learningRepo, h.scorer, students, window)
	if err != nil {
		return nil, err
	}

	candidates := make([]risk.Candidate, 0, len(assessed))
	names := make(map[string]*student.Student, len(students))
	for _, s := range students {
		names[s.ID.String()] = s
	}
	for _, a := range assessed {
		candidates = append(candidates, risk.Candidate{
			TeacherID:  names[a.StudentID].PrimaryTeacherID,
			Assessment: a,
		})
	}

	watchlists := risk.BuildWatchlists(candidates, topK)

	result := &GetWatchlistResult{
		Watchlists:  make([]TeacherWatchlistDTO, 0, len(watchlists)),
		Skipped:     skipped,
		WindowDays:  windowDays,
		TopK:        topK,
		GeneratedAt: h.now().UTC(),
	}
	for _, wl := range watchlists {
		dto := TeacherWatchlistDTO{TeacherID: wl.TeacherID, Entries: make([]AssessmentDTO, 0, len(wl.Entries))}
		for _, a := range wl.Entries {
			dto.Entries = append(dto.Entries, assessmentDTO(a, names[a.StudentID]))
		}
		result.Watchlists = append(result.Watchlists, dto)
	}
	return result, nil
}

// execute routes a storage call through the circuit breaker when one is
// configured.
func (h *GetWatchlistHandler) execute(ctx context.Context, fn func(context.Context) error) error {
	if h.breaker == nil {
		return fn(ctx)
	}
	err := h.breaker.Execute(ctx, fn)
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return shared.WrapError("risk", "GetWatchlist", shared.ErrStorageUnavailable,
			"storage temporarily unavailable", err)
	}
	return err
}

func assessmentDTO(a *risk.Assessment, s *student.Student) AssessmentDTO {
	dto := AssessmentDTO{
		StudentID:      a.StudentID,
		AttendanceAvg:  averageDTO(a.AttendanceAvg),
		HomeworkAvg:    averageDTO(a.HomeworkAvg),
		FocusAvg:       averageDTO(a.FocusAvg),
		TestScoreAvg:   averageDTO(a.TestScoreAvg),
		CompositeScore: a.CompositeScore,
		RiskLevel:      string(a.Level),
		StudyLogCount:  a.StudyLogCount,
		TestLogCount:   a.TestLogCount,
	}
	if s != nil {
		dto.StudentName = s.Name
		dto.ClassNames = s.ClassNames
	}
	return dto
}

// AssessStudents scores a student set over a window, separating
// successful assessments from per-student failures. A data integrity
// error skips that student with a reason; any other error aborts the
// run. Shared by the watchlist query and the snapshot command.
func AssessStudents(
	ctx context.Context,
	learningRepo learning.Repository,
	scorer *risk.Scorer,
	students []*student.Student,
	window timeutil.Window,
) ([]*risk.Assessment, []SkippedStudentDTO, error) {
	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID.String())
	}

	studyLogs, err := learningRepo.StudyLogsFor(ctx, ids, window)
	if err != nil {
		return nil, nil, err
	}
	testLogs, err := learningRepo.TestLogsFor(ctx, ids, window)
	if err != nil {
		return nil, nil, err
	}

	assessed := make([]*risk.Assessment, 0, len(students))
	var skipped []SkippedStudentDTO
	for _, s := range students {
		id := s.ID.String()
		a, err := scorer.Assess(id, studyLogs[id], testLogs[id], window)
		if err != nil {
			if shared.IsDataIntegrity(err) {
				skipped = append(skipped, SkippedStudentDTO{StudentID: id, Reason: err.Error()})
				continue
			}
			return nil, nil, err
		}
		assessed = append(assessed, a)
	}
	return assessed, skipped, nil
}
