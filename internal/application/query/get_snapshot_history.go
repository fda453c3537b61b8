package query

import (
	"context"
	"errors"
	"time"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/risk"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/shared"
	"github.com/hakwon-hub/academy-insight-hub/pkg/logger"
	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SNAPSHOT HISTORY QUERIES
// Reads over persisted monthly snapshots: a month's full listing with a
// trend diff against the previous month, and a single student's
// month-over-month history.
// ══════════════════════════════════════════════════════════════════════════════

// GetMonthSnapshotsQuery identifies the snapshot month to read.
type GetMonthSnapshotsQuery struct {
	Year  int
	Month int
}

// Validate checks the month.
func (q *GetMonthSnapshotsQuery) Validate() error {
	if !timeutil.YM(q.Year, q.Month).IsValid() {
		return errors.New("get_month_snapshots: invalid year/month")
	}
	return nil
}

// SnapshotDTO is the wire shape of one persisted snapshot row.
type SnapshotDTO struct {
	StudentID      string     `json:"student_id"`
	TeacherID      string     `json:"teacher_id"`
	Month          string     `json:"month"`
	ClassNames     []string   `json:"class_names"`
	AttendanceAvg  AverageDTO `json:"attendance_avg"`
	HomeworkAvg    AverageDTO `json:"homework_avg"`
	FocusAvg       AverageDTO `json:"focus_avg"`
	TestScoreAvg   AverageDTO `json:"test_score_avg"`
	CompositeScore float64    `json:"composite_score"`
	RiskLevel      string     `json:"risk_level"`
	CreatedAt      time.Time  `json:"created_at"`
}

func snapshotDTO(s *risk.Snapshot) SnapshotDTO {
	return SnapshotDTO{
		StudentID:      s.StudentID,
		TeacherID:      s.TeacherID,
		Month:          s.Month.String(),
		ClassNames:     s.ClassNames,
		AttendanceAvg:  averageDTO(s.AttendanceAvg),
		HomeworkAvg:    averageDTO(s.HomeworkAvg),
		FocusAvg:       averageDTO(s.FocusAvg),
		TestScoreAvg:   averageDTO(s.TestScoreAvg),
		CompositeScore: s.CompositeScore,
		RiskLevel:      string(s.Level),
		CreatedAt:      s.CreatedAt,
	}
}

// TransitionDTO renders one level change between two months.
type TransitionDTO struct {
	StudentID string `json:"student_id"`
	TeacherID string `json:"teacher_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Worsened  bool   `json:"worsened"`
}

// TrendDTO summarizes movement against the previous snapshot month.
type TrendDTO struct {
	PrevMonth   string          `json:"prev_month"`
	Transitions []TransitionDTO `json:"transitions"`
	NewlyAtRisk []string        `json:"newly_at_risk"`
	Recovered   []string        `json:"recovered"`
	Appeared    []string        `json:"appeared"`
	Disappeared []string        `json:"disappeared"`
}

// GetMonthSnapshotsResult is the month listing response. Trend is nil
// when the previous month has no snapshots.
type GetMonthSnapshotsResult struct {
	Month       string        `json:"month"`
	Snapshots   []SnapshotDTO `json:"snapshots"`
	Trend       *TrendDTO     `json:"trend,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// GetMonthSnapshotsHandler handles month listing queries.
type GetMonthSnapshotsHandler struct {
	snapshotRepo risk.SnapshotRepository
	log          *logger.Logger
	now          func() time.Time
}

// NewGetMonthSnapshotsHandler creates the handler.
func NewGetMonthSnapshotsHandler(snapshotRepo risk.SnapshotRepository, log *logger.Logger) *GetMonthSnapshotsHandler {
	return &GetMonthSnapshotsHandler{
		snapshotRepo: snapshotRepo,
		log:          log.With(logger.Component("get_month_snapshots")),
		now:          time.Now,
	}
}

// Handle executes the query. A month with no snapshots is not found -
// callers distinguish "never snapshotted" from "snapshotted, nobody
// at risk" by the rows themselves.
func (h *GetMonthSnapshotsHandler) Handle(ctx context.Context, q GetMonthSnapshotsQuery) (*GetMonthSnapshotsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	month := timeutil.YM(q.Year, q.Month)
	curr, err := h.snapshotRepo.ListMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	if len(curr) == 0 {
		return nil, shared.ErrSnapshotNotFound
	}

	result := &GetMonthSnapshotsResult{
		Month:       month.String(),
		Snapshots:   make([]SnapshotDTO, 0, len(curr)),
		GeneratedAt: h.now().UTC(),
	}
	for _, s := range curr {
		result.Snapshots = append(result.Snapshots, snapshotDTO(s))
	}

	// Trend is best-effort; a failed previous-month read degrades to a
	// listing without trend rather than failing the request.
	prev, err := h.snapshotRepo.ListMonth(ctx, month.Prev())
	if err != nil {
		h.log.Warn("previous month read failed, omitting trend",
			logger.SnapshotMonth(month.Prev().String()), logger.Err(err))
		return result, nil
	}
	if len(prev) > 0 {
		result.Trend = trendDTO(risk.CompareSnapshots(prev, curr))
	}
	return result, nil
}

func trendDTO(d *risk.SnapshotDiff) *TrendDTO {
	t := &TrendDTO{
		PrevMonth:   d.PrevMonth.String(),
		Transitions: make([]TransitionDTO, 0, len(d.Transitions)),
	}
	for _, tr := range d.Transitions {
		t.Transitions = append(t.Transitions, TransitionDTO{
			StudentID: tr.StudentID,
			TeacherID: tr.TeacherID,
			From:      string(tr.From),
			To:        string(tr.To),
			Worsened:  tr.Worsened(),
		})
	}
	t.NewlyAtRisk = studentIDs(d.NewlyAtRisk)
	t.Recovered = studentIDs(d.Recovered)
	t.Appeared = studentIDs(d.Appeared)
	t.Disappeared = studentIDs(d.Disappeared)
	return t
}

func studentIDs(snapshots []*risk.Snapshot) []string {
	ids := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		ids = append(ids, s.StudentID)
	}
	return ids
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT HISTORY
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentHistoryQuery identifies the student and depth.
type GetStudentHistoryQuery struct {
	StudentID string
	Months    int // 0 = default of 12
}

// Validate checks the query parameters.
func (q *GetStudentHistoryQuery) Validate() error {
	if q.StudentID == "" {
		return shared.ErrInvalidStudentID
	}
	if q.Months < 0 || q.Months > 60 {
		return errors.New("get_student_history: months must be between 0 and 60")
	}
	return nil
}

// GetStudentHistoryResult is the student history response, newest first.
type GetStudentHistoryResult struct {
	StudentID   string        `json:"student_id"`
	Snapshots   []SnapshotDTO `json:"snapshots"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// GetStudentHistoryHandler handles student history queries.
type GetStudentHistoryHandler struct {
	snapshotRepo risk.SnapshotRepository
	now          func() time.Time
}

// NewGetStudentHistoryHandler creates the handler.
func NewGetStudentHistoryHandler(snapshotRepo risk.SnapshotRepository) *GetStudentHistoryHandler {
	return &GetStudentHistoryHandler{snapshotRepo: snapshotRepo, now: time.Now}
}

// Handle executes the query. A student with no snapshots yields an empty
// list, not an error - the trend chart simply has nothing to draw.
func (h *GetStudentHistoryHandler) Handle(ctx context.Context, q GetStudentHistoryQuery) (*GetStudentHistoryResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	months := q.Months
	if months == 0 {
		months = 12
	}

	snapshots, err := h.snapshotRepo.ListStudentHistory(ctx, q.StudentID, months)
	if err != nil {
		return nil, err
	}

	result := &GetStudentHistoryResult{
		StudentID:   q.StudentID,
		Snapshots:   make([]SnapshotDTO, 0, len(snapshots)),
		GeneratedAt: h.now().UTC(),
	}
	for _, s := range snapshots {
		result.Snapshots = append(result.Snapshots, snapshotDTO(s))
	}
	return result, nil
}
