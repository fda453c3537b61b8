package risk

import (
	"fmt"
	"time"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/learning"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/shared"
	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Weights combines the four sub-signals into the composite score.
// Each sub-signal is first normalized to a 0-1 "risk share" (1 = worst
// observable value), then weighted. Dimensions with no data in the
// window are excluded and the remaining weights renormalized.
type Weights struct {
	Attendance float64
	Homework   float64
	Focus      float64
	TestScore  float64
}

// Default weights. Attendance is the strongest early-warning signal for
// withdrawal, homework next, focus and test results trail.
const (
	DefaultAttendanceWeight = 0.35
	DefaultHomeworkWeight   = 0.25
	DefaultFocusWeight      = 0.20
	DefaultTestScoreWeight  = 0.20
)

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{
		Attendance: DefaultAttendanceWeight,
		Homework:   DefaultHomeworkWeight,
		Focus:      DefaultFocusWeight,
		TestScore:  DefaultTestScoreWeight,
	}
}

// Validate checks that every weight is positive.
func (w Weights) Validate() error {
	if w.Attendance <= 0 || w.Homework <= 0 || w.Focus <= 0 || w.TestScore <= 0 {
		return shared.ErrInvalidRiskWeights
	}
	return nil
}

// Cutoffs map the composite score to a risk level. A composite at or
// above High classifies high, at or above Medium classifies medium,
// anything below is low.
type Cutoffs struct {
	High   float64
	Medium float64
}

// Default cutoffs on the 0-100 composite scale.
const (
	DefaultHighCutoff   = 60.0
	DefaultMediumCutoff = 35.0
)

// DefaultCutoffs returns the standard thresholds.
func DefaultCutoffs() Cutoffs {
	return Cutoffs{High: DefaultHighCutoff, Medium: DefaultMediumCutoff}
}

// Validate checks the ordering invariant. An inverted configuration is a
// startup error, never tolerated mid-computation.
func (c Cutoffs) Validate() error {
	if c.Medium <= 0 || c.High <= c.Medium || c.High > 100 {
		return shared.ErrInvalidRiskCutoffs
	}
	return nil
}

// Classify maps a composite score to a level.
func (c Cutoffs) Classify(composite float64) Level {
	switch {
	case composite >= c.High:
		return LevelHigh
	case composite >= c.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Config is the full scoring configuration, passed explicitly from the
// configuration layer - never package-level state.
type Config struct {
	// Weights for the composite combination.
	Weights Weights

	// Cutoffs for level classification.
	Cutoffs Cutoffs

	// WindowDays is the trailing evaluation window length.
	WindowDays int

	// MinStudyLogs is the minimum number of study logs required to
	// classify; below it the student is reported as insufficient data.
	MinStudyLogs int

	// WatchlistSize is the top-K retained per teacher.
	WatchlistSize int
}

// DefaultConfig returns the standard scoring configuration.
func DefaultConfig() Config {
	return Config{
		Weights:       DefaultWeights(),
		Cutoffs:       DefaultCutoffs(),
		WindowDays:    28,
		MinStudyLogs:  1,
		WatchlistSize: 3,
	}
}

// Validate checks every knob. Called once at startup.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if err := c.Cutoffs.Validate(); err != nil {
		return err
	}
	if c.WindowDays <= 0 {
		return shared.WrapError("risk", "Configure", shared.ErrConfiguration,
			fmt.Sprintf("window days must be positive, got %d", c.WindowDays), nil)
	}
	if c.MinStudyLogs < 1 {
		return shared.WrapError("risk", "Configure", shared.ErrConfiguration,
			fmt.Sprintf("minimum study logs must be at least 1, got %d", c.MinStudyLogs), nil)
	}
	if c.WatchlistSize < 1 {
		return shared.WrapError("risk", "Configure", shared.ErrConfiguration,
			fmt.Sprintf("watchlist size must be at least 1, got %d", c.WatchlistSize), nil)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORER
// ══════════════════════════════════════════════════════════════════════════════

// Scorer computes assessments. It is stateless and safe for concurrent
// use; all tuning comes in through Config.
type Scorer struct {
	config Config
	now    func() time.Time
}

// NewScorer creates a Scorer. Returns a configuration error for invalid
// weights or cutoffs so bad tuning fails at startup.
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{config: cfg, now: time.Now}, nil
}

// Config returns the scorer's configuration.
func (s *Scorer) Config() Config {
	return s.config
}

// Assess scores one student from their logs within the window. Pure:
// deterministic for identical inputs, no side effects.
//
// Logs outside the window are ignored. A malformed log (rating outside
// 1-5, score outside 0-100) fails the whole assessment closed with a
// data integrity error - the student is excluded from results rather
// than scored on silently clamped values.
func (s *Scorer) Assess(studentID string, studyLogs []*learning.StudyLog, testLogs []*learning.TestLog, window timeutil.Window) (*Assessment, error) {
	if studentID == "" {
		return nil, shared.ErrInvalidStudentID
	}

	var attendance, homework, focus []float64
	studyCount := 0
	for _, l := range studyLogs {
		if !window.Contains(l.Date) {
			continue
		}
		if err := l.Validate(); err != nil {
			return nil, err
		}
		attendance = append(attendance, float64(l.Attendance))
		homework = append(homework, float64(l.Homework))
		focus = append(focus, float64(l.Focus))
		studyCount++
	}

	var scores []float64
	testCount := 0
	for _, t := range testLogs {
		if !window.Contains(t.Date) {
			continue
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		testCount++
		if t.Score.Valid {
			scores = append(scores, t.Score.Value)
		}
	}

	a := &Assessment{
		StudentID:     studentID,
		Window:        window,
		AttendanceAvg: AverageOf(attendance),
		HomeworkAvg:   AverageOf(homework),
		FocusAvg:      AverageOf(focus),
		TestScoreAvg:  AverageOf(scores),
		StudyLogCount: studyCount,
		TestLogCount:  testCount,
		AssessedAt:    s.now().UTC(),
	}

	if studyCount < s.config.MinStudyLogs {
		a.Level = LevelInsufficient
		return a, nil
	}

	a.CompositeScore = s.composite(a)
	a.Level = s.config.Cutoffs.Classify(a.CompositeScore)
	return a, nil
}

// composite combines the present sub-signals into a 0-100 score.
// Ordinal averages map to risk shares via (5-avg)/4, the test average
// via (100-avg)/100; weights over absent dimensions are renormalized.
func (s *Scorer) composite(a *Assessment) float64 {
	w := s.config.Weights

	type part struct {
		weight float64
		risk   float64
	}
	var parts []part

	if a.AttendanceAvg.Valid {
		parts = append(parts, part{w.Attendance, ordinalRisk(a.AttendanceAvg.Value)})
	}
	if a.HomeworkAvg.Valid {
		parts = append(parts, part{w.Homework, ordinalRisk(a.HomeworkAvg.Value)})
	}
	if a.FocusAvg.Valid {
		parts = append(parts, part{w.Focus, ordinalRisk(a.FocusAvg.Value)})
	}
	if a.TestScoreAvg.Valid {
		parts = append(parts, part{w.TestScore, scoreRisk(a.TestScoreAvg.Value)})
	}

	var weightSum, riskSum float64
	for _, p := range parts {
		weightSum += p.weight
		riskSum += p.weight * p.risk
	}
	if weightSum == 0 {
		return 0
	}

	composite := 100 * riskSum / weightSum
	// Guard the documented range against float drift.
	if composite < 0 {
		composite = 0
	}
	if composite > 100 {
		composite = 100
	}
	return composite
}

// ordinalRisk maps a 1-5 average to a 0-1 risk share (5 -> 0, 1 -> 1).
func ordinalRisk(avg float64) float64 {
	return (5 - avg) / 4
}

// scoreRisk maps a 0-100 test average to a 0-1 risk share.
func scoreRisk(avg float64) float64 {
	return (100 - avg) / 100
}
