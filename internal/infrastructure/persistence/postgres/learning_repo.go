// Package postgres implements the PostgreSQL persistence layer for
// Academy Insight Hub.
package postgres

import (
	"context"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/learning"
	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNING REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LearningRepository implements learning.Repository for PostgreSQL.
// One batched query per log kind regardless of student count; the
// scorer filters by window again so the SQL bound is a fast pre-cut,
// not the authority.
type LearningRepository struct {
	conn *Connection
}

// NewLearningRepository creates a new LearningRepository.
func NewLearningRepository(conn *Connection) *LearningRepository {
	return &LearningRepository{conn: conn}
}

// StudyLogsFor returns study logs within the window, grouped by student.
func (r *LearningRepository) StudyLogsFor(ctx context.Context, studentIDs []string, window timeutil.Window) (map[string][]*learning.StudyLog, error) {
	if len(studentIDs) == 0 {
		return map[string][]*learning.StudyLog{}, nil
	}

	query := `
		SELECT id, student_id, class_name, log_date, attendance, homework,
		       focus, notes, textbook, progress, created_at, updated_at
		FROM study_logs
		WHERE student_id = ANY($1) AND log_date >= $2 AND log_date < $3
		ORDER BY student_id, log_date
	`

	rows, err := r.conn.Query(ctx, query, studentIDs, window.From, window.To)
	if err != nil {
		return nil, wrapStorageErr("learning", "StudyLogsFor", err)
	}
	defer rows.Close()

	grouped := make(map[string][]*learning.StudyLog)
	for rows.Next() {
		var l learning.StudyLog
		err := rows.Scan(
			&l.ID,
			&l.StudentID,
			&l.ClassName,
			&l.Date,
			&l.Attendance,
			&l.Homework,
			&l.Focus,
			&l.Notes,
			&l.Textbook,
			&l.Progress,
			&l.CreatedAt,
			&l.UpdatedAt,
		)
		if err != nil {
			return nil, wrapStorageErr("learning", "StudyLogsFor", err)
		}
		grouped[l.StudentID] = append(grouped[l.StudentID], &l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorageErr("learning", "StudyLogsFor", err)
	}
	return grouped, nil
}

// TestLogsFor returns test logs within the window, grouped by student.
func (r *LearningRepository) TestLogsFor(ctx context.Context, studentIDs []string, window timeutil.Window) (map[string][]*learning.TestLog, error) {
	if len(studentIDs) == 0 {
		return map[string][]*learning.TestLog{}, nil
	}

	query := `
		SELECT id, student_id, class_name, log_date, test_type, score, created_at
		FROM test_logs
		WHERE student_id = ANY($1) AND log_date >= $2 AND log_date < $3
		ORDER BY student_id, log_date
	`

	rows, err := r.conn.Query(ctx, query, studentIDs, window.From, window.To)
	if err != nil {
		return nil, wrapStorageErr("learning", "TestLogsFor", err)
	}
	defer rows.Close()

	grouped := make(map[string][]*learning.TestLog)
	for rows.Next() {
		var (
			l     learning.TestLog
			score *float64
		)
		err := rows.Scan(
			&l.ID,
			&l.StudentID,
			&l.ClassName,
			&l.Date,
			&l.TestType,
			&score,
			&l.CreatedAt,
		)
		if err != nil {
			return nil, wrapStorageErr("learning", "TestLogsFor", err)
		}
		if score != nil {
			l.Score = learning.NewScore(*score)
		}
		grouped[l.StudentID] = append(grouped[l.StudentID], &l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorageErr("learning", "TestLogsFor", err)
	}
	return grouped, nil
}
