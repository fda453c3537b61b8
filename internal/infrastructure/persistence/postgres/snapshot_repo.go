// Package postgres implements the PostgreSQL persistence layer for
// Academy Insight Hub.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/risk"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/shared"
	"github.com/hakwon-hub/academy-insight-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotRepository implements risk.SnapshotRepository for PostgreSQL.
type SnapshotRepository struct {
	conn *Connection
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(conn *Connection) *SnapshotRepository {
	return &SnapshotRepository{conn: conn}
}

const snapshotColumns = `
	id, student_id, teacher_id, snapshot_year, snapshot_month, class_names,
	attendance_avg, homework_avg, focus_avg, test_score_avg,
	composite_score, risk_level, created_at
`

// ReplaceMonth atomically replaces the month's snapshot set.
// Delete and insert share one transaction; readers see the old set or
// the new set, never a mix, and a failed insert rolls the delete back.
func (r *SnapshotRepository) ReplaceMonth(ctx context.Context, month timeutil.YearMonth, snapshots []*risk.Snapshot) error {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`DELETE FROM risk_snapshots WHERE snapshot_year = $1 AND snapshot_month = $2`,
			month.Year, month.Month)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO risk_snapshots (` + snapshotColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`
		for _, s := range snapshots {
			_, err := tx.Exec(ctx, query,
				s.ID,
				s.StudentID,
				nullIfEmpty(s.TeacherID),
				month.Year,
				month.Month,
				s.ClassNames,
				averageValue(s.AttendanceAvg),
				averageValue(s.HomeworkAvg),
				averageValue(s.FocusAvg),
				averageValue(s.TestScoreAvg),
				s.CompositeScore,
				string(s.Level),
				s.CreatedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return replaceMonthErr(err)
	}
	return nil
}

// replaceMonthErr classifies a failed replace. A unique violation means
// a concurrent writer raced us to the month's rows; everything else is
// an ordinary storage failure.
func replaceMonthErr(err error) error {
	if IsUniqueViolation(err) {
		return shared.WrapError("risk", "ReplaceMonth", shared.ErrSnapshotConflict,
			"concurrent snapshot write for month", err)
	}
	return wrapStorageErr("risk", "ReplaceMonth", err)
}

// ListMonth returns the month's snapshots ordered by teacher, then
// descending composite score.
func (r *SnapshotRepository) ListMonth(ctx context.Context, month timeutil.YearMonth) ([]*risk.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM risk_snapshots
		WHERE snapshot_year = $1 AND snapshot_month = $2
		ORDER BY teacher_id NULLS LAST, composite_score DESC, student_id
	`

	rows, err := r.conn.Query(ctx, query, month.Year, month.Month)
	if err != nil {
		return nil, wrapStorageErr("risk", "ListMonth", err)
	}
	defer rows.Close()

	return scanSnapshots(rows, "ListMonth")
}

// ListStudentHistory returns the student's snapshots for the trailing
// months, newest first.
func (r *SnapshotRepository) ListStudentHistory(ctx context.Context, studentID string, months int) ([]*risk.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM risk_snapshots
		WHERE student_id = $1
		ORDER BY snapshot_year DESC, snapshot_month DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, studentID, months)
	if err != nil {
		return nil, wrapStorageErr("risk", "ListStudentHistory", err)
	}
	defer rows.Close()

	return scanSnapshots(rows, "ListStudentHistory")
}

// ─────────────────────────────────────────────────────────────────────────────
// Row scanning
// ─────────────────────────────────────────────────────────────────────────────

func scanSnapshots(rows pgx.Rows, op string) ([]*risk.Snapshot, error) {
	var snapshots []*risk.Snapshot
	for rows.Next() {
		var (
			s             risk.Snapshot
			teacherID     *string
			year, month   int
			attendanceAvg *float64
			homeworkAvg   *float64
			focusAvg      *float64
			testScoreAvg  *float64
		)
		err := rows.Scan(
			&s.ID,
			&s.StudentID,
			&teacherID,
			&year,
			&month,
			&s.ClassNames,
			&attendanceAvg,
			&homeworkAvg,
			&focusAvg,
			&testScoreAvg,
			&s.CompositeScore,
			&s.Level,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, wrapStorageErr("risk", op, err)
		}
		if teacherID != nil {
			s.TeacherID = *teacherID
		}
		s.Month = timeutil.YM(year, month)
		s.AttendanceAvg = averageFrom(attendanceAvg)
		s.HomeworkAvg = averageFrom(homeworkAvg)
		s.FocusAvg = averageFrom(focusAvg)
		s.TestScoreAvg = averageFrom(testScoreAvg)
		snapshots = append(snapshots, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorageErr("risk", op, err)
	}
	return snapshots, nil
}

// averageValue maps an absent average to SQL NULL.
func averageValue(a risk.Average) *float64 {
	if !a.Valid {
		return nil
	}
	v := a.Value
	return &v
}

// averageFrom maps a nullable column back to the domain average.
func averageFrom(v *float64) risk.Average {
	if v == nil {
		return risk.Average{}
	}
	return risk.Average{Value: *v, Valid: true}
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
