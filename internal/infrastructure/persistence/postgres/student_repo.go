// Package postgres implements the PostgreSQL persistence layer for
// Academy Insight Hub.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/shared"
	"github.com/hakwon-hub/academy-insight-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository for PostgreSQL.
// Read-only: the CRM owns writes to the students table.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

const studentColumns = `
	id, name, grade, school_type, school_name, status, lead_source,
	primary_teacher_id, class_names, first_contact_at, enrolled_at,
	test_scheduled_at, created_at, updated_at
`

// GetByID returns a student by internal ID.
func (r *StudentRepository) GetByID(ctx context.Context, id student.ID) (*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id.String())
	s, err := scanStudent(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, wrapStorageErr("student", "GetByID", err)
	}
	return s, nil
}

// List returns all students matching the filter, ordered by ID for
// deterministic output.
func (r *StudentRepository) List(ctx context.Context, filter student.Filter) ([]*student.Student, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("primary_teacher_id = $%d", len(args)))
	}
	if !filter.FirstContactFrom.IsZero() {
		args = append(args, filter.FirstContactFrom)
		conditions = append(conditions, fmt.Sprintf("first_contact_at >= $%d", len(args)))
	}
	if !filter.FirstContactTo.IsZero() {
		args = append(args, filter.FirstContactTo)
		conditions = append(conditions, fmt.Sprintf("first_contact_at < $%d", len(args)))
	}

	query := `SELECT ` + studentColumns + ` FROM students`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStorageErr("student", "List", err)
	}
	defer rows.Close()

	students, err := scanStudents(rows)
	if err != nil {
		return nil, wrapStorageErr("student", "List", err)
	}
	return students, nil
}

// ListEnrolled returns all currently enrolled students.
func (r *StudentRepository) ListEnrolled(ctx context.Context) ([]*student.Student, error) {
	return r.List(ctx, student.Filter{Statuses: []student.Status{student.StatusEnrolled}})
}

// ─────────────────────────────────────────────────────────────────────────────
// Row scanning
// ─────────────────────────────────────────────────────────────────────────────

func scanStudent(row pgx.Row) (*student.Student, error) {
	var (
		s               student.Student
		id              string
		teacherID       *string
		enrolledAt      *time.Time
		testScheduledAt *time.Time
	)

	err := row.Scan(
		&id,
		&s.Name,
		&s.Grade,
		&s.SchoolType,
		&s.SchoolName,
		&s.Status,
		&s.LeadSource,
		&teacherID,
		&s.ClassNames,
		&s.FirstContactAt,
		&enrolledAt,
		&testScheduledAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.ID = student.ID(id)
	if teacherID != nil {
		s.PrimaryTeacherID = *teacherID
	}
	if enrolledAt != nil {
		s.EnrolledAt = *enrolledAt
	}
	if testScheduledAt != nil {
		s.TestScheduledAt = *testScheduledAt
	}

	// Surface malformed rows as data integrity errors at the boundary
	// instead of letting them flow into scoring untyped.
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanStudents(rows pgx.Rows) ([]*student.Student, error) {
	var students []*student.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// wrapStorageErr tags a driver error with the domain storage kind so
// callers can match it with errors.Is.
func wrapStorageErr(domain, op string, err error) error {
	if shared.IsDataIntegrity(err) {
		return err
	}
	return shared.WrapError(domain, op, shared.ErrStorage, "query failed", err)
}
