package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/shared"
)

func TestGetMigrations_SequentialAndComplete(t *testing.T) {
	migrations := GetMigrations()
	assert.Len(t, migrations, 3)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.Name)
		assert.NotEmpty(t, m.UpSQL)
		assert.NotEmpty(t, m.DownSQL)
	}
}

// Postgres treats NULLs as distinct under a plain UNIQUE constraint, so
// uniqueness for snapshot rows must go through an expression index that
// collapses a NULL teacher_id. Without it, concurrent writers could
// leave duplicate rows for students who have no primary teacher.
func TestSnapshotMigration_UniquenessCoversTeacherlessRows(t *testing.T) {
	assert.Contains(t, migration003Up,
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_risk_snapshots_student_teacher_month")
	assert.Contains(t, migration003Up, "COALESCE(teacher_id::text, '')")

	// The NULL-blind table constraint must not come back.
	assert.NotContains(t, migration003Up, "UNIQUE(student_id, teacher_id")
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505"}
	assert.True(t, IsUniqueViolation(pgErr))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert failed: %w", pgErr)))

	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("connection reset")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestReplaceMonthErr_ClassifiesUniqueViolation(t *testing.T) {
	conflict := replaceMonthErr(fmt.Errorf("insert failed: %w", &pgconn.PgError{Code: "23505"}))
	assert.ErrorIs(t, conflict, shared.ErrSnapshotConflict)
	assert.ErrorIs(t, conflict, shared.ErrAlreadyExists)

	plain := replaceMonthErr(errors.New("connection reset"))
	assert.ErrorIs(t, plain, shared.ErrStorage)
	assert.NotErrorIs(t, plain, shared.ErrSnapshotConflict)
}
