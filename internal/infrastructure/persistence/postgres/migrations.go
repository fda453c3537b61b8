// Package postgres implements the PostgreSQL persistence layer for
// Academy Insight Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create students table
-- Version: 001
-- The CRM's enrollment screens own these rows; the analytics core reads
-- them. CHECK constraints mirror the domain validation so malformed rows
-- cannot be inserted upstream either.

CREATE TABLE IF NOT EXISTS students (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(100) NOT NULL,
    grade INTEGER NOT NULL DEFAULT 0,
    school_type VARCHAR(20) NOT NULL DEFAULT '',
    school_name VARCHAR(100) NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL DEFAULT 'inquiry',
    lead_source VARCHAR(50) NOT NULL DEFAULT '',
    primary_teacher_id UUID,
    class_names TEXT[] NOT NULL DEFAULT '{}',
    first_contact_at TIMESTAMP WITH TIME ZONE NOT NULL,
    enrolled_at TIMESTAMP WITH TIME ZONE,
    test_scheduled_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_status CHECK (status IN ('inquiry', 'enrolled', 'withdrawn', 'paused')),
    CONSTRAINT valid_grade CHECK (grade >= 0 AND grade <= 12)
);

CREATE INDEX IF NOT EXISTS idx_students_status ON students(status);
CREATE INDEX IF NOT EXISTS idx_students_teacher ON students(primary_teacher_id) WHERE primary_teacher_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_students_first_contact ON students(first_contact_at);

-- Composite index for cohort funnel queries
CREATE INDEX IF NOT EXISTS idx_students_contact_source ON students(first_contact_at, lead_source);

-- Updated_at trigger function for automatic timestamp updates
CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = NOW();
    RETURN NEW;
END;
$$ language 'plpgsql';

DROP TRIGGER IF EXISTS update_students_updated_at ON students;
CREATE TRIGGER update_students_updated_at
    BEFORE UPDATE ON students
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration001Down = `
DROP TRIGGER IF EXISTS update_students_updated_at ON students;
DROP FUNCTION IF EXISTS update_updated_at_column();
DROP TABLE IF EXISTS students;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE LEARNING LOGS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create study and test log tables
-- Version: 002
-- Teachers record one study log per (student, class, date). Ratings are
-- constrained here AND validated in the domain: a row that slips past one
-- guard still fails the other, closed.

CREATE TABLE IF NOT EXISTS study_logs (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    class_name VARCHAR(100) NOT NULL,
    log_date DATE NOT NULL,
    attendance SMALLINT NOT NULL,
    homework SMALLINT NOT NULL,
    focus SMALLINT NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    textbook VARCHAR(200) NOT NULL DEFAULT '',
    progress VARCHAR(200) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(student_id, class_name, log_date),
    CONSTRAINT valid_attendance CHECK (attendance >= 1 AND attendance <= 5),
    CONSTRAINT valid_homework CHECK (homework >= 1 AND homework <= 5),
    CONSTRAINT valid_focus CHECK (focus >= 1 AND focus <= 5)
);

CREATE INDEX IF NOT EXISTS idx_study_logs_student_date ON study_logs(student_id, log_date DESC);
CREATE INDEX IF NOT EXISTS idx_study_logs_date ON study_logs(log_date DESC);

CREATE TABLE IF NOT EXISTS test_logs (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    class_name VARCHAR(100) NOT NULL,
    log_date DATE NOT NULL,
    test_type VARCHAR(50) NOT NULL DEFAULT '',
    score DECIMAL(5,2),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_score CHECK (score IS NULL OR (score >= 0 AND score <= 100))
);

CREATE INDEX IF NOT EXISTS idx_test_logs_student_date ON test_logs(student_id, log_date DESC);

DROP TRIGGER IF EXISTS update_study_logs_updated_at ON study_logs;
CREATE TRIGGER update_study_logs_updated_at
    BEFORE UPDATE ON study_logs
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration002Down = `
DROP TRIGGER IF EXISTS update_study_logs_updated_at ON study_logs;
DROP TABLE IF EXISTS test_logs;
DROP TABLE IF EXISTS study_logs;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE RISK SNAPSHOTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create risk snapshot table
-- Version: 003
-- The one table this service owns. The unique index is the storage half
-- of the replace-month contract: even a buggy writer cannot leave two
-- rows for the same (student, teacher, month). teacher_id is nullable
-- and Postgres treats NULLs as distinct under a plain UNIQUE, so the
-- index covers COALESCE(teacher_id::text, '') to make rows for students
-- without a primary teacher collide too.

CREATE TABLE IF NOT EXISTS risk_snapshots (
    id UUID PRIMARY KEY,
    student_id UUID NOT NULL,
    teacher_id UUID,
    snapshot_year INTEGER NOT NULL,
    snapshot_month INTEGER NOT NULL,
    class_names TEXT[] NOT NULL DEFAULT '{}',
    attendance_avg DECIMAL(4,2),
    homework_avg DECIMAL(4,2),
    focus_avg DECIMAL(4,2),
    test_score_avg DECIMAL(5,2),
    composite_score DECIMAL(5,2) NOT NULL DEFAULT 0,
    risk_level VARCHAR(20) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_snapshot_month CHECK (snapshot_month >= 1 AND snapshot_month <= 12),
    CONSTRAINT valid_risk_level CHECK (risk_level IN ('low', 'medium', 'high', 'insufficient_data')),
    CONSTRAINT valid_composite CHECK (composite_score >= 0 AND composite_score <= 100)
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_risk_snapshots_student_teacher_month
    ON risk_snapshots(student_id, COALESCE(teacher_id::text, ''), snapshot_year, snapshot_month);

CREATE INDEX IF NOT EXISTS idx_risk_snapshots_month ON risk_snapshots(snapshot_year, snapshot_month);
CREATE INDEX IF NOT EXISTS idx_risk_snapshots_student ON risk_snapshots(student_id, snapshot_year DESC, snapshot_month DESC);
CREATE INDEX IF NOT EXISTS idx_risk_snapshots_teacher_month ON risk_snapshots(teacher_id, snapshot_year, snapshot_month, composite_score DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS risk_snapshots;
`

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_students",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_learning_logs",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_risk_snapshots",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}
