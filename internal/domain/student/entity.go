// Package student contains the student domain model for Academy Insight Hub.
// Students are owned by the CRM's enrollment screens; the analytics core
// reads them, it never mutates them.
package student

import (
	"fmt"
	"strings"
	"time"

	"github.com/hakwon-hub/academy-insight-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ID is the student's unique identifier (UUID in string form).
type ID string

// IsValid checks that the ID is non-empty and free of whitespace.
func (id ID) IsValid() bool {
	s := string(id)
	return len(s) > 0 && len(s) <= 64 && !strings.ContainsAny(s, " \t\n\r")
}

// String returns the string representation.
func (id ID) String() string { return string(id) }

// LeadSource tags how a prospective student first learned of the academy.
type LeadSource string

const (
	// LeadSourceUnclassified is the explicit bucket for students with no
	// recorded source. Never dropped from aggregation.
	LeadSourceUnclassified LeadSource = "unclassified"
)

// Normalize maps an empty or whitespace-only source to the unclassified bucket.
func (ls LeadSource) Normalize() LeadSource {
	s := strings.TrimSpace(string(ls))
	if s == "" {
		return LeadSourceUnclassified
	}
	return LeadSource(s)
}

// String returns the string representation.
func (ls LeadSource) String() string { return string(ls) }

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the student's enrollment status in the academy.
type Status string

const (
	// StatusInquiry - first consultation, not yet enrolled (신규상담).
	StatusInquiry Status = "inquiry"
	// StatusEnrolled - actively attending classes (재원).
	StatusEnrolled Status = "enrolled"
	// StatusWithdrawn - left the academy (퇴원).
	StatusWithdrawn Status = "withdrawn"
	// StatusPaused - temporarily on leave (휴원).
	StatusPaused Status = "paused"
)

// IsValid checks that the status is one of the enumerated values.
func (s Status) IsValid() bool {
	switch s {
	case StatusInquiry, StatusEnrolled, StatusWithdrawn, StatusPaused:
		return true
	default:
		return false
	}
}

// IsEnrolled returns true if the student currently attends classes.
// Only enrolled students are scored and snapshotted.
func (s Status) IsEnrolled() bool {
	return s == StatusEnrolled
}

// SchoolType is the student's school level.
type SchoolType string

const (
	SchoolTypeElementary SchoolType = "elementary"
	SchoolTypeMiddle     SchoolType = "middle"
	SchoolTypeHigh       SchoolType = "high"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student is the read-only view of a student consumed by the analytics core.
type Student struct {
	// ID - internal unique identifier.
	ID ID

	// Name - display name.
	Name string

	// Grade - school grade (1-12), 0 when unknown.
	Grade int

	// SchoolType - elementary / middle / high.
	SchoolType SchoolType

	// SchoolName - name of the student's school.
	SchoolName string

	// Status - enrollment status.
	Status Status

	// LeadSource - how the student found the academy.
	LeadSource LeadSource

	// PrimaryTeacherID - the teacher responsible for this student.
	// Watchlists and snapshots group by this field.
	PrimaryTeacherID string

	// ClassNames - names of classes the student attends.
	ClassNames []string

	// FirstContactAt - date of first inquiry. Defines the cohort month.
	FirstContactAt time.Time

	// EnrolledAt - enrollment start date; zero value until enrolled.
	EnrolledAt time.Time

	// TestScheduledAt - placement test date; zero value if none scheduled.
	TestScheduledAt time.Time

	// CreatedAt / UpdatedAt - row bookkeeping.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the invariants the analytics core relies on. Rows that
// fail validation raise a data integrity error at the storage boundary
// rather than flowing through untyped.
func (s *Student) Validate() error {
	if !s.ID.IsValid() {
		return shared.ErrInvalidStudentID
	}
	if !s.Status.IsValid() {
		return shared.ErrInvalidStudentStatus
	}
	if s.FirstContactAt.IsZero() {
		return shared.WrapError("student", "Validate", shared.ErrDataIntegrity,
			fmt.Sprintf("student %s has no first contact date", s.ID), nil)
	}
	return nil
}

// HasTestScheduled returns true if a placement test was ever scheduled.
func (s *Student) HasTestScheduled() bool {
	return !s.TestScheduledAt.IsZero()
}

// HasEnrolled returns true if the student ever enrolled.
func (s *Student) HasEnrolled() bool {
	return !s.EnrolledAt.IsZero()
}

// String returns a compact representation for logging.
func (s *Student) String() string {
	return fmt.Sprintf("Student{ID: %s, Status: %s, Teacher: %s, Source: %s}",
		s.ID, s.Status, s.PrimaryTeacherID, s.LeadSource)
}
