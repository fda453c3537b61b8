package student

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// The analytics core only reads students; CRUD lives in the external CRM.
// Implementations are in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Filter narrows a student listing. Zero values mean "no constraint".
type Filter struct {
	// Statuses restricts to the given enrollment statuses.
	Statuses []Status

	// TeacherID restricts to one primary teacher.
	TeacherID string

	// FirstContactFrom / FirstContactTo bound the first-contact date
	// (half-open interval [From, To)).
	FirstContactFrom time.Time
	FirstContactTo   time.Time
}

// Repository is the read-only contract over the CRM's student table.
type Repository interface {
	// GetByID returns a student by internal ID.
	// Returns shared.ErrStudentNotFound if the student does not exist.
	GetByID(ctx context.Context, id ID) (*Student, error)

	// List returns the full matching set; pagination is a UI concern and
	// is deliberately not part of this contract.
	List(ctx context.Context, filter Filter) ([]*Student, error)

	// ListEnrolled returns all currently enrolled students.
	// Shorthand for List with Statuses: [StatusEnrolled].
	ListEnrolled(ctx context.Context) ([]*Student, error)
}
