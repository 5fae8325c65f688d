package students

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/shared"
)

// Student is the read-side projection of a student the payment core needs.
// Student CRUD lives outside this service; the ledger only resolves and
// validates references.
type Student struct {
	shared.BaseEntity
	SchoolID  uuid.UUID  `json:"school_id"`
	ClassID   *uuid.UUID `json:"class_id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Active    bool       `json:"active"`
}

// FullName returns the student's display name
func (s *Student) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// Repository defines the read-side operations on students
type Repository interface {
	FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*Student, error)
	ExistsForSchool(ctx context.Context, schoolID, id uuid.UUID) (bool, error)
}
