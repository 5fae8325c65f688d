package fees

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/shared"
)

// Filter defines filtering options for fee definition list queries
type Filter struct {
	shared.Filter
	CategoryID   *uuid.UUID
	ClassID      *uuid.UUID
	FeeType      *FeeType
	AcademicYear string
}

// Repository defines persistence operations for fee definitions
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*FeeDefinition, error)
	FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*FeeDefinition, error)

	// FindByIDForUpdate loads the fee row under a FOR UPDATE lock. Must be
	// called inside a transaction; it serializes concurrent payments against
	// the same fee.
	FindByIDForUpdate(ctx context.Context, schoolID, id uuid.UUID) (*FeeDefinition, error)

	// FindForScope resolves the fee applicable to the given scope tuple.
	// An entry whose class matches exactly wins over a class wildcard.
	FindForScope(ctx context.Context, schoolID uuid.UUID, categoryID, classID uuid.UUID, feeType FeeType, academicYear string) (*FeeDefinition, error)

	ExistsForScope(ctx context.Context, schoolID uuid.UUID, scope Scope) (bool, error)

	FindAllForSchool(ctx context.Context, schoolID uuid.UUID, filter Filter) ([]FeeDefinition, error)
	CountForSchool(ctx context.Context, schoolID uuid.UUID, filter Filter) (int64, error)

	Save(ctx context.Context, fee *FeeDefinition) error
	Delete(ctx context.Context, schoolID, id uuid.UUID) error
}
