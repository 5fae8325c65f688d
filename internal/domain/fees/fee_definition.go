package fees

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// FeeType classifies what a fee definition charges for
type FeeType string

const (
	FeeTypeRegistration FeeType = "registration"
	FeeTypeAdmission    FeeType = "admission"
	FeeTypeTuition      FeeType = "tuition"
	FeeTypeExam         FeeType = "exam"
	FeeTypeOther        FeeType = "other"
)

// IsValid checks if the fee type is one of the allowed values
func (t FeeType) IsValid() bool {
	switch t {
	case FeeTypeRegistration, FeeTypeAdmission, FeeTypeTuition, FeeTypeExam, FeeTypeOther:
		return true
	}
	return false
}

// String returns the string representation of FeeType
func (t FeeType) String() string {
	return string(t)
}

// Scope identifies the tuple a fee definition is priced for. ClassID is
// optional: a nil ClassID means the fee applies to every class in the
// category (a wildcard entry).
type Scope struct {
	CategoryID   uuid.UUID
	ClassID      *uuid.UUID
	FeeType      FeeType
	AcademicYear string
}

// IsWildcard returns true if the scope applies to all classes in its category
func (s Scope) IsWildcard() bool {
	return s.ClassID == nil
}

// FeeDefinition is a priced obligation scoped to a category/class/year.
// The amount is fixed at creation time; once payments reference the fee it
// must not change (enforced by the application layer against the ledger).
type FeeDefinition struct {
	shared.SchoolAggregateRoot
	CategoryID   uuid.UUID       `json:"category_id"`
	ClassID      *uuid.UUID      `json:"class_id"`
	FeeType      FeeType         `json:"fee_type"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	AcademicYear string          `json:"academic_year"`
}

// NewFeeDefinition creates a new fee definition
func NewFeeDefinition(
	schoolID uuid.UUID,
	scope Scope,
	amount valueobject.Money,
	description string,
) (*FeeDefinition, error) {
	if scope.CategoryID == uuid.Nil {
		return nil, shared.NewValidationError("Category ID cannot be empty")
	}
	if !scope.FeeType.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Fee type %q is not valid", scope.FeeType))
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("Fee amount must be greater than zero")
	}

	return &FeeDefinition{
		SchoolAggregateRoot: shared.NewSchoolAggregateRoot(schoolID),
		CategoryID:          scope.CategoryID,
		ClassID:             scope.ClassID,
		FeeType:             scope.FeeType,
		Amount:              amount.Amount(),
		Description:         description,
		AcademicYear:        scope.AcademicYear,
	}, nil
}

// Scope returns the scope tuple this fee is priced for
func (f *FeeDefinition) Scope() Scope {
	return Scope{
		CategoryID:   f.CategoryID,
		ClassID:      f.ClassID,
		FeeType:      f.FeeType,
		AcademicYear: f.AcademicYear,
	}
}

// ChangeAmount updates the fee amount. The caller must verify that no
// payments reference this fee before changing the amount.
func (f *FeeDefinition) ChangeAmount(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("Fee amount must be greater than zero")
	}
	f.Amount = amount.Amount()
	f.Touch()
	f.IncrementVersion()
	return nil
}

// SetDescription updates the description
func (f *FeeDefinition) SetDescription(description string) {
	f.Description = description
	f.Touch()
	f.IncrementVersion()
}
