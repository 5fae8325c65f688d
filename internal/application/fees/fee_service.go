package fees

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/ledger"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
)

// FeeService provides application-level fee catalog operations
type FeeService struct {
	feeRepo     fees.Repository
	paymentRepo ledger.PaymentRepository
}

// NewFeeService creates a new FeeService
func NewFeeService(feeRepo fees.Repository, paymentRepo ledger.PaymentRepository) *FeeService {
	return &FeeService{
		feeRepo:     feeRepo,
		paymentRepo: paymentRepo,
	}
}

// FeeResponse represents a fee definition in API responses
type FeeResponse struct {
	ID           uuid.UUID         `json:"id"`
	SchoolID     uuid.UUID         `json:"school_id"`
	CategoryID   uuid.UUID         `json:"category_id"`
	ClassID      *uuid.UUID        `json:"class_id,omitempty"`
	FeeType      string            `json:"fee_type"`
	Amount       valueobject.Money `json:"amount"`
	Description  string            `json:"description,omitempty"`
	AcademicYear string            `json:"academic_year,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Version      int               `json:"version"`
}

// CreateFeeRequest represents a request to create a fee definition
type CreateFeeRequest struct {
	CategoryID   uuid.UUID         `json:"category_id"`
	ClassID      *uuid.UUID        `json:"class_id"`
	FeeType      string            `json:"fee_type"`
	Amount       valueobject.Money `json:"amount"`
	Description  string            `json:"description"`
	AcademicYear string            `json:"academic_year"`
	CreatedBy    *uuid.UUID        `json:"-"` // Set from JWT context, not from request body
}

// UpdateFeeRequest represents a request to update a fee definition.
// Nil fields are left unchanged.
type UpdateFeeRequest struct {
	Amount      *valueobject.Money `json:"amount"`
	Description *string            `json:"description"`
}

// FeeListFilter defines filtering options for fee list queries
type FeeListFilter struct {
	Search       string     `form:"search"`
	CategoryID   *uuid.UUID `form:"category_id"`
	ClassID      *uuid.UUID `form:"class_id"`
	FeeType      string     `form:"fee_type"`
	AcademicYear string     `form:"academic_year"`
	Page         int        `form:"page"`
	PageSize     int        `form:"page_size"`
}

// CreateFee creates a fee definition. At most one definition may exist per
// (category, class, fee type, academic year) scope; a duplicate is rejected.
func (s *FeeService) CreateFee(ctx context.Context, schoolID uuid.UUID, req CreateFeeRequest) (*FeeResponse, error) {
	scope := fees.Scope{
		CategoryID:   req.CategoryID,
		ClassID:      req.ClassID,
		FeeType:      fees.FeeType(req.FeeType),
		AcademicYear: req.AcademicYear,
	}
	if !scope.FeeType.IsValid() {
		return nil, shared.NewValidationError("Fee type is not valid")
	}

	exists, err := s.feeRepo.ExistsForScope(ctx, schoolID, scope)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			"A fee is already defined for this category, class, fee type and academic year")
	}

	fee, err := fees.NewFeeDefinition(schoolID, scope, req.Amount, req.Description)
	if err != nil {
		return nil, err
	}
	if req.CreatedBy != nil {
		fee.SetCreatedBy(*req.CreatedBy)
	}

	if err := s.feeRepo.Save(ctx, fee); err != nil {
		return nil, err
	}

	return toFeeResponse(fee), nil
}

// GetFeeByID gets a fee definition by ID
func (s *FeeService) GetFeeByID(ctx context.Context, schoolID, id uuid.UUID) (*FeeResponse, error) {
	fee, err := s.feeRepo.FindByIDForSchool(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	if fee == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Fee definition not found")
	}
	return toFeeResponse(fee), nil
}

// GetFeeForScope resolves the fee a student in the given category and class
// owes for a fee type and academic year. A definition naming the class
// explicitly wins over a class wildcard; if neither exists the lookup fails.
func (s *FeeService) GetFeeForScope(
	ctx context.Context,
	schoolID, categoryID, classID uuid.UUID,
	feeType, academicYear string,
) (*FeeResponse, error) {
	if !fees.FeeType(feeType).IsValid() {
		return nil, shared.NewValidationError("Fee type is not valid")
	}

	fee, err := s.feeRepo.FindForScope(ctx, schoolID, categoryID, classID, fees.FeeType(feeType), academicYear)
	if err != nil {
		return nil, err
	}
	if fee == nil {
		return nil, shared.NewDomainError("NOT_FOUND",
			"No fee is defined for this category, class, fee type and academic year")
	}
	return toFeeResponse(fee), nil
}

// ListFees lists fee definitions with filtering
func (s *FeeService) ListFees(ctx context.Context, schoolID uuid.UUID, filter FeeListFilter) ([]FeeResponse, int64, error) {
	domainFilter := fees.Filter{
		CategoryID:   filter.CategoryID,
		ClassID:      filter.ClassID,
		AcademicYear: filter.AcademicYear,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search

	if filter.FeeType != "" {
		feeType := fees.FeeType(filter.FeeType)
		if !feeType.IsValid() {
			return nil, 0, shared.NewValidationError("Fee type is not valid")
		}
		domainFilter.FeeType = &feeType
	}

	list, err := s.feeRepo.FindAllForSchool(ctx, schoolID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.feeRepo.CountForSchool(ctx, schoolID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]FeeResponse, len(list))
	for i := range list {
		responses[i] = *toFeeResponse(&list[i])
	}
	return responses, total, nil
}

// UpdateFee updates a fee definition. The amount cannot change once payments
// reference the fee; the description can always change.
func (s *FeeService) UpdateFee(ctx context.Context, schoolID, id uuid.UUID, req UpdateFeeRequest) (*FeeResponse, error) {
	fee, err := s.feeRepo.FindByIDForSchool(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	if fee == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Fee definition not found")
	}

	if req.Amount != nil && !req.Amount.Amount().Equal(fee.Amount) {
		referenced, err := s.paymentRepo.CountByFee(ctx, schoolID, id)
		if err != nil {
			return nil, err
		}
		if referenced > 0 {
			return nil, shared.NewConflictError(
				"Cannot change the amount of a fee that already has payments recorded against it")
		}
		if err := fee.ChangeAmount(*req.Amount); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		fee.SetDescription(*req.Description)
	}

	if err := s.feeRepo.Save(ctx, fee); err != nil {
		return nil, err
	}
	return toFeeResponse(fee), nil
}

// DeleteFee deletes a fee definition. A fee with payments recorded against
// it cannot be deleted.
func (s *FeeService) DeleteFee(ctx context.Context, schoolID, id uuid.UUID) error {
	fee, err := s.feeRepo.FindByIDForSchool(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if fee == nil {
		return shared.NewDomainError("NOT_FOUND", "Fee definition not found")
	}

	referenced, err := s.paymentRepo.CountByFee(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if referenced > 0 {
		return shared.NewConflictError("Cannot delete a fee that has payments recorded against it")
	}

	return s.feeRepo.Delete(ctx, schoolID, id)
}

func toFeeResponse(f *fees.FeeDefinition) *FeeResponse {
	return &FeeResponse{
		ID:           f.ID,
		SchoolID:     f.SchoolID,
		CategoryID:   f.CategoryID,
		ClassID:      f.ClassID,
		FeeType:      string(f.FeeType),
		Amount:       valueobject.NewMoney(f.Amount),
		Description:  f.Description,
		AcademicYear: f.AcademicYear,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
		Version:      f.Version,
	}
}
