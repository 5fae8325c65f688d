package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/ledger"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements ledger.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Payment, error) {
	var model models.PaymentModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForSchool finds a payment by ID within a school
func (r *GormPaymentRepository) FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*ledger.Payment, error) {
	var model models.PaymentModel
	if err := dbFromContext(ctx, r.db).
		Where("school_id = ? AND id = ?", schoolID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForSchool finds all payments for a school matching the filter
func (r *GormPaymentRepository) FindAllForSchool(ctx context.Context, schoolID uuid.UUID, filter ledger.PaymentFilter) ([]ledger.Payment, error) {
	var paymentModels []models.PaymentModel
	query := r.applyFilter(
		dbFromContext(ctx, r.db).Model(&models.PaymentModel{}).Where("school_id = ?", schoolID),
		filter, true,
	)

	if err := query.Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]ledger.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// CountForSchool counts payments for a school matching the filter
func (r *GormPaymentRepository) CountForSchool(ctx context.Context, schoolID uuid.UUID, filter ledger.PaymentFilter) (int64, error) {
	var count int64
	query := r.applyFilter(
		dbFromContext(ctx, r.db).Model(&models.PaymentModel{}).Where("school_id = ?", schoolID),
		filter, false,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumForStudentAndFee returns the cumulative amount the student has paid
// against the fee, zero when no payments exist
func (r *GormPaymentRepository) SumForStudentAndFee(ctx context.Context, schoolID, studentID, feeID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := dbFromContext(ctx, r.db).Model(&models.PaymentModel{}).
		Where("school_id = ? AND student_id = ? AND fee_id = ?", schoolID, studentID, feeID).
		Select("COALESCE(SUM(amount_paid), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// SumByFee returns the cumulative amount paid per fee by the student,
// keyed by fee ID
func (r *GormPaymentRepository) SumByFee(ctx context.Context, schoolID, studentID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		FeeID uuid.UUID
		Total decimal.Decimal
	}
	err := dbFromContext(ctx, r.db).Model(&models.PaymentModel{}).
		Where("school_id = ? AND student_id = ?", schoolID, studentID).
		Select("fee_id, COALESCE(SUM(amount_paid), 0) AS total").
		Group("fee_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.FeeID] = row.Total
	}
	return sums, nil
}

// CountByFee counts payments referencing the fee
func (r *GormPaymentRepository) CountByFee(ctx context.Context, schoolID, feeID uuid.UUID) (int64, error) {
	var count int64
	err := dbFromContext(ctx, r.db).Model(&models.PaymentModel{}).
		Where("school_id = ? AND fee_id = ?", schoolID, feeID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Create persists a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *ledger.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return dbFromContext(ctx, r.db).Create(model).Error
}

// Save updates an existing payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *ledger.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return dbFromContext(ctx, r.db).Save(model).Error
}

// Delete removes a payment. The application layer has already verified that
// no receipt references it.
func (r *GormPaymentRepository) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	return dbFromContext(ctx, r.db).
		Where("school_id = ? AND id = ?", schoolID, id).
		Delete(&models.PaymentModel{}).Error
}

// applyFilter applies scope filters, ordering and optionally pagination
func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter ledger.PaymentFilter, paginate bool) *gorm.DB {
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.FeeID != nil {
		query = query.Where("fee_id = ?", *filter.FeeID)
	}
	if filter.Method != nil {
		query = query.Where("method = ?", *filter.Method)
	}
	if filter.FromDate != nil {
		query = query.Where("payment_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("payment_date <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		query = query.Where("transaction_reference ILIKE ?", "%"+filter.Search+"%")
	}

	if paginate {
		orderBy := ValidateSortField(filter.OrderBy, PaymentSortFields, "payment_date")
		orderDir := ValidateSortOrder(filter.OrderDir)
		query = query.Order(orderBy + " " + orderDir)

		if filter.PageSize > 0 {
			offset := (filter.Page - 1) * filter.PageSize
			if offset < 0 {
				offset = 0
			}
			query = query.Offset(offset).Limit(filter.PageSize)
		}
	}

	return query
}
