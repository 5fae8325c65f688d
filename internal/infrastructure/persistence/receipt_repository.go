package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/ledger"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReceiptRepository implements ledger.ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByID finds a receipt by its ID
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Receipt, error) {
	var model models.ReceiptModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForSchool finds a receipt by ID within a school
func (r *GormReceiptRepository) FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*ledger.Receipt, error) {
	var model models.ReceiptModel
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

// FindByPaymentID finds the receipt issued for a payment, if any
func (r *GormReceiptRepository) FindByPaymentID(ctx context.Context, schoolID, paymentID uuid.UUID) (*ledger.Receipt, error) {
	var model models.ReceiptModel
	if err := dbFromContext(ctx, r.db).
		Where("school_id = ? AND payment_id = ?", schoolID, paymentID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByPaymentID reports whether a receipt was already issued for the payment
func (r *GormReceiptRepository) ExistsByPaymentID(ctx context.Context, schoolID, paymentID uuid.UUID) (bool, error) {
	var count int64
	err := dbFromContext(ctx, r.db).Model(&models.ReceiptModel{}).
		Where("school_id = ? AND payment_id = ?", schoolID, paymentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAllForSchool finds all receipts for a school matching the filter
func (r *GormReceiptRepository) FindAllForSchool(ctx context.Context, schoolID uuid.UUID, filter ledger.ReceiptFilter) ([]ledger.Receipt, error) {
	var receiptModels []models.ReceiptModel
	query := r.applyFilter(
		dbFromContext(ctx, r.db).Model(&models.ReceiptModel{}).Where("school_id = ?", schoolID),
		filter, true,
	)

	if err := query.Find(&receiptModels).Error; err != nil {
		return nil, err
	}

	receipts := make([]ledger.Receipt, len(receiptModels))
	for i, model := range receiptModels {
		receipts[i] = *model.ToDomain()
	}
	return receipts, nil
}

// CountForSchool counts receipts for a school matching the filter
func (r *GormReceiptRepository) CountForSchool(ctx context.Context, schoolID uuid.UUID, filter ledger.ReceiptFilter) (int64, error) {
	var count int64
	query := r.applyFilter(
		dbFromContext(ctx, r.db).Model(&models.ReceiptModel{}).Where("school_id = ?", schoolID),
		filter, false,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextSequence reserves the next per-school receipt sequence. The counter row
// is locked FOR UPDATE so two receipts issued concurrently in the same school
// never share a sequence. Must run inside the transaction creating the receipt.
func (r *GormReceiptRepository) NextSequence(ctx context.Context, schoolID uuid.UUID) (int64, error) {
	db := dbFromContext(ctx, r.db)

	var seq models.ReceiptSequenceModel
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("school_id = ?", schoolID).
		First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = models.ReceiptSequenceModel{
			SchoolID:  schoolID,
			LastValue: 0,
			UpdatedAt: time.Now(),
		}
		// Another transaction may insert the row first; the conflict clause
		// keeps the insert idempotent and the retry re-acquires the lock.
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
			return 0, err
		}
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("school_id = ?", schoolID).
			First(&seq).Error; err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	next := seq.LastValue + 1
	if err := db.Model(&models.ReceiptSequenceModel{}).
		Where("school_id = ?", schoolID).
		Updates(map[string]interface{}{"last_value": next, "updated_at": time.Now()}).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// Create persists a new receipt. Receipts are immutable; there is no update path.
func (r *GormReceiptRepository) Create(ctx context.Context, receipt *ledger.Receipt) error {
	model := models.ReceiptModelFromDomain(receipt)
	return dbFromContext(ctx, r.db).Create(model).Error
}

// applyFilter applies scope filters, ordering and optionally pagination
func (r *GormReceiptRepository) applyFilter(query *gorm.DB, filter ledger.ReceiptFilter, paginate bool) *gorm.DB {
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.ReceiptType != nil {
		query = query.Where("receipt_type = ?", *filter.ReceiptType)
	}
	if filter.FromDate != nil {
		query = query.Where("date_issued >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date_issued <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		query = query.Where("issued_by ILIKE ?", "%"+filter.Search+"%")
	}

	if paginate {
		orderBy := ValidateSortField(filter.OrderBy, ReceiptSortFields, "sequence")
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
