package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFeeRepository implements fees.Repository using GORM.
// Missing rows are reported as (nil, nil); the application layer decides
// whether that is a NOT_FOUND error.
type GormFeeRepository struct {
	db *gorm.DB
}

// NewGormFeeRepository creates a new GormFeeRepository
func NewGormFeeRepository(db *gorm.DB) *GormFeeRepository {
	return &GormFeeRepository{db: db}
}

// FindByID finds a fee definition by its ID
func (r *GormFeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*fees.FeeDefinition, error) {
	var model models.FeeDefinitionModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForSchool finds a fee definition by ID within a school
func (r *GormFeeRepository) FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*fees.FeeDefinition, error) {
	var model models.FeeDefinitionModel
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

// FindByIDForUpdate loads the fee row under a FOR UPDATE lock. Concurrent
// payments against the same fee serialize on this lock so the overpayment
// check reads a stable paid total.
func (r *GormFeeRepository) FindByIDForUpdate(ctx context.Context, schoolID, id uuid.UUID) (*fees.FeeDefinition, error) {
	var model models.FeeDefinitionModel
	if err := dbFromContext(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("school_id = ? AND id = ?", schoolID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindForScope resolves the fee applicable to the scope tuple. An exact
// class match wins over the per-category wildcard (NULL class_id), expressed
// by ordering non-null class rows first and taking the first hit.
func (r *GormFeeRepository) FindForScope(ctx context.Context, schoolID uuid.UUID, categoryID, classID uuid.UUID, feeType fees.FeeType, academicYear string) (*fees.FeeDefinition, error) {
	var model models.FeeDefinitionModel
	if err := dbFromContext(ctx, r.db).
		Where("school_id = ? AND category_id = ? AND fee_type = ? AND academic_year = ?",
			schoolID, categoryID, feeType, academicYear).
		Where("class_id = ? OR class_id IS NULL", classID).
		Order("class_id IS NOT NULL DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsForScope reports whether a fee already covers the exact scope tuple
func (r *GormFeeRepository) ExistsForScope(ctx context.Context, schoolID uuid.UUID, scope fees.Scope) (bool, error) {
	query := dbFromContext(ctx, r.db).Model(&models.FeeDefinitionModel{}).
		Where("school_id = ? AND category_id = ? AND fee_type = ? AND academic_year = ?",
			schoolID, scope.CategoryID, scope.FeeType, scope.AcademicYear)
	if scope.ClassID == nil {
		query = query.Where("class_id IS NULL")
	} else {
		query = query.Where("class_id = ?", *scope.ClassID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAllForSchool finds all fee definitions for a school matching the filter
func (r *GormFeeRepository) FindAllForSchool(ctx context.Context, schoolID uuid.UUID, filter fees.Filter) ([]fees.FeeDefinition, error) {
	var feeModels []models.FeeDefinitionModel
	query := r.applyFilter(
		dbFromContext(ctx, r.db).Model(&models.FeeDefinitionModel{}).Where("school_id = ?", schoolID),
		filter, true,
	)

	if err := query.Find(&feeModels).Error; err != nil {
		return nil, err
	}

	result := make([]fees.FeeDefinition, len(feeModels))
	for i, model := range feeModels {
		result[i] = *model.ToDomain()
	}
	return result, nil
}

// CountForSchool counts fee definitions for a school matching the filter
func (r *GormFeeRepository) CountForSchool(ctx context.Context, schoolID uuid.UUID, filter fees.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(
		dbFromContext(ctx, r.db).Model(&models.FeeDefinitionModel{}).Where("school_id = ?", schoolID),
		filter, false,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a fee definition
func (r *GormFeeRepository) Save(ctx context.Context, fee *fees.FeeDefinition) error {
	model := models.FeeDefinitionModelFromDomain(fee)
	return dbFromContext(ctx, r.db).Save(model).Error
}

// Delete removes a fee definition. The application layer has already verified
// that no payments reference it.
func (r *GormFeeRepository) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	return dbFromContext(ctx, r.db).
		Where("school_id = ? AND id = ?", schoolID, id).
		Delete(&models.FeeDefinitionModel{}).Error
}

// applyFilter applies scope filters, ordering and optionally pagination
func (r *GormFeeRepository) applyFilter(query *gorm.DB, filter fees.Filter, paginate bool) *gorm.DB {
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.ClassID != nil {
		query = query.Where("class_id = ?", *filter.ClassID)
	}
	if filter.FeeType != nil {
		query = query.Where("fee_type = ?", *filter.FeeType)
	}
	if filter.AcademicYear != "" {
		query = query.Where("academic_year = ?", filter.AcademicYear)
	}
	if filter.Search != "" {
		query = query.Where("description ILIKE ?", "%"+filter.Search+"%")
	}

	if paginate {
		orderBy := ValidateSortField(filter.OrderBy, FeeSortFields, "created_at")
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
