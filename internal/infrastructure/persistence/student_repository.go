package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/students"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStudentRepository implements the read-side students.Repository using GORM
type GormStudentRepository struct {
	db *gorm.DB
}

// NewGormStudentRepository creates a new GormStudentRepository
func NewGormStudentRepository(db *gorm.DB) *GormStudentRepository {
	return &GormStudentRepository{db: db}
}

// FindByIDForSchool finds a student by ID within a school
func (r *GormStudentRepository) FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*students.Student, error) {
	var model models.StudentModel
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

// ExistsForSchool reports whether the student belongs to the school
func (r *GormStudentRepository) ExistsForSchool(ctx context.Context, schoolID, id uuid.UUID) (bool, error) {
	var count int64
	err := dbFromContext(ctx, r.db).Model(&models.StudentModel{}).
		Where("school_id = ? AND id = ?", schoolID, id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
