package models

import (
	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/students"
)

// StudentModel is the read-side persistence model for students. The payment
// core never writes this table; student CRUD lives in another service.
type StudentModel struct {
	BaseModel
	SchoolID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClassID   *uuid.UUID `gorm:"type:uuid;index"`
	FirstName string     `gorm:"type:varchar(100);not null"`
	LastName  string     `gorm:"type:varchar(100);not null"`
	Active    bool       `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (StudentModel) TableName() string {
	return "students"
}

// ToDomain converts the persistence model to a domain Student entity.
func (m *StudentModel) ToDomain() *students.Student {
	return &students.Student{
		BaseEntity: m.BaseModel.ToDomain(),
		SchoolID:   m.SchoolID,
		ClassID:    m.ClassID,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		Active:     m.Active,
	}
}
