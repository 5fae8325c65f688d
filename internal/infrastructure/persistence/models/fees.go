package models

import (
	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/shopspring/decimal"
)

// FeeDefinitionModel is the persistence model for the FeeDefinition aggregate root.
// The scope tuple (school, category, class, fee type, academic year) is unique;
// a NULL class_id is the per-category wildcard entry. The composite unique
// index lives in the SQL migrations because it spans the embedded school_id.
type FeeDefinitionModel struct {
	SchoolAggregateModel
	CategoryID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClassID      *uuid.UUID      `gorm:"type:uuid;index"`
	FeeType      fees.FeeType    `gorm:"type:varchar(20);not null;index"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Description  string          `gorm:"type:text"`
	AcademicYear string          `gorm:"type:varchar(9);not null;index"`
}

// TableName returns the table name for GORM
func (FeeDefinitionModel) TableName() string {
	return "fee_definitions"
}

// ToDomain converts the persistence model to a domain FeeDefinition entity.
func (m *FeeDefinitionModel) ToDomain() *fees.FeeDefinition {
	return &fees.FeeDefinition{
		SchoolAggregateRoot: m.ToSchoolAggregateRoot(),
		CategoryID:          m.CategoryID,
		ClassID:             m.ClassID,
		FeeType:             m.FeeType,
		Amount:              m.Amount,
		Description:         m.Description,
		AcademicYear:        m.AcademicYear,
	}
}

// FromDomain populates the persistence model from a domain FeeDefinition entity.
func (m *FeeDefinitionModel) FromDomain(f *fees.FeeDefinition) {
	m.FromDomainSchoolAggregateRoot(f.SchoolAggregateRoot)
	m.CategoryID = f.CategoryID
	m.ClassID = f.ClassID
	m.FeeType = f.FeeType
	m.Amount = f.Amount
	m.Description = f.Description
	m.AcademicYear = f.AcademicYear
}

// FeeDefinitionModelFromDomain creates a new persistence model from a domain FeeDefinition.
func FeeDefinitionModelFromDomain(f *fees.FeeDefinition) *FeeDefinitionModel {
	m := &FeeDefinitionModel{}
	m.FromDomain(f)
	return m
}
