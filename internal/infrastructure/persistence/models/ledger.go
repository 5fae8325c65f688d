package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	SchoolAggregateModel
	StudentID            uuid.UUID            `gorm:"type:uuid;not null;index"`
	FeeID                uuid.UUID            `gorm:"type:uuid;not null;index"`
	AmountPaid           decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	PaymentDate          time.Time            `gorm:"not null;index"`
	Method               ledger.PaymentMethod `gorm:"type:varchar(20);not null"`
	TransactionReference string               `gorm:"type:varchar(100)"`
	InstallmentNumber    int                  `gorm:"not null;default:1"`
	RecordedBy           *uuid.UUID           `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *ledger.Payment {
	return &ledger.Payment{
		SchoolAggregateRoot:  m.ToSchoolAggregateRoot(),
		StudentID:            m.StudentID,
		FeeID:                m.FeeID,
		AmountPaid:           m.AmountPaid,
		PaymentDate:          m.PaymentDate,
		Method:               m.Method,
		TransactionReference: m.TransactionReference,
		InstallmentNumber:    m.InstallmentNumber,
		RecordedBy:           m.RecordedBy,
	}
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(p *ledger.Payment) {
	m.FromDomainSchoolAggregateRoot(p.SchoolAggregateRoot)
	m.StudentID = p.StudentID
	m.FeeID = p.FeeID
	m.AmountPaid = p.AmountPaid
	m.PaymentDate = p.PaymentDate
	m.Method = p.Method
	m.TransactionReference = p.TransactionReference
	m.InstallmentNumber = p.InstallmentNumber
	m.RecordedBy = p.RecordedBy
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *ledger.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// ReceiptModel is the persistence model for the Receipt aggregate root.
// The sequence is unique per school; the printed number is derived from it
// at read time and never stored. The (school_id, sequence) unique index
// lives in the SQL migrations.
type ReceiptModel struct {
	SchoolAggregateModel
	Sequence       int64           `gorm:"not null;index"`
	StudentID      *uuid.UUID      `gorm:"type:uuid;index"`
	RegistrationID *uuid.UUID      `gorm:"type:uuid;index"`
	PaymentID      *uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_receipt_payment"`
	ReceiptType    fees.FeeType    `gorm:"type:varchar(20);not null;index"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IssuedBy       string          `gorm:"type:varchar(200)"`
	DateIssued     time.Time       `gorm:"not null;index"`
	Venue          string          `gorm:"type:varchar(200)"`
	ExamDate       *time.Time
	LogoURL        string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ReceiptModel) TableName() string {
	return "receipts"
}

// ToDomain converts the persistence model to a domain Receipt entity.
func (m *ReceiptModel) ToDomain() *ledger.Receipt {
	return &ledger.Receipt{
		SchoolAggregateRoot: m.ToSchoolAggregateRoot(),
		Sequence:            m.Sequence,
		StudentID:           m.StudentID,
		RegistrationID:      m.RegistrationID,
		PaymentID:           m.PaymentID,
		ReceiptType:         m.ReceiptType,
		Amount:              m.Amount,
		IssuedBy:            m.IssuedBy,
		DateIssued:          m.DateIssued,
		Venue:               m.Venue,
		ExamDate:            m.ExamDate,
		LogoURL:             m.LogoURL,
	}
}

// FromDomain populates the persistence model from a domain Receipt entity.
func (m *ReceiptModel) FromDomain(r *ledger.Receipt) {
	m.FromDomainSchoolAggregateRoot(r.SchoolAggregateRoot)
	m.Sequence = r.Sequence
	m.StudentID = r.StudentID
	m.RegistrationID = r.RegistrationID
	m.PaymentID = r.PaymentID
	m.ReceiptType = r.ReceiptType
	m.Amount = r.Amount
	m.IssuedBy = r.IssuedBy
	m.DateIssued = r.DateIssued
	m.Venue = r.Venue
	m.ExamDate = r.ExamDate
	m.LogoURL = r.LogoURL
}

// ReceiptModelFromDomain creates a new persistence model from a domain Receipt.
func ReceiptModelFromDomain(r *ledger.Receipt) *ReceiptModel {
	m := &ReceiptModel{}
	m.FromDomain(r)
	return m
}

// ReceiptSequenceModel holds the per-school receipt counter. The row is
// locked FOR UPDATE while a receipt is issued so sequences never collide.
type ReceiptSequenceModel struct {
	SchoolID  uuid.UUID `gorm:"type:uuid;primary_key"`
	LastValue int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReceiptSequenceModel) TableName() string {
	return "receipt_sequences"
}
