package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// Invoice numbers are unique per school; the index lives in the SQL migrations.
type InvoiceModel struct {
	SchoolAggregateModel
	InvoiceNumber string                `gorm:"type:varchar(20);not null;index"`
	StudentID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	ClassID       *uuid.UUID            `gorm:"type:uuid;index"`
	IssueDate     time.Time             `gorm:"not null;index"`
	DueDate       time.Time             `gorm:"not null;index"`
	TotalAmount   decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	AmountPaid    decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Balance       decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Status        billing.InvoiceStatus `gorm:"type:varchar(20);not null;index"`
	Notes         string                `gorm:"type:text"`
	Items         []InvoiceItemModel    `gorm:"foreignKey:InvoiceID;references:ID"`
	Payments      []InvoicePaymentModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	items := make([]billing.InvoiceItem, len(m.Items))
	for i, item := range m.Items {
		items[i] = *item.ToDomain()
	}
	payments := make([]billing.InvoicePayment, len(m.Payments))
	for i, p := range m.Payments {
		payments[i] = *p.ToDomain()
	}
	return &billing.Invoice{
		SchoolAggregateRoot: m.ToSchoolAggregateRoot(),
		InvoiceNumber:       m.InvoiceNumber,
		StudentID:           m.StudentID,
		ClassID:             m.ClassID,
		IssueDate:           m.IssueDate,
		DueDate:             m.DueDate,
		TotalAmount:         m.TotalAmount,
		AmountPaid:          m.AmountPaid,
		Balance:             m.Balance,
		Status:              m.Status,
		Notes:               m.Notes,
		Items:               items,
		Payments:            payments,
	}
}

// FromDomain populates the persistence model from a domain Invoice entity.
// Items and payments are mapped separately because their persistence life
// cycle differs from the header's.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainSchoolAggregateRoot(inv.SchoolAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.StudentID = inv.StudentID
	m.ClassID = inv.ClassID
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.TotalAmount = inv.TotalAmount
	m.AmountPaid = inv.AmountPaid
	m.Balance = inv.Balance
	m.Status = inv.Status
	m.Notes = inv.Notes
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceItemModel is the persistence model for invoice line items.
type InvoiceItemModel struct {
	BaseModel
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	FeeID       *uuid.UUID      `gorm:"type:uuid;index"`
	Description string          `gorm:"type:varchar(500);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Quantity    int             `gorm:"not null;default:1"`
	Total       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain InvoiceItem entity.
func (m *InvoiceItemModel) ToDomain() *billing.InvoiceItem {
	return &billing.InvoiceItem{
		BaseEntity:  m.BaseModel.ToDomain(),
		InvoiceID:   m.InvoiceID,
		FeeID:       m.FeeID,
		Description: m.Description,
		Amount:      m.Amount,
		Quantity:    m.Quantity,
		Total:       m.Total,
	}
}

// FromDomain populates the persistence model from a domain InvoiceItem entity.
func (m *InvoiceItemModel) FromDomain(item *billing.InvoiceItem) {
	m.FromDomainBaseEntity(item.BaseEntity)
	m.InvoiceID = item.InvoiceID
	m.FeeID = item.FeeID
	m.Description = item.Description
	m.Amount = item.Amount
	m.Quantity = item.Quantity
	m.Total = item.Total
}

// InvoicePaymentModel is the persistence model for invoice payment history
// entries. Entries are append-only.
type InvoicePaymentModel struct {
	BaseModel
	InvoiceID uuid.UUID            `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Date      time.Time            `gorm:"not null"`
	Method    ledger.PaymentMethod `gorm:"type:varchar(20);not null"`
	ReceiptID *uuid.UUID           `gorm:"type:uuid"`
	Notes     string               `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (InvoicePaymentModel) TableName() string {
	return "invoice_payments"
}

// ToDomain converts the persistence model to a domain InvoicePayment entity.
func (m *InvoicePaymentModel) ToDomain() *billing.InvoicePayment {
	return &billing.InvoicePayment{
		BaseEntity: m.BaseModel.ToDomain(),
		InvoiceID:  m.InvoiceID,
		Amount:     m.Amount,
		Date:       m.Date,
		Method:     m.Method,
		ReceiptID:  m.ReceiptID,
		Notes:      m.Notes,
	}
}

// FromDomain populates the persistence model from a domain InvoicePayment entity.
func (m *InvoicePaymentModel) FromDomain(p *billing.InvoicePayment) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.InvoiceID = p.InvoiceID
	m.Amount = p.Amount
	m.Date = p.Date
	m.Method = p.Method
	m.ReceiptID = p.ReceiptID
	m.Notes = p.Notes
}
