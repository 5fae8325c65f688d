package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/ledger"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
	InvoiceStatusCancelled     InvoiceStatus = "cancelled"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// InvoiceItem is a line item owned exclusively by its invoice
type InvoiceItem struct {
	shared.BaseEntity
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	FeeID       *uuid.UUID      `json:"fee_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
}

// NewInvoiceItem creates a line item; total is always amount x quantity
func NewInvoiceItem(description string, amount valueobject.Money, quantity int, feeID *uuid.UUID) (InvoiceItem, error) {
	if strings.TrimSpace(description) == "" {
		return InvoiceItem{}, shared.NewValidationError("Item description cannot be empty")
	}
	if amount.IsNegative() || amount.IsZero() {
		return InvoiceItem{}, shared.NewValidationError("Item amount must be greater than zero")
	}
	if quantity <= 0 {
		return InvoiceItem{}, shared.NewValidationError("Item quantity must be at least 1")
	}
	return InvoiceItem{
		BaseEntity:  shared.NewBaseEntity(),
		FeeID:       feeID,
		Description: description,
		Amount:      amount.Amount(),
		Quantity:    quantity,
		Total:       amount.Amount().Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// InvoicePayment is a payment applied specifically to an invoice, recorded
// in the invoice's payment history
type InvoicePayment struct {
	shared.BaseEntity
	InvoiceID uuid.UUID            `json:"invoice_id"`
	Amount    decimal.Decimal      `json:"amount"`
	Date      time.Time            `json:"date"`
	Method    ledger.PaymentMethod `json:"method"`
	ReceiptID *uuid.UUID           `json:"receipt_id"`
	Notes     string               `json:"notes"`
}

// Invoice is a billable document aggregating one or more fee line items for
// a student. Balance and status are stored denormalized for query performance
// but are recomputed inside the same transaction as every mutation that
// affects their inputs.
type Invoice struct {
	shared.SchoolAggregateRoot
	InvoiceNumber string           `json:"invoice_number"`
	StudentID     uuid.UUID        `json:"student_id"`
	ClassID       *uuid.UUID       `json:"class_id"`
	IssueDate     time.Time        `json:"issue_date"`
	DueDate       time.Time        `json:"due_date"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	AmountPaid    decimal.Decimal  `json:"amount_paid"`
	Balance       decimal.Decimal  `json:"balance"`
	Status        InvoiceStatus    `json:"status"`
	Notes         string           `json:"notes"`
	Items         []InvoiceItem    `json:"items"`
	Payments      []InvoicePayment `json:"payments"`
}

// NewInvoice creates an invoice with its line items in one unit.
// Fails validation if items are empty or either date is missing.
func NewInvoice(
	schoolID uuid.UUID,
	invoiceNumber string,
	studentID uuid.UUID,
	issueDate, dueDate time.Time,
	items []InvoiceItem,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewValidationError("Invoice number cannot be empty")
	}
	if studentID == uuid.Nil {
		return nil, shared.NewValidationError("Student ID cannot be empty")
	}
	if issueDate.IsZero() || dueDate.IsZero() {
		return nil, shared.NewValidationError("Issue date and due date are required")
	}
	if len(items) == 0 {
		return nil, shared.NewValidationError("Invoice must have at least one line item")
	}

	inv := &Invoice{
		SchoolAggregateRoot: shared.NewSchoolAggregateRoot(schoolID),
		InvoiceNumber:       invoiceNumber,
		StudentID:           studentID,
		IssueDate:           issueDate,
		DueDate:             dueDate,
		AmountPaid:          decimal.Zero,
		Status:              InvoiceStatusDraft,
	}
	inv.attachItems(items)
	return inv, nil
}

func (inv *Invoice) attachItems(items []InvoiceItem) {
	total := decimal.Zero
	for i := range items {
		items[i].InvoiceID = inv.ID
		total = total.Add(items[i].Total)
	}
	inv.Items = items
	inv.TotalAmount = total
	inv.Balance = inv.TotalAmount.Sub(inv.AmountPaid)
}

// ChargeKind implements ledger.ChargeSource
func (inv *Invoice) ChargeKind() ledger.ChargeKind {
	return ledger.ChargeKindInvoice
}

// ChargeTotal implements ledger.ChargeSource
func (inv *Invoice) ChargeTotal() decimal.Decimal {
	return inv.TotalAmount
}

// ChargePaid implements ledger.ChargeSource
func (inv *Invoice) ChargePaid() decimal.Decimal {
	return inv.AmountPaid
}

// RefreshStatus re-derives the status from balance, amount paid and due
// date. Cancelled is sticky and excluded from recomputation; draft/sent are
// preserved when no other rule applies. The derivation is deterministic: the
// same inputs always yield the same status, regardless of call order.
func (inv *Invoice) RefreshStatus(now time.Time) {
	if inv.Status == InvoiceStatusCancelled {
		return
	}
	switch {
	case inv.Balance.LessThanOrEqual(decimal.Zero):
		inv.Status = InvoiceStatusPaid
	case inv.AmountPaid.GreaterThan(decimal.Zero):
		inv.Status = InvoiceStatusPartiallyPaid
	case now.After(inv.DueDate):
		inv.Status = InvoiceStatusOverdue
	default:
		// remains draft or sent, whichever was last explicitly set
		if inv.Status != InvoiceStatusDraft && inv.Status != InvoiceStatusSent {
			inv.Status = InvoiceStatusDraft
		}
	}
}

// MarkSent flips a draft invoice to sent
func (inv *Invoice) MarkSent() error {
	if inv.Status == InvoiceStatusCancelled || inv.Status == InvoiceStatusPaid {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot send invoice in %s status", inv.Status))
	}
	inv.Status = InvoiceStatusSent
	inv.RefreshStatus(time.Now())
	inv.Touch()
	inv.IncrementVersion()
	return nil
}

// ReplaceItems swaps the full item set and recomputes the total. The old
// items are deleted and the new set inserted in the same transaction by the
// repository.
func (inv *Invoice) ReplaceItems(items []InvoiceItem) error {
	if inv.Status == InvoiceStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a cancelled invoice")
	}
	if len(items) == 0 {
		return shared.NewValidationError("Invoice must have at least one line item")
	}
	inv.attachItems(items)
	inv.RefreshStatus(time.Now())
	inv.Touch()
	inv.IncrementVersion()
	return nil
}

// RecordPayment applies a payment to the invoice: validates it against the
// shared overpayment rule, appends a payment history entry, updates the
// cumulative paid amount and re-derives the status.
func (inv *Invoice) RecordPayment(
	amount valueobject.Money,
	date time.Time,
	method ledger.PaymentMethod,
	notes string,
) (*InvoicePayment, error) {
	if inv.Status == InvoiceStatusCancelled {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot record a payment on a cancelled invoice")
	}
	if err := ledger.ValidatePayment(inv, amount.Amount()); err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = time.Now()
	}
	if method == "" {
		method = ledger.PaymentMethodCash
	}

	entry := InvoicePayment{
		BaseEntity: shared.NewBaseEntity(),
		InvoiceID:  inv.ID,
		Amount:     amount.Amount(),
		Date:       date,
		Method:     method,
		Notes:      notes,
	}
	inv.Payments = append(inv.Payments, entry)
	inv.AmountPaid = inv.AmountPaid.Add(amount.Amount())
	inv.Balance = inv.TotalAmount.Sub(inv.AmountPaid)
	inv.RefreshStatus(time.Now())
	inv.Touch()
	inv.IncrementVersion()

	return &inv.Payments[len(inv.Payments)-1], nil
}

// Cancel sets the sticky cancelled status and appends the reason to notes.
// A fully paid invoice cannot be cancelled.
func (inv *Invoice) Cancel(reason string) error {
	if inv.Status == InvoiceStatusPaid {
		return shared.NewConflictError("Cannot cancel an invoice that is already paid")
	}
	inv.Status = InvoiceStatusCancelled
	if reason != "" {
		if inv.Notes != "" {
			inv.Notes += "\n"
		}
		inv.Notes += "Cancelled: " + reason
	}
	inv.Touch()
	inv.IncrementVersion()
	return nil
}

// CanDelete returns true if the invoice may be deleted
func (inv *Invoice) CanDelete() bool {
	return inv.Status != InvoiceStatusPaid
}

// IsOverdue returns true if the invoice is past due and still owed
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if inv.Status == InvoiceStatusPaid || inv.Status == InvoiceStatusCancelled {
		return false
	}
	return now.After(inv.DueDate) && inv.Balance.GreaterThan(decimal.Zero)
}

// SetNotes replaces the free-form notes
func (inv *Invoice) SetNotes(notes string) {
	inv.Notes = notes
	inv.Touch()
	inv.IncrementVersion()
}

// Ensure Invoice implements ledger.ChargeSource
var _ ledger.ChargeSource = (*Invoice)(nil)
