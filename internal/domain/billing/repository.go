package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Filter defines filtering options for invoice list queries
type Filter struct {
	shared.Filter
	StudentID *uuid.UUID
	ClassID   *uuid.UUID
	Status    *InvoiceStatus
	FromDate  *time.Time
	ToDate    *time.Time
	DueFrom   *time.Time
	DueTo     *time.Time
	Overdue   *bool
}

// Summary aggregates invoice counts per status plus money totals, all
// null-coalesced to zero
type Summary struct {
	TotalInvoices      int64           `json:"total_invoices"`
	DraftCount         int64           `json:"draft_count"`
	SentCount          int64           `json:"sent_count"`
	PartiallyPaidCount int64           `json:"partially_paid_count"`
	PaidCount          int64           `json:"paid_count"`
	OverdueCount       int64           `json:"overdue_count"`
	CancelledCount     int64           `json:"cancelled_count"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	TotalBalance       decimal.Decimal `json:"total_balance"`
}

// Repository defines persistence operations for invoices
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*Invoice, error)

	// FindByIDForUpdate loads the invoice row under a FOR UPDATE lock. Must
	// be called inside a transaction; it serializes concurrent payments
	// against the same invoice.
	FindByIDForUpdate(ctx context.Context, schoolID, id uuid.UUID) (*Invoice, error)

	FindByNumber(ctx context.Context, schoolID uuid.UUID, invoiceNumber string) (*Invoice, error)
	FindAllForSchool(ctx context.Context, schoolID uuid.UUID, filter Filter) ([]Invoice, error)
	CountForSchool(ctx context.Context, schoolID uuid.UUID, filter Filter) (int64, error)

	// NextInvoiceNumber generates the next number in INV-{year}-{seq} form,
	// zero-padded to 4 digits, unique per school and year.
	NextInvoiceNumber(ctx context.Context, schoolID uuid.UUID, year int) (string, error)

	// Create persists the invoice together with its line items
	Create(ctx context.Context, invoice *Invoice) error

	// Save persists header changes and, when items were replaced, deletes
	// the old item set and inserts the new one in the same transaction
	Save(ctx context.Context, invoice *Invoice, replaceItems bool) error

	// AppendPayment persists one payment history entry and the updated
	// header amounts/status together
	AppendPayment(ctx context.Context, invoice *Invoice, payment *InvoicePayment) error

	Delete(ctx context.Context, schoolID, id uuid.UUID) error

	Summarize(ctx context.Context, schoolID uuid.UUID) (*Summary, error)
}
